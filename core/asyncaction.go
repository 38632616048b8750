package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AsyncActionType withdrawal (unwrap) or deposit (wrap)
type AsyncActionType int

const (
	AsyncActionWithdrawal AsyncActionType = iota + 1
	AsyncActionDeposit
)

func (t AsyncActionType) String() string {
	switch t {
	case AsyncActionWithdrawal:
		return "withdrawal"
	case AsyncActionDeposit:
		return "deposit"
	default:
		return "unknown"
	}
}

// AsyncActionStatus lifecycle of an async action
type AsyncActionStatus int

const (
	// AsyncActionPending submitted, callback not received
	AsyncActionPending AsyncActionStatus = iota
	// AsyncActionExecuted callback received, proceeds held for liquidation
	AsyncActionExecuted
)

// AsyncAction an outstanding request against the async redemption system; freezes its account
type AsyncAction struct {
	ID              int64             `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id,omitempty"`
	Key             string            `gorm:"column:action_key" sql:"size:66;unique_index:idx_async_actions_key" json:"key"`
	Type            AsyncActionType   `json:"type"`
	Status          AsyncActionStatus `json:"status"`
	Owner           string            `sql:"size:64;index:idx_async_actions_account" json:"owner"`
	Number          uint64            `sql:"index:idx_async_actions_account" json:"number"`
	InputMarketID   uint64            `json:"input_market_id"`
	InputAmount     decimal.Decimal   `sql:"type:decimal(64,0)" json:"input_amount"`
	OutputMarketID  uint64            `json:"output_market_id"`
	MinOutputAmount decimal.Decimal   `sql:"type:decimal(64,0)" json:"min_output_amount"`
	OutputAmount    decimal.Decimal   `sql:"type:decimal(64,0)" json:"output_amount"`
	Retryable       bool              `json:"retryable"`
	IsLiquidation   bool              `json:"is_liquidation"`
	// requester, the liquidator's owner for liquidations
	Requester    string `sql:"size:64" json:"requester"`
	SolidOwner   string `sql:"size:64" json:"solid_owner,omitempty"`
	SolidNumber  uint64 `json:"solid_number,omitempty"`
	OwedMarketID uint64 `json:"owed_market_id,omitempty"`
	// expiry liquidations only
	Expiry    *time.Time `json:"expiry,omitempty"`
	Version   int64      `sql:"default:0" json:"version"`
	CreatedAt time.Time  `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time  `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Account the frozen account
func (a *AsyncAction) Account() AccountID {
	return AccountID{Owner: a.Owner, Number: a.Number}
}

// Solid the liquidator account of a liquidation withdrawal
func (a *AsyncAction) Solid() AccountID {
	return AccountID{Owner: a.SolidOwner, Number: a.SolidNumber}
}

// FreezeState of an account
type FreezeState int

const (
	Unfrozen FreezeState = iota
	FrozenPendingWithdrawal
	FrozenPendingDeposit
)

func (s FreezeState) String() string {
	switch s {
	case FrozenPendingWithdrawal:
		return "frozen_pending_withdrawal"
	case FrozenPendingDeposit:
		return "frozen_pending_deposit"
	default:
		return "unfrozen"
	}
}

// FreezeStateOf derives the freeze state of an account from its outstanding actions
func FreezeStateOf(actions []*AsyncAction) FreezeState {
	state := Unfrozen
	for _, action := range actions {
		switch action.Type {
		case AsyncActionWithdrawal:
			return FrozenPendingWithdrawal
		case AsyncActionDeposit:
			state = FrozenPendingDeposit
		}
	}

	return state
}

// IAsyncActionStore outstanding async actions
type IAsyncActionStore interface {
	Create(ctx context.Context, action *AsyncAction) error
	// Find returns nil, nil if not exist
	Find(ctx context.Context, key string) (*AsyncAction, error)
	FindByAccount(ctx context.Context, account AccountID) ([]*AsyncAction, error)
	Update(ctx context.Context, action *AsyncAction) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, status AsyncActionStatus, limit int) ([]*AsyncAction, error)
}

// WithdrawalRequest submitted to the async redemption system
type WithdrawalRequest struct {
	Account         AccountID       `json:"account"`
	InputMarketID   uint64          `json:"input_market_id"`
	InputAmount     decimal.Decimal `json:"input_amount"`
	OutputMarketID  uint64          `json:"output_market_id"`
	MinOutputAmount decimal.Decimal `json:"min_output_amount"`
	IsLiquidation   bool            `json:"is_liquidation"`
}

// DepositRequest submitted to the async redemption system
type DepositRequest struct {
	Account         AccountID       `json:"account"`
	InputMarketID   uint64          `json:"input_market_id"`
	InputAmount     decimal.Decimal `json:"input_amount"`
	OutputMarketID  uint64          `json:"output_market_id"`
	MinOutputAmount decimal.Decimal `json:"min_output_amount"`
}

// RedemptionOutcome callback payload
type RedemptionOutcome struct {
	// false: cancelled / failed by the external system
	Executed     bool            `json:"executed"`
	OutputAmount decimal.Decimal `json:"output_amount"`
	// false: unrecoverable without manual intervention
	Retryable bool `json:"retryable"`
}

// RedemptionSystem the external async redemption system
type RedemptionSystem interface {
	SubmitWithdrawal(ctx context.Context, req *WithdrawalRequest) (string, error)
	SubmitDeposit(ctx context.Context, req *DepositRequest) (string, error)
	Cancel(ctx context.Context, key string) error
}

// IRedemptionCallback receiver of redemption outcomes
type IRedemptionCallback interface {
	OnWithdrawalCallback(ctx context.Context, key string, outcome *RedemptionOutcome) error
	OnDepositCallback(ctx context.Context, key string, outcome *RedemptionOutcome) error
}

// PrepareLiquidationRequest freeze & unwrap a liquidatable isolated position
type PrepareLiquidationRequest struct {
	Solid          AccountID       `json:"solid"`
	Liquid         AccountID       `json:"liquid"`
	InputMarketID  uint64          `json:"input_market_id"`
	InputAmount    decimal.Decimal `json:"input_amount"`
	OutputMarketID uint64          `json:"output_market_id"`
	OwedMarketID   uint64          `json:"owed_market_id"`
	Expiry         *time.Time      `json:"expiry,omitempty"`
	// encodes the min output amount
	TradeData []byte `json:"trade_data"`
}

// IFreezableVaultService async redemption state machine
type IFreezableVaultService interface {
	IRedemptionCallback
	FreezeState(ctx context.Context, account AccountID) (FreezeState, error)
	SubmitWithdrawal(ctx context.Context, req *WithdrawalRequest) (*AsyncAction, error)
	SubmitDeposit(ctx context.Context, req *DepositRequest) (*AsyncAction, error)
	PrepareForLiquidation(ctx context.Context, req *PrepareLiquidationRequest) (*AsyncAction, error)
	Cancel(ctx context.Context, caller, key string) error
	Unwind(ctx context.Context, caller, key string) error
}
