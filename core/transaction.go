package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

const (
	// TransactionKeySolid solid account :string
	TransactionKeySolid = "solid"
	// TransactionKeyHeldMarket held market :uint64
	TransactionKeyHeldMarket = "held_market"
	// TransactionKeyOwedMarket owed market :uint64
	TransactionKeyOwedMarket = "owed_market"
	// TransactionKeyHeldAmount held amount :decimal
	TransactionKeyHeldAmount = "held_amount"
	// TransactionKeyOwedAmount owed amount :decimal
	TransactionKeyOwedAmount = "owed_amount"
	// TransactionKeyOutputAmount realized output :decimal
	TransactionKeyOutputAmount = "output_amount"
	// TransactionKeyPath market path :string
	TransactionKeyPath = "path"
	// TransactionKeyState orchestrator state :string
	TransactionKeyState = "state"
	// TransactionKeyErrorCode error code
	TransactionKeyErrorCode = "error_code"
	// TransactionKeyError error message
	TransactionKeyError = "error"
	// TransactionKeyActionKey async action key :string
	TransactionKeyActionKey = "action_key"
	// TransactionKeyExecuted callback executed :bool
	TransactionKeyExecuted = "executed"
	// TransactionKeyRetryable callback retryable :bool
	TransactionKeyRetryable = "retryable"
	// TransactionKeyCaller caller :string
	TransactionKeyCaller = "caller"
)

// TransactionAction operation recorded in the audit log
type TransactionAction string

const (
	TransactionActionLiquidate          TransactionAction = "liquidate"
	TransactionActionPrepareLiquidation TransactionAction = "prepare_liquidation"
	TransactionActionSubmitWithdrawal   TransactionAction = "submit_withdrawal"
	TransactionActionSubmitDeposit      TransactionAction = "submit_deposit"
	TransactionActionWithdrawalCallback TransactionAction = "withdrawal_callback"
	TransactionActionDepositCallback    TransactionAction = "deposit_callback"
	TransactionActionCancel             TransactionAction = "cancel"
	TransactionActionUnwind             TransactionAction = "unwind"
)

type ExtraDataFormatter interface {
	Format() []byte
}

// TransactionExtraData extra data
type TransactionExtraData map[string]interface{}

// NewTransactionExtra new transaction extra instance
func NewTransactionExtra() TransactionExtraData {
	d := make(TransactionExtraData)
	return d
}

// Put put data
func (t TransactionExtraData) Put(key string, value interface{}) {
	t[key] = value
}

// PutError records err and its code when it carries one
func (t TransactionExtraData) PutError(err error) {
	if err == nil {
		return
	}

	t.Put(TransactionKeyError, err.Error())
	var code ErrorCode
	if AsErrorCode(err, &code) {
		t.Put(TransactionKeyErrorCode, int(code))
	}
}

// Format format as []byte by default
func (t TransactionExtraData) Format() []byte {
	bs, e := json.Marshal(t)
	if e != nil {
		return []byte("{}")
	}

	return bs
}

type TransactionStatus int

const (
	TransactionStatusInit TransactionStatus = iota
	TransactionStatusComplete
	TransactionStatusAbort
)

// Transaction audit record of one liquidation or async transition
type Transaction struct {
	ID       int64             `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id,omitempty"`
	Action   TransactionAction `sql:"size:32" json:"action,omitempty"`
	TraceID  string            `sql:"size:36;unique_index:idx_transactions_trace_id" json:"trace_id,omitempty"`
	Owner    string            `sql:"size:64;index:idx_transactions_account" json:"owner,omitempty"`
	Number   uint64            `sql:"index:idx_transactions_account" json:"number,omitempty"`
	MarketID uint64            `json:"market_id,omitempty"`
	Amount   decimal.Decimal   `sql:"type:decimal(64,0)" json:"amount,omitempty"`
	Data     types.JSONText    `sql:"type:TEXT" json:"data,omitempty"`
	Status   TransactionStatus `sql:"default:1" json:"status,omitempty"`
	Version  int64             `sql:"default:0" json:"version,omitempty"`
	// index for List
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP;index:idx_transactions_created_at" json:"created_at,omitempty"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at,omitempty"`
}

// Account the account the record belongs to
func (t *Transaction) Account() AccountID {
	return AccountID{Owner: t.Owner, Number: t.Number}
}

func (t *Transaction) SetExtraData(extra ExtraDataFormatter) {
	data := []byte("{}")
	if extra != nil {
		data = extra.Format()
	}

	t.Data = data
}

// BuildTransaction audit record of action against account
func BuildTransaction(traceID string, action TransactionAction, account AccountID, marketID uint64, amount decimal.Decimal, err error, extra TransactionExtraData) *Transaction {
	if extra == nil {
		extra = NewTransactionExtra()
	}

	status := TransactionStatusComplete
	if err != nil {
		status = TransactionStatusAbort
		extra.PutError(err)
	}

	t := &Transaction{
		Action:   action,
		TraceID:  traceID,
		Owner:    account.Owner,
		Number:   account.Number,
		MarketID: marketID,
		Amount:   amount,
		Status:   status,
	}
	t.SetExtraData(extra)
	return t
}

// TransactionStore transaction store interface
type TransactionStore interface {
	Create(ctx context.Context, transaction *Transaction) error
	// FindByTraceID returns nil, nil if not exist
	FindByTraceID(ctx context.Context, traceID string) (*Transaction, error)
	List(ctx context.Context, offset time.Time, limit int) ([]*Transaction, error)
	ListByAccount(ctx context.Context, account AccountID, limit int) ([]*Transaction, error)
}
