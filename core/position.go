package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// IPositionService owner operations on a margin account, all freeze aware
type IPositionService interface {
	Deposit(ctx context.Context, account AccountID, marketID uint64, amount decimal.Decimal) error
	// Withdraw reduces the balance, borrowing when it goes negative
	Withdraw(ctx context.Context, account AccountID, marketID uint64, amount decimal.Decimal) error
	Repay(ctx context.Context, account AccountID, marketID uint64, amount decimal.Decimal) error
	SetExpiry(ctx context.Context, account AccountID, marketID uint64, expiresAt time.Time) error
	ClearExpiry(ctx context.Context, account AccountID, marketID uint64) error
}

// Candidate a liquidatable account with candidate plans, best first
type Candidate struct {
	Liquid AccountID  `json:"liquid"`
	Expiry *time.Time `json:"expiry,omitempty"`
	Plans  []*Plan    `json:"plans"`
	// the account must be unwrapped through the freezable vault first
	NeedsPrepare bool                       `json:"needs_prepare,omitempty"`
	Prepare      *PrepareLiquidationRequest `json:"prepare,omitempty"`
}

// IPlanner builds candidate plans for liquidatable accounts
type IPlanner interface {
	Candidates(ctx context.Context, solid AccountID) ([]*Candidate, error)
	Plans(ctx context.Context, liquid AccountID, expiry *time.Time) ([]*Plan, error)
}
