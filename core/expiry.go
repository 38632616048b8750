package core

import (
	"context"
	"time"
)

// Expiry time tag on the debt of an account in one market
type Expiry struct {
	ID        int64     `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id,omitempty"`
	Owner     string    `sql:"size:64;unique_index:idx_expiries_account_market" json:"owner"`
	Number    uint64    `sql:"unique_index:idx_expiries_account_market" json:"number"`
	MarketID  uint64    `sql:"unique_index:idx_expiries_account_market" json:"market_id"`
	ExpiresAt time.Time `sql:"index:idx_expiries_expires_at" json:"expires_at"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at,omitempty"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at,omitempty"`
}

// Account the tagged account
func (e *Expiry) Account() AccountID {
	return AccountID{Owner: e.Owner, Number: e.Number}
}

// IExpiryStore expiry tags
type IExpiryStore interface {
	Set(ctx context.Context, expiry *Expiry) error
	// Find returns nil, nil when no tag exists
	Find(ctx context.Context, account AccountID, marketID uint64) (*Expiry, error)
	Delete(ctx context.Context, account AccountID, marketID uint64) error
	// ListExpired tags with ExpiresAt before t
	ListExpired(ctx context.Context, t time.Time, limit int) ([]*Expiry, error)
}
