package core

import (
	"context"

	"github.com/lib/pq"
)

// WhitelistMode liquidator restriction of a market
type WhitelistMode int

const (
	// WhitelistModeUnrestricted anyone may liquidate
	WhitelistModeUnrestricted WhitelistMode = iota
	// WhitelistModeRestricted only listed liquidators, removing the last one lifts the restriction
	WhitelistModeRestricted
)

func (m WhitelistMode) String() string {
	if m == WhitelistModeRestricted {
		return "restricted"
	}
	return "unrestricted"
}

// WhitelistPolicy liquidators allowed for one market
type WhitelistPolicy struct {
	MarketID    uint64         `json:"market_id"`
	Mode        WhitelistMode  `json:"mode"`
	Liquidators pq.StringArray `sql:"type:varchar(1024)" json:"liquidators,omitempty"`
}

// Allows whether liquidator passes the policy
func (p *WhitelistPolicy) Allows(liquidator string) bool {
	if p == nil || p.Mode == WhitelistModeUnrestricted {
		return true
	}

	for _, l := range p.Liquidators {
		if l == liquidator {
			return true
		}
	}

	return false
}

// ILiquidatorRegistry liquidator asset whitelist
type ILiquidatorRegistry interface {
	IsLiquidatorWhitelisted(ctx context.Context, marketID uint64, liquidator string) (bool, error)
	Policy(ctx context.Context, marketID uint64) (*WhitelistPolicy, error)
	// owner gated mutations
	AddLiquidator(ctx context.Context, caller string, marketID uint64, liquidator string) error
	RemoveLiquidator(ctx context.Context, caller string, marketID uint64, liquidator string) error
	SetUnrestricted(ctx context.Context, caller string, marketID uint64) error
}

// IWhitelistStore persisted whitelist policies
type IWhitelistStore interface {
	// Find returns nil, nil when the market has no policy
	Find(ctx context.Context, marketID uint64) (*WhitelistPolicy, error)
	Save(ctx context.Context, policy *WhitelistPolicy) error
}
