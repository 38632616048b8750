package account

import (
	"context"
	"time"

	"margin/core"
	"margin/pkg/margin"

	"github.com/shopspring/decimal"
)

type accountService struct {
	marketStore          core.IMarketStore
	expiryStore          core.IExpiryStore
	oracle               core.IPriceOracle
	minCollateralization core.Ratio
}

// New collateralization evaluator
func New(
	marketStore core.IMarketStore,
	expiryStore core.IExpiryStore,
	oracle core.IPriceOracle,
	minCollateralization core.Ratio,
) core.IAccountService {
	return &accountService{
		marketStore:          marketStore,
		expiryStore:          expiryStore,
		oracle:               oracle,
		minCollateralization: minCollateralization,
	}
}

func (s *accountService) Evaluate(ctx context.Context, balances core.Balances) (*core.AccountValues, error) {
	markets, err := s.marketStore.AllAsMap(ctx)
	if err != nil {
		return nil, err
	}

	ids := balances.MarketIDs()
	prices := make(map[uint64]decimal.Decimal, len(ids))
	for _, id := range ids {
		price, err := s.oracle.GetPrice(ctx, id)
		if err != nil {
			return nil, err
		}

		prices[id] = price.Value
	}

	return margin.AccountValues(balances, prices, markets)
}

func (s *accountService) IsLiquidatable(ctx context.Context, balances core.Balances) (bool, error) {
	values, err := s.Evaluate(ctx, balances)
	if err != nil {
		return false, err
	}

	return margin.IsLiquidatable(values, s.minCollateralization), nil
}

func (s *accountService) IsCollateralized(ctx context.Context, balances core.Balances) (bool, error) {
	liquidatable, err := s.IsLiquidatable(ctx, balances)
	return !liquidatable, err
}

func (s *accountService) IsExpired(ctx context.Context, account core.AccountID, marketID uint64, t time.Time) (bool, error) {
	expiry, err := s.expiryStore.Find(ctx, account, marketID)
	if err != nil || expiry == nil {
		return false, err
	}

	return margin.IsExpired(expiry.ExpiresAt, t), nil
}
