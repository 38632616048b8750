package position

import (
	"context"
	"time"

	"margin/core"
	"margin/pkg/margin"
	"margin/pkg/number"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

type positionService struct {
	ledger   core.Ledger
	markets  core.IMarketStore
	accounts core.IAccountService
	expiries core.IExpiryStore
	actions  core.IAsyncActionStore
}

// New owner operations, rejected while the account is frozen
func New(
	ledger core.Ledger,
	markets core.IMarketStore,
	accounts core.IAccountService,
	expiries core.IExpiryStore,
	actions core.IAsyncActionStore,
) core.IPositionService {
	return &positionService{
		ledger:   ledger,
		markets:  markets,
		accounts: accounts,
		expiries: expiries,
		actions:  actions,
	}
}

func (s *positionService) Deposit(ctx context.Context, account core.AccountID, marketID uint64, amount decimal.Decimal) error {
	if err := s.check(ctx, account, marketID, amount); err != nil {
		return err
	}

	return s.ledger.Tx(ctx, func(tx core.LedgerTx) error {
		return tx.Add(ctx, account, marketID, amount)
	})
}

func (s *positionService) Withdraw(ctx context.Context, account core.AccountID, marketID uint64, amount decimal.Decimal) error {
	log := logger.FromContext(ctx).WithField("account", account.String())

	if err := s.check(ctx, account, marketID, amount); err != nil {
		return err
	}

	markets, err := s.markets.AllAsMap(ctx)
	if err != nil {
		return err
	}

	err = s.ledger.Tx(ctx, func(tx core.LedgerTx) error {
		if err := tx.Add(ctx, account, marketID, amount.Neg()); err != nil {
			return err
		}

		balances, err := tx.Balances(ctx, account)
		if err != nil {
			return err
		}

		if err := checkDebtSet(balances, markets); err != nil {
			return err
		}

		ok, err := s.accounts.IsCollateralized(ctx, balances)
		if err != nil {
			return err
		}

		return margin.Require(ok, core.ErrInsufficientCollaterals, "position/withdraw-keeps-collateralized")
	})

	if err != nil {
		log.WithError(err).Infof("position: withdraw %s of %d rejected", amount, marketID)
	}

	return err
}

func (s *positionService) Repay(ctx context.Context, account core.AccountID, marketID uint64, amount decimal.Decimal) error {
	if err := s.check(ctx, account, marketID, amount); err != nil {
		return err
	}

	var cleared bool
	err := s.ledger.Tx(ctx, func(tx core.LedgerTx) error {
		debt, err := tx.Balance(ctx, account, marketID)
		if err != nil {
			return err
		}

		if err := margin.Require(debt.IsNegative(), core.ErrNoDebt, "position/repay-debt"); err != nil {
			return err
		}

		if err := margin.Require(amount.LessThanOrEqual(debt.Neg()), core.ErrInvalidAmount, "position/repay-not-exceeding-debt"); err != nil {
			return err
		}

		cleared = amount.Equal(debt.Neg())
		return tx.Add(ctx, account, marketID, amount)
	})

	if err == nil && cleared {
		err = s.expiries.Delete(ctx, account, marketID)
	}

	return err
}

func (s *positionService) SetExpiry(ctx context.Context, account core.AccountID, marketID uint64, expiresAt time.Time) error {
	if err := s.checkFrozen(ctx, account); err != nil {
		return err
	}

	debt, err := s.balance(ctx, account, marketID)
	if err != nil {
		return err
	}

	if err := margin.Require(debt.IsNegative(), core.ErrNoDebt, "position/expiry-on-debt"); err != nil {
		return err
	}

	if err := margin.Require(!expiresAt.IsZero(), core.ErrInvalidAmount, "position/expiry-set"); err != nil {
		return err
	}

	return s.expiries.Set(ctx, &core.Expiry{
		Owner:     account.Owner,
		Number:    account.Number,
		MarketID:  marketID,
		ExpiresAt: expiresAt,
	})
}

func (s *positionService) ClearExpiry(ctx context.Context, account core.AccountID, marketID uint64) error {
	if err := s.checkFrozen(ctx, account); err != nil {
		return err
	}

	return s.expiries.Delete(ctx, account, marketID)
}

func (s *positionService) check(ctx context.Context, account core.AccountID, marketID uint64, amount decimal.Decimal) error {
	if err := margin.Require(!account.IsZero(), core.ErrInvalidAmount, "position/account-set"); err != nil {
		return err
	}

	if err := margin.Require(amount.IsPositive() && number.IsInteger(amount), core.ErrInvalidAmount, "position/integer-amount"); err != nil {
		return err
	}

	if _, err := s.markets.Find(ctx, marketID); err != nil {
		return err
	}

	return s.checkFrozen(ctx, account)
}

func (s *positionService) checkFrozen(ctx context.Context, account core.AccountID) error {
	actions, err := s.actions.FindByAccount(ctx, account)
	if err != nil {
		return err
	}

	return margin.Require(core.FreezeStateOf(actions) == core.Unfrozen, core.ErrAccountFrozen, "position/account-unfrozen")
}

func (s *positionService) balance(ctx context.Context, account core.AccountID, marketID uint64) (decimal.Decimal, error) {
	balances, err := s.ledger.Balances(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}

	return balances.Get(marketID), nil
}

// checkDebtSet every held isolated market allows every debt of the account
func checkDebtSet(balances core.Balances, markets map[uint64]*core.Market) error {
	for _, heldID := range balances.MarketIDs() {
		held := markets[heldID]
		if held == nil || !held.Isolated || !balances.Get(heldID).IsPositive() {
			continue
		}

		for _, owedID := range balances.MarketIDs() {
			if !balances.Get(owedID).IsNegative() {
				continue
			}

			if err := margin.Require(held.AllowsDebt(owedID), core.ErrInvalidMarketPair, "position/isolated-allows-debt"); err != nil {
				return err
			}
		}
	}

	return nil
}
