package freezable

import (
	"context"
	"time"

	"margin/core"
	"margin/pkg/guard"
	"margin/pkg/margin"

	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

// Config vault options
type Config struct {
	Admins []string
	Now    func() time.Time
}

type vaultService struct {
	cfg          Config
	ledger       core.Ledger
	markets      core.IMarketStore
	accounts     core.IAccountService
	expiries     core.IExpiryStore
	registry     core.ILiquidatorRegistry
	traders      core.ITraderRegistry
	actions      core.IAsyncActionStore
	system       core.RedemptionSystem
	liquidation  core.ILiquidationService
	transactions core.TransactionStore
	guard        *guard.Guard
}

// New async redemption state machine over the isolated markets with async legs
func New(
	cfg Config,
	ledger core.Ledger,
	markets core.IMarketStore,
	accounts core.IAccountService,
	expiries core.IExpiryStore,
	registry core.ILiquidatorRegistry,
	traders core.ITraderRegistry,
	actions core.IAsyncActionStore,
	system core.RedemptionSystem,
	liquidation core.ILiquidationService,
	transactions core.TransactionStore,
) core.IFreezableVaultService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &vaultService{
		cfg:          cfg,
		ledger:       ledger,
		markets:      markets,
		accounts:     accounts,
		expiries:     expiries,
		registry:     registry,
		traders:      traders,
		actions:      actions,
		system:       system,
		liquidation:  liquidation,
		transactions: transactions,
		guard:        guard.New(),
	}
}

func (s *vaultService) FreezeState(ctx context.Context, account core.AccountID) (core.FreezeState, error) {
	actions, err := s.actions.FindByAccount(ctx, account)
	if err != nil {
		return core.Unfrozen, err
	}

	return core.FreezeStateOf(actions), nil
}

// enter the per account guard, the returned release must be called
func (s *vaultService) enter(account core.AccountID) (func(), error) {
	release, ok := s.guard.Enter(account.String())
	if !ok {
		return nil, &margin.RequireError{Code: core.ErrReentrant, Reason: "freezable/not-entered"}
	}

	return release, nil
}

func (s *vaultService) isAdmin(caller string) bool {
	return caller != "" && govalidator.IsIn(caller, s.cfg.Admins...)
}

// asyncLeg the async leg bound to an isolated market
func (s *vaultService) asyncLeg(market *core.Market, direction core.LegDirection) (core.ConversionLeg, error) {
	name := market.Unwrapper
	if direction == core.LegDirectionWrap {
		name = market.Wrapper
	}

	if err := margin.Require(market.Isolated && market.Async, core.ErrInvalidMarketPair, "freezable/async-isolated-market"); err != nil {
		return nil, err
	}

	leg, ok := s.traders.Leg(name)
	ok = ok && leg.Mode() == core.LegModeAsynchronous && leg.Direction() == direction && leg.IsolatedMarket() == market.ID
	if err := margin.Require(ok, core.ErrInvalidTrader, "freezable/async-leg-bound"); err != nil {
		return nil, err
	}

	return leg, nil
}

// isLiquidatable by collateralization, or by the matured expiry of the action
func (s *vaultService) isLiquidatable(ctx context.Context, account core.AccountID, owedMarketID uint64, expiry *time.Time) (bool, error) {
	if expiry != nil {
		tag, err := s.expiries.Find(ctx, account, owedMarketID)
		if err != nil {
			return false, err
		}

		if tag == nil || !tag.ExpiresAt.Equal(*expiry) || !margin.IsExpired(tag.ExpiresAt, s.cfg.Now()) {
			return false, nil
		}

		owed, err := s.balance(ctx, account, owedMarketID)
		return owed.IsNegative(), err
	}

	balances, err := s.ledger.Balances(ctx, account)
	if err != nil {
		return false, err
	}

	return s.accounts.IsLiquidatable(ctx, balances)
}

// checkExpiry the expiry tag of the owed market matches expiry and has matured
func (s *vaultService) checkExpiry(ctx context.Context, account core.AccountID, owedMarketID uint64, expiry time.Time) error {
	tag, err := s.expiries.Find(ctx, account, owedMarketID)
	if err != nil {
		return err
	}

	if err := margin.Require(tag != nil && tag.ExpiresAt.Equal(expiry), core.ErrExpiryMismatch, "freezable/expiry-matches"); err != nil {
		return err
	}

	return margin.Require(margin.IsExpired(tag.ExpiresAt, s.cfg.Now()), core.ErrNotExpired, "freezable/expiry-matured")
}

func (s *vaultService) balance(ctx context.Context, account core.AccountID, marketID uint64) (decimal.Decimal, error) {
	balances, err := s.ledger.Balances(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}

	return balances.Get(marketID), nil
}

// release converts the remaining input of an executed withdrawal into its output and unfreezes
func (s *vaultService) release(ctx context.Context, action *core.AsyncAction) error {
	return s.ledger.Tx(ctx, func(tx core.LedgerTx) error {
		if action.InputAmount.IsPositive() {
			if err := tx.Add(ctx, action.Account(), action.InputMarketID, action.InputAmount.Neg()); err != nil {
				return err
			}
		}

		if action.OutputAmount.IsPositive() {
			if err := tx.Add(ctx, action.Account(), action.OutputMarketID, action.OutputAmount); err != nil {
				return err
			}
		}

		s.deleteOnCommit(ctx, tx, action.Key)
		return nil
	})
}

// reverse undoes the balance effects of a pending deposit and unfreezes
func (s *vaultService) reverse(ctx context.Context, action *core.AsyncAction, check bool) error {
	return s.ledger.Tx(ctx, func(tx core.LedgerTx) error {
		account := action.Account()
		if err := tx.Add(ctx, account, action.OutputMarketID, action.MinOutputAmount.Neg()); err != nil {
			return err
		}

		if err := tx.Add(ctx, account, action.InputMarketID, action.InputAmount); err != nil {
			return err
		}

		if check {
			balances, err := tx.Balances(ctx, account)
			if err != nil {
				return err
			}

			ok, err := s.accounts.IsCollateralized(ctx, balances)
			if err != nil {
				return err
			}

			if err := margin.Require(ok, core.ErrCancelUnsafe, "freezable/cancel-keeps-collateralized"); err != nil {
				return err
			}
		}

		s.deleteOnCommit(ctx, tx, action.Key)
		return nil
	})
}

func (s *vaultService) deleteOnCommit(ctx context.Context, tx core.LedgerTx, key string) {
	tx.OnCommit(func() {
		if err := s.actions.Delete(ctx, key); err != nil {
			logger.FromContext(ctx).WithError(err).Errorln("actions.Delete", key)
		}
	})
}

func (s *vaultService) record(ctx context.Context, traceID string, action core.TransactionAction, a *core.AsyncAction, err error, extra core.TransactionExtraData) {
	if extra == nil {
		extra = core.NewTransactionExtra()
	}

	extra.Put(core.TransactionKeyActionKey, a.Key)
	t := core.BuildTransaction(traceID, action, a.Account(), a.InputMarketID, a.InputAmount, err, extra)
	if e := s.transactions.Create(ctx, t); e != nil {
		logger.FromContext(ctx).WithError(e).Errorln("transactions.Create", traceID)
	}
}
