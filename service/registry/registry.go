package registry

import (
	"context"

	"margin/core"
	"margin/pkg/margin"

	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/logger"
)

type registryService struct {
	store  core.IWhitelistStore
	admins []string
}

// New liquidator whitelist registry, mutations gated by admins
func New(store core.IWhitelistStore, admins []string) core.ILiquidatorRegistry {
	return &registryService{
		store:  store,
		admins: admins,
	}
}

func (s *registryService) Policy(ctx context.Context, marketID uint64) (*core.WhitelistPolicy, error) {
	policy, err := s.store.Find(ctx, marketID)
	if err != nil {
		return nil, err
	}

	if policy == nil {
		policy = &core.WhitelistPolicy{MarketID: marketID, Mode: core.WhitelistModeUnrestricted}
	}

	return policy, nil
}

func (s *registryService) IsLiquidatorWhitelisted(ctx context.Context, marketID uint64, liquidator string) (bool, error) {
	policy, err := s.Policy(ctx, marketID)
	if err != nil {
		return false, err
	}

	return policy.Allows(liquidator), nil
}

func (s *registryService) AddLiquidator(ctx context.Context, caller string, marketID uint64, liquidator string) error {
	return s.mutate(ctx, caller, marketID, func(policy *core.WhitelistPolicy) {
		policy.Mode = core.WhitelistModeRestricted
		if !govalidator.IsIn(liquidator, policy.Liquidators...) {
			policy.Liquidators = append(policy.Liquidators, liquidator)
		}
	})
}

func (s *registryService) RemoveLiquidator(ctx context.Context, caller string, marketID uint64, liquidator string) error {
	return s.mutate(ctx, caller, marketID, func(policy *core.WhitelistPolicy) {
		if policy.Mode == core.WhitelistModeUnrestricted {
			return
		}

		liquidators := policy.Liquidators[:0]
		for _, l := range policy.Liquidators {
			if l != liquidator {
				liquidators = append(liquidators, l)
			}
		}
		policy.Liquidators = liquidators
	})
}

func (s *registryService) SetUnrestricted(ctx context.Context, caller string, marketID uint64) error {
	return s.mutate(ctx, caller, marketID, func(policy *core.WhitelistPolicy) {
		policy.Mode = core.WhitelistModeUnrestricted
		policy.Liquidators = nil
	})
}

func (s *registryService) mutate(ctx context.Context, caller string, marketID uint64, fn func(policy *core.WhitelistPolicy)) error {
	log := logger.FromContext(ctx).WithField("market", marketID)

	if err := margin.Require(govalidator.IsIn(caller, s.admins...), core.ErrOperationForbidden, "registry/caller-is-admin"); err != nil {
		log.WithField("caller", caller).Infoln("registry: forbidden")
		return err
	}

	policy, err := s.Policy(ctx, marketID)
	if err != nil {
		return err
	}

	fn(policy)
	// a restricted policy always lists someone
	if policy.Mode == core.WhitelistModeRestricted && len(policy.Liquidators) == 0 {
		policy.Mode = core.WhitelistModeUnrestricted
		policy.Liquidators = nil
	}

	if err := s.store.Save(ctx, policy); err != nil {
		log.WithError(err).Errorln("whitelist.Save")
		return err
	}

	log.Infof("registry: market %d whitelist %s %v", marketID, policy.Mode, policy.Liquidators)
	return nil
}
