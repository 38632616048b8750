package whitelist

import (
	"context"
	"encoding/json"
	"fmt"

	"margin/core"

	"github.com/fox-one/pkg/property"
)

type whitelistStore struct {
	property property.Store
}

// New whitelist policies persisted as json properties
func New(property property.Store) core.IWhitelistStore {
	return &whitelistStore{property: property}
}

func policyKey(marketID uint64) string {
	return fmt.Sprintf("whitelist:market:%d", marketID)
}

func (s *whitelistStore) Find(ctx context.Context, marketID uint64) (*core.WhitelistPolicy, error) {
	v, err := s.property.Get(ctx, policyKey(marketID))
	if err != nil {
		return nil, err
	}

	data := v.String()
	if data == "" {
		return nil, nil
	}

	var policy core.WhitelistPolicy
	if err := json.Unmarshal([]byte(data), &policy); err != nil {
		return nil, err
	}

	return &policy, nil
}

func (s *whitelistStore) Save(ctx context.Context, policy *core.WhitelistPolicy) error {
	data, err := json.Marshal(policy)
	if err != nil {
		return err
	}

	return s.property.Save(ctx, policyKey(policy.MarketID), string(data))
}
