package whitelist

import (
	"context"
	"sync"

	"margin/core"
)

type memoryStore struct {
	mu       sync.RWMutex
	policies map[uint64]core.WhitelistPolicy
}

// Memory in process whitelist store
func Memory() core.IWhitelistStore {
	return &memoryStore{policies: make(map[uint64]core.WhitelistPolicy)}
}

func (s *memoryStore) Find(ctx context.Context, marketID uint64) (*core.WhitelistPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.policies[marketID]; ok {
		p.Liquidators = append([]string(nil), p.Liquidators...)
		return &p, nil
	}

	return nil, nil
}

func (s *memoryStore) Save(ctx context.Context, policy *core.WhitelistPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *policy
	p.Liquidators = append([]string(nil), policy.Liquidators...)
	s.policies[policy.MarketID] = p
	return nil
}
