package expiry

import (
	"context"
	"sort"
	"sync"
	"time"

	"margin/core"
)

type key struct {
	account  core.AccountID
	marketID uint64
}

type memoryStore struct {
	mu       sync.RWMutex
	expiries map[key]*core.Expiry
}

// Memory in process expiry store
func Memory() core.IExpiryStore {
	return &memoryStore{expiries: make(map[key]*core.Expiry)}
}

func (s *memoryStore) Set(ctx context.Context, expiry *core.Expiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *expiry
	s.expiries[key{account: expiry.Account(), marketID: expiry.MarketID}] = &c
	return nil
}

func (s *memoryStore) Find(ctx context.Context, account core.AccountID, marketID uint64) (*core.Expiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.expiries[key{account: account, marketID: marketID}]; ok {
		c := *e
		return &c, nil
	}

	return nil, nil
}

func (s *memoryStore) Delete(ctx context.Context, account core.AccountID, marketID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.expiries, key{account: account, marketID: marketID})
	return nil
}

func (s *memoryStore) ListExpired(ctx context.Context, t time.Time, limit int) ([]*core.Expiry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expiries []*core.Expiry
	for _, e := range s.expiries {
		if e.ExpiresAt.Before(t) {
			c := *e
			expiries = append(expiries, &c)
		}
	}

	sort.Slice(expiries, func(i, j int) bool { return expiries[i].ExpiresAt.Before(expiries[j].ExpiresAt) })
	if limit > 0 && len(expiries) > limit {
		expiries = expiries[:limit]
	}

	return expiries, nil
}
