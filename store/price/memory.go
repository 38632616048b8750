package price

import (
	"context"
	"sync"

	"margin/core"
)

type memoryStore struct {
	mu     sync.RWMutex
	prices map[uint64]*core.Price
}

// Memory in process price feed
func Memory() core.IPriceStore {
	return &memoryStore{prices: make(map[uint64]*core.Price)}
}

func (s *memoryStore) Save(ctx context.Context, price *core.Price) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *price
	s.prices[price.MarketID] = &c
	return nil
}

func (s *memoryStore) Latest(ctx context.Context, marketID uint64) (*core.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.prices[marketID]; ok {
		c := *p
		return &c, nil
	}

	return nil, core.ErrPriceNotFound
}
