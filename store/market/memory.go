package market

import (
	"context"
	"sort"
	"sync"

	"margin/core"
)

type memoryStore struct {
	mu      sync.RWMutex
	markets map[uint64]*core.Market
}

// Memory in process market registry
func Memory(markets ...*core.Market) core.IMarketStore {
	s := &memoryStore{markets: make(map[uint64]*core.Market)}
	for _, m := range markets {
		s.markets[m.ID] = m
	}

	return s
}

func (s *memoryStore) Save(ctx context.Context, market *core.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.markets[market.ID]; ok {
		market.Version = existing.Version + 1
	}

	m := *market
	s.markets[market.ID] = &m
	return nil
}

func (s *memoryStore) Find(ctx context.Context, id uint64) (*core.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markets[id]
	if !ok {
		return nil, core.ErrMarketNotFound
	}

	c := *m
	return &c, nil
}

func (s *memoryStore) FindByAsset(ctx context.Context, assetID string) (*core.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.markets {
		if m.AssetID == assetID {
			c := *m
			return &c, nil
		}
	}

	return nil, core.ErrMarketNotFound
}

func (s *memoryStore) All(ctx context.Context) ([]*core.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markets := make([]*core.Market, 0, len(s.markets))
	for _, m := range s.markets {
		c := *m
		markets = append(markets, &c)
	}

	sort.Slice(markets, func(i, j int) bool { return markets[i].ID < markets[j].ID })
	return markets, nil
}

func (s *memoryStore) AllAsMap(ctx context.Context) (map[uint64]*core.Market, error) {
	markets, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	return asMap(markets), nil
}
