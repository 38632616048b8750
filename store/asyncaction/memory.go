package asyncaction

import (
	"context"
	"sort"
	"sync"

	"margin/core"

	"github.com/fox-one/pkg/store/db"
)

type memoryStore struct {
	mu      sync.RWMutex
	seq     int64
	actions map[string]*core.AsyncAction
}

// Memory in process async action store
func Memory() core.IAsyncActionStore {
	return &memoryStore{actions: make(map[string]*core.AsyncAction)}
}

func (s *memoryStore) Create(ctx context.Context, action *core.AsyncAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.actions[action.Key]; ok {
		*action = *existing
		return nil
	}

	s.seq++
	action.ID = s.seq
	c := *action
	s.actions[action.Key] = &c
	return nil
}

func (s *memoryStore) Find(ctx context.Context, key string) (*core.AsyncAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if action, ok := s.actions[key]; ok {
		c := *action
		return &c, nil
	}

	return nil, nil
}

func (s *memoryStore) FindByAccount(ctx context.Context, account core.AccountID) ([]*core.AsyncAction, error) {
	return s.filter(func(a *core.AsyncAction) bool { return a.Account() == account }, 0), nil
}

func (s *memoryStore) Update(ctx context.Context, action *core.AsyncAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.actions[action.Key]
	if !ok || existing.Version != action.Version {
		return db.ErrOptimisticLock
	}

	action.Version++
	c := *action
	s.actions[action.Key] = &c
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.actions, key)
	return nil
}

func (s *memoryStore) List(ctx context.Context, status core.AsyncActionStatus, limit int) ([]*core.AsyncAction, error) {
	if limit <= 0 {
		limit = 500
	}

	return s.filter(func(a *core.AsyncAction) bool { return a.Status == status }, limit), nil
}

func (s *memoryStore) filter(fn func(a *core.AsyncAction) bool, limit int) []*core.AsyncAction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var actions []*core.AsyncAction
	for _, a := range s.actions {
		if fn(a) {
			c := *a
			actions = append(actions, &c)
		}
	}

	sort.Slice(actions, func(i, j int) bool { return actions[i].ID < actions[j].ID })
	if limit > 0 && len(actions) > limit {
		actions = actions[:limit]
	}

	return actions
}
