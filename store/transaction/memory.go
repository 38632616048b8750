package transaction

import (
	"context"
	"sync"
	"time"

	"margin/core"
)

type memoryStore struct {
	mu           sync.RWMutex
	transactions []*core.Transaction
}

// Memory in process audit log
func Memory() core.TransactionStore {
	return &memoryStore{}
}

func (s *memoryStore) Create(ctx context.Context, transaction *core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.transactions {
		if t.TraceID == transaction.TraceID {
			*transaction = *t
			return nil
		}
	}

	transaction.ID = int64(len(s.transactions) + 1)
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now()
	}

	c := *transaction
	s.transactions = append(s.transactions, &c)
	return nil
}

func (s *memoryStore) FindByTraceID(ctx context.Context, traceID string) (*core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.transactions {
		if t.TraceID == traceID {
			c := *t
			return &c, nil
		}
	}

	return nil, nil
}

func (s *memoryStore) List(ctx context.Context, offset time.Time, limit int) ([]*core.Transaction, error) {
	if limit <= 0 {
		limit = 500
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var transactions []*core.Transaction
	for _, t := range s.transactions {
		if t.CreatedAt.Before(offset) {
			continue
		}

		c := *t
		transactions = append(transactions, &c)
		if len(transactions) >= limit {
			break
		}
	}

	return transactions, nil
}

func (s *memoryStore) ListByAccount(ctx context.Context, account core.AccountID, limit int) ([]*core.Transaction, error) {
	if limit <= 0 {
		limit = 500
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var transactions []*core.Transaction
	for idx := len(s.transactions) - 1; idx >= 0 && len(transactions) < limit; idx-- {
		if t := s.transactions[idx]; t.Account() == account {
			c := *t
			transactions = append(transactions, &c)
		}
	}

	return transactions, nil
}
