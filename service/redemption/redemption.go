package redemption

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"margin/core"

	"github.com/fox-one/pkg/logger"
	foxuuid "github.com/fox-one/pkg/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrRequestNotFound unknown or delivered request
	ErrRequestNotFound = errors.New("redemption: request not found")
	// ErrRequestDue the request already executed and can no longer be cancelled
	ErrRequestDue = errors.New("redemption: request already executed")
)

// Config simulated redemption system options
type Config struct {
	// time until a request executes
	Delay time.Duration
	Now   func() time.Time
}

// Request a submitted redemption
type Request struct {
	Key            string
	Type           core.AsyncActionType
	Account        core.AccountID
	InputMarketID  uint64
	InputAmount    decimal.Decimal
	OutputMarketID uint64
	MinOutput      decimal.Decimal
	SubmittedAt    time.Time
	// scripted outcome, nil executes at the leg quote
	Outcome *core.RedemptionOutcome
}

// Delivery an outcome due for callback
type Delivery struct {
	Key     string                 `json:"key"`
	Type    core.AsyncActionType   `json:"type"`
	Outcome core.RedemptionOutcome `json:"outcome"`
}

// System delayed redemption system executing requests at the leg quote
type System struct {
	cfg     Config
	markets core.IMarketStore
	traders core.ITraderRegistry

	mux      sync.Mutex
	requests map[string]*Request
}

// New simulated redemption system
func New(cfg Config, markets core.IMarketStore, traders core.ITraderRegistry) *System {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &System{
		cfg:      cfg,
		markets:  markets,
		traders:  traders,
		requests: map[string]*Request{},
	}
}

func (s *System) SubmitWithdrawal(ctx context.Context, req *core.WithdrawalRequest) (string, error) {
	return s.submit(&Request{
		Type:           core.AsyncActionWithdrawal,
		Account:        req.Account,
		InputMarketID:  req.InputMarketID,
		InputAmount:    req.InputAmount,
		OutputMarketID: req.OutputMarketID,
		MinOutput:      req.MinOutputAmount,
	}), nil
}

func (s *System) SubmitDeposit(ctx context.Context, req *core.DepositRequest) (string, error) {
	return s.submit(&Request{
		Type:           core.AsyncActionDeposit,
		Account:        req.Account,
		InputMarketID:  req.InputMarketID,
		InputAmount:    req.InputAmount,
		OutputMarketID: req.OutputMarketID,
		MinOutput:      req.MinOutputAmount,
	}), nil
}

func (s *System) submit(r *Request) string {
	s.mux.Lock()
	defer s.mux.Unlock()

	r.Key = foxuuid.New()
	r.SubmittedAt = s.cfg.Now()
	s.requests[r.Key] = r
	return r.Key
}

// Cancel a request that has not executed yet
func (s *System) Cancel(ctx context.Context, key string) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	r, ok := s.requests[key]
	if !ok {
		return ErrRequestNotFound
	}

	if s.due(r, s.cfg.Now()) {
		return ErrRequestDue
	}

	delete(s.requests, key)
	return nil
}

// Script fixes the outcome of a pending request
func (s *System) Script(key string, outcome core.RedemptionOutcome) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	r, ok := s.requests[key]
	if !ok {
		return ErrRequestNotFound
	}

	r.Outcome = &outcome
	return nil
}

// Pending requests not delivered yet
func (s *System) Pending() []*Request {
	s.mux.Lock()
	defer s.mux.Unlock()

	requests := make([]*Request, 0, len(s.requests))
	for _, r := range s.requests {
		c := *r
		requests = append(requests, &c)
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].SubmittedAt.Before(requests[j].SubmittedAt)
	})

	return requests
}

// Due outcomes of the executed requests, in submission order
func (s *System) Due(ctx context.Context) []*Delivery {
	now := s.cfg.Now()

	var deliveries []*Delivery
	for _, r := range s.Pending() {
		if !s.due(r, now) {
			continue
		}

		deliveries = append(deliveries, &Delivery{
			Key:     r.Key,
			Type:    r.Type,
			Outcome: s.execute(ctx, r),
		})
	}

	return deliveries
}

// Ack drops a delivered request
func (s *System) Ack(key string) {
	s.mux.Lock()
	delete(s.requests, key)
	s.mux.Unlock()
}

func (s *System) due(r *Request, now time.Time) bool {
	return !now.Before(r.SubmittedAt.Add(s.cfg.Delay))
}

func (s *System) execute(ctx context.Context, r *Request) core.RedemptionOutcome {
	if r.Outcome != nil {
		return *r.Outcome
	}

	log := logger.FromContext(ctx).WithField("request", r.Key)

	failed := core.RedemptionOutcome{Executed: false, OutputAmount: decimal.Zero, Retryable: true}

	isolated := r.InputMarketID
	if r.Type == core.AsyncActionDeposit {
		isolated = r.OutputMarketID
	}

	market, err := s.markets.Find(ctx, isolated)
	if err != nil {
		log.WithError(err).Warnln("redemption: market")
		return failed
	}

	name := market.Unwrapper
	if r.Type == core.AsyncActionDeposit {
		name = market.Wrapper
	}

	leg, ok := s.traders.Leg(name)
	if !ok {
		log.Warnln("redemption: no leg", name)
		return failed
	}

	out, err := leg.GetExchangeCost(ctx, r.InputMarketID, r.OutputMarketID, r.InputAmount, nil)
	if err != nil || out.LessThan(r.MinOutput) {
		log.WithError(err).Infof("redemption: output %s below min %s", out, r.MinOutput)
		return failed
	}

	return core.RedemptionOutcome{Executed: true, OutputAmount: out, Retryable: true}
}
