package liquidation

import (
	"context"

	"margin/core"
	"margin/pkg/margin"
	"margin/pkg/number"
)

// plan checks the plan shape and resolves the trader of every hop
func (s *liquidationService) plan(ctx context.Context, a *attempt) error {
	p := a.req.Plan
	path := p.MarketIDsPath

	if err := margin.Require(len(p.AmountWeisPath) == len(path), core.ErrInvalidPlan, "plan/amounts-length"); err != nil {
		return err
	}

	if err := margin.Require(len(p.TraderParams) == len(path)-1, core.ErrInvalidPlan, "plan/traders-length"); err != nil {
		return err
	}

	for _, amount := range p.AmountWeisPath {
		if err := margin.Require(!amount.IsNegative() && number.IsInteger(amount), core.ErrInvalidAmount, "plan/amount-integer"); err != nil {
			return err
		}
	}

	a.hops = make([]hop, 0, len(p.TraderParams))
	for idx, param := range p.TraderParams {
		h := hop{
			in:        path[idx],
			out:       path[idx+1],
			minOutput: p.AmountWeisPath[idx+1],
			param:     param,
		}

		if err := margin.Require(h.in != h.out, core.ErrInvalidPlan, "plan/hop-distinct-markets"); err != nil {
			return err
		}

		if err := s.resolve(a, &h); err != nil {
			return err
		}

		a.hops = append(a.hops, h)
	}

	return nil
}

// resolve isolated markets only trade through their bound legs
func (s *liquidationService) resolve(a *attempt, h *hop) error {
	in, out := a.markets[h.in], a.markets[h.out]

	switch h.param.Type {
	case core.TraderTypeExternalLiquidity:
		venue, ok := s.traders.Venue(h.param.Trader)
		if err := margin.Require(ok, core.ErrInvalidTrader, "plan/venue-exists"); err != nil {
			return err
		}

		if err := margin.Require(!in.Isolated && !out.Isolated, core.ErrInvalidTrader, "plan/venue-not-isolated"); err != nil {
			return err
		}

		h.venue = venue
	case core.TraderTypeIsolationModeUnwrapper:
		leg, ok := s.traders.Leg(h.param.Trader)
		if err := margin.Require(ok && leg.Direction() == core.LegDirectionUnwrap, core.ErrInvalidTrader, "plan/unwrapper-exists"); err != nil {
			return err
		}

		bound := in.Isolated && in.Unwrapper == leg.Name() && leg.IsolatedMarket() == in.ID
		if err := margin.Require(bound, core.ErrInvalidTrader, "plan/unwrapper-bound"); err != nil {
			return err
		}

		if err := margin.Require(leg.IsValidCounterMarket(out.ID), core.ErrInvalidMarketPair, "plan/unwrapper-output"); err != nil {
			return err
		}

		h.leg = leg
	case core.TraderTypeIsolationModeWrapper:
		leg, ok := s.traders.Leg(h.param.Trader)
		if err := margin.Require(ok && leg.Direction() == core.LegDirectionWrap, core.ErrInvalidTrader, "plan/wrapper-exists"); err != nil {
			return err
		}

		if err := margin.Require(leg.Mode() == core.LegModeSynchronous, core.ErrInvalidTrader, "plan/wrapper-sync"); err != nil {
			return err
		}

		bound := out.Isolated && out.Wrapper == leg.Name() && leg.IsolatedMarket() == out.ID
		if err := margin.Require(bound, core.ErrInvalidTrader, "plan/wrapper-bound"); err != nil {
			return err
		}

		if err := margin.Require(leg.IsValidCounterMarket(in.ID), core.ErrInvalidMarketPair, "plan/wrapper-input"); err != nil {
			return err
		}

		h.leg = leg
	default:
		return &margin.RequireError{Code: core.ErrInvalidTrader, Reason: "plan/trader-type"}
	}

	return nil
}
