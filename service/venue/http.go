package venue

import (
	"context"
	"fmt"

	"margin/core"
	"margin/pkg/id"
	"margin/pkg/margin"
	"margin/pkg/number"
	"margin/pkg/resthttp"

	"github.com/fox-one/pkg/logger"
	"github.com/shopspring/decimal"
)

type httpVenue struct {
	name     string
	endpoint string
}

// NewHTTPVenue external liquidity behind an aggregator api
//
// POST {endpoint}/quote and {endpoint}/trade accept a tradeRequest and answer a tradeResponse
func NewHTTPVenue(name, endpoint string) core.ExternalVenue {
	return &httpVenue{
		name:     name,
		endpoint: endpoint,
	}
}

type tradeRequest struct {
	InputMarketID  uint64          `json:"input_market_id"`
	OutputMarketID uint64          `json:"output_market_id"`
	Amount         decimal.Decimal `json:"amount"`
	RoutingData    []byte          `json:"routing_data,omitempty"`
}

type tradeResponse struct {
	Amount decimal.Decimal `json:"amount"`
}

func (v *httpVenue) Name() string {
	return v.name
}

func (v *httpVenue) Quote(ctx context.Context, inputMarketID, outputMarketID uint64, amount decimal.Decimal, routingData []byte) (decimal.Decimal, error) {
	return v.call(ctx, "quote", inputMarketID, outputMarketID, amount, routingData)
}

func (v *httpVenue) Trade(ctx context.Context, inputMarketID, outputMarketID uint64, amount decimal.Decimal, routingData []byte) (decimal.Decimal, error) {
	return v.call(ctx, "trade", inputMarketID, outputMarketID, amount, routingData)
}

func (v *httpVenue) call(ctx context.Context, method string, inputMarketID, outputMarketID uint64, amount decimal.Decimal, routingData []byte) (decimal.Decimal, error) {
	log := logger.FromContext(ctx).WithField("venue", v.name)

	req := tradeRequest{
		InputMarketID:  inputMarketID,
		OutputMarketID: outputMarketID,
		Amount:         amount,
		RoutingData:    routingData,
	}

	requestID := id.TraceIDFromParts(id.TraceIDFromContext(ctx), v.name, method, amount.String(), fmt.Sprint(inputMarketID, outputMarketID))
	var resp tradeResponse
	if err := resthttp.Post(ctx, requestID, v.endpoint+"/"+method, req, &resp); err != nil {
		log.WithError(err).Errorln("venue." + method)
		return decimal.Zero, err
	}

	if err := margin.Require(!resp.Amount.IsNegative() && number.IsInteger(resp.Amount), core.ErrInvalidAmount, "venue/"+v.name+"/integer-output"); err != nil {
		return decimal.Zero, err
	}

	return resp.Amount, nil
}
