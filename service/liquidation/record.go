package liquidation

import (
	"context"

	"margin/core"

	"github.com/fox-one/pkg/logger"
)

func (s *liquidationService) record(ctx context.Context, req *core.LiquidateRequest, result *core.LiquidationResult, err error) {
	extra := core.NewTransactionExtra()
	extra.Put(core.TransactionKeySolid, req.Solid.String())
	extra.Put(core.TransactionKeyPath, req.Plan.MarketIDsPath.String())
	extra.Put(core.TransactionKeyState, result.State.String())
	extra.Put(core.TransactionKeyHeldMarket, result.HeldMarketID)
	extra.Put(core.TransactionKeyHeldAmount, result.HeldAmount)
	extra.Put(core.TransactionKeyOwedAmount, result.OwedAmount)
	extra.Put(core.TransactionKeyOutputAmount, result.OutputAmount)

	t := core.BuildTransaction(result.TraceID, core.TransactionActionLiquidate, req.Liquid, req.Plan.OwedMarketID(), result.OwedAmount, err, extra)
	if e := s.transactions.Create(ctx, t); e != nil {
		logger.FromContext(ctx).WithError(e).Errorln("transactions.Create", result.TraceID)
	}
}
