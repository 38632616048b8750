package cmd

import (
	"context"
	"time"

	"margin/core"
	"margin/pkg/number"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// command for migrating database
var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Aliases: []string{"setdb"},
	Short:   "migrate database tables and sync markets, whitelists and prices from config",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		if err := db.Migrate(database); err != nil {
			cmd.PrintErrln("migrate database error:", err)
			return
		}

		property := providePropertyStore(database)
		if err := syncMarkets(ctx, provideMarketStore(database), providePriceStore(database), provideWhitelistStore(property)); err != nil {
			cmd.PrintErrln("sync markets error:", err)
			return
		}
	},
}

func syncMarkets(ctx context.Context, markets core.IMarketStore, prices core.IPriceStore, whitelists core.IWhitelistStore) error {
	for _, spec := range cfg.Markets {
		m := &core.Market{
			ID:                 spec.ID,
			AssetID:            spec.AssetID,
			Symbol:             spec.Symbol,
			Decimals:           spec.Decimals,
			Isolated:           spec.Isolated,
			Async:              spec.Async,
			AllowedDebtMarkets: spec.AllowedDebtMarkets,
			Unwrapper:          spec.Unwrapper,
			Wrapper:            spec.Wrapper,
			MarginPremium:      core.OneRatio(),
			SpreadPremium:      core.OneRatio(),
		}

		if spec.MarginPremium != "" {
			m.MarginPremium = mustRatio(spec.MarginPremium)
		}

		if spec.SpreadPremium != "" {
			m.SpreadPremium = mustRatio(spec.SpreadPremium)
		}

		if err := markets.Save(ctx, m); err != nil {
			return err
		}

		if len(spec.Liquidators) > 0 {
			policy := &core.WhitelistPolicy{
				MarketID:    spec.ID,
				Mode:        core.WhitelistModeRestricted,
				Liquidators: spec.Liquidators,
			}

			if err := whitelists.Save(ctx, policy); err != nil {
				return err
			}
		}

		if unit, err := decimal.NewFromString(spec.Price); err == nil {
			price := &core.Price{
				MarketID:   spec.ID,
				Value:      number.Price(unit, spec.Decimals),
				ValidUntil: time.Now().Add(cfg.Risk.PriceTTL),
			}

			if err := prices.Save(ctx, price); err != nil {
				return err
			}
		}
	}

	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
