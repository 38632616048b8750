package config

import (
	"time"

	"margin/core"

	"github.com/shopspring/decimal"
)

const (
	defaultOrchestrator         = "margin-orchestrator"
	defaultMinCollateralization = "115/100"
	defaultLiquidationSpread    = "105/100"
)

func defaultConfig(cfg *core.Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "margin"
	}

	if cfg.App.OrchestratorID == "" {
		cfg.App.OrchestratorID = defaultOrchestrator
	}

	if cfg.App.Location == "" {
		cfg.App.Location = "UTC"
	}

	if cfg.Risk.MinCollateralization == "" {
		cfg.Risk.MinCollateralization = defaultMinCollateralization
	}

	if cfg.Risk.LiquidationSpread == "" {
		cfg.Risk.LiquidationSpread = defaultLiquidationSpread
	}

	if cfg.Risk.PriceTTL <= 0 {
		cfg.Risk.PriceTTL = 5 * time.Minute
	}

	if cfg.PriceFeed.Spec == "" {
		cfg.PriceFeed.Spec = "@every 10s"
	}

	if cfg.Redemption.Delay <= 0 {
		cfg.Redemption.Delay = 10 * time.Minute
	}

	if cfg.Redemption.PollInterval <= 0 {
		cfg.Redemption.PollInterval = 5 * time.Second
	}

	if cfg.Liquidator.Interval <= 0 {
		cfg.Liquidator.Interval = 10 * time.Second
	}

	if cfg.Liquidator.Slippage.IsZero() {
		cfg.Liquidator.Slippage = decimal.New(5, -3)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 100
	}

	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 3
	}

	for idx := range cfg.Venues {
		if cfg.Venues[idx].Kind == "" {
			cfg.Venues[idx].Kind = "oracle"
		}
	}
}
