package config

import (
	"margin/core"

	"github.com/fox-one/pkg/config"
)

// Load load config file
func Load(cfgFile string, cfg *core.Config) error {
	config.AutomaticLoadEnv("MARGIN")
	if err := config.LoadYaml(cfgFile, cfg); err != nil {
		return err
	}

	defaultConfig(cfg)
	return nil
}
