package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig carries flag defaults sourced from the environment, so shop
// floor installations can pin a printer and journal without wrapper
// scripts. Explicit flags always win over these defaults.
type EnvConfig struct {
	PrinterAddr string `env:"PLATEN_PRINTER_ADDR" envDefault:"localhost:9100"`
	DryRun      bool   `env:"PLATEN_DRY_RUN" envDefault:"false"`
	Journal     string `env:"PLATEN_JOURNAL"`
}

// LoadEnv parses the process environment into an EnvConfig.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
