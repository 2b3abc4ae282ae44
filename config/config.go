package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete run configuration, constructed once and passed
// by value into the engine. There is no ambient global lookup.
type Config struct {
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// BacktestConfig is the engine's configuration surface.
type BacktestConfig struct {
	InitialCash         float64 `json:"initial_cash" yaml:"initial_cash"`
	TransactionCostRate float64 `json:"transaction_cost_rate" yaml:"transaction_cost_rate"`
	SlippageRate        float64 `json:"slippage_rate" yaml:"slippage_rate"`
	StampTaxRate        float64 `json:"stamp_tax_rate" yaml:"stamp_tax_rate"`
	MaxPositionPct      float64 `json:"max_position_percentage" yaml:"max_position_percentage"`
	RiskFreeRate        float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// StrategyConfig selects and parameterizes the strategy.
type StrategyConfig struct {
	Name       string `json:"name" yaml:"name"`
	Symbol     string `json:"symbol" yaml:"symbol"`
	FastPeriod int    `json:"fast_period,omitempty" yaml:"fast_period,omitempty"`
	SlowPeriod int    `json:"slow_period,omitempty" yaml:"slow_period,omitempty"`
}

// JournalConfig selects where run results are persisted.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite", or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file. YAML is tried first,
// then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration; format follows the extension
// (.yaml/.yml for YAML, anything else JSON).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	b := c.Backtest
	if b.InitialCash <= 0 {
		return fmt.Errorf("backtest.initial_cash must be positive")
	}
	if b.TransactionCostRate < 0 || b.SlippageRate < 0 || b.StampTaxRate < 0 {
		return fmt.Errorf("backtest rates must not be negative")
	}
	if b.MaxPositionPct <= 0 || b.MaxPositionPct > 1 {
		return fmt.Errorf("backtest.max_position_percentage must be in (0, 1]")
	}

	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite', or 'none'")
	}

	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Backtest: BacktestConfig{
			InitialCash:         1_000_000,
			TransactionCostRate: 0.0003,
			SlippageRate:        0.0001,
			StampTaxRate:        0.001,
			MaxPositionPct:      0.1,
			RiskFreeRate:        0.03,
		},
		Strategy: StrategyConfig{
			Name:       "sma-cross",
			FastPeriod: 10,
			SlowPeriod: 20,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./backtest.sqlite",
		},
	}
}
