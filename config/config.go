package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete engine configuration
type Config struct {
	Capital  CapitalConfig  `json:"capital" yaml:"capital"`
	Detector DetectorConfig `json:"detector" yaml:"detector"`
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
	Sources  SourcesConfig  `json:"sources" yaml:"sources"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// CapitalConfig sizes the pools and the profit split
type CapitalConfig struct {
	TotalCapital          float64 `json:"total_capital" yaml:"total_capital"`
	SteadyAllocation      float64 `json:"steady_allocation" yaml:"steady_allocation"`
	SpeculativeAllocation float64 `json:"speculative_allocation" yaml:"speculative_allocation"`
	TradeFraction         float64 `json:"trade_fraction" yaml:"trade_fraction"`
	FloorMinOrder         float64 `json:"floor_min_order" yaml:"floor_min_order"`
	ReinvestFraction      float64 `json:"reinvest_fraction" yaml:"reinvest_fraction"`
	WithdrawFraction      float64 `json:"withdraw_fraction" yaml:"withdraw_fraction"`
	ReserveFraction       float64 `json:"reserve_fraction" yaml:"reserve_fraction"`
	DecrementOnClose      bool    `json:"decrement_on_close,omitempty" yaml:"decrement_on_close,omitempty"`
}

// DetectorConfig contains opportunity detection parameters
type DetectorConfig struct {
	Venue        string  `json:"venue" yaml:"venue"`
	MinDeviation float64 `json:"min_deviation" yaml:"min_deviation"`
	StopFraction float64 `json:"stop_fraction" yaml:"stop_fraction"`
}

// EngineConfig contains trading loop parameters
type EngineConfig struct {
	TickInterval string   `json:"tick_interval" yaml:"tick_interval"` // e.g., "10s"
	Symbols      []string `json:"symbols" yaml:"symbols"`
	Pool         string   `json:"pool" yaml:"pool"` // "steady" or "speculative"
}

// ParseTickInterval converts the tick interval string to time.Duration
func (e EngineConfig) ParseTickInterval() (time.Duration, error) {
	if e.TickInterval == "" {
		return 10 * time.Second, nil
	}
	return time.ParseDuration(e.TickInterval)
}

// SourcesConfig tunes the price aggregation layer
type SourcesConfig struct {
	Enabled      []string          `json:"enabled" yaml:"enabled"`
	FetchTimeout string            `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"`
	CallInterval string            `json:"call_interval,omitempty" yaml:"call_interval,omitempty"`
	Intervals    map[string]string `json:"intervals,omitempty" yaml:"intervals,omitempty"`
	BulkTTL      string            `json:"bulk_ttl,omitempty" yaml:"bulk_ttl,omitempty"`
}

func (s SourcesConfig) ParseFetchTimeout() (time.Duration, error) {
	if s.FetchTimeout == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(s.FetchTimeout)
}

func (s SourcesConfig) ParseCallInterval() (time.Duration, error) {
	if s.CallInterval == "" {
		return 2 * time.Second, nil
	}
	return time.ParseDuration(s.CallInterval)
}

func (s SourcesConfig) ParseBulkTTL() (time.Duration, error) {
	if s.BulkTTL == "" {
		return 12 * time.Second, nil
	}
	return time.ParseDuration(s.BulkTTL)
}

// ParseIntervals resolves per-source overrides of the call interval.
func (s SourcesConfig) ParseIntervals() (map[string]time.Duration, error) {
	out := make(map[string]time.Duration, len(s.Intervals))
	for src, raw := range s.Intervals {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("sources.intervals[%s]: %w", src, err)
		}
		out[src] = d
	}
	return out, nil
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	PoolsFile  string `json:"pools_file,omitempty" yaml:"pools_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoggingConfig tunes log output
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`   // "debug", "info", ...
	Pretty bool   `json:"pretty,omitempty" yaml:"pretty,omitempty"` // console writer instead of JSON
}

var knownSources = map[string]bool{
	"binance":   true,
	"coinbase":  true,
	"okx":       true,
	"bybit":     true,
	"coingecko": true,
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
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

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Capital.TotalCapital <= 0 {
		return fmt.Errorf("capital.total_capital must be positive")
	}
	if sum := c.Capital.SteadyAllocation + c.Capital.SpeculativeAllocation; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("capital allocations must sum to 1")
	}
	if c.Capital.TradeFraction <= 0 || c.Capital.TradeFraction > 1 {
		return fmt.Errorf("capital.trade_fraction must be between 0 and 1")
	}
	if c.Capital.FloorMinOrder < 0 {
		return fmt.Errorf("capital.floor_min_order must not be negative")
	}
	if sum := c.Capital.ReinvestFraction + c.Capital.WithdrawFraction + c.Capital.ReserveFraction; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("capital profit split must sum to 1")
	}
	if c.Detector.Venue == "" {
		return fmt.Errorf("detector.venue is required")
	}
	if !knownSources[c.Detector.Venue] {
		return fmt.Errorf("unknown venue: %s", c.Detector.Venue)
	}
	if c.Detector.MinDeviation <= 0 {
		return fmt.Errorf("detector.min_deviation must be positive")
	}
	if c.Detector.StopFraction <= 0 || c.Detector.StopFraction >= 1 {
		return fmt.Errorf("detector.stop_fraction must be between 0 and 1")
	}
	if len(c.Engine.Symbols) == 0 {
		return fmt.Errorf("engine.symbols is required")
	}
	if c.Engine.Pool != "" && c.Engine.Pool != "steady" && c.Engine.Pool != "speculative" {
		return fmt.Errorf("engine.pool must be 'steady' or 'speculative'")
	}
	if _, err := c.Engine.ParseTickInterval(); err != nil {
		return fmt.Errorf("engine.tick_interval: %w", err)
	}
	if len(c.Sources.Enabled) < 2 {
		return fmt.Errorf("at least 2 price sources are required")
	}
	for _, src := range c.Sources.Enabled {
		if !knownSources[src] {
			return fmt.Errorf("unknown price source: %s", src)
		}
	}
	venueEnabled := false
	for _, src := range c.Sources.Enabled {
		if src == c.Detector.Venue {
			venueEnabled = true
			break
		}
	}
	if !venueEnabled {
		return fmt.Errorf("detector.venue %q must be an enabled source", c.Detector.Venue)
	}
	if _, err := c.Sources.ParseFetchTimeout(); err != nil {
		return fmt.Errorf("sources.fetch_timeout: %w", err)
	}
	if _, err := c.Sources.ParseCallInterval(); err != nil {
		return fmt.Errorf("sources.call_interval: %w", err)
	}
	if _, err := c.Sources.ParseBulkTTL(); err != nil {
		return fmt.Errorf("sources.bulk_ttl: %w", err)
	}
	if _, err := c.Sources.ParseIntervals(); err != nil {
		return err
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.PoolsFile == "" {
			return fmt.Errorf("journal trades_file and pools_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "", "none":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Capital: CapitalConfig{
			TotalCapital:          150,
			SteadyAllocation:      0.90,
			SpeculativeAllocation: 0.10,
			TradeFraction:         0.5,
			FloorMinOrder:         10,
			ReinvestFraction:      0.50,
			WithdrawFraction:      0.30,
			ReserveFraction:       0.20,
		},
		Detector: DetectorConfig{
			Venue:        "binance",
			MinDeviation: 0.02,
			StopFraction: 0.02,
		},
		Engine: EngineConfig{
			TickInterval: "10s",
			Symbols:      []string{"SOL", "ETH", "BTC", "ARB", "OP"},
			Pool:         "steady",
		},
		Sources: SourcesConfig{
			Enabled:      []string{"binance", "coinbase", "okx", "bybit", "coingecko"},
			FetchTimeout: "5s",
			CallInterval: "2s",
			BulkTTL:      "12s",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "arbibot.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}
