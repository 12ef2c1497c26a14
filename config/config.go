package config

import (
	"io/ioutil"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Settings carries the tunables of the trading core. Values come from a
// YAML file with environment overrides for the connection endpoints.
type Settings struct {
	Markets []MarketSettings `yaml:"markets"`

	// Monitor cadences. Shorter intervals trade CPU for trigger-latency
	// precision.
	ConditionalTickSeconds uint64 `yaml:"conditional_tick_seconds"`
	LiquidationTickSeconds uint64 `yaml:"liquidation_tick_seconds"`

	Margin MarginSettings `yaml:"margin"`

	Snapshot SnapshotSettings `yaml:"snapshot"`
}

type MarketSettings struct {
	Symbol          string `yaml:"symbol"`
	PricePrecision  int32  `yaml:"price_precision"`
	AmountPrecision int32  `yaml:"amount_precision"`
}

// SnapshotSettings gates how often a book republishes a full depth
// snapshot between per-level increments.
type SnapshotSettings struct {
	MinIncrementCount int64  `yaml:"min_increment_count"`
	MinPeriodSeconds  uint64 `yaml:"min_period_seconds"`
	MaxPeriodSeconds  uint64 `yaml:"max_period_seconds"`
}

func (s SnapshotSettings) MinPeriod() time.Duration {
	return time.Duration(s.MinPeriodSeconds) * time.Second
}

func (s SnapshotSettings) MaxPeriod() time.Duration {
	return time.Duration(s.MaxPeriodSeconds) * time.Second
}

type MarginSettings struct {
	MaxLeverage           int64   `yaml:"max_leverage"`
	MaintenanceMarginRate float64 `yaml:"maintenance_margin_rate"`
	LiquidationFeeRate    float64 `yaml:"liquidation_fee_rate"`
	HourlyInterestRate    float64 `yaml:"hourly_interest_rate"`
}

var Config *Settings

func defaultSettings() *Settings {
	return &Settings{
		ConditionalTickSeconds: 1,
		LiquidationTickSeconds: 5,
		Margin: MarginSettings{
			MaxLeverage:           10,
			MaintenanceMarginRate: 0.05,
			LiquidationFeeRate:    0.005,
			HourlyInterestRate:    0.0001,
		},
		Snapshot: SnapshotSettings{
			MinIncrementCount: 20,
			MinPeriodSeconds:  10,
			MaxPeriodSeconds:  60,
		},
	}
}

// Snapshot returns the depth-snapshot cadence, falling back to the
// defaults when no configuration has been loaded.
func Snapshot() SnapshotSettings {
	if Config != nil {
		return Config.Snapshot
	}
	return defaultSettings().Snapshot
}

func LoadConfig() error {
	Config = defaultSettings()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yml"
	}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		// Missing file keeps the defaults.
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return yaml.Unmarshal(raw, Config)
}

func (s *Settings) ConditionalTick() time.Duration {
	return time.Duration(s.ConditionalTickSeconds) * time.Second
}

func (s *Settings) LiquidationTick() time.Duration {
	return time.Duration(s.LiquidationTickSeconds) * time.Second
}

func InitializeConfig() error {
	NewLoggerService()
	return LoadConfig()
}
