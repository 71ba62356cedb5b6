package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level spendguard.yaml configuration.
type Config struct {
	Detectors DetectorsConfig `yaml:"detectors"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Baseline  BaselineConfig  `yaml:"baseline"`
	Postgres  PostgresConfig  `yaml:"postgres,omitempty"`
}

// DetectorsConfig holds per-detector thresholds.
type DetectorsConfig struct {
	// LargeAmountK is the stddev multiplier for the large-amount threshold.
	LargeAmountK float64 `yaml:"large_amount_k"`
	// LargeAmountDefault is the absolute-amount threshold used when neither
	// vendor nor category stats exist yet.
	LargeAmountDefault float64 `yaml:"large_amount_default"`
	// RareVendorFloor is the minimum prior occurrences for a vendor to no
	// longer count as rare.
	RareVendorFloor int64 `yaml:"rare_vendor_floor"`
}

// ScoringConfig controls composite score weighting and risk-level cut points.
type ScoringConfig struct {
	Weights      WeightsConfig `yaml:"weights"`
	MediumCutoff float64       `yaml:"medium_cutoff"`
	HighCutoff   float64       `yaml:"high_cutoff"`
}

// WeightsConfig holds per-detector composite weights. They are normalized to
// sum to 1 at scoring time, so only their ratios matter.
type WeightsConfig struct {
	Duplicate   float64 `yaml:"duplicate"`
	LargeAmount float64 `yaml:"large_amount"`
	RareVendor  float64 `yaml:"rare_vendor"`
}

// BaselineConfig controls per-user baseline retention.
type BaselineConfig struct {
	// SignatureRetention bounds the per-user duplicate-signature set.
	// 0 means unbounded.
	SignatureRetention int `yaml:"signature_retention"`
}

// PostgresConfig configures the optional Postgres-backed store.
type PostgresConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// Load reads a spendguard.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the stock thresholds.
func Default() *Config {
	return &Config{
		Detectors: DetectorsConfig{
			LargeAmountK:       3.0,
			LargeAmountDefault: 500.00,
			RareVendorFloor:    2,
		},
		Scoring: ScoringConfig{
			Weights: WeightsConfig{
				Duplicate:   1,
				LargeAmount: 1,
				RareVendor:  1,
			},
			MediumCutoff: 0.33,
			HighCutoff:   0.66,
		},
		Baseline: BaselineConfig{
			SignatureRetention: 10000,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Detectors.LargeAmountK <= 0 {
		return fmt.Errorf("detectors.large_amount_k must be positive, got %v", c.Detectors.LargeAmountK)
	}
	if c.Detectors.LargeAmountDefault <= 0 {
		return fmt.Errorf("detectors.large_amount_default must be positive, got %v", c.Detectors.LargeAmountDefault)
	}
	if c.Detectors.RareVendorFloor < 1 {
		return fmt.Errorf("detectors.rare_vendor_floor must be at least 1, got %d", c.Detectors.RareVendorFloor)
	}
	w := c.Scoring.Weights
	if w.Duplicate < 0 || w.LargeAmount < 0 || w.RareVendor < 0 {
		return fmt.Errorf("scoring weights must be non-negative")
	}
	if w.Duplicate+w.LargeAmount+w.RareVendor == 0 {
		return fmt.Errorf("at least one scoring weight must be positive")
	}
	if c.Scoring.MediumCutoff <= 0 || c.Scoring.HighCutoff <= c.Scoring.MediumCutoff || c.Scoring.HighCutoff > 1 {
		return fmt.Errorf("scoring cutoffs must satisfy 0 < medium < high <= 1, got %v/%v",
			c.Scoring.MediumCutoff, c.Scoring.HighCutoff)
	}
	if c.Baseline.SignatureRetention < 0 {
		return fmt.Errorf("baseline.signature_retention must be non-negative, got %d", c.Baseline.SignatureRetention)
	}
	return nil
}
