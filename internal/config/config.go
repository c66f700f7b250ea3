// Package config loads service settings from the environment (optionally
// seeded from a .env file) and religious-policy values from a YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/amanah/zakat-service/internal/zakat"
)

// Config holds service settings.
type Config struct {
	Port        string
	DatabaseURL string // empty → in-memory store
	RedisURL    string // empty → no cache
	CacheTTL    time.Duration

	// NisabSourceURL is an optional JSON price endpoint. Without it the
	// fallback prices are served as-is.
	NisabSourceURL       string
	NisabRefreshSchedule string // cron spec
	NisabTimeout         time.Duration
	FallbackNisab        zakat.NisabReference

	OverdueSweepSchedule string // cron spec

	Policy         zakat.Policy
	DisplayLocale  language.Tag
	CurrencySymbol string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn(".env file could not be read", "err", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can supply values
// without touching the process environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:                 get("PORT", "8080"),
		DatabaseURL:          getenv("DATABASE_URL"),
		RedisURL:             getenv("REDIS_URL"),
		NisabSourceURL:       getenv("NISAB_SOURCE_URL"),
		NisabRefreshSchedule: get("NISAB_REFRESH_SCHEDULE", "@every 1h"),
		OverdueSweepSchedule: get("OVERDUE_SWEEP_SCHEDULE", "5 0 * * *"),
		CurrencySymbol:       get("CURRENCY_SYMBOL", zakat.DefaultCurrencySymbol),
	}

	var err error
	if cfg.CacheTTL, err = time.ParseDuration(get("CACHE_TTL", "30s")); err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}
	if cfg.NisabTimeout, err = time.ParseDuration(get("NISAB_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("NISAB_TIMEOUT: %w", err)
	}

	gold, err := zakat.ParseAmount("GOLD_PRICE_PER_GRAM", get("GOLD_PRICE_PER_GRAM", "1000000"))
	if err != nil {
		return nil, err
	}
	silver, err := zakat.ParseAmount("SILVER_PRICE_PER_GRAM", get("SILVER_PRICE_PER_GRAM", "14000"))
	if err != nil {
		return nil, err
	}
	cfg.FallbackNisab = zakat.NisabReference{GoldPricePerGram: gold, SilverPricePerGram: silver}
	if err := cfg.FallbackNisab.Validate(); err != nil {
		return nil, fmt.Errorf("fallback nisab prices: %w", err)
	}

	if cfg.DisplayLocale, err = language.Parse(get("DISPLAY_LOCALE", "id")); err != nil {
		return nil, fmt.Errorf("DISPLAY_LOCALE: %w", err)
	}

	cfg.Policy = zakat.DefaultPolicy()
	if path := getenv("ZAKAT_POLICY_FILE"); path != "" {
		if cfg.Policy, err = LoadPolicy(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// policyFile mirrors zakat.Policy with optional fields so a file may
// override only some values.
type policyFile struct {
	GoldNisabGrams           *decimal.Decimal `yaml:"gold_nisab_grams"`
	SilverNisabGrams         *decimal.Decimal `yaml:"silver_nisab_grams"`
	AgricultureNisab         *decimal.Decimal `yaml:"agriculture_nisab"`
	StandardRate             *decimal.Decimal `yaml:"standard_rate"`
	NaturalIrrigationRate    *decimal.Decimal `yaml:"natural_irrigation_rate"`
	ArtificialIrrigationRate *decimal.Decimal `yaml:"artificial_irrigation_rate"`
}

// LoadPolicy reads a YAML policy file on top of zakat.DefaultPolicy and
// validates the result.
func LoadPolicy(filename string) (zakat.Policy, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return zakat.Policy{}, fmt.Errorf("failed to read policy file %s: %w", filename, err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes YAML policy overrides.
func ParsePolicy(data []byte) (zakat.Policy, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return zakat.Policy{}, fmt.Errorf("failed to parse policy YAML: %w", err)
	}

	p := zakat.DefaultPolicy()
	override := func(dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
		}
	}
	override(&p.GoldNisabGrams, f.GoldNisabGrams)
	override(&p.SilverNisabGrams, f.SilverNisabGrams)
	override(&p.AgricultureNisab, f.AgricultureNisab)
	override(&p.StandardRate, f.StandardRate)
	override(&p.NaturalIrrigationRate, f.NaturalIrrigationRate)
	override(&p.ArtificialIrrigationRate, f.ArtificialIrrigationRate)

	if err := p.Validate(); err != nil {
		return zakat.Policy{}, fmt.Errorf("policy validation failed: %w", err)
	}
	return p, nil
}
