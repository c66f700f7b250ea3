package zakat

import (
	"github.com/shopspring/decimal"
)

// Policy holds the religious-policy constants the formulas evaluate against.
// Values legitimately differ between jurisdictions and scholarly opinions, so
// they are configuration rather than arithmetic.
type Policy struct {
	// GoldNisabGrams is the gold nisab weight (85 g).
	GoldNisabGrams decimal.Decimal `json:"gold_nisab_grams" yaml:"gold_nisab_grams"`

	// SilverNisabGrams is the silver nisab weight (595 g).
	SilverNisabGrams decimal.Decimal `json:"silver_nisab_grams" yaml:"silver_nisab_grams"`

	// AgricultureNisab is a flat currency proxy for 5 wasaq (~653 kg of
	// staple grain). It is not converted at live commodity prices.
	AgricultureNisab decimal.Decimal `json:"agriculture_nisab" yaml:"agriculture_nisab"`

	// StandardRate applies to income, gold, silver and trade.
	StandardRate decimal.Decimal `json:"standard_rate" yaml:"standard_rate"`

	// NaturalIrrigationRate applies to rain- or river-fed harvests.
	NaturalIrrigationRate decimal.Decimal `json:"natural_irrigation_rate" yaml:"natural_irrigation_rate"`

	// ArtificialIrrigationRate applies to harvests watered at a cost.
	ArtificialIrrigationRate decimal.Decimal `json:"artificial_irrigation_rate" yaml:"artificial_irrigation_rate"`
}

// Default policy values.
var (
	DefaultGoldNisabGrams           = decimal.NewFromInt(85)
	DefaultSilverNisabGrams         = decimal.NewFromInt(595)
	DefaultAgricultureNisab         = decimal.NewFromInt(6_530_000) // 653 kg × 10.000/kg
	DefaultStandardRate             = decimal.RequireFromString("0.025")
	DefaultNaturalIrrigationRate    = decimal.RequireFromString("0.10")
	DefaultArtificialIrrigationRate = decimal.RequireFromString("0.05")
)

// DefaultPolicy returns the commonly used thresholds and rates.
func DefaultPolicy() Policy {
	return Policy{
		GoldNisabGrams:           DefaultGoldNisabGrams,
		SilverNisabGrams:         DefaultSilverNisabGrams,
		AgricultureNisab:         DefaultAgricultureNisab,
		StandardRate:             DefaultStandardRate,
		NaturalIrrigationRate:    DefaultNaturalIrrigationRate,
		ArtificialIrrigationRate: DefaultArtificialIrrigationRate,
	}
}

// Validate requires positive thresholds and rates within (0, 1].
func (p Policy) Validate() error {
	for _, f := range []field{
		{"gold_nisab_grams", p.GoldNisabGrams},
		{"silver_nisab_grams", p.SilverNisabGrams},
		{"agriculture_nisab", p.AgricultureNisab},
	} {
		if !f.value.IsPositive() {
			return invalid(f.name, ReasonNotPositive)
		}
	}

	one := decimal.NewFromInt(1)
	for _, f := range []field{
		{"standard_rate", p.StandardRate},
		{"natural_irrigation_rate", p.NaturalIrrigationRate},
		{"artificial_irrigation_rate", p.ArtificialIrrigationRate},
	} {
		if !f.value.IsPositive() || f.value.GreaterThan(one) {
			return invalid(f.name, ReasonOutOfRange)
		}
	}
	return nil
}
