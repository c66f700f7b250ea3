package api

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/amanah/zakat-service/internal/zakat"
)

// Amount is a monetary JSON field. It accepts a number or a numeric string
// and keeps the raw text, so a bad value ("NaN", "lots") is reported against
// its own field instead of failing the whole body.
type Amount struct {
	raw string
}

// UnmarshalJSON never fails; validation happens in Value.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	a.raw = s
	return nil
}

// Value parses the amount, naming field in any error.
func (a *Amount) Value(field string) (decimal.Decimal, error) {
	return zakat.ParseAmount(field, a.raw)
}

// CalculationRequest is the JSON body for POST /calculate and
// POST /calculations. Only the fields of the chosen type are read.
type CalculationRequest struct {
	UserID string `json:"user_id,omitempty"`
	Type   string `json:"type"`

	// income
	MonthlyIncome *Amount `json:"monthly_income,omitempty"`
	MonthlyDebt   *Amount `json:"monthly_debt,omitempty"`

	// income and trade; defaults to the gold equivalent of the current
	// nisab reference
	NisabAmount *Amount `json:"nisab_amount,omitempty"`

	// gold; price defaults to the current reference
	GoldWeightGrams  *Amount `json:"gold_weight_grams,omitempty"`
	GoldPricePerGram *Amount `json:"gold_price_per_gram,omitempty"`

	// silver; price defaults to the current reference
	SilverWeightGrams  *Amount `json:"silver_weight_grams,omitempty"`
	SilverPricePerGram *Amount `json:"silver_price_per_gram,omitempty"`

	// trade
	BusinessAssets *Amount `json:"business_assets,omitempty"`
	Debt           *Amount `json:"debt,omitempty"`

	// agriculture
	FarmOutputValue  *Amount `json:"farm_output_value,omitempty"`
	IrrigationMethod string  `json:"irrigation_method,omitempty"`
}

func required(name string, v *Amount) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Zero, zakat.Invalid(name, zakat.ReasonRequired)
	}
	return v.Value(name)
}

func optional(name string, v *Amount, def decimal.Decimal) (decimal.Decimal, error) {
	if v == nil {
		return def, nil
	}
	return v.Value(name)
}

// toInput converts the loosely shaped request into the engine's closed input
// type. ref fills in caller-side defaults (nisab amount, metal prices).
func (req CalculationRequest) toInput(ref zakat.NisabReference, policy zakat.Policy) (zakat.Input, error) {
	category, err := zakat.ParseCategory(req.Type)
	if err != nil {
		return nil, err
	}

	switch category {
	case zakat.CategoryIncome:
		income, err := required("monthly_income", req.MonthlyIncome)
		if err != nil {
			return nil, err
		}
		debt, err := optional("monthly_debt", req.MonthlyDebt, decimal.Zero)
		if err != nil {
			return nil, err
		}
		nisab, err := optional("nisab_amount", req.NisabAmount, ref.GoldEquivalent(policy))
		if err != nil {
			return nil, err
		}
		return zakat.IncomeInput{MonthlyIncome: income, MonthlyDebt: debt, NisabAmount: nisab}, nil

	case zakat.CategoryGold:
		weight, err := required("gold_weight_grams", req.GoldWeightGrams)
		if err != nil {
			return nil, err
		}
		price, err := optional("gold_price_per_gram", req.GoldPricePerGram, ref.GoldPricePerGram)
		if err != nil {
			return nil, err
		}
		return zakat.GoldInput{WeightGrams: weight, PricePerGram: price}, nil

	case zakat.CategorySilver:
		weight, err := required("silver_weight_grams", req.SilverWeightGrams)
		if err != nil {
			return nil, err
		}
		price, err := optional("silver_price_per_gram", req.SilverPricePerGram, ref.SilverPricePerGram)
		if err != nil {
			return nil, err
		}
		return zakat.SilverInput{WeightGrams: weight, PricePerGram: price}, nil

	case zakat.CategoryTrade:
		assets, err := required("business_assets", req.BusinessAssets)
		if err != nil {
			return nil, err
		}
		debt, err := optional("debt", req.Debt, decimal.Zero)
		if err != nil {
			return nil, err
		}
		nisab, err := optional("nisab_amount", req.NisabAmount, ref.GoldEquivalent(policy))
		if err != nil {
			return nil, err
		}
		return zakat.TradeInput{BusinessAssets: assets, Debt: debt, NisabAmount: nisab}, nil

	case zakat.CategoryAgriculture:
		output, err := required("farm_output_value", req.FarmOutputValue)
		if err != nil {
			return nil, err
		}
		if req.IrrigationMethod == "" {
			return nil, zakat.Invalid("irrigation_method", zakat.ReasonRequired)
		}
		irrigation, err := zakat.ParseIrrigation(req.IrrigationMethod)
		if err != nil {
			return nil, err
		}
		return zakat.AgricultureInput{OutputValue: output, Irrigation: irrigation}, nil
	}
	return nil, zakat.Invalid("type", zakat.ReasonUnknownCategory)
}
