// Package zakat implements the zakat calculation engine: a pure mapping from a
// category-specific input to a wajib determination and a zakat amount.
//
// The engine is stateless and reentrant. It performs no I/O; nisab reference
// prices and policy values arrive as plain parameters. Every call returns a
// fresh Result value and never mutates its input.
//
// All monetary values use shopspring/decimal — never float64 for money.
package zakat

import (
	"github.com/shopspring/decimal"
)

// Category identifies which zakat formula applies.
type Category string

const (
	CategoryIncome      Category = "income"
	CategoryGold        Category = "gold"
	CategorySilver      Category = "silver"
	CategoryTrade       Category = "trade"
	CategoryAgriculture Category = "agriculture"
)

var validCategories = map[Category]bool{
	CategoryIncome:      true,
	CategoryGold:        true,
	CategorySilver:      true,
	CategoryTrade:       true,
	CategoryAgriculture: true,
}

// ParseCategory validates a category tag.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !validCategories[c] {
		return "", invalid("type", ReasonUnknownCategory)
	}
	return c, nil
}

// Irrigation is the watering method of an agricultural harvest.
type Irrigation string

const (
	IrrigationNatural    Irrigation = "natural"
	IrrigationArtificial Irrigation = "artificial"
)

// ParseIrrigation validates an irrigation method.
func ParseIrrigation(s string) (Irrigation, error) {
	switch Irrigation(s) {
	case IrrigationNatural, IrrigationArtificial:
		return Irrigation(s), nil
	}
	return "", invalid("irrigation_method", ReasonUnknownIrrigation)
}

// Input is the closed set of calculation inputs. Each variant carries exactly
// the fields its formula needs.
type Input interface {
	Category() Category
	isInput()
}

// IncomeInput is professional income zakat. NisabAmount is the gold-equivalent
// threshold computed by the caller (see NisabReference.GoldEquivalent).
type IncomeInput struct {
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	MonthlyDebt   decimal.Decimal `json:"monthly_debt"`
	NisabAmount   decimal.Decimal `json:"nisab_amount"`
}

// GoldInput is zakat on gold holdings.
type GoldInput struct {
	WeightGrams  decimal.Decimal `json:"gold_weight_grams"`
	PricePerGram decimal.Decimal `json:"gold_price_per_gram"`
}

// SilverInput is zakat on silver holdings.
type SilverInput struct {
	WeightGrams  decimal.Decimal `json:"silver_weight_grams"`
	PricePerGram decimal.Decimal `json:"silver_price_per_gram"`
}

// TradeInput is zakat on commercial assets.
type TradeInput struct {
	BusinessAssets decimal.Decimal `json:"business_assets"`
	Debt           decimal.Decimal `json:"debt"`
	NisabAmount    decimal.Decimal `json:"nisab_amount"`
}

// AgricultureInput is zakat on harvest output.
type AgricultureInput struct {
	OutputValue decimal.Decimal `json:"farm_output_value"`
	Irrigation  Irrigation      `json:"irrigation_method"`
}

func (IncomeInput) Category() Category      { return CategoryIncome }
func (GoldInput) Category() Category        { return CategoryGold }
func (SilverInput) Category() Category      { return CategorySilver }
func (TradeInput) Category() Category       { return CategoryTrade }
func (AgricultureInput) Category() Category { return CategoryAgriculture }

func (IncomeInput) isInput()      {}
func (GoldInput) isInput()        {}
func (SilverInput) isInput()      {}
func (TradeInput) isInput()       {}
func (AgricultureInput) isInput() {}

// NisabReference holds current metal prices used to derive currency nisab
// values. Supplied fresh per calculation; the engine never caches it.
type NisabReference struct {
	GoldPricePerGram   decimal.Decimal `json:"gold_price_per_gram"`
	SilverPricePerGram decimal.Decimal `json:"silver_price_per_gram"`
}

// Validate checks that both prices are positive.
func (r NisabReference) Validate() error {
	if !r.GoldPricePerGram.IsPositive() {
		return invalid("gold_price_per_gram", ReasonNotPositive)
	}
	if !r.SilverPricePerGram.IsPositive() {
		return invalid("silver_price_per_gram", ReasonNotPositive)
	}
	return nil
}

// GoldEquivalent returns the currency nisab for income and trade:
// GoldNisabGrams × gold price.
func (r NisabReference) GoldEquivalent(p Policy) decimal.Decimal {
	return p.GoldNisabGrams.Mul(r.GoldPricePerGram)
}

// SilverEquivalent returns SilverNisabGrams × silver price.
func (r NisabReference) SilverEquivalent(p Policy) decimal.Decimal {
	return p.SilverNisabGrams.Mul(r.SilverPricePerGram)
}

// Result is the outcome of one calculation.
//
// ZakatAmount is zero whenever IsWajib is false. ZakatRate is always set so
// callers can show the rate that would apply.
type Result struct {
	Category    Category        `json:"type"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	NisabAmount decimal.Decimal `json:"nisab_amount"`
	IsWajib     bool            `json:"is_wajib"`
	ZakatAmount decimal.Decimal `json:"zakat_amount"`
	ZakatRate   decimal.Decimal `json:"zakat_rate"`
}

var monthsPerYear = decimal.NewFromInt(12)

// Engine evaluates inputs against a fixed Policy.
type Engine struct {
	policy Policy
}

// NewEngine validates p and returns an engine bound to it.
func NewEngine(p Policy) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: p}, nil
}

// Policy returns the policy the engine was built with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Calculate dispatches on the input variant. It fails with ErrInvalidInput
// before constructing any result; a below-nisab outcome is a normal result.
func (e *Engine) Calculate(in Input) (Result, error) {
	switch v := in.(type) {
	case IncomeInput:
		return e.income(v)
	case GoldInput:
		return e.metal(CategoryGold, v.WeightGrams, v.PricePerGram, e.policy.GoldNisabGrams, "gold")
	case SilverInput:
		return e.metal(CategorySilver, v.WeightGrams, v.PricePerGram, e.policy.SilverNisabGrams, "silver")
	case TradeInput:
		return e.trade(v)
	case AgricultureInput:
		return e.agriculture(v)
	}
	return Result{}, invalid("type", ReasonUnknownCategory)
}

func (e *Engine) income(in IncomeInput) (Result, error) {
	if err := nonNegative(
		field{"monthly_income", in.MonthlyIncome},
		field{"monthly_debt", in.MonthlyDebt},
		field{"nisab_amount", in.NisabAmount},
	); err != nil {
		return Result{}, err
	}

	yearlyIncome := in.MonthlyIncome.Mul(monthsPerYear)
	yearlyDebt := in.MonthlyDebt.Mul(monthsPerYear)
	net := yearlyIncome.Sub(yearlyDebt)

	return e.result(CategoryIncome, net, in.NisabAmount, net.GreaterThanOrEqual(in.NisabAmount), e.policy.StandardRate), nil
}

// metal covers gold and silver. The wajib test compares weight against the
// gram nisab, while NetAmount and NisabAmount are reported in currency.
func (e *Engine) metal(c Category, weight, price, nisabGrams decimal.Decimal, prefix string) (Result, error) {
	if err := nonNegative(
		field{prefix + "_weight_grams", weight},
		field{prefix + "_price_per_gram", price},
	); err != nil {
		return Result{}, err
	}

	net := weight.Mul(price)
	nisab := nisabGrams.Mul(price)

	return e.result(c, net, nisab, weight.GreaterThanOrEqual(nisabGrams), e.policy.StandardRate), nil
}

func (e *Engine) trade(in TradeInput) (Result, error) {
	if err := nonNegative(
		field{"business_assets", in.BusinessAssets},
		field{"debt", in.Debt},
		field{"nisab_amount", in.NisabAmount},
	); err != nil {
		return Result{}, err
	}

	net := in.BusinessAssets.Sub(in.Debt)
	return e.result(CategoryTrade, net, in.NisabAmount, net.GreaterThanOrEqual(in.NisabAmount), e.policy.StandardRate), nil
}

func (e *Engine) agriculture(in AgricultureInput) (Result, error) {
	if err := nonNegative(field{"farm_output_value", in.OutputValue}); err != nil {
		return Result{}, err
	}

	var rate decimal.Decimal
	switch in.Irrigation {
	case IrrigationNatural:
		rate = e.policy.NaturalIrrigationRate
	case IrrigationArtificial:
		rate = e.policy.ArtificialIrrigationRate
	default:
		return Result{}, invalid("irrigation_method", ReasonUnknownIrrigation)
	}

	nisab := e.policy.AgricultureNisab
	return e.result(CategoryAgriculture, in.OutputValue, nisab, in.OutputValue.GreaterThanOrEqual(nisab), rate), nil
}

func (e *Engine) result(c Category, net, nisab decimal.Decimal, wajib bool, rate decimal.Decimal) Result {
	amount := decimal.Zero
	if wajib {
		amount = net.Mul(rate)
	}
	return Result{
		Category:    c,
		NetAmount:   net,
		NisabAmount: nisab,
		IsWajib:     wajib,
		ZakatAmount: amount,
		ZakatRate:   rate,
	}
}

var defaultEngine = &Engine{policy: DefaultPolicy()}

// Calculate evaluates in against DefaultPolicy.
func Calculate(in Input) (Result, error) {
	return defaultEngine.Calculate(in)
}
