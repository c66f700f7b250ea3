// Package model defines the persisted domain types shared across the zakat
// service. All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/amanah/zakat-service/internal/zakat"
)

// CalculationRecord is an immutable record of one engine result together
// with the inputs that produced it. Once created, records are never modified.
type CalculationRecord struct {
	ID          string                     `json:"id" db:"id"`
	UserID      string                     `json:"user_id" db:"user_id"`
	Category    zakat.Category             `json:"type" db:"category"`
	Input       map[string]decimal.Decimal `json:"input" db:"input"`
	Irrigation  string                     `json:"irrigation_method,omitempty" db:"irrigation"`
	NetAmount   decimal.Decimal            `json:"net_amount" db:"net_amount"`
	NisabAmount decimal.Decimal            `json:"nisab_amount" db:"nisab_amount"`
	IsWajib     bool                       `json:"is_wajib" db:"is_wajib"`
	ZakatAmount decimal.Decimal            `json:"zakat_amount" db:"zakat_amount"`
	ZakatRate   decimal.Decimal            `json:"zakat_rate" db:"zakat_rate"`
	CreatedAt   time.Time                  `json:"created_at" db:"created_at"`
}

// Result returns the engine view of the record.
func (r CalculationRecord) Result() zakat.Result {
	return zakat.Result{
		Category:    r.Category,
		NetAmount:   r.NetAmount,
		NisabAmount: r.NisabAmount,
		IsWajib:     r.IsWajib,
		ZakatAmount: r.ZakatAmount,
		ZakatRate:   r.ZakatRate,
	}
}

// Payment status values.
const (
	PaymentScheduled = "scheduled"
	PaymentPaid      = "paid"
	PaymentOverdue   = "overdue"
)

// Payment is a scheduled or completed zakat payment. CalculationID links it
// to the calculation it settles, when there is one.
type Payment struct {
	ID            string          `json:"id" db:"id"`
	UserID        string          `json:"user_id" db:"user_id"`
	CalculationID string          `json:"calculation_id,omitempty" db:"calculation_id"`
	Installment   int             `json:"installment" db:"installment"` // 1-based
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	DueDate       time.Time       `json:"due_date" db:"due_date"`
	Status        string          `json:"status" db:"status"`
	PaidAt        *time.Time      `json:"paid_at,omitempty" db:"paid_at"`
	Note          string          `json:"note,omitempty" db:"note"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Donation kinds. Infaq and shadaqoh are voluntary and have no formula.
const (
	DonationInfaq    = "infaq"
	DonationShadaqoh = "shadaqoh"
	DonationZakat    = "zakat"
)

// Asnaf are the eight mustahik (recipient) categories.
var Asnaf = map[string]bool{
	"fakir":        true,
	"miskin":       true,
	"amil":         true,
	"mualaf":       true,
	"riqab":        true,
	"gharimin":     true,
	"fisabilillah": true,
	"ibnu_sabil":   true,
}

// Donation is a flat, user-entered charitable gift.
type Donation struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Kind      string          `json:"kind" db:"kind"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Recipient string          `json:"recipient,omitempty" db:"recipient"` // mustahik category
	Note      string          `json:"note,omitempty" db:"note"`
	GivenAt   time.Time       `json:"given_at" db:"given_at"`
}

// CategoryTotal sums wajib zakat due for one category.
type CategoryTotal struct {
	Category     zakat.Category  `json:"type"`
	Calculations int             `json:"calculations"`
	ZakatDue     decimal.Decimal `json:"zakat_due"`
}

// PeriodTotals are the figures shared by yearly and monthly summaries.
type PeriodTotals struct {
	ZakatDue        decimal.Decimal `json:"zakat_due"`
	ZakatPaid       decimal.Decimal `json:"zakat_paid"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	InfaqShadaqoh   decimal.Decimal `json:"infaq_shadaqoh"`
	Calculations    int             `json:"calculations"`
	WajibCount      int             `json:"wajib_count"`
	PaymentsOverdue int             `json:"payments_overdue"`
}

// YearlySummary aggregates a user's activity for one calendar year.
type YearlySummary struct {
	UserID     string          `json:"user_id"`
	Year       int             `json:"year"`
	Totals     PeriodTotals    `json:"totals"`
	ByCategory []CategoryTotal `json:"by_category"`
}

// MonthlySummary aggregates one month of a year.
type MonthlySummary struct {
	Month  time.Month   `json:"month"`
	Totals PeriodTotals `json:"totals"`
}

// MonthlyReport holds twelve MonthlySummary rows for a year.
type MonthlyReport struct {
	UserID string           `json:"user_id"`
	Year   int              `json:"year"`
	Months []MonthlySummary `json:"months"`
}

// NewCalculationRecord captures an input and its result for storage.
func NewCalculationRecord(id, userID string, in zakat.Input, r zakat.Result, at time.Time) CalculationRecord {
	rec := CalculationRecord{
		ID:          id,
		UserID:      userID,
		Category:    r.Category,
		Input:       make(map[string]decimal.Decimal),
		NetAmount:   r.NetAmount,
		NisabAmount: r.NisabAmount,
		IsWajib:     r.IsWajib,
		ZakatAmount: r.ZakatAmount,
		ZakatRate:   r.ZakatRate,
		CreatedAt:   at,
	}

	switch v := in.(type) {
	case zakat.IncomeInput:
		rec.Input["monthly_income"] = v.MonthlyIncome
		rec.Input["monthly_debt"] = v.MonthlyDebt
		rec.Input["nisab_amount"] = v.NisabAmount
	case zakat.GoldInput:
		rec.Input["gold_weight_grams"] = v.WeightGrams
		rec.Input["gold_price_per_gram"] = v.PricePerGram
	case zakat.SilverInput:
		rec.Input["silver_weight_grams"] = v.WeightGrams
		rec.Input["silver_price_per_gram"] = v.PricePerGram
	case zakat.TradeInput:
		rec.Input["business_assets"] = v.BusinessAssets
		rec.Input["debt"] = v.Debt
		rec.Input["nisab_amount"] = v.NisabAmount
	case zakat.AgricultureInput:
		rec.Input["farm_output_value"] = v.OutputValue
		rec.Irrigation = string(v.Irrigation)
	}
	return rec
}
