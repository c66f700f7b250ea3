// Package payment schedules zakat payments in installments and validates
// voluntary donations before they are stored.
package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amanah/zakat-service/internal/model"
	"github.com/amanah/zakat-service/internal/zakat"
)

// MaxInstallments caps a schedule at one lunar year of monthly payments.
const MaxInstallments = 12

// Plan describes a payment schedule request.
type Plan struct {
	UserID        string
	CalculationID string
	Total         decimal.Decimal
	Installments  int
	FirstDue      time.Time
	Note          string
}

// Schedule splits p.Total into monthly installments. Every installment but
// the last is a whole currency unit; the last absorbs the remainder,
// fraction included, so the parts sum exactly to the total.
func Schedule(p Plan, now time.Time) ([]model.Payment, error) {
	if p.UserID == "" {
		return nil, zakat.Invalid("user_id", zakat.ReasonRequired)
	}
	if !p.Total.IsPositive() {
		return nil, zakat.Invalid("amount", zakat.ReasonNotPositive)
	}
	n := p.Installments
	if n == 0 {
		n = 1
	}
	if n < 1 || n > MaxInstallments {
		return nil, zakat.Invalid("installments", zakat.ReasonOutOfRange)
	}
	if p.FirstDue.IsZero() {
		return nil, zakat.Invalid("due_date", zakat.ReasonRequired)
	}

	per := p.Total.Div(decimal.NewFromInt(int64(n))).Floor()
	if n > 1 && per.IsZero() {
		return nil, zakat.Invalid("installments", zakat.ReasonOutOfRange)
	}
	last := p.Total.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))

	payments := make([]model.Payment, 0, n)
	for i := 0; i < n; i++ {
		amount := per
		if i == n-1 {
			amount = last
		}
		payments = append(payments, model.Payment{
			ID:            uuid.New().String(),
			UserID:        p.UserID,
			CalculationID: p.CalculationID,
			Installment:   i + 1,
			Amount:        amount,
			DueDate:       p.FirstDue.AddDate(0, i, 0),
			Status:        model.PaymentScheduled,
			Note:          p.Note,
			CreatedAt:     now,
		})
	}
	return payments, nil
}

// IsOverdue reports whether a scheduled payment is past due as of asOf.
// Paid and already-overdue payments are not reported.
func IsOverdue(p model.Payment, asOf time.Time) bool {
	return p.Status == model.PaymentScheduled && p.DueDate.Before(asOf)
}

// StartOfDay truncates t to midnight in its location. The overdue sweep uses
// it so that a payment due today is not overdue until tomorrow.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
