// Package report aggregates stored calculations, payments and donations into
// yearly and monthly summaries. Aggregation is pure; callers load the rows.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amanah/zakat-service/internal/model"
	"github.com/amanah/zakat-service/internal/zakat"
)

// Activity is everything recorded for one user.
type Activity struct {
	Calculations []model.CalculationRecord
	Payments     []model.Payment
	Donations    []model.Donation
}

// Yearly summarises year for userID. Zakat due counts wajib calculations
// created in the year; paid counts payments marked paid in the year.
func Yearly(userID string, year int, a Activity) model.YearlySummary {
	inYear := func(t time.Time) bool { return t.Year() == year }

	byCat := make(map[zakat.Category]*model.CategoryTotal)
	for _, c := range a.Calculations {
		if !inYear(c.CreatedAt) || !c.IsWajib {
			continue
		}
		ct, ok := byCat[c.Category]
		if !ok {
			ct = &model.CategoryTotal{Category: c.Category}
			byCat[c.Category] = ct
		}
		ct.Calculations++
		ct.ZakatDue = ct.ZakatDue.Add(c.ZakatAmount)
	}

	categories := make([]model.CategoryTotal, 0, len(byCat))
	for _, ct := range byCat {
		categories = append(categories, *ct)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Category < categories[j].Category
	})

	return model.YearlySummary{
		UserID:     userID,
		Year:       year,
		Totals:     totals(a, inYear),
		ByCategory: categories,
	}
}

// Monthly summarises each month of year for userID. All twelve months are
// present even when empty.
func Monthly(userID string, year int, a Activity) model.MonthlyReport {
	months := make([]model.MonthlySummary, 0, 12)
	for m := time.January; m <= time.December; m++ {
		month := m
		inMonth := func(t time.Time) bool { return t.Year() == year && t.Month() == month }
		months = append(months, model.MonthlySummary{
			Month:  month,
			Totals: totals(a, inMonth),
		})
	}
	return model.MonthlyReport{UserID: userID, Year: year, Months: months}
}

func totals(a Activity, in func(time.Time) bool) model.PeriodTotals {
	var t model.PeriodTotals
	t.ZakatDue = decimal.Zero
	t.ZakatPaid = decimal.Zero
	t.InfaqShadaqoh = decimal.Zero

	for _, c := range a.Calculations {
		if !in(c.CreatedAt) {
			continue
		}
		t.Calculations++
		if c.IsWajib {
			t.WajibCount++
			t.ZakatDue = t.ZakatDue.Add(c.ZakatAmount)
		}
	}

	for _, p := range a.Payments {
		switch p.Status {
		case model.PaymentPaid:
			if p.PaidAt != nil && in(*p.PaidAt) {
				t.ZakatPaid = t.ZakatPaid.Add(p.Amount)
			}
		case model.PaymentOverdue:
			if in(p.DueDate) {
				t.PaymentsOverdue++
			}
		}
	}

	for _, d := range a.Donations {
		if !in(d.GivenAt) {
			continue
		}
		switch d.Kind {
		case model.DonationInfaq, model.DonationShadaqoh:
			t.InfaqShadaqoh = t.InfaqShadaqoh.Add(d.Amount)
		case model.DonationZakat:
			// Zakat handed over directly counts as paid.
			t.ZakatPaid = t.ZakatPaid.Add(d.Amount)
		}
	}

	t.Outstanding = t.ZakatDue.Sub(t.ZakatPaid)
	if t.Outstanding.IsNegative() {
		t.Outstanding = decimal.Zero
	}
	return t
}
