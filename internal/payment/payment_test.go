package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanah/zakat-service/internal/model"
	"github.com/amanah/zakat-service/internal/zakat"
)

var now = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestSchedule_SingleInstallment(t *testing.T) {
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	ps, err := Schedule(Plan{UserID: "user1", Total: d(3_000_000), FirstDue: due}, now)
	require.NoError(t, err)
	require.Len(t, ps, 1)

	assert.True(t, ps[0].Amount.Equal(d(3_000_000)))
	assert.Equal(t, 1, ps[0].Installment)
	assert.Equal(t, model.PaymentScheduled, ps[0].Status)
	assert.Equal(t, due, ps[0].DueDate)
	assert.NotEmpty(t, ps[0].ID)
}

func TestSchedule_RemainderOnLastInstallment(t *testing.T) {
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	ps, err := Schedule(Plan{UserID: "user1", CalculationID: "c1", Total: d(2_125_000.5), Installments: 3, FirstDue: due}, now)
	require.NoError(t, err)
	require.Len(t, ps, 3)

	assert.True(t, ps[0].Amount.Equal(d(708_333)), "got %s", ps[0].Amount)
	assert.True(t, ps[1].Amount.Equal(d(708_333)), "got %s", ps[1].Amount)
	assert.True(t, ps[2].Amount.Equal(d(708_334.5)), "got %s", ps[2].Amount)

	sum := decimal.Zero
	for _, p := range ps {
		sum = sum.Add(p.Amount)
		assert.Equal(t, "c1", p.CalculationID)
	}
	assert.True(t, sum.Equal(d(2_125_000.5)), "installments must sum to total, got %s", sum)

	assert.Equal(t, time.December, ps[1].DueDate.Month())
	assert.Equal(t, 2027, ps[2].DueDate.Year())
	assert.Equal(t, time.January, ps[2].DueDate.Month())
}

func TestSchedule_FractionStaysOnLastInstallment(t *testing.T) {
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	ps, err := Schedule(Plan{UserID: "user1", Total: d(100.5), Installments: 2, FirstDue: due}, now)
	require.NoError(t, err)
	require.Len(t, ps, 2)

	assert.True(t, ps[0].Amount.Equal(d(50)), "got %s", ps[0].Amount)
	assert.True(t, ps[0].Amount.Equal(ps[0].Amount.Truncate(0)), "leading installment must be whole")
	assert.True(t, ps[1].Amount.Equal(d(50.5)), "got %s", ps[1].Amount)
	assert.True(t, ps[0].Amount.Add(ps[1].Amount).Equal(d(100.5)))
}

func TestSchedule_Rejections(t *testing.T) {
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		plan  Plan
		field string
	}{
		{"no user", Plan{Total: d(1), FirstDue: due}, "user_id"},
		{"zero total", Plan{UserID: "u", Total: decimal.Zero, FirstDue: due}, "amount"},
		{"negative total", Plan{UserID: "u", Total: d(-5), FirstDue: due}, "amount"},
		{"too many", Plan{UserID: "u", Total: d(1000), Installments: 13, FirstDue: due}, "installments"},
		{"negative count", Plan{UserID: "u", Total: d(1000), Installments: -1, FirstDue: due}, "installments"},
		{"too small", Plan{UserID: "u", Total: d(2), Installments: 3, FirstDue: due}, "installments"},
		{"no due date", Plan{UserID: "u", Total: d(1000)}, "due_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Schedule(tt.plan, now)
			require.True(t, errors.Is(err, zakat.ErrInvalidInput), "got %v", err)
			var ie *zakat.InvalidInputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestIsOverdue(t *testing.T) {
	asOf := StartOfDay(now)
	yesterday := asOf.AddDate(0, 0, -1)

	assert.True(t, IsOverdue(model.Payment{Status: model.PaymentScheduled, DueDate: yesterday}, asOf))
	assert.False(t, IsOverdue(model.Payment{Status: model.PaymentScheduled, DueDate: asOf}, asOf), "due today is not overdue")
	assert.False(t, IsOverdue(model.Payment{Status: model.PaymentPaid, DueDate: yesterday}, asOf))
}

func TestNewDonation(t *testing.T) {
	dn, err := NewDonation(DonationRequest{UserID: "user1", Kind: model.DonationInfaq, Amount: d(50_000), Recipient: "miskin"}, now)
	require.NoError(t, err)
	assert.Equal(t, now, dn.GivenAt)
	assert.NotEmpty(t, dn.ID)

	_, err = NewDonation(DonationRequest{UserID: "user1", Kind: "wakaf", Amount: d(1)}, now)
	assert.True(t, errors.Is(err, zakat.ErrInvalidInput))

	_, err = NewDonation(DonationRequest{UserID: "user1", Kind: model.DonationShadaqoh, Amount: decimal.Zero}, now)
	assert.True(t, errors.Is(err, zakat.ErrInvalidInput))

	_, err = NewDonation(DonationRequest{UserID: "user1", Kind: model.DonationShadaqoh, Amount: d(1), Recipient: "neighbour"}, now)
	assert.True(t, errors.Is(err, zakat.ErrInvalidInput))
}
