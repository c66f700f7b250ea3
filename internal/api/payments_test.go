package api_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/amanah/zakat-service/internal/model"
	"github.com/amanah/zakat-service/internal/zakat"
)

func TestCreatePayment_FromCalculationInInstallments(t *testing.T) {
	_, ms, router := newTestEnv(t)
	// 85 g at 1,000,000/g → 2,125,000 due.
	seedCalculation(t, ms, "calc-1", "user1", zakat.GoldInput{WeightGrams: d(85), PricePerGram: d(1_000_000)})

	w := do(t, router, "POST", "/api/v1/payments", map[string]any{
		"user_id":        "user1",
		"calculation_id": "calc-1",
		"installments":   3,
		"due_date":       "2026-04-01",
	})
	expectStatus(t, w, http.StatusCreated)

	payments := decode[[]model.Payment](t, w)
	if len(payments) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(payments))
	}
	sum := d(0)
	for _, p := range payments {
		sum = sum.Add(p.Amount)
		if p.CalculationID != "calc-1" || p.Status != model.PaymentScheduled {
			t.Errorf("unexpected payment %+v", p)
		}
	}
	if !sum.Equal(d(2_125_000)) {
		t.Errorf("installments sum to %s, expected 2125000", sum)
	}
	if got := payments[2].DueDate.Format("2006-01-02"); got != "2026-06-01" {
		t.Errorf("expected last installment due 2026-06-01, got %s", got)
	}
}

func TestCreatePayment_Rejections(t *testing.T) {
	_, ms, router := newTestEnv(t)
	seedCalculation(t, ms, "calc-1", "user1", zakat.GoldInput{WeightGrams: d(85), PricePerGram: d(1_000_000)})
	seedCalculation(t, ms, "calc-low", "user1", zakat.GoldInput{WeightGrams: d(10), PricePerGram: d(1_000_000)})

	tests := []struct {
		name   string
		body   map[string]any
		status int
		field  string
	}{
		{"other user's calculation", map[string]any{"user_id": "user2", "calculation_id": "calc-1", "due_date": "2026-04-01"}, http.StatusBadRequest, "calculation_id"},
		{"unknown calculation", map[string]any{"user_id": "user1", "calculation_id": "nope", "due_date": "2026-04-01"}, http.StatusNotFound, ""},
		{"nothing due", map[string]any{"user_id": "user1", "calculation_id": "calc-low", "due_date": "2026-04-01"}, http.StatusBadRequest, "amount"},
		{"bad due date", map[string]any{"user_id": "user1", "amount": "100", "due_date": "next week"}, http.StatusBadRequest, "due_date"},
		{"missing due date", map[string]any{"user_id": "user1", "amount": "100"}, http.StatusBadRequest, "due_date"},
		{"too many installments", map[string]any{"user_id": "user1", "amount": "100000", "installments": 13, "due_date": "2026-04-01"}, http.StatusBadRequest, "installments"},
		{"non-finite amount", map[string]any{"user_id": "user1", "amount": "NaN", "due_date": "2026-04-01"}, http.StatusBadRequest, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, "POST", "/api/v1/payments", tt.body)
			expectStatus(t, w, tt.status)
			if tt.field == "" {
				return
			}
			if resp := decode[map[string]string](t, w); resp["field"] != tt.field {
				t.Errorf("expected field %s, got %v", tt.field, resp)
			}
		})
	}
}

func TestPayPayment_OnceOnly(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/payments", map[string]any{
		"user_id":  "user1",
		"amount":   "250000",
		"due_date": "2026-04-01",
	})
	expectStatus(t, w, http.StatusCreated)
	id := decode[[]model.Payment](t, w)[0].ID

	w = do(t, router, "POST", "/api/v1/payments/"+id+"/pay", nil)
	expectStatus(t, w, http.StatusOK)
	paid := decode[model.Payment](t, w)
	if paid.Status != model.PaymentPaid || paid.PaidAt == nil || !paid.PaidAt.Equal(fixedNow) {
		t.Errorf("unexpected paid payment %+v", paid)
	}

	w = do(t, router, "POST", "/api/v1/payments/"+id+"/pay", nil)
	expectStatus(t, w, http.StatusConflict)

	w = do(t, router, "POST", "/api/v1/payments/unknown/pay", map[string]any{"paid_at": "2026-03-01"})
	expectStatus(t, w, http.StatusNotFound)
}

func TestSweepOverdue(t *testing.T) {
	svc, ms, router := newTestEnv(t)

	for _, due := range []string{"2026-03-09", "2026-03-10", "2026-03-11"} {
		w := do(t, router, "POST", "/api/v1/payments", map[string]any{
			"user_id":  "user1",
			"amount":   "1000",
			"due_date": due,
		})
		expectStatus(t, w, http.StatusCreated)
	}

	n, err := svc.SweepOverdue(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected only yesterday's payment overdue, got %d", n)
	}

	payments, _ := ms.ListPaymentsByUser(context.Background(), "user1")
	statuses := make([]string, 0, len(payments))
	for _, p := range payments {
		statuses = append(statuses, p.Status)
	}
	if fmt.Sprint(statuses) != "[overdue scheduled scheduled]" {
		t.Errorf("unexpected statuses %v", statuses)
	}

	if n, _ := svc.SweepOverdue(context.Background()); n != 0 {
		t.Errorf("second sweep should change nothing, changed %d", n)
	}
}

func TestDonations(t *testing.T) {
	_, _, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/donations", map[string]any{
		"user_id":   "user1",
		"kind":      "infaq",
		"amount":    "50000",
		"recipient": "miskin",
	})
	expectStatus(t, w, http.StatusCreated)
	created := decode[model.Donation](t, w)
	if !created.GivenAt.Equal(fixedNow) {
		t.Errorf("expected given_at to default to now, got %v", created.GivenAt)
	}

	w = do(t, router, "POST", "/api/v1/donations", map[string]any{
		"user_id": "user1",
		"kind":    "gift",
		"amount":  "50000",
	})
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, router, "POST", "/api/v1/donations", map[string]any{
		"user_id": "user1",
		"kind":    "infaq",
		"amount":  "Infinity",
	})
	expectStatus(t, w, http.StatusBadRequest)
	if resp := decode[map[string]string](t, w); resp["field"] != "amount" || resp["reason"] != zakat.ReasonNonFinite {
		t.Errorf("expected amount/non-finite, got %v", resp)
	}

	w = do(t, router, "GET", "/api/v1/users/user1/donations", nil)
	expectStatus(t, w, http.StatusOK)
	if list := decode[[]model.Donation](t, w); len(list) != 1 {
		t.Errorf("expected 1 donation, got %d", len(list))
	}

	w = do(t, router, "GET", "/api/v1/users/nobody/donations", nil)
	expectStatus(t, w, http.StatusOK)
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestReports(t *testing.T) {
	_, ms, router := newTestEnv(t)
	seedCalculation(t, ms, "calc-1", "user1", zakat.GoldInput{WeightGrams: d(85), PricePerGram: d(1_000_000)})

	w := do(t, router, "POST", "/api/v1/payments", map[string]any{
		"user_id":        "user1",
		"calculation_id": "calc-1",
		"amount":         "1000000",
		"due_date":       "2026-03-01",
	})
	expectStatus(t, w, http.StatusCreated)
	id := decode[[]model.Payment](t, w)[0].ID
	expectStatus(t, do(t, router, "POST", "/api/v1/payments/"+id+"/pay", nil), http.StatusOK)

	w = do(t, router, "GET", "/api/v1/users/user1/reports/yearly?year=2026", nil)
	expectStatus(t, w, http.StatusOK)
	yearly := decode[model.YearlySummary](t, w)
	if !yearly.Totals.ZakatDue.Equal(d(2_125_000)) {
		t.Errorf("expected due 2125000, got %s", yearly.Totals.ZakatDue)
	}
	if !yearly.Totals.ZakatPaid.Equal(d(1_000_000)) {
		t.Errorf("expected paid 1000000, got %s", yearly.Totals.ZakatPaid)
	}
	if !yearly.Totals.Outstanding.Equal(d(1_125_000)) {
		t.Errorf("expected outstanding 1125000, got %s", yearly.Totals.Outstanding)
	}

	// year defaults to the current year
	w = do(t, router, "GET", "/api/v1/users/user1/reports/monthly", nil)
	expectStatus(t, w, http.StatusOK)
	monthly := decode[model.MonthlyReport](t, w)
	if monthly.Year != 2026 || len(monthly.Months) != 12 {
		t.Fatalf("unexpected monthly report shape: year %d, %d months", monthly.Year, len(monthly.Months))
	}
	if !monthly.Months[2].Totals.ZakatDue.Equal(d(2_125_000)) {
		t.Errorf("expected March due 2125000, got %s", monthly.Months[2].Totals.ZakatDue)
	}

	w = do(t, router, "GET", "/api/v1/users/user1/reports/yearly?year=abc", nil)
	expectStatus(t, w, http.StatusBadRequest)
}
