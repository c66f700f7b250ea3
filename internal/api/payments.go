package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amanah/zakat-service/internal/metrics"
	"github.com/amanah/zakat-service/internal/model"
	"github.com/amanah/zakat-service/internal/payment"
	"github.com/amanah/zakat-service/internal/zakat"
)

// PaymentRequest is the JSON body for POST /api/v1/payments.
type PaymentRequest struct {
	UserID        string `json:"user_id"`
	CalculationID string `json:"calculation_id,omitempty"`
	// Amount defaults to the linked calculation's zakat amount.
	Amount       *Amount `json:"amount,omitempty"`
	Installments int     `json:"installments,omitempty"`
	DueDate      string  `json:"due_date"` // YYYY-MM-DD or RFC 3339
	Note         string  `json:"note,omitempty"`
}

// PayRequest is the optional JSON body for POST /api/v1/payments/{id}/pay.
type PayRequest struct {
	PaidAt string `json:"paid_at,omitempty"`
}

// DonationRequest is the JSON body for POST /api/v1/donations.
type DonationRequest struct {
	UserID    string  `json:"user_id"`
	Kind      string  `json:"kind"`
	Amount    *Amount `json:"amount"`
	Recipient string  `json:"recipient,omitempty"`
	Note      string  `json:"note,omitempty"`
	GivenAt   string  `json:"given_at,omitempty"`
}

func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, zakat.Invalid(field, zakat.ReasonOutOfRange)
	}
	return t.UTC(), nil
}

// CreatePayment handles POST /api/v1/payments
// Schedules one or more installments, optionally linked to a calculation.
func (s *Service) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errBadBody)
		return
	}

	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		writeErr(w, err)
		return
	}

	plan := payment.Plan{
		UserID:        req.UserID,
		CalculationID: req.CalculationID,
		Installments:  req.Installments,
		FirstDue:      due,
		Note:          req.Note,
	}

	if req.CalculationID != "" {
		rec, err := s.store.GetCalculation(r.Context(), req.CalculationID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if rec.UserID != req.UserID {
			writeErr(w, zakat.Invalid("calculation_id", zakat.ReasonOutOfRange))
			return
		}
		plan.Total = rec.ZakatAmount
	}
	if req.Amount != nil {
		if plan.Total, err = req.Amount.Value("amount"); err != nil {
			writeErr(w, err)
			return
		}
	}

	payments, err := payment.Schedule(plan, s.now())
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.store.CreatePayments(r.Context(), payments); err != nil {
		writeErr(w, err)
		return
	}

	slog.Info("payments scheduled",
		"user", plan.UserID,
		"calculation", plan.CalculationID,
		"installments", len(payments),
		"total", plan.Total.String(),
	)

	writeJSON(w, http.StatusCreated, payments)
}

// PayPayment handles POST /api/v1/payments/{paymentID}/pay
// Marks a scheduled or overdue payment as paid. Paying twice is a conflict.
func (s *Service) PayPayment(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, errBadBody)
		return
	}

	paidAt, err := parseDate("paid_at", req.PaidAt)
	if err != nil {
		writeErr(w, err)
		return
	}
	if paidAt.IsZero() {
		paidAt = s.now()
	}

	p, err := s.store.MarkPaymentPaid(r.Context(), chi.URLParam(r, "paymentID"), paidAt)
	if err != nil {
		writeErr(w, err)
		return
	}

	slog.Info("payment paid", "id", p.ID, "user", p.UserID, "amount", p.Amount.String())

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:          "payment_paid",
			UserID:        p.UserID,
			PaymentID:     p.ID,
			CalculationID: p.CalculationID,
			Amount:        p.Amount.String(),
		})
	}

	writeJSON(w, http.StatusOK, p)
}

// ListPayments handles GET /api/v1/users/{userID}/payments
func (s *Service) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.store.ListPaymentsByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, "failed to list payments", http.StatusInternalServerError)
		return
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

// CreateDonation handles POST /api/v1/donations
func (s *Service) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var req DonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, errBadBody)
		return
	}

	given, err := parseDate("given_at", req.GivenAt)
	if err != nil {
		writeErr(w, err)
		return
	}
	amount, err := required("amount", req.Amount)
	if err != nil {
		writeErr(w, err)
		return
	}

	d, err := payment.NewDonation(payment.DonationRequest{
		UserID:    req.UserID,
		Kind:      req.Kind,
		Amount:    amount,
		Recipient: req.Recipient,
		Note:      req.Note,
		GivenAt:   given,
	}, s.now())
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.store.InsertDonation(r.Context(), d); err != nil {
		writeErr(w, err)
		return
	}

	slog.Info("donation recorded", "id", d.ID, "user", d.UserID, "kind", d.Kind, "amount", d.Amount.String())
	writeJSON(w, http.StatusCreated, d)
}

// ListDonations handles GET /api/v1/users/{userID}/donations
func (s *Service) ListDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := s.store.ListDonationsByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, "failed to list donations", http.StatusInternalServerError)
		return
	}
	if donations == nil {
		donations = []model.Donation{}
	}
	writeJSON(w, http.StatusOK, donations)
}

// SweepOverdue flips scheduled payments due before today to overdue and
// notifies their owners. It returns how many payments changed.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	asOf := payment.StartOfDay(s.now())
	marked, err := s.store.MarkOverduePayments(ctx, asOf)
	if err != nil {
		return 0, err
	}
	if len(marked) == 0 {
		return 0, nil
	}

	metrics.PaymentsMarkedOverdue.Add(float64(len(marked)))
	slog.Info("payments marked overdue", "count", len(marked), "as_of", asOf.Format(time.DateOnly))

	if s.wsHub != nil {
		for _, p := range marked {
			s.wsHub.Broadcast(WSMessage{
				Type:      "payment_overdue",
				UserID:    p.UserID,
				PaymentID: p.ID,
				Amount:    p.Amount.String(),
			})
		}
	}
	return len(marked), nil
}
