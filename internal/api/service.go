// Package api provides the HTTP handlers for calculating zakat, recording
// calculations, scheduling payments, logging donations and reading reports.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/amanah/zakat-service/internal/metrics"
	"github.com/amanah/zakat-service/internal/model"
	"github.com/amanah/zakat-service/internal/nisab"
	"github.com/amanah/zakat-service/internal/store"
	"github.com/amanah/zakat-service/internal/zakat"
)

// Service wires the calculation engine to persistence and the nisab source.
// It holds no per-request state; concurrent requests never interact here.
type Service struct {
	store  store.Store
	engine *zakat.Engine
	nisab  nisab.Provider
	wsHub  *WSHub // optional WebSocket hub for dashboard events

	locale language.Tag
	symbol string
	now    func() time.Time
}

// NewService creates a new API service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, engine *zakat.Engine, np nisab.Provider, hub *WSHub) *Service {
	return &Service{
		store:  st,
		engine: engine,
		nisab:  np,
		wsHub:  hub,
		locale: zakat.DefaultLocale,
		symbol: zakat.DefaultCurrencySymbol,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithDisplay sets the locale and currency symbol used for display strings.
func (s *Service) WithDisplay(tag language.Tag, symbol string) *Service {
	s.locale = tag
	s.symbol = symbol
	return s
}

// WithClock replaces the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Routes mounts every handler under r.
func (s *Service) Routes(r chi.Router) {
	r.Get("/nisab", s.GetNisab)

	r.Post("/calculate", s.Calculate)
	r.Post("/calculations", s.CreateCalculation)
	r.Get("/calculations/{calculationID}", s.GetCalculation)

	r.Post("/payments", s.CreatePayment)
	r.Post("/payments/{paymentID}/pay", s.PayPayment)

	r.Post("/donations", s.CreateDonation)

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/calculations", s.ListCalculations)
		r.Get("/payments", s.ListPayments)
		r.Get("/donations", s.ListDonations)
		r.Get("/reports/yearly", s.YearlyReport)
		r.Get("/reports/monthly", s.MonthlyReport)
	})
}

// --- Response types ---

// Display holds locale-formatted strings for presentation. NetAmount is
// clamped at zero here; the numeric field keeps the signed value.
type Display struct {
	NetAmount   string `json:"net_amount"`
	NisabAmount string `json:"nisab_amount"`
	ZakatAmount string `json:"zakat_amount"`
	ZakatRate   string `json:"zakat_rate"`
}

// CalculationResponse is returned by the calculation endpoints.
type CalculationResponse struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id,omitempty"`
	zakat.Result
	Display   Display    `json:"display"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// NisabResponse is returned by GET /nisab.
type NisabResponse struct {
	nisab.Snapshot
	GoldNisab   string `json:"gold_nisab"`
	SilverNisab string `json:"silver_nisab"`
	Display     struct {
		GoldNisab   string `json:"gold_nisab"`
		SilverNisab string `json:"silver_nisab"`
	} `json:"display"`
}

func (s *Service) display(r zakat.Result) Display {
	return Display{
		NetAmount:   zakat.FormatCurrency(zakat.DisplayAmount(r.NetAmount), s.locale, s.symbol),
		NisabAmount: zakat.FormatCurrency(r.NisabAmount, s.locale, s.symbol),
		ZakatAmount: zakat.FormatCurrency(r.ZakatAmount, s.locale, s.symbol),
		ZakatRate:   zakat.FormatRate(r.ZakatRate),
	}
}

// --- Calculation handlers ---

// evaluate decodes the request, resolves caller-side defaults and runs the
// engine. Errors are already mapped for writeErr.
func (s *Service) evaluate(r *http.Request) (CalculationRequest, zakat.Input, zakat.Result, error) {
	var req CalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, nil, zakat.Result{}, errBadBody
	}

	ref, err := s.nisab.Current(r.Context())
	if err != nil {
		return req, nil, zakat.Result{}, err
	}

	in, err := req.toInput(ref, s.engine.Policy())
	if err != nil {
		return req, nil, zakat.Result{}, err
	}

	res, err := s.engine.Calculate(in)
	if err != nil {
		return req, nil, zakat.Result{}, err
	}
	return req, in, res, nil
}

// Calculate handles POST /api/v1/calculate
// Computes a result without persisting it.
func (s *Service) Calculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	_, _, res, err := s.evaluate(r)
	if err != nil {
		countRejection(err)
		writeErr(w, err)
		return
	}
	observe(res, start)

	writeJSON(w, http.StatusOK, CalculationResponse{Result: res, Display: s.display(res)})
}

// CreateCalculation handles POST /api/v1/calculations
// Computes a result and stores it for the requesting user.
func (s *Service) CreateCalculation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, in, res, err := s.evaluate(r)
	if err != nil {
		countRejection(err)
		writeErr(w, err)
		return
	}
	if req.UserID == "" {
		writeErr(w, zakat.Invalid("user_id", zakat.ReasonRequired))
		return
	}

	rec := model.NewCalculationRecord(uuid.New().String(), req.UserID, in, res, s.now())
	if err := s.store.InsertCalculation(r.Context(), &rec); err != nil {
		writeErr(w, err)
		return
	}
	observe(res, start)

	slog.Info("calculation recorded",
		"id", rec.ID,
		"user", rec.UserID,
		"type", string(res.Category),
		"wajib", res.IsWajib,
		"zakat_amount", res.ZakatAmount.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:          "calculation_recorded",
			UserID:        rec.UserID,
			CalculationID: rec.ID,
			Category:      string(res.Category),
			Amount:        res.ZakatAmount.String(),
		})
	}

	writeJSON(w, http.StatusCreated, s.recordResponse(rec))
}

// GetCalculation handles GET /api/v1/calculations/{calculationID}
func (s *Service) GetCalculation(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetCalculation(r.Context(), chi.URLParam(r, "calculationID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.recordResponse(*rec))
}

// ListCalculations handles GET /api/v1/users/{userID}/calculations
func (s *Service) ListCalculations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListCalculationsByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, "failed to list calculations", http.StatusInternalServerError)
		return
	}

	resp := make([]CalculationResponse, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, s.recordResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) recordResponse(rec model.CalculationRecord) CalculationResponse {
	res := rec.Result()
	created := rec.CreatedAt
	return CalculationResponse{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Result:    res,
		Display:   s.display(res),
		CreatedAt: &created,
	}
}

// GetNisab handles GET /api/v1/nisab
// Returns the current reference prices and the derived metal nisab values.
func (s *Service) GetNisab(w http.ResponseWriter, r *http.Request) {
	var snap nisab.Snapshot
	if rf, ok := s.nisab.(*nisab.Refresher); ok {
		snap = rf.Snapshot()
	} else {
		ref, err := s.nisab.Current(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		snap = nisab.Snapshot{Reference: ref, Source: "static"}
	}

	policy := s.engine.Policy()
	gold := snap.Reference.GoldEquivalent(policy)
	silver := snap.Reference.SilverEquivalent(policy)

	resp := NisabResponse{
		Snapshot:    snap,
		GoldNisab:   gold.String(),
		SilverNisab: silver.String(),
	}
	resp.Display.GoldNisab = zakat.FormatCurrency(gold, s.locale, s.symbol)
	resp.Display.SilverNisab = zakat.FormatCurrency(silver, s.locale, s.symbol)

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

var errBadBody = errors.New("invalid request body")

func observe(res zakat.Result, start time.Time) {
	wajib := "false"
	if res.IsWajib {
		wajib = "true"
	}
	metrics.CalculationsTotal.WithLabelValues(string(res.Category), wajib).Inc()
	metrics.CalculationLatency.WithLabelValues(string(res.Category)).Observe(time.Since(start).Seconds())
}

func countRejection(err error) {
	var ie *zakat.InvalidInputError
	if errors.As(err, &ie) {
		metrics.CalculationRejections.WithLabelValues(ie.Field).Inc()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeErr maps domain and store errors to HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	var ie *zakat.InvalidInputError
	switch {
	case errors.As(err, &ie):
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  ie.Error(),
			"field":  ie.Field,
			"reason": ie.Reason,
		})
	case errors.Is(err, errBadBody), errors.Is(err, zakat.ErrInvalidInput):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, "not found", http.StatusNotFound)
	case errors.Is(err, store.ErrConflict):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("request failed", "err", err)
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
