package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amanah/zakat-service/internal/report"
	"github.com/amanah/zakat-service/internal/zakat"
)

// activity loads everything the report builders need for one user.
func (s *Service) activity(r *http.Request, userID string) (report.Activity, error) {
	var a report.Activity
	var err error
	ctx := r.Context()
	if a.Calculations, err = s.store.ListCalculationsByUser(ctx, userID); err != nil {
		return a, err
	}
	if a.Payments, err = s.store.ListPaymentsByUser(ctx, userID); err != nil {
		return a, err
	}
	if a.Donations, err = s.store.ListDonationsByUser(ctx, userID); err != nil {
		return a, err
	}
	return a, nil
}

// reportYear reads ?year=, defaulting to the current year.
func (s *Service) reportYear(r *http.Request) (int, error) {
	v := r.URL.Query().Get("year")
	if v == "" {
		return s.now().Year(), nil
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, zakat.Invalid("year", zakat.ReasonNotNumber)
	}
	if year < 1 || year > 9999 {
		return 0, zakat.Invalid("year", zakat.ReasonOutOfRange)
	}
	return year, nil
}

// YearlyReport handles GET /api/v1/users/{userID}/reports/yearly?year=
func (s *Service) YearlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := s.reportYear(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	userID := chi.URLParam(r, "userID")
	a, err := s.activity(r, userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Yearly(userID, year, a))
}

// MonthlyReport handles GET /api/v1/users/{userID}/reports/monthly?year=
func (s *Service) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := s.reportYear(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	userID := chi.URLParam(r, "userID")
	a, err := s.activity(r, userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Monthly(userID, year, a))
}
