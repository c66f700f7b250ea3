package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amanah/zakat-service/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu           sync.RWMutex
	calculations []model.CalculationRecord
	payments     map[string]*model.Payment
	donations    []model.Donation
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payments: make(map[string]*model.Payment),
	}
}

func (s *MemoryStore) InsertCalculation(_ context.Context, rec *model.CalculationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.calculations {
		if existing.ID == rec.ID {
			return fmt.Errorf("%w: calculation %s already exists", ErrConflict, rec.ID)
		}
	}
	s.calculations = append(s.calculations, copyRecord(*rec))
	return nil
}

func (s *MemoryStore) GetCalculation(_ context.Context, id string) (*model.CalculationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.calculations {
		if rec.ID == id {
			c := copyRecord(rec)
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: calculation %s", ErrNotFound, id)
}

func (s *MemoryStore) ListCalculationsByUser(_ context.Context, userID string) ([]model.CalculationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.CalculationRecord
	for _, rec := range s.calculations {
		if rec.UserID == userID {
			result = append(result, copyRecord(rec))
		}
	}
	return result, nil
}

func (s *MemoryStore) CreatePayments(_ context.Context, payments []model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range payments {
		if _, ok := s.payments[p.ID]; ok {
			return fmt.Errorf("%w: payment %s already exists", ErrConflict, p.ID)
		}
	}
	for _, p := range payments {
		// Store a copy to avoid external mutation.
		c := p
		s.payments[p.ID] = &c
	}
	return nil
}

func (s *MemoryStore) GetPayment(_ context.Context, id string) (*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}
	c := *p
	return &c, nil
}

func (s *MemoryStore) ListPaymentsByUser(_ context.Context, userID string) ([]model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Payment
	for _, p := range s.payments {
		if p.UserID == userID {
			result = append(result, *p)
		}
	}
	sortPayments(result)
	return result, nil
}

func (s *MemoryStore) MarkPaymentPaid(_ context.Context, id string, paidAt time.Time) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, id)
	}
	if p.Status == model.PaymentPaid {
		return nil, fmt.Errorf("%w: payment %s already paid", ErrConflict, id)
	}
	at := paidAt
	p.Status = model.PaymentPaid
	p.PaidAt = &at
	c := *p
	return &c, nil
}

func (s *MemoryStore) MarkOverduePayments(_ context.Context, asOf time.Time) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []model.Payment
	for _, p := range s.payments {
		if p.Status == model.PaymentScheduled && p.DueDate.Before(asOf) {
			p.Status = model.PaymentOverdue
			changed = append(changed, *p)
		}
	}
	sortPayments(changed)
	return changed, nil
}

func (s *MemoryStore) InsertDonation(_ context.Context, d *model.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.donations = append(s.donations, *d)
	return nil
}

func (s *MemoryStore) ListDonationsByUser(_ context.Context, userID string) ([]model.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Donation
	for _, d := range s.donations {
		if d.UserID == userID {
			result = append(result, d)
		}
	}
	return result, nil
}

// copyRecord deep-copies the input map so callers cannot mutate stored state.
func copyRecord(rec model.CalculationRecord) model.CalculationRecord {
	c := rec
	if rec.Input != nil {
		c.Input = make(map[string]decimal.Decimal, len(rec.Input))
		for k, v := range rec.Input {
			c.Input[k] = v
		}
	}
	return c
}

func sortPayments(ps []model.Payment) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].DueDate.Equal(ps[j].DueDate) {
			return ps[i].Installment < ps[j].Installment
		}
		return ps[i].DueDate.Before(ps[j].DueDate)
	})
}
