package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amanah/zakat-service/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     redis.Cmdable
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb redis.Cmdable, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) InsertCalculation(ctx context.Context, rec *model.CalculationRecord) error {
	if err := s.primary.InsertCalculation(ctx, rec); err != nil {
		return err
	}
	s.rdb.Del(ctx, calculationsKey(rec.UserID))
	s.setJSON(ctx, calculationKey(rec.ID), rec)
	return nil
}

func (s *CachedStore) CreatePayments(ctx context.Context, payments []model.Payment) error {
	if err := s.primary.CreatePayments(ctx, payments); err != nil {
		return err
	}
	for _, uid := range distinctUsers(payments) {
		s.rdb.Del(ctx, paymentsKey(uid))
	}
	return nil
}

func (s *CachedStore) MarkPaymentPaid(ctx context.Context, id string, paidAt time.Time) (*model.Payment, error) {
	p, err := s.primary.MarkPaymentPaid(ctx, id, paidAt)
	if err != nil {
		return nil, err
	}
	s.rdb.Del(ctx, paymentsKey(p.UserID))
	return p, nil
}

func (s *CachedStore) MarkOverduePayments(ctx context.Context, asOf time.Time) ([]model.Payment, error) {
	changed, err := s.primary.MarkOverduePayments(ctx, asOf)
	if err != nil {
		return nil, err
	}
	for _, uid := range distinctUsers(changed) {
		s.rdb.Del(ctx, paymentsKey(uid))
	}
	return changed, nil
}

func (s *CachedStore) InsertDonation(ctx context.Context, d *model.Donation) error {
	if err := s.primary.InsertDonation(ctx, d); err != nil {
		return err
	}
	s.rdb.Del(ctx, donationsKey(d.UserID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetCalculation(ctx context.Context, id string) (*model.CalculationRecord, error) {
	var rec model.CalculationRecord
	if s.getJSON(ctx, calculationKey(id), &rec) {
		return &rec, nil
	}

	// Cache miss: read from primary.
	got, err := s.primary.GetCalculation(ctx, id)
	if err != nil {
		return nil, err
	}
	// Records are immutable, so they never need invalidation.
	s.setJSON(ctx, calculationKey(id), got)
	return got, nil
}

func (s *CachedStore) ListCalculationsByUser(ctx context.Context, userID string) ([]model.CalculationRecord, error) {
	var recs []model.CalculationRecord
	if s.getJSON(ctx, calculationsKey(userID), &recs) {
		return recs, nil
	}

	recs, err := s.primary.ListCalculationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.setJSON(ctx, calculationsKey(userID), recs)
	return recs, nil
}

func (s *CachedStore) ListPaymentsByUser(ctx context.Context, userID string) ([]model.Payment, error) {
	var payments []model.Payment
	if s.getJSON(ctx, paymentsKey(userID), &payments) {
		return payments, nil
	}

	payments, err := s.primary.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.setJSON(ctx, paymentsKey(userID), payments)
	return payments, nil
}

func (s *CachedStore) ListDonationsByUser(ctx context.Context, userID string) ([]model.Donation, error) {
	var donations []model.Donation
	if s.getJSON(ctx, donationsKey(userID), &donations) {
		return donations, nil
	}

	donations, err := s.primary.ListDonationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.setJSON(ctx, donationsKey(userID), donations)
	return donations, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	return s.primary.GetPayment(ctx, id)
}

// --- Cache helpers ---

func (s *CachedStore) getJSON(ctx context.Context, key string, dst any) bool {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *CachedStore) setJSON(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func distinctUsers(payments []model.Payment) []string {
	seen := make(map[string]bool)
	var users []string
	for _, p := range payments {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			users = append(users, p.UserID)
		}
	}
	return users
}

func calculationKey(id string) string   { return fmt.Sprintf("calculation:%s", id) }
func calculationsKey(uid string) string { return fmt.Sprintf("calculations:%s", uid) }
func paymentsKey(uid string) string     { return fmt.Sprintf("payments:%s", uid) }
func donationsKey(uid string) string    { return fmt.Sprintf("donations:%s", uid) }
