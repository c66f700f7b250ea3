// Package store defines the persistence interface for the zakat service.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing and development).
//
// Records are keyed by opaque user identifiers; the store never interprets them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/amanah/zakat-service/internal/model"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a write would violate a uniqueness or
	// state constraint.
	ErrConflict = errors.New("store: conflict")
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Calculations (immutable) ---

	// InsertCalculation appends a calculation record.
	InsertCalculation(ctx context.Context, rec *model.CalculationRecord) error

	// GetCalculation retrieves a record by ID.
	GetCalculation(ctx context.Context, id string) (*model.CalculationRecord, error)

	// ListCalculationsByUser returns a user's records, oldest first.
	ListCalculationsByUser(ctx context.Context, userID string) ([]model.CalculationRecord, error)

	// --- Payments ---

	// CreatePayments persists one or more payments atomically.
	CreatePayments(ctx context.Context, payments []model.Payment) error

	// GetPayment retrieves a payment by ID.
	GetPayment(ctx context.Context, id string) (*model.Payment, error)

	// ListPaymentsByUser returns a user's payments ordered by due date.
	ListPaymentsByUser(ctx context.Context, userID string) ([]model.Payment, error)

	// MarkPaymentPaid sets a payment to paid at the given time. Paying an
	// already paid payment returns ErrConflict.
	MarkPaymentPaid(ctx context.Context, id string, paidAt time.Time) (*model.Payment, error)

	// MarkOverduePayments flips scheduled payments due before asOf to
	// overdue and returns the affected payments.
	MarkOverduePayments(ctx context.Context, asOf time.Time) ([]model.Payment, error)

	// --- Donations ---

	// InsertDonation records an infaq/shadaqoh/zakat gift.
	InsertDonation(ctx context.Context, d *model.Donation) error

	// ListDonationsByUser returns a user's donations, oldest first.
	ListDonationsByUser(ctx context.Context, userID string) ([]model.Donation, error)
}
