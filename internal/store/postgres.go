package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/amanah/zakat-service/internal/model"
	"github.com/amanah/zakat-service/internal/zakat"
)

// Schema creates the tables PostgresStore reads and writes.
const Schema = `
CREATE TABLE IF NOT EXISTS calculations (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	category     TEXT NOT NULL,
	input        JSONB NOT NULL,
	irrigation   TEXT NOT NULL DEFAULT '',
	net_amount   NUMERIC NOT NULL,
	nisab_amount NUMERIC NOT NULL,
	is_wajib     BOOLEAN NOT NULL,
	zakat_amount NUMERIC NOT NULL,
	zakat_rate   NUMERIC NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS calculations_user_idx ON calculations (user_id, created_at);

CREATE TABLE IF NOT EXISTS payments (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	calculation_id TEXT NOT NULL DEFAULT '',
	installment    INTEGER NOT NULL,
	amount         NUMERIC NOT NULL,
	due_date       TIMESTAMPTZ NOT NULL,
	status         TEXT NOT NULL,
	paid_at        TIMESTAMPTZ,
	note           TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS payments_user_idx ON payments (user_id, due_date);

CREATE TABLE IF NOT EXISTS donations (
	id        TEXT PRIMARY KEY,
	user_id   TEXT NOT NULL,
	kind      TEXT NOT NULL,
	amount    NUMERIC NOT NULL,
	recipient TEXT NOT NULL DEFAULT '',
	note      TEXT NOT NULL DEFAULT '',
	given_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS donations_user_idx ON donations (user_id, given_at);
`

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates missing tables and indexes.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

const uniqueViolation = "23505"

func mapWriteErr(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	}
	return err
}

func mapReadErr(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

// --- Calculations ---

func (s *PostgresStore) InsertCalculation(ctx context.Context, rec *model.CalculationRecord) error {
	input, err := json.Marshal(rec.Input)
	if err != nil {
		return fmt.Errorf("encode calculation input: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO calculations (id, user_id, category, input, irrigation,
		                           net_amount, nisab_amount, is_wajib, zakat_amount, zakat_rate, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8, $9::NUMERIC, $10::NUMERIC, $11)`,
		rec.ID, rec.UserID, string(rec.Category), input, rec.Irrigation,
		rec.NetAmount.String(), rec.NisabAmount.String(), rec.IsWajib,
		rec.ZakatAmount.String(), rec.ZakatRate.String(), rec.CreatedAt,
	)
	return mapWriteErr(err, "calculation "+rec.ID)
}

const calculationColumns = `id, user_id, category, input::TEXT, irrigation,
	net_amount::TEXT, nisab_amount::TEXT, is_wajib, zakat_amount::TEXT, zakat_rate::TEXT, created_at`

func (s *PostgresStore) GetCalculation(ctx context.Context, id string) (*model.CalculationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+calculationColumns+` FROM calculations WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs, err := scanCalculations(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, mapReadErr(pgx.ErrNoRows, "calculation "+id)
	}
	return &recs[0], nil
}

func (s *PostgresStore) ListCalculationsByUser(ctx context.Context, userID string) ([]model.CalculationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+calculationColumns+` FROM calculations WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCalculations(rows)
}

// --- Payments ---

func (s *PostgresStore) CreatePayments(ctx context.Context, payments []model.Payment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, p := range payments {
		_, err := tx.Exec(ctx,
			`INSERT INTO payments (id, user_id, calculation_id, installment, amount, due_date, status, paid_at, note, created_at)
			 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6, $7, $8, $9, $10)`,
			p.ID, p.UserID, p.CalculationID, p.Installment, p.Amount.String(),
			p.DueDate, p.Status, p.PaidAt, p.Note, p.CreatedAt,
		)
		if err != nil {
			return mapWriteErr(err, "payment "+p.ID)
		}
	}
	return tx.Commit(ctx)
}

const paymentColumns = `id, user_id, calculation_id, installment, amount::TEXT, due_date, status, paid_at, note, created_at`

func (s *PostgresStore) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if err != nil {
		return nil, mapReadErr(err, "payment "+id)
	}
	return p, nil
}

func (s *PostgresStore) ListPaymentsByUser(ctx context.Context, userID string) ([]model.Payment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY due_date, installment`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPayments(rows)
}

func (s *PostgresStore) MarkPaymentPaid(ctx context.Context, id string, paidAt time.Time) (*model.Payment, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE payments SET status = $2, paid_at = $3
		 WHERE id = $1 AND status <> $2
		 RETURNING `+paymentColumns,
		id, model.PaymentPaid, paidAt)
	p, err := scanPayment(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Distinguish "missing" from "already paid".
	if _, getErr := s.GetPayment(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: payment %s already paid", ErrConflict, id)
}

func (s *PostgresStore) MarkOverduePayments(ctx context.Context, asOf time.Time) ([]model.Payment, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE payments SET status = $1
		 WHERE status = $2 AND due_date < $3
		 RETURNING `+paymentColumns,
		model.PaymentOverdue, model.PaymentScheduled, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changed, err := scanPayments(rows)
	if err != nil {
		return nil, err
	}
	sortPayments(changed)
	return changed, nil
}

// --- Donations ---

func (s *PostgresStore) InsertDonation(ctx context.Context, d *model.Donation) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO donations (id, user_id, kind, amount, recipient, note, given_at)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5, $6, $7)`,
		d.ID, d.UserID, d.Kind, d.Amount.String(), d.Recipient, d.Note, d.GivenAt,
	)
	return mapWriteErr(err, "donation "+d.ID)
}

func (s *PostgresStore) ListDonationsByUser(ctx context.Context, userID string) ([]model.Donation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, kind, amount::TEXT, recipient, note, given_at
		 FROM donations WHERE user_id = $1 ORDER BY given_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var donations []model.Donation
	for rows.Next() {
		var d model.Donation
		var amountS string
		if err := rows.Scan(&d.ID, &d.UserID, &d.Kind, &amountS, &d.Recipient, &d.Note, &d.GivenAt); err != nil {
			return nil, err
		}
		d.Amount, _ = decimal.NewFromString(amountS)
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

// --- Scanning helpers ---

// pgxRows is the subset of pgx.Rows the scanners need.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

type pgxRow interface {
	Scan(dest ...interface{}) error
}

func scanCalculations(rows pgxRows) ([]model.CalculationRecord, error) {
	var recs []model.CalculationRecord
	for rows.Next() {
		var r model.CalculationRecord
		var category, inputS, netS, nisabS, amountS, rateS string

		if err := rows.Scan(&r.ID, &r.UserID, &category, &inputS, &r.Irrigation,
			&netS, &nisabS, &r.IsWajib, &amountS, &rateS, &r.CreatedAt); err != nil {
			return nil, err
		}

		r.Category = zakat.Category(category)
		if err := json.Unmarshal([]byte(inputS), &r.Input); err != nil {
			return nil, fmt.Errorf("decode calculation %s input: %w", r.ID, err)
		}
		r.NetAmount, _ = decimal.NewFromString(netS)
		r.NisabAmount, _ = decimal.NewFromString(nisabS)
		r.ZakatAmount, _ = decimal.NewFromString(amountS)
		r.ZakatRate, _ = decimal.NewFromString(rateS)

		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func scanPayment(row pgxRow) (*model.Payment, error) {
	var p model.Payment
	var amountS string
	if err := row.Scan(&p.ID, &p.UserID, &p.CalculationID, &p.Installment, &amountS,
		&p.DueDate, &p.Status, &p.PaidAt, &p.Note, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Amount, _ = decimal.NewFromString(amountS)
	return &p, nil
}

func scanPayments(rows pgxRows) ([]model.Payment, error) {
	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
