// Package postgres stores checkout records in PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/merchant-dashboard/internal/domain/checkout"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/money"
	"github.com/Zhima-Mochi/merchant-dashboard/internal/domain/payment"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS checkout_records (
	id                TEXT PRIMARY KEY,
	idempotency_key   TEXT UNIQUE,
	provider_order_id TEXT NOT NULL,
	customer_id       TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT '',
	payment_method    TEXT NOT NULL DEFAULT '',
	amount            BIGINT NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL,
	response          BYTEA
)`

const selectColumns = `id, COALESCE(idempotency_key, ''), provider_order_id, customer_id, status,
	payment_method, amount, created_at, response`

// NewPool opens a pool sized for the dashboard and checks it answers.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

type CheckoutRepository struct {
	pool *pgxpool.Pool
}

func NewCheckoutRepository(pool *pgxpool.Pool) *CheckoutRepository {
	return &CheckoutRepository{pool: pool}
}

// Migrate creates the records table when missing.
func (r *CheckoutRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

func (r *CheckoutRepository) Insert(ctx context.Context, rec *domain.Record) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("checkout repository: id is required")
	}
	var key *string
	if rec.IdempotencyKey != "" {
		key = &rec.IdempotencyKey
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO checkout_records
			(id, idempotency_key, provider_order_id, customer_id, status, payment_method, amount, created_at, response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, key, rec.ProviderOrderID, rec.CustomerID, rec.Status,
		string(rec.PaymentMethod), int64(rec.Amount), rec.CreatedAt, rec.Response,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("postgres: insert checkout record: %w", err)
	}
	return nil
}

func (r *CheckoutRepository) Complete(ctx context.Context, rec *domain.Record) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("checkout repository: id is required")
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE checkout_records
		SET provider_order_id = $2, customer_id = $3, status = $4, payment_method = $5,
			amount = $6, created_at = $7, response = $8
		WHERE id = $1 AND COALESCE(idempotency_key, '') = $9`,
		rec.ID, rec.ProviderOrderID, rec.CustomerID, rec.Status,
		string(rec.PaymentMethod), int64(rec.Amount), rec.CreatedAt, rec.Response, rec.IdempotencyKey,
	)
	if err != nil {
		return fmt.Errorf("postgres: complete checkout record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CheckoutRepository) Release(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM checkout_records WHERE id = $1 AND provider_order_id = ''`, id)
	if err != nil {
		return fmt.Errorf("postgres: release checkout record: %w", err)
	}
	return nil
}

func (r *CheckoutRepository) Get(ctx context.Context, id string) (*domain.Record, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM checkout_records WHERE id = $1`, id)
	return scanRecord(row)
}

func (r *CheckoutRepository) FindByIdempotency(ctx context.Context, key string) (*domain.Record, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM checkout_records WHERE idempotency_key = $1`, key)
	return scanRecord(row)
}

func (r *CheckoutRepository) List(ctx context.Context, limit int) ([]*domain.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM checkout_records ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list checkout records: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list checkout records: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*domain.Record, error) {
	var (
		rec    domain.Record
		method string
		amount int64
	)
	err := row.Scan(&rec.ID, &rec.IdempotencyKey, &rec.ProviderOrderID, &rec.CustomerID, &rec.Status,
		&method, &amount, &rec.CreatedAt, &rec.Response)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: scan checkout record: %w", err)
	}
	rec.PaymentMethod = payment.Method(method)
	rec.Amount = money.Cents(amount)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}
