package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fundedlabs/propgate/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrOrderNotFound = errors.New("order not found")

type PostgresOrderRepo struct {
	db *sqlx.DB
}

func NewPostgresOrderRepo(db *sqlx.DB) *PostgresOrderRepo {
	repo := &PostgresOrderRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

// CreateWithUserCount inserts the order and bumps the owner's order counter in
// one transaction, so the two can never drift apart.
func (r *PostgresOrderRepo) CreateWithUserCount(ctx context.Context, o *model.Order, email string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, email, orders_count, created_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (id) DO UPDATE SET orders_count = users.orders_count + 1
	`, o.UserID, email, time.Now().UTC())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, account_type, account_size, amount, currency, payment_status, challenge_status, payment_intent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, o.ID, o.UserID, o.AccountType, o.AccountSize, o.Amount, o.Currency, o.PaymentStatus, o.ChallengeStatus, o.PaymentIntentID, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresOrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := r.db.GetContext(ctx, &o, `
		SELECT id, user_id, account_type, account_size, amount, currency, payment_status, challenge_status, payment_intent_id, created_at, updated_at
		FROM orders WHERE id = $1 LIMIT 1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *PostgresOrderRepo) List(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	orders := make([]*model.Order, 0, limit)
	if userID != "" {
		err := r.db.SelectContext(ctx, &orders, `
			SELECT id, user_id, account_type, account_size, amount, currency, payment_status, challenge_status, payment_intent_id, created_at, updated_at
			FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
		`, userID, limit, offset)
		return orders, err
	}
	err := r.db.SelectContext(ctx, &orders, `
		SELECT id, user_id, account_type, account_size, amount, currency, payment_status, challenge_status, payment_intent_id, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	return orders, err
}

// UpdateStatuses persists the outcome of a validated state-machine transition.
func (r *PostgresOrderRepo) UpdateStatuses(ctx context.Context, o *model.Order) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = $2, challenge_status = $3, updated_at = $4 WHERE id = $1
	`, o.ID, o.PaymentStatus, o.ChallengeStatus, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *PostgresOrderRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT,
			orders_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			account_type TEXT NOT NULL,
			account_size DOUBLE PRECISION NOT NULL,
			amount NUMERIC(18,2) NOT NULL,
			currency TEXT NOT NULL DEFAULT 'usd',
			payment_status TEXT NOT NULL DEFAULT 'pending',
			challenge_status TEXT NOT NULL DEFAULT 'pending',
			payment_intent_id TEXT,
			created_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC)`)
	return nil
}
