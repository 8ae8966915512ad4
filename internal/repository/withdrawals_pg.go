package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fundedlabs/propgate/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrWithdrawalNotFound = errors.New("withdrawal request not found")
	ErrWithdrawalExists   = errors.New("an open withdrawal request already exists for this user")
)

// PostgresWithdrawalRepo keys withdrawal requests by user: at most one open
// request per user at a time.
type PostgresWithdrawalRepo struct {
	db *sqlx.DB
}

func NewPostgresWithdrawalRepo(db *sqlx.DB) *PostgresWithdrawalRepo {
	repo := &PostgresWithdrawalRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresWithdrawalRepo) Create(ctx context.Context, w *model.WithdrawalRequest) error {
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO withdrawal_requests (user_id, account_id, wallet_address, amount_owed, profit_split, payout_amount, status, transaction_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO NOTHING
	`, w.UserID, w.AccountID, w.WalletAddress, w.AmountOwed, w.ProfitSplit, w.PayoutAmount, w.Status, w.TransactionHash, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrWithdrawalExists
	}
	return nil
}

func (r *PostgresWithdrawalRepo) GetByUser(ctx context.Context, userID string) (*model.WithdrawalRequest, error) {
	var w model.WithdrawalRequest
	err := r.db.GetContext(ctx, &w, `
		SELECT user_id, account_id, wallet_address, amount_owed, profit_split, payout_amount, status, transaction_hash, created_at, updated_at
		FROM withdrawal_requests WHERE user_id = $1 LIMIT 1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *PostgresWithdrawalRepo) List(ctx context.Context, status model.WithdrawalStatus, limit int) ([]*model.WithdrawalRequest, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	requests := make([]*model.WithdrawalRequest, 0, limit)
	if status != "" {
		err := r.db.SelectContext(ctx, &requests, `
			SELECT user_id, account_id, wallet_address, amount_owed, profit_split, payout_amount, status, transaction_hash, created_at, updated_at
			FROM withdrawal_requests WHERE status = $1 ORDER BY created_at DESC LIMIT $2
		`, status, limit)
		return requests, err
	}
	err := r.db.SelectContext(ctx, &requests, `
		SELECT user_id, account_id, wallet_address, amount_owed, profit_split, payout_amount, status, transaction_hash, created_at, updated_at
		FROM withdrawal_requests ORDER BY created_at DESC LIMIT $1
	`, limit)
	return requests, err
}

// Update persists a validated transition. PayoutAmount is deliberately not in
// the SET list: it is computed once at creation and never recomputed.
func (r *PostgresWithdrawalRepo) Update(ctx context.Context, w *model.WithdrawalRequest) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE withdrawal_requests SET status = $2, transaction_hash = $3, updated_at = $4 WHERE user_id = $1
	`, w.UserID, w.Status, w.TransactionHash, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrWithdrawalNotFound
	}
	return nil
}

// Clear removes a terminal request so the user can open a new one.
func (r *PostgresWithdrawalRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM withdrawal_requests WHERE user_id = $1 AND status IN ('rejected', 'completed')
	`, userID)
	return err
}

func (r *PostgresWithdrawalRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS withdrawal_requests (
			user_id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			wallet_address TEXT NOT NULL,
			amount_owed NUMERIC(18,2) NOT NULL,
			profit_split NUMERIC(5,2) NOT NULL,
			payout_amount NUMERIC(18,2) NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			transaction_hash TEXT,
			created_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ
		)
	`)
	return err
}
