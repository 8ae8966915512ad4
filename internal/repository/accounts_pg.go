package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fundedlabs/propgate/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrAccountNotFound = errors.New("challenge account not found")

type PostgresAccountRepo struct {
	db *sqlx.DB
}

func NewPostgresAccountRepo(db *sqlx.DB) *PostgresAccountRepo {
	repo := &PostgresAccountRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresAccountRepo) Create(ctx context.Context, a *model.ChallengeAccount) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO challenge_accounts (account_id, user_id, account_type, account_size, step, status, profit_split, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.AccountID, a.UserID, a.AccountType, a.AccountSize, a.Step, a.Status, a.ProfitSplit, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *PostgresAccountRepo) GetByID(ctx context.Context, accountID string) (*model.ChallengeAccount, error) {
	var a model.ChallengeAccount
	err := r.db.GetContext(ctx, &a, `
		SELECT account_id, user_id, account_type, account_size, step, status, profit_split, created_at, updated_at
		FROM challenge_accounts WHERE account_id = $1 LIMIT 1
	`, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PostgresAccountRepo) List(ctx context.Context, limit, offset int) ([]*model.ChallengeAccount, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	accounts := make([]*model.ChallengeAccount, 0, limit)
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT account_id, user_id, account_type, account_size, step, status, profit_split, created_at, updated_at
		FROM challenge_accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	return accounts, err
}

// ListByStatus feeds the refresh sweep and the alert scan with active accounts.
func (r *PostgresAccountRepo) ListByStatus(ctx context.Context, status model.AccountStatus) ([]*model.ChallengeAccount, error) {
	accounts := make([]*model.ChallengeAccount, 0, 64)
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT account_id, user_id, account_type, account_size, step, status, profit_split, created_at, updated_at
		FROM challenge_accounts WHERE status = $1 ORDER BY created_at
	`, status)
	return accounts, err
}

func (r *PostgresAccountRepo) UpdateStatus(ctx context.Context, accountID string, status model.AccountStatus, step int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE challenge_accounts SET status = $2, step = $3, updated_at = $4 WHERE account_id = $1
	`, accountID, status, step, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *PostgresAccountRepo) Delete(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM challenge_accounts WHERE account_id = $1`, accountID)
	return err
}

func (r *PostgresAccountRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS challenge_accounts (
			account_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			account_type TEXT NOT NULL,
			account_size DOUBLE PRECISION NOT NULL,
			step INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'active',
			profit_split DOUBLE PRECISION NOT NULL DEFAULT 80,
			created_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_challenge_accounts_user ON challenge_accounts(user_id)`)
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_challenge_accounts_status ON challenge_accounts(status)`)
	return nil
}
