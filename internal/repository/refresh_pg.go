package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresRefreshRepo holds the single bookkeeping row the background sweep
// uses, so a restart inside the window does not re-run the sweep.
type PostgresRefreshRepo struct {
	db *sqlx.DB
}

func NewPostgresRefreshRepo(db *sqlx.DB) *PostgresRefreshRepo {
	repo := &PostgresRefreshRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

// LastSweep returns the zero time when no sweep has ever run.
func (r *PostgresRefreshRepo) LastSweep(ctx context.Context) (time.Time, error) {
	var last time.Time
	err := r.db.GetContext(ctx, &last, `SELECT last_sweep FROM refresh_state WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	return last, err
}

func (r *PostgresRefreshRepo) RecordSweep(ctx context.Context, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_state (id, last_sweep) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET last_sweep = $1
	`, at.UTC())
	return err
}

func (r *PostgresRefreshRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS refresh_state (
			id INTEGER PRIMARY KEY,
			last_sweep TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}
