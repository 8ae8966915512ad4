package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/fundedlabs/propgate/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrMetricsNotFound = errors.New("cached metrics not found")

// PostgresMetricsRepo stores the per-account metrics snapshot as a single
// JSONB document, overwritten wholesale on every refresh.
type PostgresMetricsRepo struct {
	db *sqlx.DB
}

func NewPostgresMetricsRepo(db *sqlx.DB) *PostgresMetricsRepo {
	repo := &PostgresMetricsRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresMetricsRepo) Get(ctx context.Context, accountID string) (*model.CachedMetrics, error) {
	var doc []byte
	err := r.db.GetContext(ctx, &doc, `SELECT doc FROM cached_metrics WHERE account_id = $1 LIMIT 1`, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMetricsNotFound
		}
		return nil, err
	}
	var m model.CachedMetrics
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Put replaces the whole document. There is no partial merge: the snapshot is
// the unit of consistency.
func (r *PostgresMetricsRepo) Put(ctx context.Context, m *model.CachedMetrics) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cached_metrics (account_id, doc, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO UPDATE SET doc = $2, updated_at = $3
	`, m.AccountID, doc, time.Now().UTC())
	return err
}

func (r *PostgresMetricsRepo) Delete(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cached_metrics WHERE account_id = $1`, accountID)
	return err
}

func (r *PostgresMetricsRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cached_metrics (
			account_id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			updated_at TIMESTAMPTZ
		)
	`)
	return err
}
