package repository

import (
	"context"
	"time"

	"github.com/fundedlabs/propgate/internal/model"
	"github.com/jmoiron/sqlx"
)

// PostgresAlertRepo persists the append-only alert log and the typed dedup-key
// index. Rows carry a schema version so a future field change does not
// silently corrupt old entries on read.
type PostgresAlertRepo struct {
	db *sqlx.DB
}

func NewPostgresAlertRepo(db *sqlx.DB) *PostgresAlertRepo {
	repo := &PostgresAlertRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresAlertRepo) Insert(ctx context.Context, a *model.Alert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alert_events (id, dedup_key, account_id, user_id, alert_type, message, read, schema_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, a.ID, a.Key, a.AccountID, a.UserID, a.Type, a.Message, a.Read, model.AlertSchemaVersion, a.CreatedAt)
	return err
}

// List returns the newest alerts first, capped at 50 (the dashboard cap); the
// log itself is append-only and unbounded.
func (r *PostgresAlertRepo) List(ctx context.Context, limit int) ([]*model.Alert, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	alerts := make([]*model.Alert, 0, limit)
	err := r.db.SelectContext(ctx, &alerts, `
		SELECT id, dedup_key, account_id, user_id, alert_type, message, read, created_at
		FROM alert_events WHERE schema_version = $1 ORDER BY created_at DESC LIMIT $2
	`, model.AlertSchemaVersion, limit)
	return alerts, err
}

func (r *PostgresAlertRepo) MarkRead(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE alert_events SET read = TRUE WHERE id = $1`, id)
	return err
}

func (r *PostgresAlertRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS alert_events (
			id TEXT PRIMARY KEY,
			dedup_key TEXT NOT NULL,
			account_id TEXT NOT NULL,
			user_id TEXT,
			alert_type TEXT NOT NULL,
			message TEXT,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			schema_version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_alert_events_created ON alert_events(created_at DESC)`)

	_, err = r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS alert_keys (
			dedup_key TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL DEFAULT 1,
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ
		)
	`)
	return err
}

// --- dedup key index (alert.KeyStore) ---

func (r *PostgresAlertRepo) Seen(ctx context.Context, key string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(1) FROM alert_keys
		WHERE dedup_key = $1 AND (expires_at IS NULL OR expires_at > $2)
	`, key, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkSeen records a dedup key. ttl 0 means the key never expires (stable
// event-id keys); value-embedded keys get an expiry so the prune sweep can
// reclaim them.
func (r *PostgresAlertRepo) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	now := time.Now().UTC()
	var expires *time.Time
	if ttl > 0 {
		t := now.Add(ttl)
		expires = &t
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alert_keys (dedup_key, schema_version, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (dedup_key) DO NOTHING
	`, key, model.AlertSchemaVersion, expires, now)
	return err
}

// Prune removes expired dedup keys. Keys without an expiry are kept forever.
func (r *PostgresAlertRepo) Prune(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alert_keys WHERE expires_at IS NOT NULL AND expires_at <= $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
