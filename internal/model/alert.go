package model

import "time"

// AlertType classifies an alert for the dashboard.
type AlertType string

const (
	AlertBreach  AlertType = "breach"
	AlertPass    AlertType = "pass"
	AlertWarning AlertType = "warning"
	AlertInfo    AlertType = "info"
)

// AlertSchemaVersion is stamped on every persisted alert record so a future
// field change does not silently corrupt old rows on read.
const AlertSchemaVersion = 1

// Alert is one entry of the append-only alert log. Key is the content-derived
// dedup key: an alert with a given key is generated at most once.
type Alert struct {
	ID        string    `json:"id" db:"id"`
	Key       string    `json:"key" db:"dedup_key"`
	AccountID string    `json:"account_id" db:"account_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Type      AlertType `json:"type" db:"alert_type"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
