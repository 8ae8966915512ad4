package model

import (
	"time"
)

// AuditLog is one recorded API request, with bodies redacted where they carry
// payment or wallet material.
type AuditLog struct {
	ID        string `json:"id"`
	ClientID  string `json:"client_id"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`

	RequestBody string `json:"request_body"`

	StatusCode   int    `json:"status_code"`
	ResponseBody string `json:"response_body"`
	LatencyMs    int64  `json:"latency_ms"`

	// Context carries business fields handlers attach (order id, account id,
	// upstream errors).
	Context map[string]interface{} `json:"context"`

	CreatedAt time.Time `json:"created_at"`
}
