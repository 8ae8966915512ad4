package model

// RateLimitConfig bounds one API client's request rate.
type RateLimitConfig struct {
	QPS   float64 `json:"qps"`
	Burst int     `json:"burst"`
}

// Client is a consumer of the API: the dashboard frontend or an integration.
// Authenticated by its gateway API key.
type Client struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	APIKey string          `json:"api_key"`
	Admin  bool            `json:"admin"`
	Rate   RateLimitConfig `json:"rate_limit"`
}
