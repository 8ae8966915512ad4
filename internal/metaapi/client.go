// Package metaapi wraps the trading-metrics provider's REST APIs: account
// statistics, trade history, equity charts, risk-management events and
// account provisioning.
package metaapi

import (
	"context"
	"fmt"
	"time"

	"github.com/fundedlabs/propgate/internal/config"
	"github.com/go-resty/resty/v2"
)

// AccountMetrics is the provider's statistics payload. DailyDrawdown is the
// legacy field some accounts still report; the metrics service coalesces it
// into the canonical max daily drawdown at write time.
type AccountMetrics struct {
	Balance          *float64 `json:"balance"`
	Equity           *float64 `json:"equity"`
	MaxDrawdown      float64  `json:"maxDrawdown"`
	DailyDrawdown    float64  `json:"dailyDrawdown"`
	MaxDailyDrawdown *float64 `json:"maxDailyDrawdown"`
	Trades           int      `json:"trades"`
	WonTradesPercent float64  `json:"wonTradesPercent"`
	ProfitFactor     float64  `json:"profitFactor"`
	TradingDays      int      `json:"tradingDays"`
}

type WireTrade struct {
	ID        string    `json:"_id"`
	Symbol    string    `json:"symbol"`
	Type      string    `json:"type"`
	Volume    float64   `json:"volume"`
	Profit    float64   `json:"profit"`
	OpenTime  time.Time `json:"openTime"`
	CloseTime time.Time `json:"closeTime"`
}

type WireEquityPoint struct {
	BrokerTime     time.Time `json:"brokerTime"`
	AverageBalance float64   `json:"averageBalance"`
	AverageEquity  float64   `json:"averageEquity"`
}

type WireRiskEvent struct {
	ID                    string    `json:"id"`
	ExceededThresholdType string    `json:"exceededThresholdType"`
	RelativeDrawdown      float64   `json:"relativeDrawdown"`
	AbsoluteDrawdown      float64   `json:"absoluteDrawdown"`
	BrokerTime            time.Time `json:"brokerTime"`
}

type CreateAccountRequest struct {
	Name     string `json:"name"`
	Login    string `json:"login"`
	Password string `json:"password"`
	Server   string `json:"server"`
	Platform string `json:"platform"`
	Magic    int    `json:"magic"`
}

type createAccountResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to the two provider hosts: the statistics API and the
// risk-management API. Transient failures are retried with backoff inside
// resty; callers see only the final error.
type Client struct {
	stats *resty.Client
	risk  *resty.Client
}

func NewClient(cfg config.MetaAPIConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	newBase := func(baseURL string) *resty.Client {
		return resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(cfg.RetryCount).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(5 * time.Second).
			SetHeader("auth-token", cfg.AuthToken).
			SetHeader("Accept", "application/json")
	}

	return &Client{
		stats: newBase(cfg.BaseURL),
		risk:  newBase(cfg.RiskBaseURL),
	}
}

func (c *Client) GetMetrics(ctx context.Context, accountID string) (*AccountMetrics, error) {
	var out struct {
		Metrics AccountMetrics `json:"metrics"`
	}
	resp, err := c.stats.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiError{}).
		Get(fmt.Sprintf("/users/current/accounts/%s/metrics", accountID))
	if err != nil {
		return nil, fmt.Errorf("metaapi metrics: %w", err)
	}
	if resp.IsError() {
		return nil, upstreamError("metrics", resp)
	}
	return &out.Metrics, nil
}

func (c *Client) GetTrades(ctx context.Context, accountID string, limit int) ([]WireTrade, error) {
	if limit <= 0 {
		limit = 100
	}
	var out struct {
		Trades []WireTrade `json:"trades"`
	}
	resp, err := c.stats.R().
		SetContext(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&out).
		SetError(&apiError{}).
		Get(fmt.Sprintf("/users/current/accounts/%s/historical-trades", accountID))
	if err != nil {
		return nil, fmt.Errorf("metaapi trades: %w", err)
	}
	if resp.IsError() {
		return nil, upstreamError("trades", resp)
	}
	return out.Trades, nil
}

func (c *Client) GetEquityChart(ctx context.Context, accountID string) ([]WireEquityPoint, error) {
	var out []WireEquityPoint
	resp, err := c.risk.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiError{}).
		Get(fmt.Sprintf("/users/current/accounts/%s/equity-chart", accountID))
	if err != nil {
		return nil, fmt.Errorf("metaapi equity chart: %w", err)
	}
	if resp.IsError() {
		return nil, upstreamError("equity chart", resp)
	}
	return out, nil
}

func (c *Client) GetRiskEvents(ctx context.Context, accountID string) ([]WireRiskEvent, error) {
	var out []WireRiskEvent
	resp, err := c.risk.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiError{}).
		Get(fmt.Sprintf("/users/current/accounts/%s/period-statistics-events", accountID))
	if err != nil {
		return nil, fmt.Errorf("metaapi risk events: %w", err)
	}
	if resp.IsError() {
		return nil, upstreamError("risk events", resp)
	}
	return out, nil
}

// CreateAccount provisions a broker account with the provider and returns the
// provider-side account id.
func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (string, error) {
	var out createAccountResponse
	resp, err := c.stats.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&apiError{}).
		Post("/users/current/accounts")
	if err != nil {
		return "", fmt.Errorf("metaapi create account: %w", err)
	}
	if resp.IsError() {
		return "", upstreamError("create account", resp)
	}
	return out.ID, nil
}

// EnableRiskFeatures turns on the provider's drawdown tracking for an account
// so risk events start flowing.
func (c *Client) EnableRiskFeatures(ctx context.Context, accountID string) error {
	resp, err := c.risk.R().
		SetContext(ctx).
		SetBody(map[string]bool{"riskManagementApiEnabled": true}).
		SetError(&apiError{}).
		Post(fmt.Sprintf("/users/current/accounts/%s/enable-risk-management", accountID))
	if err != nil {
		return fmt.Errorf("metaapi enable risk features: %w", err)
	}
	if resp.IsError() {
		return upstreamError("enable risk features", resp)
	}
	return nil
}

func upstreamError(op string, resp *resty.Response) error {
	if apiErr, ok := resp.Error().(*apiError); ok && apiErr != nil && apiErr.Message != "" {
		return fmt.Errorf("metaapi %s: %s (%d)", op, apiErr.Message, resp.StatusCode())
	}
	return fmt.Errorf("metaapi %s: status %d", op, resp.StatusCode())
}
