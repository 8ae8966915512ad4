package model

import "time"

// Trade is a single historical trade as reported by the metrics provider.
type Trade struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Type      string    `json:"type"`
	Volume    float64   `json:"volume"`
	Profit    float64   `json:"profit"`
	OpenTime  time.Time `json:"open_time"`
	CloseTime time.Time `json:"close_time"`
}

// EquityPoint is one sample of the account equity curve.
type EquityPoint struct {
	Time    time.Time `json:"time"`
	Balance float64   `json:"balance"`
	Equity  float64   `json:"equity"`
}

// RiskEvent is an externally detected threshold breach. Immutable input.
type RiskEvent struct {
	ID                    string    `json:"id"`
	ExceededThresholdType string    `json:"exceeded_threshold_type"`
	RelativeDrawdown      float64   `json:"relative_drawdown"`
	AbsoluteDrawdown      float64   `json:"absolute_drawdown"`
	BrokerTime            time.Time `json:"broker_time"`
}

// CachedMetrics is the per-account metrics document. It is a cache snapshot:
// overwritten wholesale on every refresh, never partially merged.
//
// Balance and Equity are pointers because their absence means the upstream
// fetch never completed, which must block evaluation rather than read as zero.
// The drawdown figures and counters are plain values: absence of trades or
// breaches genuinely is zero.
type CachedMetrics struct {
	AccountID        string  `json:"account_id"`
	Balance          *float64 `json:"balance,omitempty"`
	Equity           *float64 `json:"equity,omitempty"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	MaxDailyDrawdown float64 `json:"max_daily_drawdown"`
	NumberOfTrades   int     `json:"number_of_trades"`
	WinRate          float64 `json:"win_rate"`
	ProfitFactor     float64 `json:"profit_factor"`
	TradingDays      int     `json:"trading_days"`

	Trades      []Trade       `json:"trades,omitempty"`
	EquityChart []EquityPoint `json:"equity_chart,omitempty"`
	RiskEvents  []RiskEvent   `json:"risk_events,omitempty"`
	Objectives  *Objectives   `json:"objectives,omitempty"`

	LastUpdated time.Time `json:"last_updated"`
}

// Fresh reports whether the snapshot is within the freshness window.
func (m *CachedMetrics) Fresh(window time.Duration, now time.Time) bool {
	if m == nil {
		return false
	}
	return now.Sub(m.LastUpdated) <= window
}

// Objective is one pass/fail criterion of a challenge.
type Objective struct {
	Target       float64 `json:"target"`
	Current      float64 `json:"current"`
	Passed       bool    `json:"passed"`
	RecentBreach bool    `json:"recent_breach,omitempty"`
}

// Objectives is the full evaluation result. Derived deterministically from the
// account config and metrics; recomputed on every evaluation, never mutated.
type Objectives struct {
	MinTradingDays   Objective  `json:"min_trading_days"`
	MaxDrawdown      Objective  `json:"max_drawdown"`
	MaxDailyDrawdown *Objective `json:"max_daily_drawdown,omitempty"`
	ProfitTarget     Objective  `json:"profit_target"`
	ProfitPercent    float64    `json:"profit_percent"`
	EvaluatedAt      time.Time  `json:"evaluated_at"`
}

// Passed reports whether every applicable objective is met.
func (o *Objectives) Passed() bool {
	if !o.MinTradingDays.Passed || !o.MaxDrawdown.Passed || !o.ProfitTarget.Passed {
		return false
	}
	if o.MaxDailyDrawdown != nil && !o.MaxDailyDrawdown.Passed {
		return false
	}
	return true
}
