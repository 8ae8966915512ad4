// Package alert scans account metric snapshots for threshold breaches, target
// achievement and approaching-limit warnings, deduplicating with
// content-derived keys.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/fundedlabs/propgate/internal/challenge"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/pkg/logger"
	"github.com/fundedlabs/propgate/internal/pkg/metrics"
	"github.com/google/uuid"
)

// ValueKeyTTL bounds the lifetime of value-embedded dedup keys. Keys carrying
// a stable event id never expire.
const ValueKeyTTL = 30 * 24 * time.Hour

// Funded-account bands, percentages.
const (
	fundedMaxDrawdownLimit   = 15.0
	fundedDailyDrawdownLimit = 8.0
	fundedViolationFloor     = 2.0
	fundedWarningFloor       = 12.0
)

// KeyStore is the dedup index. MarkSeen with ttl 0 persists the key forever.
type KeyStore interface {
	Seen(ctx context.Context, key string) (bool, error)
	MarkSeen(ctx context.Context, key string, ttl time.Duration) error
}

// Notifier dispatches the external pass/fail notifications. Calls are
// fire-and-forget: failures are logged by the implementation and never
// surface to the scan.
type Notifier interface {
	ChallengeFailed(ctx context.Context, acct *model.ChallengeAccount, drawdown float64)
	ChallengePassed(ctx context.Context, acct *model.ChallengeAccount)
}

// Snapshot pairs an account with its cached metrics for one scan pass.
type Snapshot struct {
	Account *model.ChallengeAccount
	Metrics *model.CachedMetrics
}

type Engine struct {
	keys     KeyStore
	notifier Notifier
}

func NewEngine(keys KeyStore, notifier Notifier) *Engine {
	return &Engine{keys: keys, notifier: notifier}
}

// Scan evaluates every rule for every snapshot and returns the alerts not
// previously emitted, newest batch first in rule order.
func (e *Engine) Scan(ctx context.Context, snaps []Snapshot) []model.Alert {
	var out []model.Alert
	for _, snap := range snaps {
		if snap.Account == nil || snap.Metrics == nil {
			continue
		}
		out = append(out, e.scanAccount(ctx, snap.Account, snap.Metrics)...)
	}
	return out
}

func (e *Engine) scanAccount(ctx context.Context, acct *model.ChallengeAccount, m *model.CachedMetrics) []model.Alert {
	var alerts []model.Alert
	funded := acct.Funded()
	row := challenge.ThresholdsFor(acct.AccountType, acct.Step, funded)

	// 1. one alert per unprocessed risk event
	for _, ev := range m.RiskEvents {
		if funded {
			alerts = e.emit(ctx, alerts, fundedRiskEventKey(acct.AccountID, ev.ID), 0, acct, model.AlertBreach,
				fmt.Sprintf("Funded account %s: risk event %s (%s, %.2f%%)", acct.AccountID, ev.ID, ev.ExceededThresholdType, ev.RelativeDrawdown))
		} else {
			alerts = e.emit(ctx, alerts, riskEventKey(acct.AccountID, ev.ID), 0, acct, model.AlertInfo,
				fmt.Sprintf("Account %s: risk event %s (%s, %.2f%%)", acct.AccountID, ev.ID, ev.ExceededThresholdType, ev.RelativeDrawdown))
		}
	}

	if funded {
		alerts = append(alerts, e.scanFunded(ctx, acct, m)...)
		return alerts
	}

	// 2. max drawdown breach, fail notification
	if m.MaxDrawdown > row.MaxDrawdown {
		alerts = e.emitWithHook(ctx, alerts, maxDrawdownKey(acct.AccountID, m.MaxDrawdown), ValueKeyTTL, acct, model.AlertBreach,
			fmt.Sprintf("Account %s breached max drawdown: %.2f%% (limit %.2f%%)", acct.AccountID, m.MaxDrawdown, row.MaxDrawdown),
			func() { e.notifier.ChallengeFailed(ctx, acct, m.MaxDrawdown) })
	}

	// 3. daily drawdown breach, fail notification; instant accounts have no
	// daily limit so the rule never fires for them
	if row.MaxDailyDrawdown != nil && m.MaxDailyDrawdown > *row.MaxDailyDrawdown {
		alerts = e.emitWithHook(ctx, alerts, dailyDrawdownKey(acct.AccountID, m.MaxDailyDrawdown), ValueKeyTTL, acct, model.AlertBreach,
			fmt.Sprintf("Account %s breached daily drawdown: %.2f%% (limit %.2f%%)", acct.AccountID, m.MaxDailyDrawdown, *row.MaxDailyDrawdown),
			func() { e.notifier.ChallengeFailed(ctx, acct, m.MaxDailyDrawdown) })
	}

	// 5. profit target reached on an active account with enough trading days
	if m.Balance != nil && acct.Status == model.StatusActive {
		profit := challenge.ProfitPercent(*m.Balance, acct.AccountSize)
		if profit >= row.ProfitTarget && m.TradingDays >= row.MinTradingDays {
			alerts = e.emitWithHook(ctx, alerts, profitTargetKey(acct.AccountID, profit), ValueKeyTTL, acct, model.AlertPass,
				fmt.Sprintf("Account %s reached the profit target: %.2f%% (target %.2f%%)", acct.AccountID, profit, row.ProfitTarget),
				func() { e.notifier.ChallengePassed(ctx, acct) })
		}
	}

	// 6. approaching the max drawdown limit
	if m.MaxDrawdown >= row.WarningLevel && m.MaxDrawdown <= row.MaxDrawdown {
		alerts = e.emit(ctx, alerts, warningKey(acct.AccountID, m.MaxDrawdown), ValueKeyTTL, acct, model.AlertWarning,
			fmt.Sprintf("Account %s is approaching the max drawdown limit: %.2f%% of %.2f%%", acct.AccountID, m.MaxDrawdown, row.MaxDrawdown))
	}

	return alerts
}

// scanFunded applies the funded-account bands. No notification side effects:
// funded breaches are handled by the payout desk, not the challenge mailer.
func (e *Engine) scanFunded(ctx context.Context, acct *model.ChallengeAccount, m *model.CachedMetrics) []model.Alert {
	var alerts []model.Alert

	if m.MaxDrawdown > fundedMaxDrawdownLimit {
		alerts = e.emit(ctx, alerts, fundedMaxDrawdownKey(acct.AccountID, m.MaxDrawdown), ValueKeyTTL, acct, model.AlertBreach,
			fmt.Sprintf("Funded account %s breached max drawdown: %.2f%% (limit %.2f%%)", acct.AccountID, m.MaxDrawdown, fundedMaxDrawdownLimit))
	}
	if m.MaxDailyDrawdown > fundedDailyDrawdownLimit {
		alerts = e.emit(ctx, alerts, fundedDailyDrawdownKey(acct.AccountID, m.MaxDailyDrawdown), ValueKeyTTL, acct, model.AlertBreach,
			fmt.Sprintf("Funded account %s breached daily drawdown: %.2f%% (limit %.2f%%)", acct.AccountID, m.MaxDailyDrawdown, fundedDailyDrawdownLimit))
	} else if m.MaxDailyDrawdown > fundedViolationFloor {
		alerts = e.emit(ctx, alerts, fundedRiskViolationKey(acct.AccountID, m.MaxDailyDrawdown), ValueKeyTTL, acct, model.AlertWarning,
			fmt.Sprintf("Funded account %s daily drawdown in the violation band: %.2f%%", acct.AccountID, m.MaxDailyDrawdown))
	}
	// Warning band boundaries are inclusive, matching the challenge band above.
	if m.MaxDrawdown >= fundedWarningFloor && m.MaxDrawdown <= fundedMaxDrawdownLimit {
		alerts = e.emit(ctx, alerts, fundedWarningKey(acct.AccountID, m.MaxDrawdown), ValueKeyTTL, acct, model.AlertWarning,
			fmt.Sprintf("Funded account %s is approaching the max drawdown limit: %.2f%% of %.2f%%", acct.AccountID, m.MaxDrawdown, fundedMaxDrawdownLimit))
	}

	return alerts
}

func (e *Engine) emit(ctx context.Context, alerts []model.Alert, key string, ttl time.Duration, acct *model.ChallengeAccount, typ model.AlertType, msg string) []model.Alert {
	return e.emitWithHook(ctx, alerts, key, ttl, acct, typ, msg, nil)
}

func (e *Engine) emitWithHook(ctx context.Context, alerts []model.Alert, key string, ttl time.Duration, acct *model.ChallengeAccount, typ model.AlertType, msg string, hook func()) []model.Alert {
	seen, err := e.keys.Seen(ctx, key)
	if err != nil {
		logger.LogError(ctx, err, "alert dedup lookup failed", "key", key)
		return alerts
	}
	if seen {
		return alerts
	}
	if err := e.keys.MarkSeen(ctx, key, ttl); err != nil {
		logger.LogError(ctx, err, "alert dedup mark failed", "key", key)
	}

	metrics.AlertsEmitted.WithLabelValues(string(typ)).Inc()
	alerts = append(alerts, model.Alert{
		ID:        uuid.New().String(),
		Key:       key,
		AccountID: acct.AccountID,
		UserID:    acct.UserID,
		Type:      typ,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	})
	if hook != nil && e.notifier != nil {
		hook()
	}
	return alerts
}
