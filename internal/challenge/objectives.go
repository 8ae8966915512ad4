// Package challenge computes the pass/fail objectives of a trading challenge
// from an account configuration and a metrics snapshot. Evaluation is pure:
// results are derived on every call and never stored back by this package.
package challenge

import (
	"errors"
	"time"

	"github.com/fundedlabs/propgate/internal/model"
)

// ErrIncompleteMetrics means the snapshot is missing its balance, i.e. the
// upstream fetch never completed. Evaluation is blocked rather than treating
// the gap as zero profit.
var ErrIncompleteMetrics = errors.New("metrics snapshot incomplete: balance missing")

// Threshold type labels reported by the risk API.
const (
	ThresholdMaxDrawdown   = "maxDrawdown"
	ThresholdDailyDrawdown = "dailyDrawdown"
)

// recentBreachWindow ages a breach out 24h after it happened, measured against
// the evaluation clock, so the flag clears on a later call without any stored
// state.
const recentBreachWindow = 24 * time.Hour

// ProfitPercent returns the account gain relative to its starting size.
func ProfitPercent(balance, accountSize float64) float64 {
	return (balance - accountSize) / accountSize * 100
}

// Evaluate maps (account, metrics) to the four objectives at time now.
func Evaluate(acct *model.ChallengeAccount, m *model.CachedMetrics, now time.Time) (*model.Objectives, error) {
	if m == nil || m.Balance == nil {
		return nil, ErrIncompleteMetrics
	}

	funded := acct.Funded()
	row := ThresholdsFor(acct.AccountType, acct.Step, funded)
	profit := ProfitPercent(*m.Balance, acct.AccountSize)

	obj := &model.Objectives{
		ProfitPercent: profit,
		EvaluatedAt:   now,
	}

	obj.MinTradingDays = model.Objective{
		Target:  float64(row.MinTradingDays),
		Current: float64(m.TradingDays),
		Passed:  m.TradingDays >= row.MinTradingDays,
	}
	if funded && profit < FundedMinGainPercent {
		// a funded account banks trading days only while in profit
		obj.MinTradingDays.Passed = false
	}

	obj.MaxDrawdown = model.Objective{
		Target:       row.MaxDrawdown,
		Current:      m.MaxDrawdown,
		Passed:       m.MaxDrawdown <= row.MaxDrawdown,
		RecentBreach: hasRecentBreach(m.RiskEvents, ThresholdMaxDrawdown, now),
	}

	if row.MaxDailyDrawdown != nil {
		obj.MaxDailyDrawdown = &model.Objective{
			Target:       *row.MaxDailyDrawdown,
			Current:      m.MaxDailyDrawdown,
			Passed:       m.MaxDailyDrawdown <= *row.MaxDailyDrawdown,
			RecentBreach: hasRecentBreach(m.RiskEvents, ThresholdDailyDrawdown, now),
		}
	}

	if funded {
		// funded accounts have no profit target
		obj.ProfitTarget = model.Objective{Target: 0, Current: profit, Passed: true}
	} else {
		obj.ProfitTarget = model.Objective{
			Target:  row.ProfitTarget,
			Current: profit,
			Passed:  profit >= row.ProfitTarget,
		}
	}

	return obj, nil
}

func hasRecentBreach(events []model.RiskEvent, thresholdType string, now time.Time) bool {
	for _, ev := range events {
		if ev.ExceededThresholdType != thresholdType {
			continue
		}
		if now.Sub(ev.BrokerTime) <= recentBreachWindow && !ev.BrokerTime.After(now) {
			return true
		}
	}
	return false
}
