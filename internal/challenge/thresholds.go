package challenge

import "github.com/fundedlabs/propgate/internal/model"

// Thresholds is one row of the objective table. Percentages of account size.
// MaxDailyDrawdown is nil when the account type has no daily limit.
type Thresholds struct {
	MaxDrawdown      float64
	MaxDailyDrawdown *float64
	ProfitTarget     float64
	MinTradingDays   int

	// WarningLevel is where the "approaching max drawdown" band starts
	// (12 of 15 for standard and gauntlet, 6 of 8 for one-step, 3 of 4 for
	// instant). The band ends at MaxDrawdown.
	WarningLevel float64
}

// FundedMinGainPercent is the minimum profit a funded account must show for
// its trading-days objective to count.
const FundedMinGainPercent = 0.5

func ptr(v float64) *float64 { return &v }

var fundedRow = Thresholds{
	MaxDrawdown:      15,
	MaxDailyDrawdown: ptr(8),
	ProfitTarget:     0,
	MinTradingDays:   5,
	WarningLevel:     12,
}

// ThresholdsFor selects the objective row for an account. Funded accounts use
// the funded row regardless of type.
func ThresholdsFor(accountType model.AccountType, step int, funded bool) Thresholds {
	if funded {
		return fundedRow
	}
	switch accountType {
	case model.AccountOneStep:
		return Thresholds{MaxDrawdown: 8, MaxDailyDrawdown: ptr(4), ProfitTarget: 10, MinTradingDays: 5, WarningLevel: 6}
	case model.AccountInstant:
		return Thresholds{MaxDrawdown: 4, MaxDailyDrawdown: nil, ProfitTarget: 12, MinTradingDays: 5, WarningLevel: 3}
	case model.AccountGauntlet:
		return Thresholds{MaxDrawdown: 15, MaxDailyDrawdown: ptr(8), ProfitTarget: 10, MinTradingDays: 0, WarningLevel: 12}
	default:
		// standard: profit target halves on the second step
		target := 10.0
		if step == 2 {
			target = 5
		}
		return Thresholds{MaxDrawdown: 15, MaxDailyDrawdown: ptr(8), ProfitTarget: target, MinTradingDays: 5, WarningLevel: 12}
	}
}
