package alert

import (
	"fmt"
	"strconv"
)

// Dedup keys embed the current metric value rounded to two decimals, so a new
// alert fires only when the rounded value changes, not merely because the
// condition keeps holding. Risk-event keys embed the stable event id instead:
// one alert per external event, ever.

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func maxDrawdownKey(accountID string, v float64) string {
	return fmt.Sprintf("%s-maxdd-%s", accountID, fixed2(v))
}

func dailyDrawdownKey(accountID string, v float64) string {
	return fmt.Sprintf("%s-dailydd-%s", accountID, fixed2(v))
}

func profitTargetKey(accountID string, profitPercent float64) string {
	return fmt.Sprintf("%s-target-%s", accountID, fixed2(profitPercent))
}

func warningKey(accountID string, v float64) string {
	return fmt.Sprintf("%s-warning-%s", accountID, fixed2(v))
}

func riskEventKey(accountID, eventID string) string {
	return fmt.Sprintf("%s-riskevent-%s", accountID, eventID)
}

func fundedMaxDrawdownKey(accountID string, v float64) string {
	return fmt.Sprintf("%s-funded-maxdd-%s", accountID, fixed2(v))
}

func fundedDailyDrawdownKey(accountID string, v float64) string {
	return fmt.Sprintf("%s-funded-dailydd-%s", accountID, fixed2(v))
}

func fundedRiskEventKey(accountID, eventID string) string {
	return fmt.Sprintf("%s-funded-risk-%s", accountID, eventID)
}

func fundedRiskViolationKey(accountID string, v float64) string {
	return fmt.Sprintf("%s-funded-risk-violation-%s", accountID, fixed2(v))
}

func fundedWarningKey(accountID string, v float64) string {
	return fmt.Sprintf("%s-funded-warning-%s", accountID, fixed2(v))
}
