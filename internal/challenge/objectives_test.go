package challenge

import (
	"testing"
	"time"

	"github.com/fundedlabs/propgate/internal/model"
	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func account(t model.AccountType, step int, status model.AccountStatus) *model.ChallengeAccount {
	return &model.ChallengeAccount{
		AccountID:   "acct-1",
		UserID:      "user-1",
		AccountType: t,
		AccountSize: 10000,
		Step:        step,
		Status:      status,
	}
}

func TestEvaluateStandardStepOne(t *testing.T) {
	now := time.Now()
	m := &model.CachedMetrics{
		Balance:          f(11000), // +10%
		MaxDrawdown:      5,
		MaxDailyDrawdown: 3,
		TradingDays:      6,
	}

	obj, err := Evaluate(account(model.AccountStandard, 1, model.StatusActive), m, now)
	assert.NoError(t, err)
	assert.True(t, obj.Passed())
	assert.Equal(t, 10.0, obj.ProfitTarget.Target)
	assert.NotNil(t, obj.MaxDailyDrawdown)
	assert.Equal(t, 8.0, obj.MaxDailyDrawdown.Target)
	assert.InDelta(t, 10.0, obj.ProfitPercent, 1e-9)
}

func TestEvaluateStandardJustUnderTarget(t *testing.T) {
	m := &model.CachedMetrics{
		Balance:          f(10950), // +9.5%
		MaxDrawdown:      5,
		MaxDailyDrawdown: 2,
		TradingDays:      5,
	}

	obj, err := Evaluate(account(model.AccountStandard, 1, model.StatusActive), m, time.Now())
	assert.NoError(t, err)
	assert.True(t, obj.MinTradingDays.Passed)
	assert.True(t, obj.MaxDrawdown.Passed)
	assert.True(t, obj.MaxDailyDrawdown.Passed)
	assert.InDelta(t, 9.5, obj.ProfitTarget.Current, 1e-9)
	assert.False(t, obj.ProfitTarget.Passed)
	assert.False(t, obj.Passed())
}

func TestEvaluateStandardStepTwoHalvesTarget(t *testing.T) {
	m := &model.CachedMetrics{Balance: f(10500), TradingDays: 5}

	obj, err := Evaluate(account(model.AccountStandard, 2, model.StatusActive), m, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, 5.0, obj.ProfitTarget.Target)
	assert.True(t, obj.ProfitTarget.Passed)
}

func TestEvaluateExactBoundariesPass(t *testing.T) {
	// at the limit is still passing: <= for drawdowns, >= for profit
	m := &model.CachedMetrics{
		Balance:          f(11000),
		MaxDrawdown:      15,
		MaxDailyDrawdown: 8,
		TradingDays:      5,
	}

	obj, err := Evaluate(account(model.AccountStandard, 1, model.StatusActive), m, time.Now())
	assert.NoError(t, err)
	assert.True(t, obj.MaxDrawdown.Passed)
	assert.True(t, obj.MaxDailyDrawdown.Passed)
	assert.True(t, obj.ProfitTarget.Passed)
	assert.True(t, obj.Passed())
}

func TestEvaluateInstantHasNoDailyObjective(t *testing.T) {
	m := &model.CachedMetrics{
		Balance:          f(11200),
		MaxDrawdown:      3,
		MaxDailyDrawdown: 99, // irrelevant for instant
		TradingDays:      5,
	}

	obj, err := Evaluate(account(model.AccountInstant, 1, model.StatusActive), m, time.Now())
	assert.NoError(t, err)
	assert.Nil(t, obj.MaxDailyDrawdown)
	assert.Equal(t, 12.0, obj.ProfitTarget.Target)
	assert.True(t, obj.Passed())
}

func TestEvaluateGauntletNoMinTradingDays(t *testing.T) {
	m := &model.CachedMetrics{Balance: f(11000), TradingDays: 0}

	obj, err := Evaluate(account(model.AccountGauntlet, 1, model.StatusActive), m, time.Now())
	assert.NoError(t, err)
	assert.True(t, obj.MinTradingDays.Passed)
}

func TestEvaluateFundedAlwaysPassesProfitTarget(t *testing.T) {
	m := &model.CachedMetrics{
		Balance:     f(9000), // -10%
		TradingDays: 10,
	}

	obj, err := Evaluate(account(model.AccountStandard, 3, model.StatusFunded), m, time.Now())
	assert.NoError(t, err)
	assert.True(t, obj.ProfitTarget.Passed)
	assert.Equal(t, 0.0, obj.ProfitTarget.Target)
	assert.InDelta(t, -10.0, obj.ProfitTarget.Current, 1e-9)
}

func TestEvaluateFundedTradingDaysRequireGain(t *testing.T) {
	// 10 days but only +0.2% gain: trading days do not count yet
	m := &model.CachedMetrics{Balance: f(10020), TradingDays: 10}

	obj, err := Evaluate(account(model.AccountStandard, 3, model.StatusFunded), m, time.Now())
	assert.NoError(t, err)
	assert.False(t, obj.MinTradingDays.Passed)

	// at +0.5% they do
	m.Balance = f(10050)
	obj, err = Evaluate(account(model.AccountStandard, 3, model.StatusFunded), m, time.Now())
	assert.NoError(t, err)
	assert.True(t, obj.MinTradingDays.Passed)
}

func TestEvaluateMissingBalanceBlocks(t *testing.T) {
	_, err := Evaluate(account(model.AccountStandard, 1, model.StatusActive), &model.CachedMetrics{}, time.Now())
	assert.ErrorIs(t, err, ErrIncompleteMetrics)

	_, err = Evaluate(account(model.AccountStandard, 1, model.StatusActive), nil, time.Now())
	assert.ErrorIs(t, err, ErrIncompleteMetrics)
}

func TestEvaluateRecentBreachFlag(t *testing.T) {
	now := time.Now()
	m := &model.CachedMetrics{
		Balance: f(10000),
		RiskEvents: []model.RiskEvent{
			{ID: "ev-1", ExceededThresholdType: ThresholdDailyDrawdown, BrokerTime: now.Add(-2 * time.Hour)},
			{ID: "ev-2", ExceededThresholdType: ThresholdMaxDrawdown, BrokerTime: now.Add(-30 * time.Hour)},
		},
	}

	obj, err := Evaluate(account(model.AccountStandard, 1, model.StatusActive), m, now)
	assert.NoError(t, err)
	assert.True(t, obj.MaxDailyDrawdown.RecentBreach)
	// older than 24h, aged out
	assert.False(t, obj.MaxDrawdown.RecentBreach)

	// same snapshot evaluated a day later: the daily flag clears too
	obj, err = Evaluate(account(model.AccountStandard, 1, model.StatusActive), m, now.Add(25*time.Hour))
	assert.NoError(t, err)
	assert.False(t, obj.MaxDailyDrawdown.RecentBreach)
}

func TestProfitPercent(t *testing.T) {
	assert.InDelta(t, 10.0, ProfitPercent(11000, 10000), 1e-9)
	assert.InDelta(t, -5.0, ProfitPercent(9500, 10000), 1e-9)
	assert.InDelta(t, 0.0, ProfitPercent(10000, 10000), 1e-9)
}

func TestThresholdsForFundedOverridesType(t *testing.T) {
	for _, typ := range []model.AccountType{model.AccountStandard, model.AccountInstant, model.AccountOneStep, model.AccountGauntlet} {
		row := ThresholdsFor(typ, 3, true)
		assert.Equal(t, 15.0, row.MaxDrawdown)
		assert.NotNil(t, row.MaxDailyDrawdown)
		assert.Equal(t, 8.0, *row.MaxDailyDrawdown)
		assert.Equal(t, 0.0, row.ProfitTarget)
	}
}
