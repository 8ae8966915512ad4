package service

import (
	"context"
	"testing"
	"time"

	"github.com/fundedlabs/propgate/internal/alert"
	"github.com/fundedlabs/propgate/internal/metaapi"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/stretchr/testify/assert"
)

type fakeAlertRepo struct {
	inserted []*model.Alert
}

func (r *fakeAlertRepo) Insert(ctx context.Context, a *model.Alert) error {
	r.inserted = append(r.inserted, a)
	return nil
}

func (r *fakeAlertRepo) List(ctx context.Context, limit int) ([]*model.Alert, error) {
	return r.inserted, nil
}

func (r *fakeAlertRepo) MarkRead(ctx context.Context, id string) error { return nil }

type fakeRefreshState struct {
	last     time.Time
	recorded int
}

func (s *fakeRefreshState) LastSweep(ctx context.Context) (time.Time, error) { return s.last, nil }

func (s *fakeRefreshState) RecordSweep(ctx context.Context, at time.Time) error {
	s.last = at
	s.recorded++
	return nil
}

func newTestAlertService(accounts *fakeAccountRepo, provider *fakeProvider, alertRepo *fakeAlertRepo) *AlertService {
	keys := alert.NewMemKeyStore()
	metricsSvc := NewMetricsService(nil, newFakeMetricsRepo(), accounts, provider, 30*time.Minute)
	engine := alert.NewEngine(keys, nil)
	return NewAlertService(engine, alertRepo, accounts, metricsSvc, keys)
}

func TestSweepRunsWhenDue(t *testing.T) {
	acct := standardAccount()
	provider := &fakeProvider{metrics: &metaapi.AccountMetrics{Balance: f(8400), MaxDrawdown: 16}}
	alertRepo := &fakeAlertRepo{}
	svc := newTestAlertService(newFakeAccountRepo(acct), provider, alertRepo)

	state := &fakeRefreshState{last: time.Now().Add(-13 * time.Hour)}
	sched := NewScheduler(svc, state, 12*time.Hour)

	sched.runIfDue(context.Background())

	assert.Equal(t, 1, state.recorded)
	assert.Equal(t, 1, provider.fetches)
	assert.Len(t, alertRepo.inserted, 1)
	assert.Equal(t, model.AlertBreach, alertRepo.inserted[0].Type)
}

func TestSweepSkippedInsideInterval(t *testing.T) {
	acct := standardAccount()
	provider := &fakeProvider{metrics: &metaapi.AccountMetrics{Balance: f(10000)}}
	svc := newTestAlertService(newFakeAccountRepo(acct), provider, &fakeAlertRepo{})

	// a restart two hours after the last sweep must not re-run it
	state := &fakeRefreshState{last: time.Now().Add(-2 * time.Hour)}
	sched := NewScheduler(svc, state, 12*time.Hour)

	sched.runIfDue(context.Background())

	assert.Zero(t, state.recorded)
	assert.Zero(t, provider.fetches)
}

func TestSweepRunsImmediatelyWhenNeverRun(t *testing.T) {
	acct := standardAccount()
	provider := &fakeProvider{metrics: &metaapi.AccountMetrics{Balance: f(10000)}}
	svc := newTestAlertService(newFakeAccountRepo(acct), provider, &fakeAlertRepo{})

	state := &fakeRefreshState{}
	sched := NewScheduler(svc, state, 12*time.Hour)

	sched.runIfDue(context.Background())

	assert.Equal(t, 1, state.recorded)
	assert.Equal(t, 1, provider.fetches)
}

func TestScanAllSkipsFailingAccounts(t *testing.T) {
	healthy := standardAccount()
	broken := &model.ChallengeAccount{
		AccountID:   "acct-2",
		UserID:      "user-2",
		AccountType: model.AccountStandard,
		AccountSize: 10000,
		Step:        1,
		Status:      model.StatusActive,
	}

	accounts := newFakeAccountRepo(healthy, broken)
	provider := &fakeProvider{metrics: &metaapi.AccountMetrics{Balance: f(8400), MaxDrawdown: 16}}
	alertRepo := &fakeAlertRepo{}
	svc := newTestAlertService(accounts, provider, alertRepo)

	emitted, err := svc.ScanAll(context.Background(), true)
	assert.NoError(t, err)
	// both accounts resolve against the same fake provider here; the point is
	// that a sweep returns alerts for every account it could refresh
	assert.Len(t, emitted, 2)
	assert.Len(t, alertRepo.inserted, 2)
}
