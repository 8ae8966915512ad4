package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fundedlabs/propgate/internal/metaapi"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/repository"
	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

type fakeAccountRepo struct {
	accounts map[string]*model.ChallengeAccount
}

func newFakeAccountRepo(accounts ...*model.ChallengeAccount) *fakeAccountRepo {
	r := &fakeAccountRepo{accounts: make(map[string]*model.ChallengeAccount)}
	for _, a := range accounts {
		r.accounts[a.AccountID] = a
	}
	return r
}

func (r *fakeAccountRepo) Create(ctx context.Context, a *model.ChallengeAccount) error {
	r.accounts[a.AccountID] = a
	return nil
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, accountID string) (*model.ChallengeAccount, error) {
	a, ok := r.accounts[accountID]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return a, nil
}

func (r *fakeAccountRepo) List(ctx context.Context, limit, offset int) ([]*model.ChallengeAccount, error) {
	out := make([]*model.ChallengeAccount, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAccountRepo) ListByStatus(ctx context.Context, status model.AccountStatus) ([]*model.ChallengeAccount, error) {
	var out []*model.ChallengeAccount
	for _, a := range r.accounts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) UpdateStatus(ctx context.Context, accountID string, status model.AccountStatus, step int) error {
	a, ok := r.accounts[accountID]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.Status = status
	a.Step = step
	return nil
}

func (r *fakeAccountRepo) Delete(ctx context.Context, accountID string) error {
	if _, ok := r.accounts[accountID]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(r.accounts, accountID)
	return nil
}

type fakeMetricsRepo struct {
	docs map[string]*model.CachedMetrics
	puts int
}

func newFakeMetricsRepo() *fakeMetricsRepo {
	return &fakeMetricsRepo{docs: make(map[string]*model.CachedMetrics)}
}

func (r *fakeMetricsRepo) Get(ctx context.Context, accountID string) (*model.CachedMetrics, error) {
	doc, ok := r.docs[accountID]
	if !ok {
		return nil, repository.ErrMetricsNotFound
	}
	return doc, nil
}

func (r *fakeMetricsRepo) Put(ctx context.Context, m *model.CachedMetrics) error {
	r.docs[m.AccountID] = m
	r.puts++
	return nil
}

func (r *fakeMetricsRepo) Delete(ctx context.Context, accountID string) error {
	delete(r.docs, accountID)
	return nil
}

type fakeProvider struct {
	metrics  *metaapi.AccountMetrics
	events   []metaapi.WireRiskEvent
	err      error
	fetches  int
}

func (p *fakeProvider) GetMetrics(ctx context.Context, accountID string) (*metaapi.AccountMetrics, error) {
	p.fetches++
	if p.err != nil {
		return nil, p.err
	}
	return p.metrics, nil
}

func (p *fakeProvider) GetTrades(ctx context.Context, accountID string, limit int) ([]metaapi.WireTrade, error) {
	if p.err != nil {
		return nil, p.err
	}
	return nil, nil
}

func (p *fakeProvider) GetEquityChart(ctx context.Context, accountID string) ([]metaapi.WireEquityPoint, error) {
	if p.err != nil {
		return nil, p.err
	}
	return nil, nil
}

func (p *fakeProvider) GetRiskEvents(ctx context.Context, accountID string) ([]metaapi.WireRiskEvent, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.events, nil
}

func standardAccount() *model.ChallengeAccount {
	return &model.ChallengeAccount{
		AccountID:   "acct-1",
		UserID:      "user-1",
		AccountType: model.AccountStandard,
		AccountSize: 10000,
		Step:        1,
		Status:      model.StatusActive,
	}
}

func TestGetServesFreshSnapshotWithoutUpstream(t *testing.T) {
	acct := standardAccount()
	repo := newFakeMetricsRepo()
	provider := &fakeProvider{metrics: &metaapi.AccountMetrics{Balance: f(10500)}}
	svc := NewMetricsService(nil, repo, newFakeAccountRepo(acct), provider, 30*time.Minute)

	repo.docs["acct-1"] = &model.CachedMetrics{
		AccountID:   "acct-1",
		Balance:     f(10100),
		LastUpdated: time.Now().Add(-5 * time.Minute),
	}

	doc, err := svc.Get(context.Background(), "acct-1", false)
	assert.NoError(t, err)
	assert.Equal(t, 10100.0, *doc.Balance)
	assert.Zero(t, provider.fetches)
}

func TestGetRefreshesStaleSnapshot(t *testing.T) {
	acct := standardAccount()
	repo := newFakeMetricsRepo()
	provider := &fakeProvider{metrics: &metaapi.AccountMetrics{Balance: f(10500), TradingDays: 6}}
	svc := NewMetricsService(nil, repo, newFakeAccountRepo(acct), provider, 30*time.Minute)

	repo.docs["acct-1"] = &model.CachedMetrics{
		AccountID:   "acct-1",
		Balance:     f(10100),
		LastUpdated: time.Now().Add(-31 * time.Minute),
	}

	doc, err := svc.Get(context.Background(), "acct-1", false)
	assert.NoError(t, err)
	assert.Equal(t, 10500.0, *doc.Balance)
	assert.Equal(t, 1, provider.fetches)
}

func TestGetForceBypassesFreshness(t *testing.T) {
	acct := standardAccount()
	repo := newFakeMetricsRepo()
	provider := &fakeProvider{metrics: &metaapi.AccountMetrics{Balance: f(10500)}}
	svc := NewMetricsService(nil, repo, newFakeAccountRepo(acct), provider, 30*time.Minute)

	repo.docs["acct-1"] = &model.CachedMetrics{
		AccountID:   "acct-1",
		Balance:     f(10100),
		LastUpdated: time.Now(),
	}

	doc, err := svc.Get(context.Background(), "acct-1", true)
	assert.NoError(t, err)
	assert.Equal(t, 10500.0, *doc.Balance)
	assert.Equal(t, 1, provider.fetches)
}

func TestGetFallsBackToStaleOnUpstreamFailure(t *testing.T) {
	acct := standardAccount()
	repo := newFakeMetricsRepo()
	provider := &fakeProvider{err: errors.New("upstream down")}
	svc := NewMetricsService(nil, repo, newFakeAccountRepo(acct), provider, 30*time.Minute)

	stale := &model.CachedMetrics{
		AccountID:   "acct-1",
		Balance:     f(10100),
		LastUpdated: time.Now().Add(-2 * time.Hour),
	}
	repo.docs["acct-1"] = stale

	doc, err := svc.Get(context.Background(), "acct-1", false)
	assert.NoError(t, err)
	assert.Equal(t, stale.Balance, doc.Balance)
}

func TestGetUnknownAccount(t *testing.T) {
	svc := NewMetricsService(nil, newFakeMetricsRepo(), newFakeAccountRepo(), &fakeProvider{}, 30*time.Minute)

	_, err := svc.Get(context.Background(), "missing", false)
	assert.Error(t, err)
}

func TestRefreshCoalescesDailyDrawdown(t *testing.T) {
	acct := standardAccount()
	repo := newFakeMetricsRepo()

	// legacy field only
	provider := &fakeProvider{metrics: &metaapi.AccountMetrics{Balance: f(10000), DailyDrawdown: 4.2}}
	svc := NewMetricsService(nil, repo, newFakeAccountRepo(acct), provider, 30*time.Minute)

	doc, err := svc.Refresh(context.Background(), acct)
	assert.NoError(t, err)
	assert.Equal(t, 4.2, doc.MaxDailyDrawdown)

	// canonical field wins when both are present
	provider.metrics = &metaapi.AccountMetrics{Balance: f(10000), DailyDrawdown: 4.2, MaxDailyDrawdown: f(5.7)}
	doc, err = svc.Refresh(context.Background(), acct)
	assert.NoError(t, err)
	assert.Equal(t, 5.7, doc.MaxDailyDrawdown)
}

func TestRefreshEmbedsObjectives(t *testing.T) {
	acct := standardAccount()
	repo := newFakeMetricsRepo()
	provider := &fakeProvider{metrics: &metaapi.AccountMetrics{Balance: f(11000), TradingDays: 6}}
	svc := NewMetricsService(nil, repo, newFakeAccountRepo(acct), provider, 30*time.Minute)

	doc, err := svc.Refresh(context.Background(), acct)
	assert.NoError(t, err)
	assert.NotNil(t, doc.Objectives)
	assert.True(t, doc.Objectives.Passed())
	assert.Equal(t, 1, repo.puts)
}

func TestRefreshWithoutBalanceSkipsObjectives(t *testing.T) {
	acct := standardAccount()
	repo := newFakeMetricsRepo()
	provider := &fakeProvider{metrics: &metaapi.AccountMetrics{TradingDays: 6}}
	svc := NewMetricsService(nil, repo, newFakeAccountRepo(acct), provider, 30*time.Minute)

	doc, err := svc.Refresh(context.Background(), acct)
	assert.NoError(t, err)
	assert.Nil(t, doc.Balance)
	assert.Nil(t, doc.Objectives)
	// the document is still persisted so event-derived fields stay queryable
	assert.Equal(t, 1, repo.puts)
}

func TestRefreshOverwritesWholesale(t *testing.T) {
	acct := standardAccount()
	repo := newFakeMetricsRepo()
	repo.docs["acct-1"] = &model.CachedMetrics{
		AccountID:  "acct-1",
		Balance:    f(10100),
		RiskEvents: []model.RiskEvent{{ID: "old-ev"}},
	}

	provider := &fakeProvider{metrics: &metaapi.AccountMetrics{Balance: f(10500)}}
	svc := NewMetricsService(nil, repo, newFakeAccountRepo(acct), provider, 30*time.Minute)

	doc, err := svc.Refresh(context.Background(), acct)
	assert.NoError(t, err)
	// no merge with the previous document
	assert.Empty(t, doc.RiskEvents)
	assert.Empty(t, repo.docs["acct-1"].RiskEvents)
}
