package service

import (
	"context"
	"errors"
	"time"

	"github.com/fundedlabs/propgate/internal/challenge"
	"github.com/fundedlabs/propgate/internal/metaapi"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/pkg/apperrors"
	"github.com/fundedlabs/propgate/internal/pkg/logger"
	"github.com/fundedlabs/propgate/internal/pkg/metrics"
	"github.com/fundedlabs/propgate/internal/repository"
)

// MetricsCache is the fast lookaside in front of the durable metrics store.
// Redis in production, nil-able when Redis is down.
type MetricsCache interface {
	Get(ctx context.Context, accountID string) (*model.CachedMetrics, error)
	Put(ctx context.Context, m *model.CachedMetrics) error
	Delete(ctx context.Context, accountID string) error
}

// MetricsRepo is the durable snapshot store.
type MetricsRepo interface {
	Get(ctx context.Context, accountID string) (*model.CachedMetrics, error)
	Put(ctx context.Context, m *model.CachedMetrics) error
	Delete(ctx context.Context, accountID string) error
}

type AccountRepo interface {
	Create(ctx context.Context, a *model.ChallengeAccount) error
	GetByID(ctx context.Context, accountID string) (*model.ChallengeAccount, error)
	List(ctx context.Context, limit, offset int) ([]*model.ChallengeAccount, error)
	ListByStatus(ctx context.Context, status model.AccountStatus) ([]*model.ChallengeAccount, error)
	UpdateStatus(ctx context.Context, accountID string, status model.AccountStatus, step int) error
	Delete(ctx context.Context, accountID string) error
}

// MetricsProvider is the upstream statistics API.
type MetricsProvider interface {
	GetMetrics(ctx context.Context, accountID string) (*metaapi.AccountMetrics, error)
	GetTrades(ctx context.Context, accountID string, limit int) ([]metaapi.WireTrade, error)
	GetEquityChart(ctx context.Context, accountID string) ([]metaapi.WireEquityPoint, error)
	GetRiskEvents(ctx context.Context, accountID string) ([]metaapi.WireRiskEvent, error)
}

// MetricsService serves metric snapshots cache-first: Redis, then Postgres,
// then the upstream provider. A refresh overwrites the whole document.
type MetricsService struct {
	cache    MetricsCache
	repo     MetricsRepo
	accounts AccountRepo
	provider MetricsProvider
	window   time.Duration
	tradeCap int
	now      func() time.Time
}

func NewMetricsService(cache MetricsCache, repo MetricsRepo, accounts AccountRepo, provider MetricsProvider, window time.Duration) *MetricsService {
	return &MetricsService{
		cache:    cache,
		repo:     repo,
		accounts: accounts,
		provider: provider,
		window:   window,
		tradeCap: 1000,
		now:      time.Now,
	}
}

// Get returns the account's metrics, refreshing from upstream when the cached
// snapshot is older than the freshness window or force is set. The returned
// document always carries the objectives evaluated against the refreshed
// numbers when the balance is known.
func (s *MetricsService) Get(ctx context.Context, accountID string, force bool) (*model.CachedMetrics, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperrors.NewNotFound("challenge account not found")
		}
		return nil, apperrors.Wrap(err)
	}

	now := s.now()
	if !force {
		if cached := s.lookup(ctx, accountID); cached != nil && cached.Fresh(s.window, now) {
			return cached, nil
		}
	}

	doc, err := s.Refresh(ctx, acct)
	if err != nil {
		// stale beats empty: fall back to whatever snapshot we still hold
		if cached := s.lookup(ctx, accountID); cached != nil {
			logger.Warn("metrics refresh failed, serving stale snapshot",
				"account_id", accountID, "age", now.Sub(cached.LastUpdated).String(), "error", err)
			return cached, nil
		}
		return nil, err
	}
	return doc, nil
}

// Refresh pulls all four upstream feeds, rebuilds the document and overwrites
// both stores wholesale. Partial merges are never performed: a failed fetch
// fails the whole refresh.
func (s *MetricsService) Refresh(ctx context.Context, acct *model.ChallengeAccount) (*model.CachedMetrics, error) {
	raw, err := s.provider.GetMetrics(ctx, acct.AccountID)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("metaapi").Inc()
		return nil, err
	}
	trades, err := s.provider.GetTrades(ctx, acct.AccountID, s.tradeCap)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("metaapi").Inc()
		return nil, err
	}
	equity, err := s.provider.GetEquityChart(ctx, acct.AccountID)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("metaapi").Inc()
		return nil, err
	}
	events, err := s.provider.GetRiskEvents(ctx, acct.AccountID)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("risk").Inc()
		return nil, err
	}

	now := s.now()
	doc := buildDocument(acct.AccountID, raw, trades, equity, events, now)

	if obj, err := challenge.Evaluate(acct, doc, now); err == nil {
		doc.Objectives = obj
		result := "failed"
		if obj.Passed() {
			result = "passed"
		}
		metrics.EvaluationsTotal.WithLabelValues(string(acct.AccountType), result).Inc()
	} else if errors.Is(err, challenge.ErrIncompleteMetrics) {
		logger.Warn("objectives skipped, balance missing upstream", "account_id", acct.AccountID)
	}

	if err := s.repo.Put(ctx, doc); err != nil {
		return nil, apperrors.Wrap(err)
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, doc); err != nil {
			logger.Warn("metrics cache write failed", "account_id", acct.AccountID, "error", err)
		}
	}
	metrics.MetricsRefreshes.WithLabelValues("upstream").Inc()
	return doc, nil
}

// Evict drops the snapshot from both stores.
func (s *MetricsService) Evict(ctx context.Context, accountID string) error {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, accountID); err != nil {
			logger.Warn("metrics cache evict failed", "account_id", accountID, "error", err)
		}
	}
	return s.repo.Delete(ctx, accountID)
}

// lookup walks Redis then Postgres. A Postgres hit backfills Redis.
func (s *MetricsService) lookup(ctx context.Context, accountID string) *model.CachedMetrics {
	if s.cache != nil {
		if doc, err := s.cache.Get(ctx, accountID); err == nil && doc != nil {
			metrics.MetricsRefreshes.WithLabelValues("redis").Inc()
			return doc
		}
	}
	doc, err := s.repo.Get(ctx, accountID)
	if err != nil {
		if !errors.Is(err, repository.ErrMetricsNotFound) {
			logger.Warn("metrics store read failed", "account_id", accountID, "error", err)
		}
		return nil
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, doc); err != nil {
			logger.Warn("metrics cache backfill failed", "account_id", accountID, "error", err)
		}
	}
	metrics.MetricsRefreshes.WithLabelValues("postgres").Inc()
	return doc
}

// buildDocument converts the wire payloads into the canonical document.
// The legacy dailyDrawdown field is coalesced into max_daily_drawdown here so
// nothing downstream ever sees the split representation.
func buildDocument(accountID string, raw *metaapi.AccountMetrics, trades []metaapi.WireTrade, equity []metaapi.WireEquityPoint, events []metaapi.WireRiskEvent, now time.Time) *model.CachedMetrics {
	doc := &model.CachedMetrics{
		AccountID:      accountID,
		Balance:        raw.Balance,
		Equity:         raw.Equity,
		MaxDrawdown:    raw.MaxDrawdown,
		NumberOfTrades: raw.Trades,
		WinRate:        raw.WonTradesPercent,
		ProfitFactor:   raw.ProfitFactor,
		TradingDays:    raw.TradingDays,
		LastUpdated:    now,
	}

	if raw.MaxDailyDrawdown != nil {
		doc.MaxDailyDrawdown = *raw.MaxDailyDrawdown
	} else {
		doc.MaxDailyDrawdown = raw.DailyDrawdown
	}

	doc.Trades = make([]model.Trade, 0, len(trades))
	for _, t := range trades {
		doc.Trades = append(doc.Trades, model.Trade{
			ID:        t.ID,
			Symbol:    t.Symbol,
			Type:      t.Type,
			Volume:    t.Volume,
			Profit:    t.Profit,
			OpenTime:  t.OpenTime,
			CloseTime: t.CloseTime,
		})
	}

	doc.EquityChart = make([]model.EquityPoint, 0, len(equity))
	for _, p := range equity {
		doc.EquityChart = append(doc.EquityChart, model.EquityPoint{
			Time:    p.BrokerTime,
			Balance: p.AverageBalance,
			Equity:  p.AverageEquity,
		})
	}

	doc.RiskEvents = make([]model.RiskEvent, 0, len(events))
	for _, e := range events {
		doc.RiskEvents = append(doc.RiskEvents, model.RiskEvent{
			ID:                    e.ID,
			ExceededThresholdType: e.ExceededThresholdType,
			RelativeDrawdown:      e.RelativeDrawdown,
			AbsoluteDrawdown:      e.AbsoluteDrawdown,
			BrokerTime:            e.BrokerTime,
		})
	}

	return doc
}
