package service

import (
	"context"

	"github.com/fundedlabs/propgate/internal/alert"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/pkg/apperrors"
	"github.com/fundedlabs/propgate/internal/pkg/logger"
)

// AlertRepo is the append-only alert event log.
type AlertRepo interface {
	Insert(ctx context.Context, a *model.Alert) error
	List(ctx context.Context, limit int) ([]*model.Alert, error)
	MarkRead(ctx context.Context, id string) error
}

// KeyPruner removes expired dedup keys. The Redis-backed store prunes via
// TTLs and implements this as a no-op.
type KeyPruner interface {
	Prune(ctx context.Context) (int, error)
}

// AlertService runs the rules engine over account snapshots and persists what
// it emits.
type AlertService struct {
	engine   *alert.Engine
	repo     AlertRepo
	accounts AccountRepo
	metrics  *MetricsService
	pruner   KeyPruner
}

func NewAlertService(engine *alert.Engine, repo AlertRepo, accounts AccountRepo, metricsSvc *MetricsService, pruner KeyPruner) *AlertService {
	return &AlertService{
		engine:   engine,
		repo:     repo,
		accounts: accounts,
		metrics:  metricsSvc,
		pruner:   pruner,
	}
}

// ScanAll refreshes metrics for every active and funded account and runs the
// rules engine over the batch. One account failing upstream skips that
// account, not the sweep.
func (s *AlertService) ScanAll(ctx context.Context, force bool) ([]model.Alert, error) {
	var accounts []*model.ChallengeAccount
	for _, status := range []model.AccountStatus{model.StatusActive, model.StatusFunded} {
		batch, err := s.accounts.ListByStatus(ctx, status)
		if err != nil {
			return nil, apperrors.Wrap(err)
		}
		accounts = append(accounts, batch...)
	}

	snaps := make([]alert.Snapshot, 0, len(accounts))
	for _, acct := range accounts {
		doc, err := s.metrics.Get(ctx, acct.AccountID, force)
		if err != nil {
			logger.Warn("skipping account in alert sweep", "account_id", acct.AccountID, "error", err)
			continue
		}
		snaps = append(snaps, alert.Snapshot{Account: acct, Metrics: doc})
	}

	emitted := s.engine.Scan(ctx, snaps)
	for i := range emitted {
		if err := s.repo.Insert(ctx, &emitted[i]); err != nil {
			logger.Error("failed to persist alert", "key", emitted[i].Key, "error", err)
		}
	}
	return emitted, nil
}

// ScanAccount runs the rules for a single account, used by the on-demand
// endpoint.
func (s *AlertService) ScanAccount(ctx context.Context, accountID string, force bool) ([]model.Alert, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	doc, err := s.metrics.Get(ctx, accountID, force)
	if err != nil {
		return nil, err
	}
	emitted := s.engine.Scan(ctx, []alert.Snapshot{{Account: acct, Metrics: doc}})
	for i := range emitted {
		if err := s.repo.Insert(ctx, &emitted[i]); err != nil {
			logger.Error("failed to persist alert", "key", emitted[i].Key, "error", err)
		}
	}
	return emitted, nil
}

// List returns the newest alerts, capped by the repository.
func (s *AlertService) List(ctx context.Context, limit int) ([]*model.Alert, error) {
	return s.repo.List(ctx, limit)
}

func (s *AlertService) MarkRead(ctx context.Context, id string) error {
	return s.repo.MarkRead(ctx, id)
}

// PruneKeys removes expired dedup keys and reports how many were dropped.
func (s *AlertService) PruneKeys(ctx context.Context) (int, error) {
	if s.pruner == nil {
		return 0, nil
	}
	return s.pruner.Prune(ctx)
}
