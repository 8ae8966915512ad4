package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fundedlabs/propgate/internal/metaapi"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/pkg/apperrors"
	"github.com/fundedlabs/propgate/internal/pkg/logger"
	"github.com/fundedlabs/propgate/internal/repository"
)

// AccountProvisioner provisions trading accounts with the upstream provider.
type AccountProvisioner interface {
	CreateAccount(ctx context.Context, req metaapi.CreateAccountRequest) (string, error)
	EnableRiskFeatures(ctx context.Context, accountID string) error
}

// LinkAccountInput carries everything needed to register a challenge account:
// the local challenge config plus the broker credentials the provider needs.
type LinkAccountInput struct {
	UserID      string
	AccountType model.AccountType
	AccountSize float64
	ProfitSplit float64

	Name     string
	Login    string
	Password string
	Server   string
	Platform string
}

type AccountService struct {
	repo        AccountRepo
	provisioner AccountProvisioner
	metrics     *MetricsService
	now         func() time.Time
}

func NewAccountService(repo AccountRepo, provisioner AccountProvisioner, metricsSvc *MetricsService) *AccountService {
	return &AccountService{
		repo:        repo,
		provisioner: provisioner,
		metrics:     metricsSvc,
		now:         time.Now,
	}
}

// Link provisions the trading account upstream and records the challenge
// account locally. Risk features are enabled best-effort after provisioning.
func (s *AccountService) Link(ctx context.Context, in LinkAccountInput) (*model.ChallengeAccount, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, apperrors.NewValidation("user_id is required")
	}
	if !model.ValidAccountType(in.AccountType) {
		return nil, apperrors.NewValidation("unknown account type: " + string(in.AccountType))
	}
	if in.AccountSize <= 0 {
		return nil, apperrors.NewValidation("account_size must be positive")
	}

	accountID, err := s.provisioner.CreateAccount(ctx, metaapi.CreateAccountRequest{
		Name:     in.Name,
		Login:    in.Login,
		Password: in.Password,
		Server:   in.Server,
		Platform: in.Platform,
	})
	if err != nil {
		return nil, err
	}

	if err := s.provisioner.EnableRiskFeatures(ctx, accountID); err != nil {
		logger.Warn("risk features not enabled, retry via admin endpoint",
			"account_id", accountID, "error", err)
	}

	now := s.now()
	acct := &model.ChallengeAccount{
		AccountID:   accountID,
		UserID:      in.UserID,
		AccountType: in.AccountType,
		AccountSize: in.AccountSize,
		Step:        1,
		Status:      model.StatusActive,
		ProfitSplit: in.ProfitSplit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		return nil, apperrors.Wrap(err)
	}
	return acct, nil
}

// RegisterInput records an already-provisioned trading account without
// touching the provider.
type RegisterInput struct {
	AccountID   string
	UserID      string
	AccountType model.AccountType
	AccountSize float64
	ProfitSplit float64
	Step        int
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.ChallengeAccount, error) {
	if strings.TrimSpace(in.AccountID) == "" {
		return nil, apperrors.NewValidation("account_id is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, apperrors.NewValidation("user_id is required")
	}
	if !model.ValidAccountType(in.AccountType) {
		return nil, apperrors.NewValidation("unknown account type: " + string(in.AccountType))
	}
	if in.AccountSize <= 0 {
		return nil, apperrors.NewValidation("account_size must be positive")
	}
	step := in.Step
	if step <= 0 {
		step = 1
	}

	now := s.now()
	acct := &model.ChallengeAccount{
		AccountID:   in.AccountID,
		UserID:      in.UserID,
		AccountType: in.AccountType,
		AccountSize: in.AccountSize,
		Step:        step,
		Status:      model.StatusActive,
		ProfitSplit: in.ProfitSplit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		return nil, apperrors.Wrap(err)
	}
	return acct, nil
}

func (s *AccountService) Get(ctx context.Context, accountID string) (*model.ChallengeAccount, error) {
	acct, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperrors.NewNotFound("challenge account not found")
		}
		return nil, apperrors.Wrap(err)
	}
	return acct, nil
}

func (s *AccountService) List(ctx context.Context, limit, offset int) ([]*model.ChallengeAccount, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit, offset)
}

// UpdateStatus moves the account lifecycle. Funding an account jumps the step
// to 3 so both funded markers stay in sync.
func (s *AccountService) UpdateStatus(ctx context.Context, accountID string, status model.AccountStatus, step int) (*model.ChallengeAccount, error) {
	if !model.ValidAccountStatus(status) {
		return nil, apperrors.NewValidation("unknown account status: " + string(status))
	}
	acct, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if step <= 0 {
		step = acct.Step
	}
	if status == model.StatusFunded {
		step = 3
	}
	if err := s.repo.UpdateStatus(ctx, accountID, status, step); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperrors.NewNotFound("challenge account not found")
		}
		return nil, apperrors.Wrap(err)
	}
	acct.Status = status
	acct.Step = step
	return acct, nil
}

// Delete removes the account and evicts its cached metrics.
func (s *AccountService) Delete(ctx context.Context, accountID string) error {
	if err := s.repo.Delete(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperrors.NewNotFound("challenge account not found")
		}
		return apperrors.Wrap(err)
	}
	if err := s.metrics.Evict(ctx, accountID); err != nil {
		logger.Warn("metrics eviction failed after account delete", "account_id", accountID, "error", err)
	}
	return nil
}

// EnableRiskFeatures retries the risk-API enablement for an existing account.
func (s *AccountService) EnableRiskFeatures(ctx context.Context, accountID string) error {
	if _, err := s.Get(ctx, accountID); err != nil {
		return err
	}
	return s.provisioner.EnableRiskFeatures(ctx, accountID)
}
