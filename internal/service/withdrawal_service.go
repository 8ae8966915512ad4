package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/pkg/apperrors"
	"github.com/fundedlabs/propgate/internal/repository"
	"github.com/shopspring/decimal"
)

// WithdrawalRepo persists payout requests, one open request per user.
type WithdrawalRepo interface {
	Create(ctx context.Context, w *model.WithdrawalRequest) error
	GetByUser(ctx context.Context, userID string) (*model.WithdrawalRequest, error)
	List(ctx context.Context, status model.WithdrawalStatus, limit int) ([]*model.WithdrawalRequest, error)
	Update(ctx context.Context, w *model.WithdrawalRequest) error
	Clear(ctx context.Context, userID string) error
}

type CreateWithdrawalInput struct {
	UserID        string
	AccountID     string
	WalletAddress string
	AmountOwed    decimal.Decimal
}

type WithdrawalService struct {
	repo     WithdrawalRepo
	accounts AccountRepo
	now      func() time.Time
}

func NewWithdrawalService(repo WithdrawalRepo, accounts AccountRepo) *WithdrawalService {
	return &WithdrawalService{repo: repo, accounts: accounts, now: time.Now}
}

// Create opens a payout request. The payout amount is locked in here from the
// account's profit split and never recomputed, so a later split change cannot
// move an open request.
func (s *WithdrawalService) Create(ctx context.Context, in CreateWithdrawalInput) (*model.WithdrawalRequest, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, apperrors.NewValidation("user_id is required")
	}
	if strings.TrimSpace(in.WalletAddress) == "" {
		return nil, apperrors.NewValidation("wallet_address is required")
	}
	if in.AmountOwed.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewValidation("amount_owed must be positive")
	}

	acct, err := s.accounts.GetByID(ctx, in.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperrors.NewNotFound("challenge account not found")
		}
		return nil, apperrors.Wrap(err)
	}
	if !acct.Funded() {
		return nil, apperrors.NewValidation("withdrawals require a funded account")
	}
	if acct.UserID != in.UserID {
		return nil, apperrors.NewValidation("account does not belong to user")
	}

	split := decimal.NewFromFloat(acct.ProfitSplit)
	now := s.now()
	req := &model.WithdrawalRequest{
		UserID:        in.UserID,
		AccountID:     in.AccountID,
		WalletAddress: strings.TrimSpace(in.WalletAddress),
		AmountOwed:    in.AmountOwed,
		ProfitSplit:   split,
		PayoutAmount:  model.ComputePayout(in.AmountOwed, split),
		Status:        model.WithdrawalPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrWithdrawalExists) {
			return nil, apperrors.New(apperrors.ErrConflict, "user already has an open withdrawal request", err)
		}
		return nil, apperrors.Wrap(err)
	}
	return req, nil
}

func (s *WithdrawalService) GetByUser(ctx context.Context, userID string) (*model.WithdrawalRequest, error) {
	req, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrWithdrawalNotFound) {
			return nil, apperrors.NewNotFound("withdrawal request not found")
		}
		return nil, apperrors.Wrap(err)
	}
	return req, nil
}

func (s *WithdrawalService) List(ctx context.Context, status model.WithdrawalStatus, limit int) ([]*model.WithdrawalRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, status, limit)
}

// Transition moves a request through its state machine. Completion requires
// the on-chain transaction hash.
func (s *WithdrawalService) Transition(ctx context.Context, userID string, next model.WithdrawalStatus, transactionHash string) (*model.WithdrawalRequest, error) {
	req, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := req.Transition(next, transactionHash); err != nil {
		return nil, apperrors.NewIllegalTransition(err.Error())
	}
	req.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, apperrors.Wrap(err)
	}
	return req, nil
}

// Clear removes a terminal request so the user can open a new one.
func (s *WithdrawalService) Clear(ctx context.Context, userID string) error {
	req, err := s.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	if req.Status != model.WithdrawalRejected && req.Status != model.WithdrawalCompleted {
		return apperrors.NewValidation("only terminal withdrawal requests can be cleared")
	}
	return s.repo.Clear(ctx, userID)
}
