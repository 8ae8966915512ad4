package service

import (
	"context"
	"testing"

	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeWithdrawalRepo struct {
	requests map[string]*model.WithdrawalRequest
}

func newFakeWithdrawalRepo() *fakeWithdrawalRepo {
	return &fakeWithdrawalRepo{requests: make(map[string]*model.WithdrawalRequest)}
}

func (r *fakeWithdrawalRepo) Create(ctx context.Context, w *model.WithdrawalRequest) error {
	if _, ok := r.requests[w.UserID]; ok {
		return repository.ErrWithdrawalExists
	}
	r.requests[w.UserID] = w
	return nil
}

func (r *fakeWithdrawalRepo) GetByUser(ctx context.Context, userID string) (*model.WithdrawalRequest, error) {
	w, ok := r.requests[userID]
	if !ok {
		return nil, repository.ErrWithdrawalNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWithdrawalRepo) List(ctx context.Context, status model.WithdrawalStatus, limit int) ([]*model.WithdrawalRequest, error) {
	var out []*model.WithdrawalRequest
	for _, w := range r.requests {
		if status == "" || w.Status == status {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeWithdrawalRepo) Update(ctx context.Context, w *model.WithdrawalRequest) error {
	stored, ok := r.requests[w.UserID]
	if !ok {
		return repository.ErrWithdrawalNotFound
	}
	*stored = *w
	return nil
}

func (r *fakeWithdrawalRepo) Clear(ctx context.Context, userID string) error {
	delete(r.requests, userID)
	return nil
}

func fundedAccount() *model.ChallengeAccount {
	return &model.ChallengeAccount{
		AccountID:   "acct-1",
		UserID:      "user-1",
		AccountType: model.AccountStandard,
		AccountSize: 10000,
		Step:        3,
		Status:      model.StatusFunded,
		ProfitSplit: 80,
	}
}

func validWithdrawalInput() CreateWithdrawalInput {
	return CreateWithdrawalInput{
		UserID:        "user-1",
		AccountID:     "acct-1",
		WalletAddress: "0xabc",
		AmountOwed:    decimal.NewFromInt(1000),
	}
}

func TestCreateWithdrawalLocksPayout(t *testing.T) {
	accounts := newFakeAccountRepo(fundedAccount())
	svc := NewWithdrawalService(newFakeWithdrawalRepo(), accounts)

	w, err := svc.Create(context.Background(), validWithdrawalInput())
	assert.NoError(t, err)
	assert.Equal(t, model.WithdrawalPending, w.Status)
	assert.True(t, w.PayoutAmount.Equal(decimal.NewFromInt(800)), "payout %s", w.PayoutAmount)
}

func TestCreateWithdrawalRequiresFundedAccount(t *testing.T) {
	acct := fundedAccount()
	acct.Step = 1
	acct.Status = model.StatusActive
	svc := NewWithdrawalService(newFakeWithdrawalRepo(), newFakeAccountRepo(acct))

	_, err := svc.Create(context.Background(), validWithdrawalInput())
	assert.Error(t, err)
}

func TestCreateWithdrawalOnePerUser(t *testing.T) {
	svc := NewWithdrawalService(newFakeWithdrawalRepo(), newFakeAccountRepo(fundedAccount()))

	_, err := svc.Create(context.Background(), validWithdrawalInput())
	assert.NoError(t, err)

	_, err = svc.Create(context.Background(), validWithdrawalInput())
	assert.Error(t, err)
}

func TestWithdrawalLifecycle(t *testing.T) {
	svc := NewWithdrawalService(newFakeWithdrawalRepo(), newFakeAccountRepo(fundedAccount()))

	_, err := svc.Create(context.Background(), validWithdrawalInput())
	assert.NoError(t, err)

	w, err := svc.Transition(context.Background(), "user-1", model.WithdrawalApproved, "")
	assert.NoError(t, err)
	assert.Equal(t, model.WithdrawalApproved, w.Status)

	// complete without hash rejected
	_, err = svc.Transition(context.Background(), "user-1", model.WithdrawalCompleted, "")
	assert.Error(t, err)

	w, err = svc.Transition(context.Background(), "user-1", model.WithdrawalCompleted, "0xdeadbeef")
	assert.NoError(t, err)
	assert.Equal(t, model.WithdrawalCompleted, w.Status)
	assert.Equal(t, "0xdeadbeef", w.TransactionHash)

	// terminal request can be cleared, making room for a new one
	assert.NoError(t, svc.Clear(context.Background(), "user-1"))
	_, err = svc.Create(context.Background(), validWithdrawalInput())
	assert.NoError(t, err)
}

func TestClearRejectsOpenRequest(t *testing.T) {
	svc := NewWithdrawalService(newFakeWithdrawalRepo(), newFakeAccountRepo(fundedAccount()))

	_, err := svc.Create(context.Background(), validWithdrawalInput())
	assert.NoError(t, err)

	assert.Error(t, svc.Clear(context.Background(), "user-1"))
}
