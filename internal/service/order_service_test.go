package service

import (
	"context"
	"testing"

	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/payment"
	"github.com/fundedlabs/propgate/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeOrderRepo struct {
	orders     map[string]*model.Order
	userCounts map[string]int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*model.Order), userCounts: make(map[string]int)}
}

func (r *fakeOrderRepo) CreateWithUserCount(ctx context.Context, o *model.Order, email string) error {
	r.orders[o.ID] = o
	r.userCounts[o.UserID]++
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) List(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error) {
	var out []*model.Order
	for _, o := range r.orders {
		if userID == "" || o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatuses(ctx context.Context, o *model.Order) error {
	stored, ok := r.orders[o.ID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	stored.PaymentStatus = o.PaymentStatus
	stored.ChallengeStatus = o.ChallengeStatus
	stored.UpdatedAt = o.UpdatedAt
	return nil
}

type fakeGateway struct {
	lastIdempotencyKey string
	calls              int
}

func (g *fakeGateway) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency, idempotencyKey string) (*payment.Intent, error) {
	g.calls++
	g.lastIdempotencyKey = idempotencyKey
	return &payment.Intent{ID: "pi_123", ClientSecret: "pi_123_secret", Status: "requires_payment_method"}, nil
}

func validOrderInput() CreateOrderInput {
	return CreateOrderInput{
		UserID:      "user-1",
		Email:       "trader@example.com",
		AccountType: model.AccountStandard,
		AccountSize: 10000,
		Amount:      decimal.NewFromInt(499),
		Currency:    "usd",
	}
}

func TestCreateOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	gateway := &fakeGateway{}
	svc := NewOrderService(repo, gateway)

	result, err := svc.Create(context.Background(), validOrderInput())
	assert.NoError(t, err)
	assert.Equal(t, "pi_123", result.Order.PaymentIntentID)
	assert.Equal(t, "pi_123_secret", result.ClientSecret)
	assert.Equal(t, model.PaymentPending, result.Order.PaymentStatus)
	assert.Equal(t, model.ChallengePending, result.Order.ChallengeStatus)
	assert.Equal(t, "USD", result.Order.Currency)

	// order id doubles as the gateway idempotency key
	assert.Equal(t, result.Order.ID, gateway.lastIdempotencyKey)

	// counter moved with the insert
	assert.Equal(t, 1, repo.userCounts["user-1"])
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewOrderService(newFakeOrderRepo(), &fakeGateway{})

	cases := []func(*CreateOrderInput){
		func(in *CreateOrderInput) { in.UserID = "" },
		func(in *CreateOrderInput) { in.Email = "" },
		func(in *CreateOrderInput) { in.AccountType = "mystery" },
		func(in *CreateOrderInput) { in.AccountSize = 0 },
		func(in *CreateOrderInput) { in.Amount = decimal.Zero },
	}
	for i, mutate := range cases {
		in := validOrderInput()
		mutate(&in)
		_, err := svc.Create(context.Background(), in)
		assert.Error(t, err, "case %d", i)
	}
}

func TestUpdateOrderStatuses(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, &fakeGateway{})

	result, err := svc.Create(context.Background(), validOrderInput())
	assert.NoError(t, err)
	id := result.Order.ID

	order, err := svc.UpdateStatuses(context.Background(), id, model.PaymentCompleted, model.ChallengeInProgress)
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, order.PaymentStatus)
	assert.Equal(t, model.ChallengeInProgress, order.ChallengeStatus)

	// illegal transition rejected, nothing written
	_, err = svc.UpdateStatuses(context.Background(), id, model.PaymentPending, "")
	assert.Error(t, err)

	stored, _ := svc.Get(context.Background(), id)
	assert.Equal(t, model.PaymentCompleted, stored.PaymentStatus)
}

func TestUpdateOrderStatusesPartial(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := NewOrderService(repo, &fakeGateway{})

	result, _ := svc.Create(context.Background(), validOrderInput())

	// empty payment status leaves that machine alone
	order, err := svc.UpdateStatuses(context.Background(), result.Order.ID, "", model.ChallengeInProgress)
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	assert.Equal(t, model.ChallengeInProgress, order.ChallengeStatus)
}
