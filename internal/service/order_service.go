package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fundedlabs/propgate/internal/model"
	"github.com/fundedlabs/propgate/internal/payment"
	"github.com/fundedlabs/propgate/internal/pkg/apperrors"
	"github.com/fundedlabs/propgate/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderRepo persists orders. CreateWithUserCount writes the order and bumps
// the user's order counter in one transaction.
type OrderRepo interface {
	CreateWithUserCount(ctx context.Context, o *model.Order, email string) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error)
	UpdateStatuses(ctx context.Context, o *model.Order) error
}

// PaymentGateway opens payment intents.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency, idempotencyKey string) (*payment.Intent, error)
}

type CreateOrderInput struct {
	UserID      string
	Email       string
	AccountType model.AccountType
	AccountSize float64
	Amount      decimal.Decimal
	Currency    string
}

// CreateOrderResult pairs the stored order with the client secret the frontend
// needs to confirm the payment. The secret is never persisted.
type CreateOrderResult struct {
	Order        *model.Order `json:"order"`
	ClientSecret string       `json:"client_secret,omitempty"`
}

type OrderService struct {
	repo    OrderRepo
	gateway PaymentGateway
	now     func() time.Time
}

func NewOrderService(repo OrderRepo, gateway PaymentGateway) *OrderService {
	return &OrderService{repo: repo, gateway: gateway, now: time.Now}
}

// Create opens a payment intent and records the order. The order id doubles
// as the gateway idempotency key so a retried request cannot double-charge.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, apperrors.NewValidation("user_id is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, apperrors.NewValidation("email is required")
	}
	if !model.ValidAccountType(in.AccountType) {
		return nil, apperrors.NewValidation("unknown account type: " + string(in.AccountType))
	}
	if in.AccountSize <= 0 {
		return nil, apperrors.NewValidation("account_size must be positive")
	}
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewValidation("amount must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}

	now := s.now()
	order := &model.Order{
		ID:              uuid.New().String(),
		UserID:          in.UserID,
		AccountType:     in.AccountType,
		AccountSize:     in.AccountSize,
		Amount:          in.Amount,
		Currency:        currency,
		PaymentStatus:   model.PaymentPending,
		ChallengeStatus: model.ChallengePending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	var clientSecret string
	if s.gateway != nil {
		intent, err := s.gateway.CreatePaymentIntent(ctx, in.Amount, currency, order.ID)
		if err != nil {
			return nil, err
		}
		order.PaymentIntentID = intent.ID
		clientSecret = intent.ClientSecret
	}

	if err := s.repo.CreateWithUserCount(ctx, order, in.Email); err != nil {
		return nil, apperrors.Wrap(err)
	}
	return &CreateOrderResult{Order: order, ClientSecret: clientSecret}, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperrors.NewNotFound("order not found")
		}
		return nil, apperrors.Wrap(err)
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, userID, limit, offset)
}

// UpdateStatuses applies the requested transitions. Empty statuses mean no
// change on that state machine. Illegal transitions reject the whole update
// and nothing is written.
func (s *OrderService) UpdateStatuses(ctx context.Context, id string, paymentStatus model.PaymentStatus, challengeStatus model.ChallengeStatus) (*model.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if paymentStatus != "" && paymentStatus != order.PaymentStatus {
		if !model.ValidPaymentStatus(paymentStatus) {
			return nil, apperrors.NewValidation("unknown payment status: " + string(paymentStatus))
		}
		if err := order.TransitionPayment(paymentStatus); err != nil {
			return nil, apperrors.NewIllegalTransition(err.Error())
		}
	}
	if challengeStatus != "" && challengeStatus != order.ChallengeStatus {
		if !model.ValidChallengeStatus(challengeStatus) {
			return nil, apperrors.NewValidation("unknown challenge status: " + string(challengeStatus))
		}
		if err := order.TransitionChallenge(challengeStatus); err != nil {
			return nil, apperrors.NewIllegalTransition(err.Error())
		}
	}

	order.UpdatedAt = s.now()
	if err := s.repo.UpdateStatuses(ctx, order); err != nil {
		return nil, apperrors.Wrap(err)
	}
	return order, nil
}
