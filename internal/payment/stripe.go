// Package payment wraps the payment gateway's payment-intent API. The gateway
// is opaque: propgate creates an intent and records its id, confirmation
// happens on the client.
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fundedlabs/propgate/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type StripeClient struct {
	http *resty.Client
}

func NewStripeClient(cfg config.StripeConfig) *StripeClient {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.stripe.com"
	}
	return &StripeClient{
		http: resty.New().
			SetBaseURL(base).
			SetTimeout(20 * time.Second).
			SetAuthToken(cfg.SecretKey).
			SetHeader("Content-Type", "application/x-www-form-urlencoded"),
	}
}

// CreatePaymentIntent opens an intent for the given amount. Stripe wants the
// amount in the currency's smallest unit.
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency, idempotencyKey string) (*Intent, error) {
	cents := amount.Mul(decimal.NewFromInt(100)).Round(0)

	var out Intent
	req := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"amount":   cents.String(),
			"currency": strings.ToLower(currency),
		}).
		SetResult(&out).
		SetError(&stripeError{})
	if idempotencyKey != "" {
		req.SetHeader("Idempotency-Key", idempotencyKey)
	}

	resp, err := req.Post("/v1/payment_intents")
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent: %w", err)
	}
	if resp.IsError() {
		if stripeErr, ok := resp.Error().(*stripeError); ok && stripeErr.Error.Message != "" {
			return nil, fmt.Errorf("stripe payment intent: %s (%d)", stripeErr.Error.Message, resp.StatusCode())
		}
		return nil, fmt.Errorf("stripe payment intent: status %d", resp.StatusCode())
	}
	return &out, nil
}
