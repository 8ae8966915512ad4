package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks the payment side of an order, driven by the payment
// gateway webhook or an admin.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
)

// ChallengeStatus tracks the evaluation side of an order, independent of the
// payment state machine.
type ChallengeStatus string

const (
	ChallengePending    ChallengeStatus = "pending"
	ChallengeInProgress ChallengeStatus = "in_progress"
	ChallengePassed     ChallengeStatus = "passed"
	ChallengeFailed     ChallengeStatus = "failed"
	ChallengeFunded     ChallengeStatus = "funded"
)

// paymentTransitions is the legal transition graph. Failed payments may be
// retried, completed is terminal.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentCompleted, PaymentFailed},
	PaymentProcessing: {PaymentCompleted, PaymentFailed},
	PaymentFailed:     {PaymentPending, PaymentProcessing},
	PaymentCompleted:  {},
}

var challengeTransitions = map[ChallengeStatus][]ChallengeStatus{
	ChallengePending:    {ChallengeInProgress, ChallengeFailed},
	ChallengeInProgress: {ChallengePassed, ChallengeFailed},
	ChallengePassed:     {ChallengeFunded, ChallengeFailed},
	ChallengeFailed:     {},
	ChallengeFunded:     {},
}

// Order is one challenge purchase. Amount is the charged price; the two status
// fields are independent state machines.
type Order struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"user_id" db:"user_id"`
	AccountType     AccountType     `json:"account_type" db:"account_type"`
	AccountSize     float64         `json:"account_size" db:"account_size"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Currency        string          `json:"currency" db:"currency"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	ChallengeStatus ChallengeStatus `json:"challenge_status" db:"challenge_status"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty" db:"payment_intent_id"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// TransitionPayment moves the payment state machine, rejecting transitions not
// in the graph.
func (o *Order) TransitionPayment(next PaymentStatus) error {
	for _, allowed := range paymentTransitions[o.PaymentStatus] {
		if allowed == next {
			o.PaymentStatus = next
			return nil
		}
	}
	return fmt.Errorf("illegal payment transition %s -> %s", o.PaymentStatus, next)
}

// TransitionChallenge moves the challenge state machine.
func (o *Order) TransitionChallenge(next ChallengeStatus) error {
	for _, allowed := range challengeTransitions[o.ChallengeStatus] {
		if allowed == next {
			o.ChallengeStatus = next
			return nil
		}
	}
	return fmt.Errorf("illegal challenge transition %s -> %s", o.ChallengeStatus, next)
}

func ValidPaymentStatus(s PaymentStatus) bool {
	_, ok := paymentTransitions[s]
	return ok
}

func ValidChallengeStatus(s ChallengeStatus) bool {
	_, ok := challengeTransitions[s]
	return ok
}
