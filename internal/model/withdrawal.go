package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the payout request state machine:
// pending -> approved | rejected, approved -> completed.
// rejected and completed are terminal.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalCompleted WithdrawalStatus = "completed"
)

var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:   {WithdrawalApproved, WithdrawalRejected},
	WithdrawalApproved:  {WithdrawalCompleted},
	WithdrawalRejected:  {},
	WithdrawalCompleted: {},
}

// WithdrawalRequest is a funded trader's payout request, keyed by user: at
// most one open request per user. PayoutAmount is computed once at creation
// from AmountOwed and ProfitSplit and never recomputed afterwards.
type WithdrawalRequest struct {
	UserID          string           `json:"user_id" db:"user_id"`
	AccountID       string           `json:"account_id" db:"account_id"`
	WalletAddress   string           `json:"wallet_address" db:"wallet_address"`
	AmountOwed      decimal.Decimal  `json:"amount_owed" db:"amount_owed"`
	ProfitSplit     decimal.Decimal  `json:"profit_split" db:"profit_split"`
	PayoutAmount    decimal.Decimal  `json:"payout_amount" db:"payout_amount"`
	Status          WithdrawalStatus `json:"status" db:"status"`
	TransactionHash string           `json:"transaction_hash,omitempty" db:"transaction_hash"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// ComputePayout returns amountOwed * profitSplit / 100.
func ComputePayout(amountOwed, profitSplit decimal.Decimal) decimal.Decimal {
	return amountOwed.Mul(profitSplit).Div(decimal.NewFromInt(100))
}

// Transition moves the state machine. Completing a withdrawal requires the
// on-chain transaction hash recorded at transition time.
func (w *WithdrawalRequest) Transition(next WithdrawalStatus, transactionHash string) error {
	legal := false
	for _, allowed := range withdrawalTransitions[w.Status] {
		if allowed == next {
			legal = true
			break
		}
	}
	if !legal {
		return fmt.Errorf("illegal withdrawal transition %s -> %s", w.Status, next)
	}
	if next == WithdrawalCompleted {
		if strings.TrimSpace(transactionHash) == "" {
			return fmt.Errorf("transaction hash required to complete withdrawal")
		}
		w.TransactionHash = strings.TrimSpace(transactionHash)
	}
	w.Status = next
	return nil
}
