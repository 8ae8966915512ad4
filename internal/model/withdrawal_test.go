package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputePayout(t *testing.T) {
	cases := []struct {
		owed, split, want string
	}{
		{"1000", "80", "800"},
		{"1234.56", "75", "925.92"},
		{"100", "100", "100"},
		{"0.01", "50", "0.005"},
	}

	for _, tc := range cases {
		owed, _ := decimal.NewFromString(tc.owed)
		split, _ := decimal.NewFromString(tc.split)
		want, _ := decimal.NewFromString(tc.want)
		got := ComputePayout(owed, split)
		if !got.Equal(want) {
			t.Errorf("ComputePayout(%s, %s) = %s, want %s", tc.owed, tc.split, got, want)
		}
	}
}

func TestWithdrawalTransitions(t *testing.T) {
	cases := []struct {
		from, to WithdrawalStatus
		ok       bool
	}{
		{WithdrawalPending, WithdrawalApproved, true},
		{WithdrawalPending, WithdrawalRejected, true},
		{WithdrawalApproved, WithdrawalCompleted, true},
		{WithdrawalPending, WithdrawalCompleted, false},
		{WithdrawalRejected, WithdrawalApproved, false},
		{WithdrawalCompleted, WithdrawalPending, false},
		{WithdrawalApproved, WithdrawalRejected, false},
	}

	for _, tc := range cases {
		w := &WithdrawalRequest{Status: tc.from}
		err := w.Transition(tc.to, "0xhash")
		if tc.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s -> %s: expected rejection", tc.from, tc.to)
		}
	}
}

func TestWithdrawalCompleteRequiresHash(t *testing.T) {
	w := &WithdrawalRequest{Status: WithdrawalApproved}
	if err := w.Transition(WithdrawalCompleted, "  "); err == nil {
		t.Fatal("expected error without transaction hash")
	}
	if w.Status != WithdrawalApproved {
		t.Fatal("status mutated on rejected completion")
	}

	if err := w.Transition(WithdrawalCompleted, " 0xabc "); err != nil {
		t.Fatal(err)
	}
	if w.TransactionHash != "0xabc" {
		t.Fatalf("hash not trimmed and recorded: %q", w.TransactionHash)
	}
}

func TestPayoutLockedAtCreation(t *testing.T) {
	owed := decimal.NewFromInt(1000)
	split := decimal.NewFromInt(80)

	w := &WithdrawalRequest{
		Status:       WithdrawalPending,
		AmountOwed:   owed,
		ProfitSplit:  split,
		PayoutAmount: ComputePayout(owed, split),
	}

	// a later split change must not move the payout
	w.ProfitSplit = decimal.NewFromInt(50)
	if !w.PayoutAmount.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("payout amount drifted: %s", w.PayoutAmount)
	}
}
