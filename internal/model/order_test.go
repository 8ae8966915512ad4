package model

import "testing"

func TestPaymentTransitions(t *testing.T) {
	cases := []struct {
		from, to PaymentStatus
		ok       bool
	}{
		{PaymentPending, PaymentProcessing, true},
		{PaymentPending, PaymentCompleted, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentProcessing, PaymentCompleted, true},
		{PaymentProcessing, PaymentFailed, true},
		{PaymentFailed, PaymentPending, true},
		{PaymentFailed, PaymentProcessing, true},
		{PaymentCompleted, PaymentPending, false},
		{PaymentCompleted, PaymentFailed, false},
		{PaymentFailed, PaymentCompleted, false},
		{PaymentProcessing, PaymentPending, false},
	}

	for _, tc := range cases {
		o := &Order{PaymentStatus: tc.from}
		err := o.TransitionPayment(tc.to)
		if tc.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("%s -> %s: expected rejection", tc.from, tc.to)
			}
			if o.PaymentStatus != tc.from {
				t.Errorf("%s -> %s: status mutated on rejected transition", tc.from, tc.to)
			}
		}
	}
}

func TestChallengeTransitions(t *testing.T) {
	cases := []struct {
		from, to ChallengeStatus
		ok       bool
	}{
		{ChallengePending, ChallengeInProgress, true},
		{ChallengePending, ChallengeFailed, true},
		{ChallengeInProgress, ChallengePassed, true},
		{ChallengeInProgress, ChallengeFailed, true},
		{ChallengePassed, ChallengeFunded, true},
		{ChallengePassed, ChallengeFailed, true},
		{ChallengePending, ChallengePassed, false},
		{ChallengePending, ChallengeFunded, false},
		{ChallengeFailed, ChallengeInProgress, false},
		{ChallengeFunded, ChallengeFailed, false},
	}

	for _, tc := range cases {
		o := &Order{ChallengeStatus: tc.from}
		err := o.TransitionChallenge(tc.to)
		if tc.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s -> %s: expected rejection", tc.from, tc.to)
		}
	}
}

func TestIndependentStateMachines(t *testing.T) {
	o := &Order{PaymentStatus: PaymentPending, ChallengeStatus: ChallengePending}

	if err := o.TransitionPayment(PaymentCompleted); err != nil {
		t.Fatal(err)
	}
	if o.ChallengeStatus != ChallengePending {
		t.Fatal("payment transition moved the challenge state")
	}
	if err := o.TransitionChallenge(ChallengeInProgress); err != nil {
		t.Fatal(err)
	}
	if o.PaymentStatus != PaymentCompleted {
		t.Fatal("challenge transition moved the payment state")
	}
}
