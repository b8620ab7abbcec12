// SPDX-License-Identifier: Apache-2.0

package domain

import "testing"

func TestDecisionValidate(t *testing.T) {
	t.Parallel()

	good := Decision{Outcome: OutcomeCompleted, Reasoning: "all checks passed"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid decision, got %v", err)
	}

	if err := (Decision{Outcome: "approved", Reasoning: "x"}).Validate(); err == nil {
		t.Fatal("expected unknown outcome to fail validation")
	}
	if err := (Decision{Outcome: OutcomeFailed}).Validate(); err == nil {
		t.Fatal("expected empty reasoning to fail validation")
	}
}

func TestDecisionStatus(t *testing.T) {
	t.Parallel()

	cases := map[DecisionOutcome]StepStatus{
		OutcomeCompleted:      StepCompleted,
		OutcomeInProgress:     StepInProgress,
		OutcomeFailed:         StepFailed,
		OutcomeRequiresReview: StepRequiresReview,
	}
	for outcome, want := range cases {
		if got := (Decision{Outcome: outcome}).Status(); got != want {
			t.Errorf("outcome %s: expected status %s got %s", outcome, want, got)
		}
	}
}
