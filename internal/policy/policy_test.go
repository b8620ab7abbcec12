// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"errors"
	"strings"
	"testing"

	"github.com/credentia/credential-runtime/internal/domain"
)

func TestParseDecision(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"outcome": "completed",
		"reasoning": "License active and unrestricted.",
		"issues_found": [],
		"extracted": {
			"licenses": [{"number": "A12345", "state": "CA", "status": "active"}]
		}
	}`)

	decision, err := ParseDecision(raw)
	if err != nil {
		t.Fatalf("parse decision: %v", err)
	}
	if decision.Outcome != domain.OutcomeCompleted {
		t.Fatalf("expected outcome completed got %s", decision.Outcome)
	}
	if len(decision.Extracted.Licenses) != 1 {
		t.Fatalf("expected 1 extracted license got %d", len(decision.Extracted.Licenses))
	}
}

func TestParseDecisionRejectsBadPayloads(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"outcome":`},
		{"unknown outcome", `{"outcome": "approved", "reasoning": "looks fine"}`},
		{"missing reasoning", `{"outcome": "completed"}`},
		{"empty reasoning", `{"outcome": "completed", "reasoning": ""}`},
		{"wrong type", `{"outcome": "completed", "reasoning": 42}`},
		{"not an object", `["completed"]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDecision([]byte(tc.raw))
			var polErr *Error
			if !errors.As(err, &polErr) {
				t.Fatalf("expected policy error got %v", err)
			}
		})
	}
}

func TestFallback(t *testing.T) {
	t.Parallel()

	decision := Fallback(errors.New("connection refused"))
	if decision.Outcome != domain.OutcomeRequiresReview {
		t.Fatalf("expected requires_review got %s", decision.Outcome)
	}
	if err := decision.Validate(); err != nil {
		t.Fatalf("fallback decision must itself be valid: %v", err)
	}
	if !strings.Contains(decision.Reasoning, "connection refused") {
		t.Fatalf("expected cause in reasoning, got %q", decision.Reasoning)
	}
	if len(decision.IssuesFound) == 0 || len(decision.Recommendations) == 0 {
		t.Fatal("expected issues and recommendations on fallback")
	}

	// Nil cause still produces a valid reviewable decision.
	decision = Fallback(nil)
	if err := decision.Validate(); err != nil {
		t.Fatalf("nil-cause fallback must be valid: %v", err)
	}
}

func TestNoDataFollowsStepConfiguration(t *testing.T) {
	t.Parallel()

	review := domain.StepDefinition{
		ID:            "state_license",
		DisplayName:   "State License Verification",
		NoDataOutcome: domain.OutcomeRequiresReview,
	}
	decision := NoData(review)
	if decision.Outcome != domain.OutcomeRequiresReview {
		t.Fatalf("expected requires_review got %s", decision.Outcome)
	}
	if err := decision.Validate(); err != nil {
		t.Fatalf("no-data decision must be valid: %v", err)
	}

	pass := domain.StepDefinition{
		ID:            "oig_exclusion",
		DisplayName:   "OIG Exclusion List Screening",
		NoDataOutcome: domain.OutcomeCompleted,
	}
	decision = NoData(pass)
	if decision.Outcome != domain.OutcomeCompleted {
		t.Fatalf("expected completed got %s", decision.Outcome)
	}

	// Unset outcome defaults to manual review.
	decision = NoData(domain.StepDefinition{ID: "x", DisplayName: "X"})
	if decision.Outcome != domain.OutcomeRequiresReview {
		t.Fatalf("expected default requires_review got %s", decision.Outcome)
	}
}
