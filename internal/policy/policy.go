// SPDX-License-Identifier: Apache-2.0

// Package policy is the boundary to the decision classifier. Its output is
// untrusted: every decision passes a JSON Schema gate before it may touch
// step state, and the engine substitutes a deterministic fallback whenever
// the policy fails or misbehaves.
package policy

import (
	"context"
	"fmt"

	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/credentia/credential-runtime/internal/gateway"
)

// Policy turns a raw gateway result into a canonical decision.
type Policy interface {
	Analyze(ctx context.Context, raw gateway.RawResult, p domain.PractitionerContext) (domain.Decision, error)
}

// Error is a typed policy failure: transport problems, malformed output,
// out-of-enum outcomes. Always absorbed by the engine as a fallback decision.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decision policy: %s: %v", e.Reason, e.Err)
	}
	return "decision policy: " + e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fallback is the deterministic decision substituted when the policy call
// fails, so the step state machine never stalls on an unreliable classifier.
func Fallback(cause error) domain.Decision {
	reasoning := "Decision policy was unavailable or returned an invalid result; manual review is required."
	if cause != nil {
		reasoning = fmt.Sprintf("Decision policy failed (%v); manual review is required.", cause)
	}
	return domain.Decision{
		Outcome:         domain.OutcomeRequiresReview,
		Reasoning:       reasoning,
		IssuesFound:     []string{"policy unavailable"},
		Recommendations: []string{"perform manual review"},
	}
}

// NoData is the decision used when a step produced no gateway result at all.
// The outcome is per-step configuration: most checks require review, but
// exclusion screenings treat "not found" as a pass.
func NoData(step domain.StepDefinition) domain.Decision {
	outcome := step.NoDataOutcome
	if outcome == "" {
		outcome = domain.OutcomeRequiresReview
	}

	reasoning := fmt.Sprintf("No verification data was available for %s.", step.DisplayName)
	if outcome == domain.OutcomeCompleted {
		reasoning = fmt.Sprintf("No adverse findings returned for %s; absence of a match is treated as a pass.", step.DisplayName)
	}

	return domain.Decision{
		Outcome:   outcome,
		Reasoning: reasoning,
	}
}
