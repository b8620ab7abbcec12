// SPDX-License-Identifier: Apache-2.0

package domain

import "fmt"

type DecisionOutcome string

const (
	OutcomeCompleted      DecisionOutcome = "completed"
	OutcomeInProgress     DecisionOutcome = "in_progress"
	OutcomeFailed         DecisionOutcome = "failed"
	OutcomeRequiresReview DecisionOutcome = "requires_review"
)

// Decision is the canonical verdict for one step, independent of check type.
// It is produced by the decision policy and, after validation, is the only
// thing allowed to move a step instance into a terminal status.
type Decision struct {
	Outcome         DecisionOutcome `json:"outcome"`
	Reasoning       string          `json:"reasoning"`
	IssuesFound     []string        `json:"issues_found,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	Extracted       RecordSet       `json:"extracted,omitempty"`
}

// Status maps the decision outcome onto the step status it commits.
func (d Decision) Status() StepStatus {
	return StepStatus(d.Outcome)
}

// Validate enforces the decision contract: a known outcome and non-empty
// reasoning. Policy output failing this gate is treated as a policy failure,
// never accepted into step state.
func (d Decision) Validate() error {
	switch d.Outcome {
	case OutcomeCompleted, OutcomeInProgress, OutcomeFailed, OutcomeRequiresReview:
	default:
		return fmt.Errorf("decision outcome %q is not a recognized value", d.Outcome)
	}
	if d.Reasoning == "" {
		return fmt.Errorf("decision reasoning must not be empty")
	}
	return nil
}
