// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownStep = errors.New("unknown step id")
var ErrTemplateNotFound = errors.New("workflow template not found")
var ErrApplicationNotFound = errors.New("application not found")
var ErrStepNotFound = errors.New("step not found for application")
var ErrConcurrentActivation = errors.New("step execution already in flight")
var ErrRecordKindMismatch = errors.New("record does not match step form kind")
var ErrInvalidOverrideStatus = errors.New("override status must be a terminal or in_progress status")
var ErrStepNotTerminal = errors.New("step is not in a terminal status")

// CircularDependencyError aborts a whole build; a cycle is never dropped
// silently.
type CircularDependencyError struct {
	StepID string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected at step %s", e.StepID)
}

// MissingDependencyError reports one (step, dependency) pair whose dependency
// is absent from the builder's working set. Validation emits one per pair.
type MissingDependencyError struct {
	StepID    string
	DependsOn string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("step %s depends on %s which is not in the workflow", e.StepID, e.DependsOn)
}
