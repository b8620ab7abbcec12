// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/credentia/credential-runtime/internal/metrics"
	"github.com/google/uuid"
)

// Override lets a human examiner set a step's status directly, bypassing the
// decision policy but never the commit/persist path.
func (e *Engine) Override(
	ctx context.Context,
	applicationID uuid.UUID,
	stepID string,
	status domain.StepStatus,
	notes string,
	examiner string,
) error {
	switch status {
	case domain.StepCompleted, domain.StepFailed, domain.StepRequiresReview, domain.StepInProgress:
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidOverrideStatus, status)
	}
	if examiner == "" {
		examiner = SystemActor
	}

	instance, err := e.instances.GetInstance(ctx, applicationID, stepID)
	if err != nil {
		return err
	}
	if instance == nil {
		instance = domain.NewStepInstance(applicationID, stepID)
	}

	instance.Status = status
	instance.Examiner = examiner
	if notes != "" {
		instance.ReasoningNotes = notes
	}
	if status.IsTerminal() {
		now := time.Now()
		instance.CompletedAt = &now
	}

	if err := e.sink.RecordStepChange(
		ctx, applicationID, stepID,
		instance.Status, instance.ReasoningNotes, instance.Records, examiner,
	); err != nil {
		return err
	}

	metrics.IncStepExecution(status)
	e.logger.Info("step overridden",
		"application_id", applicationID,
		"step_id", stepID,
		"status", status,
		"examiner", examiner,
	)
	e.note(applicationID, stepID, PhaseCommit, "manual override to "+string(status))

	return nil
}

// Reopen resets a terminal step to in_progress so it can be re-executed.
func (e *Engine) Reopen(
	ctx context.Context,
	applicationID uuid.UUID,
	stepID string,
	examiner string,
) error {
	if examiner == "" {
		examiner = SystemActor
	}

	instance, err := e.instances.GetInstance(ctx, applicationID, stepID)
	if err != nil {
		return err
	}
	if instance == nil {
		return domain.ErrStepNotFound
	}
	if !instance.Status.IsTerminal() {
		return domain.ErrStepNotTerminal
	}

	instance.Status = domain.StepInProgress
	instance.Examiner = examiner
	instance.CompletedAt = nil

	if err := e.sink.RecordStepChange(
		ctx, applicationID, stepID,
		instance.Status, instance.ReasoningNotes, instance.Records, examiner,
	); err != nil {
		return err
	}

	e.logger.Info("step reopened",
		"application_id", applicationID,
		"step_id", stepID,
		"examiner", examiner,
	)
	e.note(applicationID, stepID, PhaseActivate, "step reopened by "+examiner)

	return nil
}
