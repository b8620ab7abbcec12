// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/google/uuid"
)

// InstanceLoader recovers current step state. Implementations replay the
// audit history latest-wins; a step with no history is simply absent.
type InstanceLoader interface {
	GetInstance(ctx context.Context, applicationID uuid.UUID, stepID string) (*domain.StepInstance, error)
	LoadInstances(ctx context.Context, applicationID uuid.UUID) (map[string]*domain.StepInstance, error)
}

// AuditSink durably records one step state transition. A sink failure is the
// one execution error that must surface: unpersisted state is not done.
type AuditSink interface {
	RecordStepChange(
		ctx context.Context,
		applicationID uuid.UUID,
		stepID string,
		status domain.StepStatus,
		notes string,
		records domain.RecordSet,
		actor string,
	) error
}
