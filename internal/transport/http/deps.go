// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"context"

	"github.com/credentia/credential-runtime/internal/auth"
	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/credentia/credential-runtime/internal/repository"
	"github.com/google/uuid"
)

type ApplicationStore interface {
	CreateApplication(ctx context.Context, params repository.CreateApplicationParams) (uuid.UUID, error)
	GetApplication(ctx context.Context, id uuid.UUID) (domain.Application, error)
}

type AuditReader interface {
	GetStepHistory(ctx context.Context, applicationID uuid.UUID, stepID string) ([]domain.StepChange, error)
	LoadInstances(ctx context.Context, applicationID uuid.UUID) (map[string]*domain.StepInstance, error)
}

type ExaminerResolver interface {
	ResolveExaminer(ctx context.Context, bearerToken string) (auth.Examiner, bool, error)
}

type ExaminerAdmin interface {
	CreateExaminer(ctx context.Context, name string) (repository.CreatedExaminer, error)
	ListExaminers(ctx context.Context) ([]repository.ExaminerRecord, error)
	RevokeExaminer(ctx context.Context, id uuid.UUID) error
}

type HealthChecker interface {
	Check(ctx context.Context) error
}
