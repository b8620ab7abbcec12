// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestNewApplicationRepository(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var pool *pgxpool.Pool

	repo := NewApplicationRepository(pool, logger)
	if repo == nil {
		t.Fatal("expected application repository instance")
	}
	if repo.pool != pool {
		t.Fatal("expected pool reference to be preserved")
	}
	if repo.logger != logger {
		t.Fatal("expected logger reference to be preserved")
	}
}

func TestNewStepAuditRepository(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var pool *pgxpool.Pool

	repo := NewStepAuditRepository(pool, logger)
	if repo == nil {
		t.Fatal("expected audit repository instance")
	}
	if repo.pool != pool {
		t.Fatal("expected pool reference to be preserved")
	}
}

func TestInstanceFromHistoryLatestWins(t *testing.T) {
	t.Parallel()

	appID := uuid.New()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	history := []domain.StepChange{
		{
			Seq: 1, ApplicationID: appID, StepID: "state_license",
			Status: domain.StepInProgress, Actor: "system",
			CreatedAt: base,
		},
		{
			Seq: 2, ApplicationID: appID, StepID: "state_license",
			Status: domain.StepRequiresReview, Actor: "system",
			Notes:     "License match is ambiguous.",
			CreatedAt: base.Add(2 * time.Minute),
		},
		{
			Seq: 3, ApplicationID: appID, StepID: "state_license",
			Status: domain.StepCompleted, Actor: "r.chen",
			Notes: "Confirmed with the board by phone.",
			Records: domain.RecordSet{
				Licenses: []domain.LicenseRecord{{Number: "A12345", State: "CA"}},
			},
			CreatedAt: base.Add(10 * time.Minute),
		},
	}

	inst := instanceFromHistory(appID, "state_license", history)

	if inst.Status != domain.StepCompleted {
		t.Fatalf("expected latest status completed got %s", inst.Status)
	}
	if inst.ReasoningNotes != "Confirmed with the board by phone." {
		t.Fatalf("expected latest notes, got %q", inst.ReasoningNotes)
	}
	if inst.Examiner != "r.chen" {
		t.Fatalf("expected latest actor got %q", inst.Examiner)
	}
	if len(inst.Records.Licenses) != 1 {
		t.Fatalf("expected latest records got %+v", inst.Records)
	}
	if inst.StartedAt == nil || !inst.StartedAt.Equal(base) {
		t.Fatalf("expected StartedAt from first in_progress row, got %v", inst.StartedAt)
	}
	if inst.CompletedAt == nil || !inst.CompletedAt.Equal(base.Add(10*time.Minute)) {
		t.Fatalf("expected CompletedAt from latest terminal row, got %v", inst.CompletedAt)
	}
}

func TestInstanceFromHistoryNonTerminalLatest(t *testing.T) {
	t.Parallel()

	appID := uuid.New()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	history := []domain.StepChange{
		{
			Seq: 1, ApplicationID: appID, StepID: "npi_registry",
			Status: domain.StepFailed, Actor: "system",
			CreatedAt: base,
		},
		{
			Seq: 2, ApplicationID: appID, StepID: "npi_registry",
			Status: domain.StepInProgress, Actor: "r.chen",
			CreatedAt: base.Add(time.Hour),
		},
	}

	inst := instanceFromHistory(appID, "npi_registry", history)

	if inst.Status != domain.StepInProgress {
		t.Fatalf("expected reopened status in_progress got %s", inst.Status)
	}
	if inst.CompletedAt != nil {
		t.Fatalf("expected no CompletedAt on a reopened step, got %v", inst.CompletedAt)
	}
	if inst.StartedAt == nil || !inst.StartedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected StartedAt from the in_progress row, got %v", inst.StartedAt)
	}
}
