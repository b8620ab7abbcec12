// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StepAuditRepository is the persistence/audit sink: every step state
// transition is an append-only row, and current instance state is recovered
// latest-wins from the trail.
type StepAuditRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewStepAuditRepository(pool *pgxpool.Pool, logger *slog.Logger) *StepAuditRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &StepAuditRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *StepAuditRepository) RecordStepChange(
	ctx context.Context,
	applicationID uuid.UUID,
	stepID string,
	status domain.StepStatus,
	notes string,
	records domain.RecordSet,
	actor string,
) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO step_audit (id, application_id, step_id, status, notes, records, actor)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
	`,
		uuid.New(),
		applicationID,
		stepID,
		status,
		notes,
		payload,
		actor,
	)
	if err != nil {
		r.logger.Error("record step change failed",
			"application_id", applicationID,
			"step_id", stepID,
			"status", status,
			"error", err,
		)
		return err
	}

	r.logger.Info("step change recorded",
		"application_id", applicationID,
		"step_id", stepID,
		"status", status,
		"actor", actor,
	)
	return nil
}

// GetStepHistory returns every recorded change for one step, oldest first.
func (r *StepAuditRepository) GetStepHistory(
	ctx context.Context,
	applicationID uuid.UUID,
	stepID string,
) ([]domain.StepChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, seq, application_id, step_id, status, notes, records, actor, created_at
		FROM step_audit
		WHERE application_id=$1 AND step_id=$2
		ORDER BY seq ASC
	`, applicationID, stepID)
	if err != nil {
		r.logger.Error("get step history failed",
			"application_id", applicationID,
			"step_id", stepID,
			"error", err,
		)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.StepChange, 0, 8)
	for rows.Next() {
		change, err := scanChange(rows)
		if err != nil {
			r.logger.Error("scan step change failed",
				"application_id", applicationID,
				"step_id", stepID,
				"error", err,
			)
			return nil, err
		}
		out = append(out, change)
	}

	return out, rows.Err()
}

// GetInstance recovers one step instance from its history, or nil when the
// step has never been touched.
func (r *StepAuditRepository) GetInstance(
	ctx context.Context,
	applicationID uuid.UUID,
	stepID string,
) (*domain.StepInstance, error) {
	history, err := r.GetStepHistory(ctx, applicationID, stepID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}
	return instanceFromHistory(applicationID, stepID, history), nil
}

// LoadInstances recovers every touched step instance for an application,
// keyed by step id.
func (r *StepAuditRepository) LoadInstances(
	ctx context.Context,
	applicationID uuid.UUID,
) (map[string]*domain.StepInstance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, seq, application_id, step_id, status, notes, records, actor, created_at
		FROM step_audit
		WHERE application_id=$1
		ORDER BY step_id, seq ASC
	`, applicationID)
	if err != nil {
		r.logger.Error("load instances failed",
			"application_id", applicationID,
			"error", err,
		)
		return nil, err
	}
	defer rows.Close()

	histories := make(map[string][]domain.StepChange, 8)
	for rows.Next() {
		change, err := scanChange(rows)
		if err != nil {
			return nil, err
		}
		histories[change.StepID] = append(histories[change.StepID], change)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]*domain.StepInstance, len(histories))
	for stepID, history := range histories {
		out[stepID] = instanceFromHistory(applicationID, stepID, history)
	}
	return out, nil
}

func scanChange(rows pgx.Rows) (domain.StepChange, error) {
	var (
		change  domain.StepChange
		records []byte
	)
	if err := rows.Scan(
		&change.ID,
		&change.Seq,
		&change.ApplicationID,
		&change.StepID,
		&change.Status,
		&change.Notes,
		&records,
		&change.Actor,
		&change.CreatedAt,
	); err != nil {
		return domain.StepChange{}, err
	}
	if len(records) > 0 {
		if err := json.Unmarshal(records, &change.Records); err != nil {
			return domain.StepChange{}, err
		}
	}
	return change, nil
}

// instanceFromHistory replays an ordered history latest-wins. StartedAt is
// the first in_progress transition, CompletedAt the latest terminal one, and
// both survive process restarts because they derive from the trail itself.
func instanceFromHistory(
	applicationID uuid.UUID,
	stepID string,
	history []domain.StepChange,
) *domain.StepInstance {
	instance := domain.NewStepInstance(applicationID, stepID)

	var startedAt, completedAt *time.Time
	for _, change := range history {
		if change.Status == domain.StepInProgress && startedAt == nil {
			at := change.CreatedAt
			startedAt = &at
		}
	}

	latest := history[len(history)-1]
	instance.Status = latest.Status
	instance.ReasoningNotes = latest.Notes
	instance.Records = latest.Records
	instance.Examiner = latest.Actor
	if latest.Status.IsTerminal() {
		at := latest.CreatedAt
		completedAt = &at
	}

	instance.StartedAt = startedAt
	instance.CompletedAt = completedAt
	return instance
}
