// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ApplicationRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewApplicationRepository(pool *pgxpool.Pool, logger *slog.Logger) *ApplicationRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &ApplicationRepository{
		pool:   pool,
		logger: logger,
	}
}

type CreateApplicationParams struct {
	Practitioner domain.PractitionerContext
	Template     string
	StepOrder    []string
}

func (r *ApplicationRepository) CreateApplication(
	ctx context.Context,
	params CreateApplicationParams,
) (uuid.UUID, error) {
	applicationID := uuid.New()

	practitioner, err := json.Marshal(params.Practitioner)
	if err != nil {
		return uuid.Nil, err
	}
	stepOrder, err := json.Marshal(params.StepOrder)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO applications (id, practitioner, template, step_order)
		VALUES ($1, $2::jsonb, $3, $4::jsonb)
	`,
		applicationID,
		practitioner,
		params.Template,
		stepOrder,
	)
	if err != nil {
		r.logger.Error("insert application failed", "application_id", applicationID, "error", err)
		return uuid.Nil, err
	}

	r.logger.Info("application created",
		"application_id", applicationID,
		"template", params.Template,
		"steps", len(params.StepOrder),
	)
	return applicationID, nil
}

func (r *ApplicationRepository) GetApplication(ctx context.Context, id uuid.UUID) (domain.Application, error) {
	var (
		app          domain.Application
		practitioner []byte
		stepOrder    []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, practitioner, template, step_order, created_at
		FROM applications
		WHERE id=$1
	`, id).Scan(&app.ID, &practitioner, &app.Template, &stepOrder, &app.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Application{}, domain.ErrApplicationNotFound
		}
		r.logger.Error("get application failed", "application_id", id, "error", err)
		return domain.Application{}, err
	}

	if err := json.Unmarshal(practitioner, &app.Practitioner); err != nil {
		return domain.Application{}, err
	}
	if err := json.Unmarshal(stepOrder, &app.StepOrder); err != nil {
		return domain.Application{}, err
	}

	return app, nil
}

// ListOpenApplications returns applications that still have at least one
// step with no terminal audit entry. The background runner polls this.
func (r *ApplicationRepository) ListOpenApplications(ctx context.Context, limit int) ([]domain.Application, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.practitioner, a.template, a.step_order, a.created_at
		FROM applications a
		WHERE EXISTS (
			SELECT 1
			FROM jsonb_array_elements_text(a.step_order) AS sel(step_id)
			WHERE NOT EXISTS (
				SELECT 1 FROM step_audit sa
				WHERE sa.application_id = a.id
				  AND sa.step_id = sel.step_id
				  AND sa.status IN ('completed','failed','requires_review')
				  AND sa.seq = (
					SELECT MAX(seq) FROM step_audit
					WHERE application_id = a.id AND step_id = sel.step_id
				  )
			)
		)
		ORDER BY a.created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		r.logger.Error("list open applications failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Application, 0, 8)
	for rows.Next() {
		var (
			app          domain.Application
			practitioner []byte
			stepOrder    []byte
		)
		if err := rows.Scan(&app.ID, &practitioner, &app.Template, &stepOrder, &app.CreatedAt); err != nil {
			r.logger.Error("scan application row failed", "error", err)
			return nil, err
		}
		if err := json.Unmarshal(practitioner, &app.Practitioner); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(stepOrder, &app.StepOrder); err != nil {
			return nil, err
		}
		out = append(out, app)
	}

	return out, rows.Err()
}
