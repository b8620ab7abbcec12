// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/credentia/credential-runtime/internal/auth"
	"github.com/credentia/credential-runtime/internal/catalog"
	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/credentia/credential-runtime/internal/engine"
	"github.com/credentia/credential-runtime/internal/metrics"
	"github.com/credentia/credential-runtime/internal/repository"
	"github.com/credentia/credential-runtime/internal/runner"
	"github.com/credentia/credential-runtime/internal/transport/middleware"
	"github.com/credentia/credential-runtime/internal/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type createApplicationRequest struct {
	Practitioner domain.PractitionerContext `json:"practitioner"`
	Template     string                     `json:"template"`
	Steps        []string                   `json:"steps"`
}

type planWorkflowRequest struct {
	Template    string                  `json:"template"`
	Steps       []string                `json:"steps"`
	CustomSteps []domain.StepDefinition `json:"custom_steps"`
}

type overrideStepRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type createExaminerRequest struct {
	Name string `json:"name"`
}

type stepView struct {
	domain.StepDefinition
	Status         domain.StepStatus `json:"status"`
	ReasoningNotes string            `json:"reasoning_notes,omitempty"`
	Examiner       string            `json:"examiner,omitempty"`
	Records        domain.RecordSet  `json:"records,omitempty"`
}

type Deps struct {
	Applications     ApplicationStore
	Audit            AuditReader
	Engine           *engine.Engine
	Runner           *runner.Runner
	Catalog          *catalog.Catalog
	Examiners        ExaminerAdmin
	ExaminerResolver ExaminerResolver
	HealthChecker    HealthChecker
	Logger           *slog.Logger
	AdminToken       string
	Version          string
	Commit           string
	BuildDate        string
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics.Init()
	version := valueOrDefault(deps.Version, "dev")
	commit := valueOrDefault(deps.Commit, "none")
	buildDate := valueOrDefault(deps.BuildDate, "unknown")

	r := chi.NewRouter()
	r.Use(requestIDMiddleware())
	r.Use(requestLoggingMiddleware(logger))

	// ---------------- HEALTH ----------------

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("health check hit")
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.Check(r.Context()); err != nil {
				logger.Error("health check failed", "error", err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ---------------- METRICS ----------------

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// ---------------- VERSION ----------------

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":    version,
			"commit":     commit,
			"build_date": buildDate,
		})
	})

	// ---------------- EXAMINER LIFECYCLE (ADMIN) ----------------

	if deps.Examiners != nil {
		r.Route("/examiners", func(admin chi.Router) {
			admin.Use(middleware.AdminTokenAuth(deps.AdminToken, logger))

			admin.Post("/", func(w http.ResponseWriter, r *http.Request) {
				reqBody, err := decodeJSON[createExaminerRequest](r)
				if err != nil {
					http.Error(w, "invalid request body", http.StatusBadRequest)
					return
				}

				created, err := deps.Examiners.CreateExaminer(r.Context(), reqBody.Name)
				if err != nil {
					if errors.Is(err, repository.ErrInvalidExaminerName) {
						http.Error(w, "invalid examiner name", http.StatusBadRequest)
						return
					}
					logger.Error("create examiner failed", "error", err)
					http.Error(w, "failed to create examiner", http.StatusInternalServerError)
					return
				}

				writeJSON(w, http.StatusOK, created)
			})

			admin.Get("/", func(w http.ResponseWriter, r *http.Request) {
				examiners, err := deps.Examiners.ListExaminers(r.Context())
				if err != nil {
					logger.Error("list examiners failed", "error", err)
					http.Error(w, "failed to list examiners", http.StatusInternalServerError)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{
					"examiners": examiners,
				})
			})

			admin.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				id, err := uuid.Parse(chi.URLParam(r, "id"))
				if err != nil {
					http.Error(w, "invalid examiner ID", http.StatusBadRequest)
					return
				}

				if err := deps.Examiners.RevokeExaminer(r.Context(), id); err != nil {
					logger.Error("revoke examiner failed", "examiner_id", id, "error", err)
					http.Error(w, "failed to revoke examiner", http.StatusInternalServerError)
					return
				}

				w.WriteHeader(http.StatusNoContent)
			})
		})
	}

	// ---------------- CATALOG & TEMPLATES ----------------

	r.Get("/catalog", func(w http.ResponseWriter, r *http.Request) {
		steps := make([]domain.StepDefinition, 0, len(deps.Catalog.StepIDs()))
		for _, id := range deps.Catalog.StepIDs() {
			step, err := deps.Catalog.Get(id)
			if err != nil {
				continue
			}
			steps = append(steps, step)
		}
		writeJSON(w, http.StatusOK, map[string]any{"steps": steps})
	})

	r.Get("/templates", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"templates": deps.Catalog.Templates(),
		})
	})

	// ---------------- WORKFLOW PLANNING ----------------

	r.Post("/workflows/plan", func(w http.ResponseWriter, r *http.Request) {
		reqBody, err := decodeJSON[planWorkflowRequest](r)
		if err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		builder := workflow.NewBuilder(deps.Catalog)
		ordered, validation, err := planWorkflow(builder, reqBody.Template, reqBody.Steps, reqBody.CustomSteps)
		if err != nil {
			writePlanError(w, logger, err)
			return
		}

		orderIDs := make([]string, 0, len(ordered))
		for _, step := range ordered {
			orderIDs = append(orderIDs, step.ID)
		}

		warnings := make([]string, 0, len(validation.Errors))
		for _, verr := range validation.Errors {
			warnings = append(warnings, verr.Error())
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"order":              orderIDs,
			"estimated_duration": workflow.FormatDuration(builder.EstimateTotalDuration()),
			"is_valid":           validation.IsValid,
			"warnings":           warnings,
		})
	})

	// ---------------- APPLICATIONS (EXAMINER AUTH) ----------------

	r.Group(func(r chi.Router) {
		if deps.ExaminerResolver != nil {
			r.Use(middleware.ExaminerTokenAuth(deps.ExaminerResolver, logger))
		}

		// ---------------- CREATE APPLICATION ----------------

		r.Post("/applications", func(w http.ResponseWriter, r *http.Request) {
			reqBody, err := decodeJSON[createApplicationRequest](r)
			if err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
			if reqBody.Practitioner.FirstName == "" && reqBody.Practitioner.LastName == "" {
				http.Error(w, "practitioner name is required", http.StatusBadRequest)
				return
			}

			builder := workflow.NewBuilder(deps.Catalog)
			ordered, validation, err := planWorkflow(builder, reqBody.Template, reqBody.Steps, nil)
			if err != nil {
				writePlanError(w, logger, err)
				return
			}
			if len(ordered) == 0 {
				http.Error(w, "workflow selects no steps", http.StatusBadRequest)
				return
			}
			if !validation.IsValid {
				msgs := make([]string, 0, len(validation.Errors))
				for _, verr := range validation.Errors {
					msgs = append(msgs, verr.Error())
				}
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error":  "workflow has unsatisfied dependencies",
					"detail": msgs,
				})
				return
			}

			orderIDs := make([]string, 0, len(ordered))
			for _, step := range ordered {
				orderIDs = append(orderIDs, step.ID)
			}

			applicationID, err := deps.Applications.CreateApplication(r.Context(), repository.CreateApplicationParams{
				Practitioner: reqBody.Practitioner,
				Template:     reqBody.Template,
				StepOrder:    orderIDs,
			})
			if err != nil {
				logger.Error("create application failed", "error", err)
				http.Error(w, "failed to create application", http.StatusInternalServerError)
				return
			}

			logger.Info("application created via API",
				"application_id", applicationID,
				"steps", len(orderIDs),
			)

			writeJSON(w, http.StatusOK, map[string]any{
				"application_id": applicationID.String(),
				"order":          orderIDs,
			})
		})

		// ---------------- GET APPLICATION ----------------

		r.Get("/applications/{id}", func(w http.ResponseWriter, r *http.Request) {
			app, ok := fetchApplication(w, r, deps, logger)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, app)
		})

		// ---------------- LIST STEP INSTANCES ----------------

		r.Get("/applications/{id}/steps", func(w http.ResponseWriter, r *http.Request) {
			app, ok := fetchApplication(w, r, deps, logger)
			if !ok {
				return
			}

			instances, err := deps.Audit.LoadInstances(r.Context(), app.ID)
			if err != nil {
				logger.Error("load instances failed", "application_id", app.ID, "error", err)
				http.Error(w, "failed to load steps", http.StatusInternalServerError)
				return
			}

			views := make([]stepView, 0, len(app.StepOrder))
			for _, stepID := range app.StepOrder {
				def, err := deps.Catalog.Get(stepID)
				if err != nil {
					continue
				}
				view := stepView{
					StepDefinition: def,
					Status:         domain.StepNotStarted,
				}
				if inst, found := instances[stepID]; found {
					view.Status = inst.Status
					view.ReasoningNotes = inst.ReasoningNotes
					view.Examiner = inst.Examiner
					view.Records = inst.Records
				}
				views = append(views, view)
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"application_id": app.ID.String(),
				"steps":          views,
			})
		})

		// ---------------- RUN ONE PASS ----------------

		r.Post("/applications/{id}/run", func(w http.ResponseWriter, r *http.Request) {
			app, ok := fetchApplication(w, r, deps, logger)
			if !ok {
				return
			}

			ordered, err := resolveOrder(deps.Catalog, app.StepOrder)
			if err != nil {
				logger.Error("resolve step order failed", "application_id", app.ID, "error", err)
				http.Error(w, "application references unknown steps", http.StatusInternalServerError)
				return
			}

			passResult, err := deps.Runner.RunPass(r.Context(), app, ordered)
			if err != nil {
				logger.Error("runner pass failed", "application_id", app.ID, "error", err)
				http.Error(w, "runner pass failed", http.StatusInternalServerError)
				return
			}

			writeJSON(w, http.StatusOK, passResult)
		})

		// ---------------- STEP HISTORY ----------------

		r.Get("/applications/{id}/steps/{stepID}/history", func(w http.ResponseWriter, r *http.Request) {
			app, ok := fetchApplication(w, r, deps, logger)
			if !ok {
				return
			}
			stepID := chi.URLParam(r, "stepID")

			history, err := deps.Audit.GetStepHistory(r.Context(), app.ID, stepID)
			if err != nil {
				logger.Error("get step history failed",
					"application_id", app.ID,
					"step_id", stepID,
					"error", err,
				)
				http.Error(w, "failed to load history", http.StatusInternalServerError)
				return
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"application_id": app.ID.String(),
				"step_id":        stepID,
				"history":        history,
			})
		})

		// ---------------- HUMAN OVERRIDE ----------------

		r.Post("/applications/{id}/steps/{stepID}/override", func(w http.ResponseWriter, r *http.Request) {
			app, ok := fetchApplication(w, r, deps, logger)
			if !ok {
				return
			}
			stepID := chi.URLParam(r, "stepID")

			reqBody, err := decodeJSON[overrideStepRequest](r)
			if err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}

			actor := engine.SystemActor
			if examiner, found := auth.ExaminerFromContext(r.Context()); found {
				actor = examiner.Name
			}

			err = deps.Engine.Override(
				r.Context(),
				app.ID,
				stepID,
				domain.StepStatus(reqBody.Status),
				reqBody.Notes,
				actor,
			)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidOverrideStatus) {
					http.Error(w, "invalid override status", http.StatusBadRequest)
					return
				}
				logger.Error("override failed",
					"application_id", app.ID,
					"step_id", stepID,
					"error", err,
				)
				http.Error(w, "failed to override step", http.StatusInternalServerError)
				return
			}

			writeJSON(w, http.StatusOK, map[string]string{
				"application_id": app.ID.String(),
				"step_id":        stepID,
				"status":         reqBody.Status,
			})
		})

		// ---------------- RE-OPEN TERMINAL STEP ----------------

		r.Post("/applications/{id}/steps/{stepID}/reopen", func(w http.ResponseWriter, r *http.Request) {
			app, ok := fetchApplication(w, r, deps, logger)
			if !ok {
				return
			}
			stepID := chi.URLParam(r, "stepID")

			actor := engine.SystemActor
			if examiner, found := auth.ExaminerFromContext(r.Context()); found {
				actor = examiner.Name
			}

			if err := deps.Engine.Reopen(r.Context(), app.ID, stepID, actor); err != nil {
				switch {
				case errors.Is(err, domain.ErrStepNotFound):
					http.Error(w, "step not found", http.StatusNotFound)
				case errors.Is(err, domain.ErrStepNotTerminal):
					http.Error(w, "step is not terminal", http.StatusConflict)
				default:
					logger.Error("reopen failed",
						"application_id", app.ID,
						"step_id", stepID,
						"error", err,
					)
					http.Error(w, "failed to reopen step", http.StatusInternalServerError)
				}
				return
			}

			writeJSON(w, http.StatusOK, map[string]string{
				"application_id": app.ID.String(),
				"step_id":        stepID,
				"status":         string(domain.StepInProgress),
			})
		})
	})

	return r
}

func fetchApplication(
	w http.ResponseWriter,
	r *http.Request,
	deps Deps,
	logger *slog.Logger,
) (domain.Application, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid application ID", http.StatusBadRequest)
		return domain.Application{}, false
	}

	app, err := deps.Applications.GetApplication(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrApplicationNotFound) {
			logger.Warn("application not found", "application_id", id)
			http.Error(w, "application not found", http.StatusNotFound)
			return domain.Application{}, false
		}
		logger.Error("get application failed", "application_id", id, "error", err)
		http.Error(w, "failed to get application", http.StatusInternalServerError)
		return domain.Application{}, false
	}

	return app, true
}

func planWorkflow(
	builder *workflow.Builder,
	template string,
	stepIDs []string,
	custom []domain.StepDefinition,
) ([]domain.StepDefinition, workflow.ValidationResult, error) {
	if template != "" {
		if err := builder.AddTemplate(template); err != nil {
			return nil, workflow.ValidationResult{}, err
		}
	}
	if err := builder.AddSteps(stepIDs); err != nil {
		return nil, workflow.ValidationResult{}, err
	}
	for _, step := range custom {
		if err := builder.AddCustomStep(step); err != nil {
			return nil, workflow.ValidationResult{}, err
		}
	}

	validation := builder.Validate()
	ordered, err := builder.Build()
	if err != nil {
		return nil, validation, err
	}
	return ordered, validation, nil
}

func writePlanError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var cycleErr *domain.CircularDependencyError
	switch {
	case errors.Is(err, domain.ErrUnknownStep):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrTemplateNotFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &cycleErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Error("workflow planning failed", "error", err)
		http.Error(w, "failed to plan workflow", http.StatusInternalServerError)
	}
}

func resolveOrder(cat *catalog.Catalog, stepIDs []string) ([]domain.StepDefinition, error) {
	ordered := make([]domain.StepDefinition, 0, len(stepIDs))
	for _, id := range stepIDs {
		step, err := cat.Get(id)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, step)
	}
	return ordered, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON[T any](r *http.Request) (T, error) {
	var req T
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return req, nil
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return req, err
	}

	// Ensure there is only one JSON object.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return req, errors.New("request body must contain exactly one JSON object")
	}

	return req, nil
}

func valueOrDefault(value, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	return trimmed
}
