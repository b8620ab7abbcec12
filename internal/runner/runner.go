// SPDX-License-Identifier: Apache-2.0

// Package runner walks an application's ordered step list and executes every
// step whose dependencies are satisfied. Passes are repeatable: gated steps
// are skipped now and picked up once their dependencies resolve.
package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/credentia/credential-runtime/internal/engine"
	"github.com/credentia/credential-runtime/internal/metrics"
	"github.com/google/uuid"
)

type Deps struct {
	Engine    *engine.Engine
	Instances engine.InstanceLoader
	Logger    *slog.Logger
}

type Runner struct {
	engine    *engine.Engine
	instances engine.InstanceLoader
	logger    *slog.Logger
}

// StepOutcome is the per-step result of one pass.
type StepOutcome struct {
	StepID  string                 `json:"step_id"`
	Skipped bool                   `json:"skipped"`
	Reason  string                 `json:"reason,omitempty"`
	Result  *engine.ExecutionResult `json:"result,omitempty"`
}

// PassResult summarizes one runner pass over an application.
type PassResult struct {
	ApplicationID uuid.UUID     `json:"application_id"`
	Outcomes      []StepOutcome `json:"outcomes"`
	Executed      int           `json:"executed"`
	Skipped       int           `json:"skipped"`
	Failed        int           `json:"failed"`
}

func New(deps Deps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		engine:    deps.Engine,
		instances: deps.Instances,
		logger:    logger,
	}
}

// RunPass executes every eligible step of the ordered list exactly once.
// A step is eligible when it is not terminal-success and every dependency
// has an instance in completed or requires_review. Failed dependencies gate
// their dependents until an examiner re-opens and resolves them.
func (r *Runner) RunPass(
	ctx context.Context,
	app domain.Application,
	ordered []domain.StepDefinition,
) (PassResult, error) {
	started := time.Now()
	defer func() {
		metrics.ObserveRunnerPassDuration(time.Since(started))
	}()

	result := PassResult{ApplicationID: app.ID}

	instances, err := r.instances.LoadInstances(ctx, app.ID)
	if err != nil {
		return result, err
	}

	statusOf := func(stepID string) domain.StepStatus {
		if inst, ok := instances[stepID]; ok {
			return inst.Status
		}
		return domain.StepNotStarted
	}

	for _, step := range ordered {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		current := statusOf(step.ID)
		if current == domain.StepCompleted {
			result.Skipped++
			result.Outcomes = append(result.Outcomes, StepOutcome{
				StepID:  step.ID,
				Skipped: true,
				Reason:  "already completed",
			})
			continue
		}

		if blocked, dep := r.gated(step, statusOf); blocked {
			result.Skipped++
			result.Outcomes = append(result.Outcomes, StepOutcome{
				StepID:  step.ID,
				Skipped: true,
				Reason:  "waiting on dependency " + dep,
			})
			r.logger.Debug("step gated",
				"application_id", app.ID,
				"step_id", step.ID,
				"dependency", dep,
			)
			continue
		}

		execResult := r.engine.ExecuteStep(ctx, step, app)
		result.Executed++
		if !execResult.Success {
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, StepOutcome{
			StepID: step.ID,
			Result: &execResult,
		})

		// Refresh local view so later steps in this pass can gate on the
		// status this execution just committed.
		if execResult.Success && execResult.Decision != nil {
			if inst, ok := instances[step.ID]; ok {
				inst.Status = execResult.Decision.Status()
			} else {
				inst := domain.NewStepInstance(app.ID, step.ID)
				inst.Status = execResult.Decision.Status()
				instances[step.ID] = inst
			}
		}
	}

	r.logger.Info("runner pass finished",
		"application_id", app.ID,
		"executed", result.Executed,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	return result, nil
}

// gated reports whether any dependency blocks activation, and which one.
// Dependencies satisfy the gate in completed or requires_review.
func (r *Runner) gated(
	step domain.StepDefinition,
	statusOf func(string) domain.StepStatus,
) (bool, string) {
	for _, dep := range step.DependsOn {
		switch statusOf(dep) {
		case domain.StepCompleted, domain.StepRequiresReview:
		default:
			return true, dep
		}
	}
	return false, ""
}
