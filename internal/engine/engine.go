// SPDX-License-Identifier: Apache-2.0

// Package engine drives one verification step through its full lifecycle:
// activation, gateway call, decision resolution with fallback, record
// extraction, notes, status commit, persistence, finalization. The same
// driver serves every check type; only the request builder varies per step.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/credentia/credential-runtime/internal/gateway"
	"github.com/credentia/credential-runtime/internal/metrics"
	"github.com/credentia/credential-runtime/internal/policy"
	"github.com/credentia/credential-runtime/internal/telemetry"
	"github.com/google/uuid"
)

// SystemActor is recorded as the examiner on automated commits.
const SystemActor = "system"

const (
	PhaseActivate = "activate"
	PhaseGateway  = "gateway"
	PhaseDecision = "decision"
	PhaseExtract  = "extract"
	PhaseNotes    = "notes"
	PhaseCommit   = "commit"
	PhasePersist  = "persist"
	PhaseFinalize = "finalize"
)

// ExecutionResult summarizes every sub-step outcome of one execution.
type ExecutionResult struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message"`
	FailedAt     string             `json:"failed_at,omitempty"`
	RawResult    *gateway.RawResult `json:"raw_result,omitempty"`
	Decision     *domain.Decision   `json:"decision,omitempty"`
	RecordsAdded int                `json:"records_added"`
}

type Deps struct {
	Instances InstanceLoader
	Sink      AuditSink
	Gateway   gateway.Gateway
	Policy    policy.Policy
	Builders  *gateway.Registry
	Progress  telemetry.Sink
	Logger    *slog.Logger
}

type Engine struct {
	instances InstanceLoader
	sink      AuditSink
	gateway   gateway.Gateway
	policy    policy.Policy
	builders  *gateway.Registry
	progress  telemetry.Sink
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func New(deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	builders := deps.Builders
	if builders == nil {
		builders = gateway.DefaultRegistry()
	}

	progress := deps.Progress
	if progress == nil {
		progress = telemetry.Discard{}
	}

	return &Engine{
		instances: deps.Instances,
		sink:      deps.Sink,
		gateway:   deps.Gateway,
		policy:    deps.Policy,
		builders:  builders,
		progress:  progress,
		logger:    logger,
		inFlight:  make(map[string]struct{}, 16),
	}
}

func inFlightKey(applicationID uuid.UUID, stepID string) string {
	return applicationID.String() + "/" + stepID
}

// ExecuteStep runs one step for one application. External unreliability is
// absorbed into a degraded-but-terminal outcome; the only failures reported
// to the caller are persistence errors, concurrent activation, and load
// errors. A panic anywhere inside is converted into a failed result so a
// stalled step can never block its dependents with an escaped exception.
func (e *Engine) ExecuteStep(
	ctx context.Context,
	step domain.StepDefinition,
	app domain.Application,
) (result ExecutionResult) {
	key := inFlightKey(app.ID, step.ID)

	e.mu.Lock()
	if _, busy := e.inFlight[key]; busy {
		e.mu.Unlock()
		return ExecutionResult{
			Success:  false,
			Message:  domain.ErrConcurrentActivation.Error(),
			FailedAt: PhaseActivate,
		}
	}
	e.inFlight[key] = struct{}{}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.inFlight, key)
		e.mu.Unlock()

		if r := recover(); r != nil {
			e.logger.Error("step execution panicked",
				"application_id", app.ID,
				"step_id", step.ID,
				"panic", r,
			)
			result = ExecutionResult{
				Success:  false,
				Message:  fmt.Sprintf("step execution panicked: %v", r),
				FailedAt: PhaseFinalize,
			}
		}
	}()

	started := time.Now()
	result = e.run(ctx, step, app)
	metrics.ObserveStepExecutionDuration(time.Since(started))
	return result
}

func (e *Engine) run(ctx context.Context, step domain.StepDefinition, app domain.Application) ExecutionResult {
	// Phase 1: activate. Idempotent; resuming an in_progress step after a
	// crash lands here and proceeds.
	instance, err := e.instances.GetInstance(ctx, app.ID, step.ID)
	if err != nil {
		return ExecutionResult{Success: false, Message: err.Error(), FailedAt: PhaseActivate}
	}
	if instance == nil {
		instance = domain.NewStepInstance(app.ID, step.ID)
	}

	if instance.Status.IsTerminal() {
		return ExecutionResult{
			Success: true,
			Message: fmt.Sprintf("step %s already %s", step.ID, instance.Status),
		}
	}

	if instance.Status == domain.StepNotStarted {
		now := time.Now()
		instance.Status = domain.StepInProgress
		instance.StartedAt = &now
		instance.Examiner = SystemActor

		if err := e.sink.RecordStepChange(
			ctx, app.ID, step.ID,
			instance.Status, instance.ReasoningNotes, instance.Records, SystemActor,
		); err != nil {
			e.logger.Error("activation persist failed",
				"application_id", app.ID,
				"step_id", step.ID,
				"error", err,
			)
			return ExecutionResult{Success: false, Message: err.Error(), FailedAt: PhaseActivate}
		}
	}
	e.note(app.ID, step.ID, PhaseActivate, "step active")

	// Phase 2: gateway call. Transport and validation failures degrade to an
	// error-bearing result and flow forward; the step is never aborted here.
	var rawResult *gateway.RawResult
	if !step.ManualOnly {
		if builder, ok := e.builders.Lookup(step.ID); ok {
			raw := e.callGateway(ctx, step, app.Practitioner, builder)
			rawResult = &raw
		}
	}
	if rawResult != nil {
		e.note(app.ID, step.ID, PhaseGateway, "gateway returned "+rawResult.Status)
	} else {
		e.note(app.ID, step.ID, PhaseGateway, "no automatic verification for this step")
	}

	// Phase 3: decision resolution with mandatory fallback.
	decision := e.resolveDecision(ctx, step, app.Practitioner, rawResult)
	e.note(app.ID, step.ID, PhaseDecision, "decision "+string(decision.Outcome))

	// Phase 4: record extraction. Each addition stands alone; one bad record
	// never drops the rest.
	recordsAdded := e.mergeRecords(instance, step, decision.Extracted)
	if recordsAdded > 0 {
		e.note(app.ID, step.ID, PhaseExtract, fmt.Sprintf("%d records added", recordsAdded))
	}

	// Phase 5: notes. Advisory annotation; nothing here can fail the step.
	instance.ReasoningNotes = decision.Reasoning
	e.note(app.ID, step.ID, PhaseNotes, "reasoning recorded")

	// Phase 6: status commit.
	instance.Status = decision.Status()
	instance.Examiner = SystemActor
	if instance.Status.IsTerminal() {
		now := time.Now()
		instance.CompletedAt = &now
	}
	e.note(app.ID, step.ID, PhaseCommit, "status "+string(instance.Status))

	// Phase 7: persist. Durability is the final gate.
	if err := e.sink.RecordStepChange(
		ctx, app.ID, step.ID,
		instance.Status, instance.ReasoningNotes, instance.Records, SystemActor,
	); err != nil {
		e.logger.Error("step persist failed",
			"application_id", app.ID,
			"step_id", step.ID,
			"status", instance.Status,
			"error", err,
		)
		return ExecutionResult{
			Success:      false,
			Message:      err.Error(),
			FailedAt:     PhasePersist,
			RawResult:    rawResult,
			Decision:     &decision,
			RecordsAdded: recordsAdded,
		}
	}
	e.note(app.ID, step.ID, PhasePersist, "state persisted")

	// Phase 8: finalize.
	metrics.IncStepExecution(instance.Status)
	e.logger.Info("step executed",
		"application_id", app.ID,
		"step_id", step.ID,
		"status", instance.Status,
		"records_added", recordsAdded,
	)
	e.note(app.ID, step.ID, PhaseFinalize, "step closed")

	return ExecutionResult{
		Success:      true,
		Message:      fmt.Sprintf("step %s finished as %s", step.ID, instance.Status),
		RawResult:    rawResult,
		Decision:     &decision,
		RecordsAdded: recordsAdded,
	}
}

func (e *Engine) callGateway(
	ctx context.Context,
	step domain.StepDefinition,
	p domain.PractitionerContext,
	builder gateway.RequestBuilder,
) gateway.RawResult {
	req, err := builder(p)
	if err != nil {
		e.logger.Warn("request build failed",
			"step_id", step.ID,
			"error", err,
		)
		metrics.IncGatewayError(step.ID)
		return gateway.Degraded(err)
	}

	raw, err := e.gateway.Verify(ctx, req)
	if err != nil {
		e.logger.Warn("gateway call failed",
			"step_id", step.ID,
			"check", req.CheckType,
			"error", err,
		)
		metrics.IncGatewayError(step.ID)
		return gateway.Degraded(err)
	}

	return raw
}

func (e *Engine) resolveDecision(
	ctx context.Context,
	step domain.StepDefinition,
	p domain.PractitionerContext,
	raw *gateway.RawResult,
) domain.Decision {
	if raw == nil {
		return policy.NoData(step)
	}

	decision, err := e.policy.Analyze(ctx, *raw, p)
	if err == nil {
		// The validation gate lives at the policy boundary, but a custom
		// Policy implementation could still hand back junk.
		err = decision.Validate()
	}
	if err != nil {
		e.logger.Warn("decision policy failed, substituting fallback",
			"step_id", step.ID,
			"error", err,
		)
		metrics.IncPolicyFallback()
		return policy.Fallback(err)
	}

	return decision
}

func (e *Engine) mergeRecords(
	instance *domain.StepInstance,
	step domain.StepDefinition,
	extracted domain.RecordSet,
) int {
	if extracted.IsEmpty() || step.FormKind == domain.FormNone {
		return 0
	}

	added := 0
	add := func(record any) {
		if err := instance.AddRecord(step.FormKind, record); err != nil {
			e.logger.Warn("record rejected",
				"application_id", instance.ApplicationID,
				"step_id", step.ID,
				"kind", step.FormKind,
				"error", err,
			)
			return
		}
		added++
	}

	switch step.FormKind {
	case domain.FormLicenses:
		for _, r := range extracted.Licenses {
			add(r)
		}
	case domain.FormCertifications:
		for _, r := range extracted.Certifications {
			add(r)
		}
	case domain.FormIncidents:
		for _, r := range extracted.Incidents {
			add(r)
		}
	case domain.FormHospitalPrivileges:
		for _, r := range extracted.HospitalPrivileges {
			add(r)
		}
	}

	if added > 0 {
		metrics.IncRecordsExtracted(step.FormKind, added)
	}
	return added
}

func (e *Engine) note(applicationID uuid.UUID, stepID, phase, message string) {
	e.progress.Append(telemetry.Entry{
		ApplicationID: applicationID,
		StepID:        stepID,
		Phase:         phase,
		Message:       message,
	})
}
