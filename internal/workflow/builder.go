// SPDX-License-Identifier: Apache-2.0

// Package workflow turns a selection of catalog steps into a single valid
// execution order: a stable priority sort followed by a depth-first
// topological sort, so high-priority checks surface first while dependencies
// always precede their dependents.
package workflow

import (
	"fmt"
	"sort"
	"time"

	"github.com/credentia/credential-runtime/internal/catalog"
	"github.com/credentia/credential-runtime/internal/domain"
)

// Builder accumulates a working set of step definitions. No order is implied
// until Build is called. Builders are not safe for concurrent use.
type Builder struct {
	catalog *catalog.Catalog
	steps   map[string]domain.StepDefinition
	// insertion preserves add order so priority ties break deterministically.
	insertion []string
}

type ValidationResult struct {
	IsValid bool
	Errors  []*domain.MissingDependencyError
}

func NewBuilder(cat *catalog.Catalog) *Builder {
	return &Builder{
		catalog: cat,
		steps:   make(map[string]domain.StepDefinition, 8),
	}
}

// AddStep pulls one definition from the catalog into the working set.
// Adding an id twice is a no-op.
func (b *Builder) AddStep(id string) error {
	if _, ok := b.steps[id]; ok {
		return nil
	}
	step, err := b.catalog.Get(id)
	if err != nil {
		return err
	}
	b.steps[id] = step
	b.insertion = append(b.insertion, id)
	return nil
}

func (b *Builder) AddSteps(ids []string) error {
	for _, id := range ids {
		if err := b.AddStep(id); err != nil {
			return err
		}
	}
	return nil
}

// AddTemplate adds every step of a named template.
func (b *Builder) AddTemplate(name string) error {
	tpl, err := b.catalog.Template(name)
	if err != nil {
		return err
	}
	return b.AddSteps(tpl.StepIDs)
}

// AddCustomStep inserts an ad-hoc definition that is not in the catalog.
func (b *Builder) AddCustomStep(step domain.StepDefinition) error {
	if err := step.Validate(); err != nil {
		return err
	}
	if _, ok := b.steps[step.ID]; ok {
		return nil
	}
	b.steps[step.ID] = step
	b.insertion = append(b.insertion, step.ID)
	return nil
}

func (b *Builder) RemoveStep(id string) {
	if _, ok := b.steps[id]; !ok {
		return
	}
	delete(b.steps, id)
	for i, existing := range b.insertion {
		if existing == id {
			b.insertion = append(b.insertion[:i], b.insertion[i+1:]...)
			break
		}
	}
}

// Validate reports one MissingDependencyError per (step, dependency) pair
// whose dependency is absent from the working set. Advisory: callers may
// still build, but the runner will never activate a step whose dependency
// has no instance.
func (b *Builder) Validate() ValidationResult {
	var errs []*domain.MissingDependencyError
	for _, id := range b.insertion {
		step := b.steps[id]
		for _, dep := range step.DependsOn {
			if _, ok := b.steps[dep]; !ok {
				errs = append(errs, &domain.MissingDependencyError{
					StepID:    id,
					DependsOn: dep,
				})
			}
		}
	}
	return ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// Build produces the execution order. Phase one stable-sorts the working set
// by priority, preserving insertion order within a priority. Phase two runs a
// depth-first topological sort seeded from that list, visiting each step's
// dependencies before the step itself. A dependency cycle aborts the whole
// build with CircularDependencyError.
func (b *Builder) Build() ([]domain.StepDefinition, error) {
	seed := make([]string, len(b.insertion))
	copy(seed, b.insertion)
	sort.SliceStable(seed, func(i, j int) bool {
		return b.steps[seed[i]].Priority.Rank() < b.steps[seed[j]].Priority.Rank()
	})

	var (
		ordered []domain.StepDefinition
		done    = make(map[string]bool, len(seed))
		onPath  = make(map[string]bool, len(seed))
	)

	var visit func(id string) error
	visit = func(id string) error {
		if done[id] {
			return nil
		}
		if onPath[id] {
			return &domain.CircularDependencyError{StepID: id}
		}

		step, ok := b.steps[id]
		if !ok {
			// Missing dependency: Validate reports it, Build skips it so a
			// partially selected workflow still gets a usable order.
			return nil
		}

		onPath[id] = true
		for _, dep := range step.DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		onPath[id] = false

		done[id] = true
		ordered = append(ordered, step)
		return nil
	}

	for _, id := range seed {
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	return ordered, nil
}

// EstimateTotalDuration sums the midpoint of each step's estimate. Advisory
// only; it never gates execution.
func (b *Builder) EstimateTotalDuration() time.Duration {
	var minutes float64
	for _, step := range b.steps {
		minutes += step.Estimate.MidpointMinutes()
	}
	return time.Duration(minutes * float64(time.Minute))
}

// FormatDuration renders a duration at minute, hour, or day granularity
// depending on magnitude.
func FormatDuration(d time.Duration) string {
	minutes := d.Minutes()
	switch {
	case minutes < 60:
		return fmt.Sprintf("%.0f minutes", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%.1f hours", minutes/60)
	default:
		return fmt.Sprintf("%.1f days", minutes/(24*60))
	}
}
