// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/credentia/credential-runtime/internal/catalog"
	"github.com/credentia/credential-runtime/internal/domain"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func indexOf(order []domain.StepDefinition, id string) int {
	for i, step := range order {
		if step.ID == id {
			return i
		}
	}
	return -1
}

func TestBuildDependenciesPrecedeDependents(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)
	b := NewBuilder(c)
	if err := b.AddSteps(c.StepIDs()); err != nil {
		t.Fatalf("add all steps: %v", err)
	}

	order, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(order) != len(c.StepIDs()) {
		t.Fatalf("expected %d steps in order got %d", len(c.StepIDs()), len(order))
	}

	for _, step := range order {
		for _, dep := range step.DependsOn {
			if indexOf(order, dep) >= indexOf(order, step.ID) {
				t.Errorf("dependency %s must precede %s", dep, step.ID)
			}
		}
	}
}

func TestBuildPriorityOrderWithoutDependencies(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)
	b := NewBuilder(c)
	low := domain.StepDefinition{
		ID: "low_check", DisplayName: "Low", Priority: domain.PriorityLow,
		FormKind: domain.FormNone, NoDataOutcome: domain.OutcomeRequiresReview,
	}
	high := domain.StepDefinition{
		ID: "high_check", DisplayName: "High", Priority: domain.PriorityHigh,
		FormKind: domain.FormNone, NoDataOutcome: domain.OutcomeRequiresReview,
	}
	if err := b.AddCustomStep(low); err != nil {
		t.Fatalf("add low: %v", err)
	}
	if err := b.AddCustomStep(high); err != nil {
		t.Fatalf("add high: %v", err)
	}

	order, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if order[0].ID != "high_check" || order[1].ID != "low_check" {
		t.Fatalf("expected high before low, got %s then %s", order[0].ID, order[1].ID)
	}
}

// A low-priority dependency still runs before its high-priority dependent.
func TestBuildDependencyBeatsPriority(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)
	b := NewBuilder(c)
	steps := []domain.StepDefinition{
		{
			ID: "a", DisplayName: "A", Priority: domain.PriorityLow,
			FormKind: domain.FormNone, NoDataOutcome: domain.OutcomeRequiresReview,
		},
		{
			ID: "b", DisplayName: "B", Priority: domain.PriorityHigh, DependsOn: []string{"a"},
			FormKind: domain.FormNone, NoDataOutcome: domain.OutcomeRequiresReview,
		},
		{
			ID: "c", DisplayName: "C", Priority: domain.PriorityMedium,
			FormKind: domain.FormNone, NoDataOutcome: domain.OutcomeRequiresReview,
		},
	}
	for _, s := range steps {
		if err := b.AddCustomStep(s); err != nil {
			t.Fatalf("add %s: %v", s.ID, err)
		}
	}

	order, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	got := []string{order[0].ID, order[1].ID, order[2].ID}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v got %v", want, got)
		}
	}
}

func TestBuildCycleAborts(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)
	b := NewBuilder(c)
	steps := []domain.StepDefinition{
		{
			ID: "x", DisplayName: "X", Priority: domain.PriorityHigh, DependsOn: []string{"y"},
			FormKind: domain.FormNone, NoDataOutcome: domain.OutcomeRequiresReview,
		},
		{
			ID: "y", DisplayName: "Y", Priority: domain.PriorityHigh, DependsOn: []string{"x"},
			FormKind: domain.FormNone, NoDataOutcome: domain.OutcomeRequiresReview,
		},
	}
	for _, s := range steps {
		if err := b.AddCustomStep(s); err != nil {
			t.Fatalf("add %s: %v", s.ID, err)
		}
	}

	_, err := b.Build()
	var cycleErr *domain.CircularDependencyError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected CircularDependencyError got %v", err)
	}
}

func TestValidateReportsEveryMissingDependency(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)
	b := NewBuilder(c)
	step := domain.StepDefinition{
		ID: "orphan", DisplayName: "Orphan", Priority: domain.PriorityHigh,
		DependsOn: []string{"ghost_one", "ghost_two"},
		FormKind:  domain.FormNone, NoDataOutcome: domain.OutcomeRequiresReview,
	}
	if err := b.AddCustomStep(step); err != nil {
		t.Fatalf("add orphan: %v", err)
	}

	result := b.Validate()
	if result.IsValid {
		t.Fatal("expected validation failure")
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 missing dependency errors got %d", len(result.Errors))
	}

	// Build still succeeds: missing dependencies are skipped, not fatal.
	order, err := b.Build()
	if err != nil {
		t.Fatalf("build with missing deps: %v", err)
	}
	if len(order) != 1 || order[0].ID != "orphan" {
		t.Fatalf("expected only orphan in order, got %d steps", len(order))
	}
}

func TestAddStepUnknownID(t *testing.T) {
	t.Parallel()

	b := NewBuilder(testCatalog(t))
	if err := b.AddStep("fax_verification"); !errors.Is(err, domain.ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep got %v", err)
	}
}

func TestAddTemplateAndRemoveStep(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)
	b := NewBuilder(c)
	if err := b.AddTemplate("express"); err != nil {
		t.Fatalf("add template: %v", err)
	}

	tpl, err := c.Template("express")
	if err != nil {
		t.Fatalf("lookup template: %v", err)
	}

	order, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(order) != len(tpl.StepIDs) {
		t.Fatalf("expected %d steps got %d", len(tpl.StepIDs), len(order))
	}

	removed := tpl.StepIDs[len(tpl.StepIDs)-1]
	b.RemoveStep(removed)
	order, err = b.Build()
	if err != nil {
		t.Fatalf("build after remove: %v", err)
	}
	if indexOf(order, removed) != -1 {
		t.Fatalf("expected %s to be removed from order", removed)
	}
}

func TestEstimateTotalDuration(t *testing.T) {
	t.Parallel()

	b := NewBuilder(testCatalog(t))
	steps := []domain.StepDefinition{
		{
			ID: "a", DisplayName: "A", Priority: domain.PriorityHigh,
			Estimate: domain.DurationEstimate{MinMinutes: 10, MaxMinutes: 30},
			FormKind: domain.FormNone, NoDataOutcome: domain.OutcomeRequiresReview,
		},
		{
			ID: "b", DisplayName: "B", Priority: domain.PriorityLow,
			Estimate: domain.DurationEstimate{MinMinutes: 60, MaxMinutes: 120},
			FormKind: domain.FormNone, NoDataOutcome: domain.OutcomeRequiresReview,
		},
	}
	for _, s := range steps {
		if err := b.AddCustomStep(s); err != nil {
			t.Fatalf("add %s: %v", s.ID, err)
		}
	}

	want := 110 * time.Minute
	if got := b.EstimateTotalDuration(); got != want {
		t.Fatalf("expected total %s got %s", want, got)
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Minute, "45 minutes"},
		{90 * time.Minute, "1.5 hours"},
		{36 * time.Hour, "1.5 days"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.d); got != tc.want {
			t.Errorf("FormatDuration(%s): expected %q got %q", tc.d, tc.want, got)
		}
	}
}
