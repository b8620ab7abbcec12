// SPDX-License-Identifier: Apache-2.0

package domain

import "testing"

func TestStepStatusIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := []StepStatus{StepCompleted, StepFailed, StepRequiresReview}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	open := []StepStatus{StepNotStarted, StepInProgress}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("expected %s to not be terminal", s)
		}
	}
}

func TestPriorityRank(t *testing.T) {
	t.Parallel()

	if PriorityHigh.Rank() >= PriorityMedium.Rank() {
		t.Fatal("expected high to rank before medium")
	}
	if PriorityMedium.Rank() >= PriorityLow.Rank() {
		t.Fatal("expected medium to rank before low")
	}
	if StepPriority("bogus").Rank() <= PriorityLow.Rank() {
		t.Fatal("expected unknown priority to rank last")
	}
}

func TestDurationEstimateMidpoint(t *testing.T) {
	t.Parallel()

	d := DurationEstimate{MinMinutes: 30, MaxMinutes: 90}
	if got := d.MidpointMinutes(); got != 60 {
		t.Fatalf("expected midpoint 60, got %v", got)
	}
}

func TestStepDefinitionValidate(t *testing.T) {
	t.Parallel()

	valid := StepDefinition{
		ID:            "state_license",
		DisplayName:   "State License Verification",
		Category:      CategoryLicense,
		Priority:      PriorityHigh,
		FormKind:      FormLicenses,
		NoDataOutcome: OutcomeRequiresReview,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid definition, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*StepDefinition)
	}{
		{"missing id", func(d *StepDefinition) { d.ID = "" }},
		{"missing display name", func(d *StepDefinition) { d.DisplayName = "" }},
		{"invalid priority", func(d *StepDefinition) { d.Priority = "urgent" }},
		{"invalid form kind", func(d *StepDefinition) { d.FormKind = "forms" }},
		{"invalid no-data outcome", func(d *StepDefinition) { d.NoDataOutcome = OutcomeFailed }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := valid
			tc.mutate(&def)
			if err := def.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
