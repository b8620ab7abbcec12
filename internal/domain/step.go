// SPDX-License-Identifier: Apache-2.0

package domain

import "fmt"

type StepStatus string
type StepCategory string
type StepPriority string
type FormKind string

const (
	StepNotStarted     StepStatus = "not_started"
	StepInProgress     StepStatus = "in_progress"
	StepCompleted      StepStatus = "completed"
	StepFailed         StepStatus = "failed"
	StepRequiresReview StepStatus = "requires_review"
)

const (
	CategoryIdentity      StepCategory = "identity"
	CategoryLicense       StepCategory = "license"
	CategoryCertification StepCategory = "certification"
	CategoryRegistration  StepCategory = "registration"
	CategoryExclusion     StepCategory = "exclusion"
	CategoryBackground    StepCategory = "background"
	CategoryFinancial     StepCategory = "financial"
	CategoryOther         StepCategory = "other"
)

const (
	PriorityHigh   StepPriority = "high"
	PriorityMedium StepPriority = "medium"
	PriorityLow    StepPriority = "low"
)

const (
	FormLicenses           FormKind = "licenses"
	FormCertifications     FormKind = "certifications"
	FormIncidents          FormKind = "incidents"
	FormHospitalPrivileges FormKind = "hospitalPrivileges"
	FormNone               FormKind = "none"
)

// IsTerminal reports whether the status ends automatic processing.
// Terminal steps only move again through an explicit re-open.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepCompleted, StepFailed, StepRequiresReview:
		return true
	}
	return false
}

// Rank orders priorities for the builder's stable pre-sort.
func (p StepPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// DurationEstimate is a numeric range so totals can be aggregated
// programmatically instead of parsing display strings.
type DurationEstimate struct {
	MinMinutes int `json:"min_minutes" yaml:"min_minutes"`
	MaxMinutes int `json:"max_minutes" yaml:"max_minutes"`
}

func (d DurationEstimate) MidpointMinutes() float64 {
	return (float64(d.MinMinutes) + float64(d.MaxMinutes)) / 2
}

// StepDefinition is an immutable catalog entry for one verification check.
// NoDataOutcome is the status committed when a step finishes without any
// gateway result: most checks require review in that case, while
// exclusion-list checks treat absence of a hit as a pass.
type StepDefinition struct {
	ID            string           `json:"id" yaml:"id"`
	DisplayName   string           `json:"display_name" yaml:"display_name"`
	Category      StepCategory     `json:"category" yaml:"category"`
	Priority      StepPriority     `json:"priority" yaml:"priority"`
	Estimate      DurationEstimate `json:"estimate" yaml:"estimate"`
	DependsOn     []string         `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	FormKind      FormKind         `json:"form_kind" yaml:"form_kind"`
	ManualOnly    bool             `json:"manual_only,omitempty" yaml:"manual_only,omitempty"`
	NoDataOutcome DecisionOutcome  `json:"no_data_outcome" yaml:"no_data_outcome"`
}

func (d StepDefinition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("step definition missing id")
	}
	if d.DisplayName == "" {
		return fmt.Errorf("step %s missing display name", d.ID)
	}
	switch d.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return fmt.Errorf("step %s has invalid priority %q", d.ID, d.Priority)
	}
	switch d.FormKind {
	case FormLicenses, FormCertifications, FormIncidents, FormHospitalPrivileges, FormNone:
	default:
		return fmt.Errorf("step %s has invalid form kind %q", d.ID, d.FormKind)
	}
	switch d.NoDataOutcome {
	case OutcomeCompleted, OutcomeRequiresReview:
	default:
		return fmt.Errorf("step %s has invalid no-data outcome %q", d.ID, d.NoDataOutcome)
	}
	return nil
}
