// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PractitionerContext is the identity bundle handed to gateways and the
// decision policy. Fields beyond the name are optional; individual request
// builders pick what their registry needs.
type PractitionerContext struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	DateOfBirth   string `json:"date_of_birth,omitempty"`
	NPI           string `json:"npi,omitempty"`
	SSNLast4      string `json:"ssn_last4,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
	LicenseState  string `json:"license_state,omitempty"`
	DEANumber     string `json:"dea_number,omitempty"`
	Specialty     string `json:"specialty,omitempty"`
}

func (p PractitionerContext) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Application is one credentialing application: a practitioner plus the set
// of verification steps selected for them, in execution order.
type Application struct {
	ID           uuid.UUID           `json:"id"`
	Practitioner PractitionerContext `json:"practitioner"`
	Template     string              `json:"template,omitempty"`
	StepOrder    []string            `json:"step_order"`
	CreatedAt    time.Time           `json:"created_at"`
}
