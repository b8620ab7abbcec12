// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepInstance is the mutable, per-application execution record of one step.
// It is mutated only through the execution engine's commit path; human
// overrides travel the same path with a named examiner.
type StepInstance struct {
	ApplicationID  uuid.UUID  `json:"application_id"`
	StepID         string     `json:"step_id"`
	Status         StepStatus `json:"status"`
	ReasoningNotes string     `json:"reasoning_notes,omitempty"`
	Examiner       string     `json:"examiner,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Records        RecordSet  `json:"records,omitempty"`
}

func NewStepInstance(applicationID uuid.UUID, stepID string) *StepInstance {
	return &StepInstance{
		ApplicationID: applicationID,
		StepID:        stepID,
		Status:        StepNotStarted,
	}
}

// AddRecord validates and appends one record to the slice for kind. Each
// addition stands alone: a rejected record leaves previously added ones in
// place, and callers continue with the rest.
func (s *StepInstance) AddRecord(kind FormKind, record any) error {
	switch kind {
	case FormLicenses:
		r, ok := record.(LicenseRecord)
		if !ok {
			return ErrRecordKindMismatch
		}
		if err := r.Validate(); err != nil {
			return err
		}
		s.Records.Licenses = append(s.Records.Licenses, r)
	case FormCertifications:
		r, ok := record.(CertificationRecord)
		if !ok {
			return ErrRecordKindMismatch
		}
		if err := r.Validate(); err != nil {
			return err
		}
		s.Records.Certifications = append(s.Records.Certifications, r)
	case FormIncidents:
		r, ok := record.(IncidentRecord)
		if !ok {
			return ErrRecordKindMismatch
		}
		if err := r.Validate(); err != nil {
			return err
		}
		s.Records.Incidents = append(s.Records.Incidents, r)
	case FormHospitalPrivileges:
		r, ok := record.(PrivilegeRecord)
		if !ok {
			return ErrRecordKindMismatch
		}
		if err := r.Validate(); err != nil {
			return err
		}
		s.Records.HospitalPrivileges = append(s.Records.HospitalPrivileges, r)
	default:
		return ErrRecordKindMismatch
	}
	return nil
}
