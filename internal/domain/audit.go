// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepChange is one durably recorded step state transition. The audit trail
// is append-only; current step state is the latest change per step.
type StepChange struct {
	ID            uuid.UUID  `json:"id"`
	Seq           int64      `json:"seq"`
	ApplicationID uuid.UUID  `json:"application_id"`
	StepID        string     `json:"step_id"`
	Status        StepStatus `json:"status"`
	Notes         string     `json:"notes,omitempty"`
	Records       RecordSet  `json:"records,omitempty"`
	Actor         string     `json:"actor"`
	CreatedAt     time.Time  `json:"created_at"`
}
