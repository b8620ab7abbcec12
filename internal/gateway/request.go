// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/credentia/credential-runtime/internal/domain"
)

// RequestBuilder shapes the gateway request for one check type from the
// practitioner context. The engine never branches on check type; it looks a
// builder up by step id.
type RequestBuilder func(p domain.PractitionerContext) (Request, error)

// Registry maps step ids to request builders. Steps without a builder have
// no automatic verification call and go straight to decisioning.
type Registry struct {
	builders map[string]RequestBuilder
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]RequestBuilder, 16)}
}

func (r *Registry) Register(stepID string, builder RequestBuilder) {
	r.builders[stepID] = builder
}

func (r *Registry) Lookup(stepID string) (RequestBuilder, bool) {
	b, ok := r.builders[stepID]
	return b, ok
}

// DefaultRegistry wires the builders for every catalog check that has an
// automatic verification call.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("identity_verification", func(p domain.PractitionerContext) (Request, error) {
		if p.FirstName == "" || p.LastName == "" {
			return Request{}, &Error{CheckType: "identity_verification", Reason: "first and last name are required"}
		}
		return marshalRequest("identity_verification", map[string]string{
			"first_name":    p.FirstName,
			"last_name":     p.LastName,
			"date_of_birth": p.DateOfBirth,
			"ssn_last4":     p.SSNLast4,
		})
	})

	r.Register("npi_registry", func(p domain.PractitionerContext) (Request, error) {
		if p.NPI == "" {
			return Request{}, &Error{CheckType: "npi_registry", Reason: "npi number is required"}
		}
		return marshalRequest("npi_registry", map[string]string{
			"npi":        p.NPI,
			"first_name": p.FirstName,
			"last_name":  p.LastName,
		})
	})

	r.Register("state_license", func(p domain.PractitionerContext) (Request, error) {
		if p.LicenseNumber == "" || p.LicenseState == "" {
			return Request{}, &Error{CheckType: "state_license", Reason: "license number and state are required"}
		}
		return marshalRequest("state_license", map[string]string{
			"license_number": p.LicenseNumber,
			"state":          p.LicenseState,
			"last_name":      p.LastName,
		})
	})

	r.Register("dea_registration", func(p domain.PractitionerContext) (Request, error) {
		if p.DEANumber == "" {
			return Request{}, &Error{CheckType: "dea_registration", Reason: "dea number is required"}
		}
		return marshalRequest("dea_registration", map[string]string{
			"dea_number": p.DEANumber,
			"last_name":  p.LastName,
		})
	})

	r.Register("oig_exclusion", func(p domain.PractitionerContext) (Request, error) {
		return marshalRequest("oig_exclusion", map[string]string{
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"npi":        p.NPI,
		})
	})

	r.Register("sam_exclusion", func(p domain.PractitionerContext) (Request, error) {
		return marshalRequest("sam_exclusion", map[string]string{
			"name": p.FullName(),
			"npi":  p.NPI,
		})
	})

	r.Register("board_certification", func(p domain.PractitionerContext) (Request, error) {
		return marshalRequest("board_certification", map[string]string{
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"specialty":  p.Specialty,
		})
	})

	r.Register("npdb_background", func(p domain.PractitionerContext) (Request, error) {
		if p.LicenseNumber == "" {
			return Request{}, &Error{CheckType: "npdb_background", Reason: "license number is required"}
		}
		return marshalRequest("npdb_background", map[string]string{
			"license_number": p.LicenseNumber,
			"state":          p.LicenseState,
			"last_name":      p.LastName,
			"date_of_birth":  p.DateOfBirth,
		})
	})

	r.Register("medicare_enrollment", func(p domain.PractitionerContext) (Request, error) {
		if p.NPI == "" {
			return Request{}, &Error{CheckType: "medicare_enrollment", Reason: "npi number is required"}
		}
		return marshalRequest("medicare_enrollment", map[string]string{
			"npi": p.NPI,
		})
	})

	r.Register("malpractice_insurance", func(p domain.PractitionerContext) (Request, error) {
		return marshalRequest("malpractice_insurance", map[string]string{
			"name":  p.FullName(),
			"state": p.LicenseState,
		})
	})

	// hospital_privileges is manual-only: no builder on purpose.

	return r
}

func marshalRequest(checkType string, payload any) (Request, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("marshal %s request: %w", checkType, err)
	}
	return Request{CheckType: checkType, Payload: raw}, nil
}
