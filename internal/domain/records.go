// SPDX-License-Identifier: Apache-2.0

package domain

import "fmt"

// LicenseRecord is one state medical license discovered or verified.
type LicenseRecord struct {
	Number     string `json:"number"`
	State      string `json:"state"`
	Issued     string `json:"issued,omitempty"`
	Expiration string `json:"expiration,omitempty"`
	Status     string `json:"status,omitempty"`
}

// CertificationRecord is one board certification.
type CertificationRecord struct {
	Board      string `json:"board"`
	Specialty  string `json:"specialty,omitempty"`
	Certified  string `json:"certified,omitempty"`
	Expiration string `json:"expiration,omitempty"`
	Status     string `json:"status,omitempty"`
}

// IncidentRecord is one malpractice claim, sanction, or adverse action.
type IncidentRecord struct {
	Type     string `json:"type"`
	Date     string `json:"date,omitempty"`
	Details  string `json:"details,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// PrivilegeRecord is one hospital privilege grant.
type PrivilegeRecord struct {
	Hospital   string `json:"hospital"`
	Department string `json:"department,omitempty"`
	Status     string `json:"status,omitempty"`
	Granted    string `json:"granted,omitempty"`
	Expiration string `json:"expiration,omitempty"`
}

// RecordSet groups structured records by form kind. A decision carries the
// records it extracted; a step instance accumulates them over time.
type RecordSet struct {
	Licenses           []LicenseRecord       `json:"licenses,omitempty"`
	Certifications     []CertificationRecord `json:"certifications,omitempty"`
	Incidents          []IncidentRecord      `json:"incidents,omitempty"`
	HospitalPrivileges []PrivilegeRecord     `json:"hospital_privileges,omitempty"`
}

func (s RecordSet) IsEmpty() bool {
	return len(s.Licenses) == 0 &&
		len(s.Certifications) == 0 &&
		len(s.Incidents) == 0 &&
		len(s.HospitalPrivileges) == 0
}

// Count returns the number of records across all kinds.
func (s RecordSet) Count() int {
	return len(s.Licenses) + len(s.Certifications) + len(s.Incidents) + len(s.HospitalPrivileges)
}

func (r LicenseRecord) Validate() error {
	if r.Number == "" {
		return fmt.Errorf("license record missing number")
	}
	if r.State == "" {
		return fmt.Errorf("license record missing state")
	}
	return nil
}

func (r CertificationRecord) Validate() error {
	if r.Board == "" {
		return fmt.Errorf("certification record missing board")
	}
	return nil
}

func (r IncidentRecord) Validate() error {
	if r.Type == "" {
		return fmt.Errorf("incident record missing type")
	}
	return nil
}

func (r PrivilegeRecord) Validate() error {
	if r.Hospital == "" {
		return fmt.Errorf("privilege record missing hospital")
	}
	return nil
}
