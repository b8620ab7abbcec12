// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"encoding/json"

	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// decisionSchema is the hard validation gate on policy output. Outcomes
// outside the four-value enum and empty reasoning are rejected here, before
// the payload can influence any step instance.
const decisionSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["outcome", "reasoning"],
	"properties": {
		"outcome": {
			"enum": ["completed", "in_progress", "failed", "requires_review"]
		},
		"reasoning": {
			"type": "string",
			"minLength": 1
		},
		"issues_found": {
			"type": "array",
			"items": {"type": "string"}
		},
		"recommendations": {
			"type": "array",
			"items": {"type": "string"}
		},
		"extracted": {
			"type": "object",
			"properties": {
				"licenses": {"type": "array"},
				"certifications": {"type": "array"},
				"incidents": {"type": "array"},
				"hospital_privileges": {"type": "array"}
			}
		}
	}
}`

var compiledDecisionSchema = jsonschema.MustCompileString("decision.schema.json", decisionSchema)

// ParseDecision validates raw policy output against the decision schema and
// decodes it. Any violation is a policy error, not a crash.
func ParseDecision(raw []byte) (domain.Decision, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Decision{}, &Error{Reason: "malformed decision payload", Err: err}
	}

	if err := compiledDecisionSchema.Validate(doc); err != nil {
		return domain.Decision{}, &Error{Reason: "decision failed schema validation", Err: err}
	}

	var decision domain.Decision
	if err := json.Unmarshal(raw, &decision); err != nil {
		return domain.Decision{}, &Error{Reason: "decode decision", Err: err}
	}

	if err := decision.Validate(); err != nil {
		return domain.Decision{}, &Error{Reason: "invalid decision", Err: err}
	}

	return decision, nil
}
