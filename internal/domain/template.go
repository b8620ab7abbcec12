// SPDX-License-Identifier: Apache-2.0

package domain

// WorkflowTemplate is a named selection of catalog step ids. Templates are
// data only; the workflow builder imposes the valid execution order.
type WorkflowTemplate struct {
	Name    string   `json:"name" yaml:"name"`
	StepIDs []string `json:"step_ids" yaml:"step_ids"`
}
