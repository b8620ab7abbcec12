// SPDX-License-Identifier: Apache-2.0

// Package gateway is the boundary to external verification services. The
// engine treats RawResult as opaque; only the decision policy interprets it.
package gateway

import (
	"encoding/json"
	"fmt"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request is one outbound verification call. Payload is shaped per check by
// the registered request builder.
type Request struct {
	CheckType string          `json:"check_type"`
	Payload   json.RawMessage `json:"payload"`
}

// RawResult is the gateway's answer. A transport or validation failure is
// expressed as Status=error with a nil Data, never as an engine exception.
type RawResult struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Degraded wraps a gateway failure as a result the pipeline can carry
// forward. The step still reaches a terminal, human-reviewable state.
func Degraded(err error) RawResult {
	return RawResult{
		Status:  StatusError,
		Message: err.Error(),
	}
}

// Error is a typed gateway failure: bad input at the boundary, transport
// errors, timeouts, and non-2xx responses.
type Error struct {
	CheckType string
	Reason    string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %s: %v", e.CheckType, e.Reason, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.CheckType, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}
