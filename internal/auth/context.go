// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"

	"github.com/google/uuid"
)

type examinerContextKey struct{}

var ctxExaminerKey examinerContextKey

// Examiner is the authenticated human (or service) acting on step state.
// The name is what the audit sink records as the actor.
type Examiner struct {
	ID   uuid.UUID
	Name string
}

// WithExaminer stores the authenticated examiner on the request context.
func WithExaminer(ctx context.Context, examiner Examiner) context.Context {
	return context.WithValue(ctx, ctxExaminerKey, examiner)
}

// ExaminerFromContext reads the authenticated examiner from context.
func ExaminerFromContext(ctx context.Context) (Examiner, bool) {
	v := ctx.Value(ctxExaminerKey)
	examiner, ok := v.(Examiner)
	if !ok || examiner.ID == uuid.Nil {
		return Examiner{}, false
	}
	return examiner, true
}
