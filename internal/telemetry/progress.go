// SPDX-License-Identifier: Apache-2.0

// Package telemetry is an append-only progress narration channel. The engine
// writes one entry after every execution phase; nothing reads it for
// correctness.
package telemetry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Entry struct {
	At            time.Time `json:"at"`
	ApplicationID uuid.UUID `json:"application_id"`
	StepID        string    `json:"step_id"`
	Phase         string    `json:"phase"`
	Message       string    `json:"message"`
}

// Sink receives progress entries. Implementations must be safe for
// concurrent use and must never fail the caller.
type Sink interface {
	Append(e Entry)
}

// Log keeps entries in memory and mirrors them to a logger at debug level.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	logger  *slog.Logger
	max     int
}

const defaultMaxEntries = 4096

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		logger: logger,
		max:    defaultMaxEntries,
	}
}

func (l *Log) Append(e Entry) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	l.mu.Unlock()

	l.logger.Debug("progress",
		"application_id", e.ApplicationID,
		"step_id", e.StepID,
		"phase", e.Phase,
		"message", e.Message,
	)
}

// Snapshot returns a copy of the retained entries, oldest first.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Discard drops every entry. Useful between test cases.
type Discard struct{}

func (Discard) Append(Entry) {}
