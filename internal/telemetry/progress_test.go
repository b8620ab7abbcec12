// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestLogAppendAndSnapshot(t *testing.T) {
	t.Parallel()

	log := NewLog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	appID := uuid.New()

	log.Append(Entry{ApplicationID: appID, StepID: "npi_registry", Phase: "activate", Message: "step active"})
	log.Append(Entry{ApplicationID: appID, StepID: "npi_registry", Phase: "gateway", Message: "gateway returned ok"})

	entries := log.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries got %d", len(entries))
	}
	if entries[0].Phase != "activate" || entries[1].Phase != "gateway" {
		t.Fatalf("expected entries oldest first, got %+v", entries)
	}
	if entries[0].At.IsZero() {
		t.Fatal("expected append to stamp the entry time")
	}

	// Snapshot is a copy; mutating it must not touch the log.
	entries[0].Message = "mutated"
	if log.Snapshot()[0].Message != "step active" {
		t.Fatal("expected snapshot to be detached from internal state")
	}
}

func TestLogTruncatesOldEntries(t *testing.T) {
	t.Parallel()

	log := NewLog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.max = 10

	for i := 0; i < 25; i++ {
		log.Append(Entry{StepID: "state_license", Message: fmt.Sprintf("entry %d", i)})
	}

	entries := log.Snapshot()
	if len(entries) != 10 {
		t.Fatalf("expected 10 retained entries got %d", len(entries))
	}
	if entries[0].Message != "entry 15" {
		t.Fatalf("expected oldest retained entry 15, got %q", entries[0].Message)
	}
}

func TestLogConcurrentAppend(t *testing.T) {
	t.Parallel()

	log := NewLog(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				log.Append(Entry{StepID: "oig_exclusion", Message: "probe"})
			}
		}()
	}
	wg.Wait()

	if got := len(log.Snapshot()); got != 400 {
		t.Fatalf("expected 400 entries got %d", got)
	}
}
