// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientVerify(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST got %s", r.Method)
		}
		if r.URL.Path != "/verify/npi_registry" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["npi"] != "1234567890" {
			t.Errorf("unexpected payload %v", payload)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","data":{"enumeration_type":"NPI-1"}}`))
	}))
	defer srv.Close()

	client := NewClient(ClientDeps{BaseURL: srv.URL, Logger: discardLogger()})

	payload, _ := json.Marshal(map[string]string{"npi": "1234567890"})
	result, err := client.Verify(context.Background(), Request{CheckType: "npi_registry", Payload: payload})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("expected status ok got %s", result.Status)
	}
	if len(result.Data) == 0 {
		t.Fatal("expected result data")
	}
}

func TestClientVerifyNon2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream registry unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(ClientDeps{BaseURL: srv.URL, Logger: discardLogger()})

	_, err := client.Verify(context.Background(), Request{CheckType: "oig_exclusion"})
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected gateway error got %v", err)
	}
	if gwErr.CheckType != "oig_exclusion" {
		t.Fatalf("expected check type in error, got %s", gwErr.CheckType)
	}
}

func TestClientVerifyOpaqueBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("PLAIN TEXT VERIFIED"))
	}))
	defer srv.Close()

	client := NewClient(ClientDeps{BaseURL: srv.URL, Logger: discardLogger()})

	result, err := client.Verify(context.Background(), Request{CheckType: "sam_exclusion"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Status != StatusOK {
		t.Fatalf("expected status ok got %s", result.Status)
	}
	if string(result.Data) != "PLAIN TEXT VERIFIED" {
		t.Fatalf("expected opaque body preserved, got %q", result.Data)
	}
}

func TestClientVerifyTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(ClientDeps{
		BaseURL: srv.URL,
		Logger:  discardLogger(),
		Timeout: 50 * time.Millisecond,
	})

	_, err := client.Verify(context.Background(), Request{CheckType: "dea_registration"})
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected gateway error got %v", err)
	}
}

func TestClientVerifyMissingCheckType(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientDeps{BaseURL: "http://localhost:0", Logger: discardLogger()})

	_, err := client.Verify(context.Background(), Request{})
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected gateway error got %v", err)
	}
}

func TestDegraded(t *testing.T) {
	t.Parallel()

	result := Degraded(errors.New("connection refused"))
	if result.Status != StatusError {
		t.Fatalf("expected status error got %s", result.Status)
	}
	if result.Message != "connection refused" {
		t.Fatalf("expected failure message, got %q", result.Message)
	}
}
