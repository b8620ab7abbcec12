// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/credentia/credential-runtime/internal/domain"
	"github.com/credentia/credential-runtime/internal/gateway"
)

const defaultTimeout = 30 * time.Second

// Client calls the decision service over HTTP: POST {base}/analyze. The
// response body goes through ParseDecision; the schema gate is never
// bypassed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
}

type ClientDeps struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Timeout    time.Duration
}

type analyzeRequest struct {
	RawResult    gateway.RawResult          `json:"raw_result"`
	Practitioner domain.PractitionerContext `json:"practitioner"`
}

func NewClient(deps ClientDeps) *Client {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(deps.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		timeout:    timeout,
	}
}

func (c *Client) Analyze(
	ctx context.Context,
	raw gateway.RawResult,
	p domain.PractitionerContext,
) (domain.Decision, error) {
	body, err := json.Marshal(analyzeRequest{
		RawResult:    raw,
		Practitioner: p,
	})
	if err != nil {
		return domain.Decision{}, &Error{Reason: "marshal analyze request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return domain.Decision{}, &Error{Reason: "build analyze request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("decision policy call failed", "error", err)
		return domain.Decision{}, &Error{Reason: "transport", Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Decision{}, &Error{Reason: "read analyze response", Err: err}
	}

	c.logger.Debug("decision policy call finished",
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.Decision{}, &Error{
			Reason: fmt.Sprintf("non-2xx response: %d", resp.StatusCode),
		}
	}

	return ParseDecision(respBody)
}
