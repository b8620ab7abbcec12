// SPDX-License-Identifier: Apache-2.0

package gateway

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
)

// Gateway performs one verification call. Implementations must honor the
// context deadline; the client below never blocks past its timeout.
type Gateway interface {
	Verify(ctx context.Context, req Request) (RawResult, error)
}

const defaultTimeout = 15 * time.Second

// Client calls a verification service over HTTP: POST {base}/verify/{check}.
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

func (c *Client) Verify(ctx context.Context, req Request) (RawResult, error) {
	if req.CheckType == "" {
		return RawResult{}, &Error{CheckType: req.CheckType, Reason: "missing check type"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := c.baseURL + "/verify/" + req.CheckType
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req.Payload))
	if err != nil {
		return RawResult{}, &Error{CheckType: req.CheckType, Reason: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("verification call failed",
			"check", req.CheckType,
			"error", err,
		)
		return RawResult{}, &Error{CheckType: req.CheckType, Reason: "transport", Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return RawResult{}, &Error{CheckType: req.CheckType, Reason: "read response", Err: err}
	}

	c.logger.Debug("verification call finished",
		"check", req.CheckType,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return RawResult{}, &Error{
			CheckType: req.CheckType,
			Reason:    fmt.Sprintf("non-2xx response: %d", resp.StatusCode),
		}
	}

	var result RawResult
	if err := json.Unmarshal(body, &result); err != nil {
		// Service returned a 2xx with a body we do not recognize; keep it
		// as opaque data for the decision policy.
		result = RawResult{Status: StatusOK, Data: body}
	}
	if result.Status == "" {
		result.Status = StatusOK
	}

	return result, nil
}
