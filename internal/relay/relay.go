// Package relay forwards HTTP requests through a privileged fetcher as
// text envelopes. Custom chat-completion endpoints are reached this way.
package relay

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

// Request is the outbound envelope.
type Request struct {
	URL     string            `json:"url" validate:"required,http_url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// Response is the relayed reply. Bodies are text only.
type Response struct {
	OK         bool              `json:"ok"`
	Status     int               `json:"status"`
	StatusText string            `json:"status_text"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// Error is a transport failure. Status is 0 when the relay could not be reached.
type Error struct {
	Status int
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("relay failed (status %d): %v", e.Status, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Relayer performs one envelope round trip.
type Relayer interface {
	Relay(ctx context.Context, req Request) (Response, error)
}

const maxBodyBytes = 4 << 20

// DirectRelayer fetches in-process.
type DirectRelayer struct {
	client *http.Client
	logger *slog.Logger
}

// NewDirectRelayer creates a relayer that fetches with its own HTTP client.
func NewDirectRelayer(timeout time.Duration, logger *slog.Logger) *DirectRelayer {
	return &DirectRelayer{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Relay implements Relayer.
func (d *DirectRelayer) Relay(ctx context.Context, req Request) (Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return Response{}, &Error{Err: fmt.Errorf("create request: %w", err)}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return Response{}, &Error{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, &Error{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	d.logger.Debug("relayed request", "method", method, "url", req.URL, "status", resp.StatusCode)

	return Response{
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    flattenHeaders(resp.Header),
		Body:       string(data),
	}, nil
}

// HTTPRelayer posts envelopes to a remote relay endpoint.
type HTTPRelayer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPRelayer creates a relayer for endpoint.
func NewHTTPRelayer(endpoint string, timeout time.Duration) *HTTPRelayer {
	return &HTTPRelayer{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

// Relay implements Relayer.
func (h *HTTPRelayer) Relay(ctx context.Context, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, &Error{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Response{}, &Error{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return Response{}, &Error{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Response{}, &Error{Err: fmt.Errorf("relay endpoint returned %s", resp.Status)}
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return Response{}, &Error{Err: fmt.Errorf("decode relay response: %w", err)}
	}
	return out, nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}
