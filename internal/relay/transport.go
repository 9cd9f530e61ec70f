package relay

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Transport is an http.RoundTripper that sends every request through a Relayer.
type Transport struct {
	Relayer Relayer
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	envelope := Request{
		URL:     req.URL.String(),
		Method:  req.Method,
		Headers: make(map[string]string, len(req.Header)),
	}
	for k, v := range req.Header {
		envelope.Headers[k] = strings.Join(v, ", ")
	}

	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		envelope.Body = string(data)
	}

	resp, err := t.Relayer.Relay(req.Context(), envelope)
	if err != nil {
		return nil, err
	}

	header := make(http.Header, len(resp.Headers))
	for k, v := range resp.Headers {
		header.Set(k, v)
	}
	// The body is re-encoded as text, so the original framing no longer applies.
	header.Del("Content-Length")
	header.Del("Content-Encoding")

	status := resp.Status
	statusText := resp.StatusText
	if statusText == "" {
		statusText = http.StatusText(status)
	}

	return &http.Response{
		Status:        strconv.Itoa(status) + " " + statusText,
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(resp.Body)),
		ContentLength: int64(len(resp.Body)),
		Request:       req,
	}, nil
}
