package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polypost/polypost-server/internal/logger"
)

func TestDirectRelayer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Echo-Auth", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(r.Method + ":" + string(body)))
	}))
	defer srv.Close()

	d := NewDirectRelayer(5*time.Second, logger.Discard())
	resp, err := d.Relay(context.Background(), Request{
		URL:     srv.URL + "/v1/chat",
		Method:  http.MethodPost,
		Headers: map[string]string{"Authorization": "Bearer k"},
		Body:    `{"x":1}`,
	})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "Created", resp.StatusText)
	assert.Equal(t, "Bearer k", resp.Headers["x-echo-auth"])
	assert.Equal(t, `POST:{"x":1}`, resp.Body)
}

func TestDirectRelayer_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	d := NewDirectRelayer(time.Second, logger.Discard())
	_, err := d.Relay(context.Background(), Request{URL: url})

	var relayErr *Error
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, 0, relayErr.Status)
}

func TestHTTPRelayer(t *testing.T) {
	relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(Response{OK: true, Status: 200, StatusText: "OK", Body: "relayed " + req.URL})
	}))
	defer relaySrv.Close()

	h := NewHTTPRelayer(relaySrv.URL, time.Second)
	resp, err := h.Relay(context.Background(), Request{URL: "https://llm.test/v1"})
	require.NoError(t, err)
	assert.Equal(t, "relayed https://llm.test/v1", resp.Body)

	h = NewHTTPRelayer("http://127.0.0.1:1", time.Second)
	_, err = h.Relay(context.Background(), Request{URL: "https://llm.test/v1"})
	var relayErr *Error
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, 0, relayErr.Status)
}

type stubRelayer struct {
	got  Request
	resp Response
	err  error
}

func (s *stubRelayer) Relay(_ context.Context, req Request) (Response, error) {
	s.got = req
	return s.resp, s.err
}

func TestTransport_RoundTrip(t *testing.T) {
	stub := &stubRelayer{resp: Response{
		OK:      false,
		Status:  http.StatusTooManyRequests,
		Headers: map[string]string{"content-type": "application/json", "content-length": "999"},
		Body:    `{"error":"slow down"}`,
	}}
	client := &http.Client{Transport: &Transport{Relayer: stub}}

	req, err := http.NewRequest(http.MethodPost, "https://llm.test/v1/chat/completions", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer k")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://llm.test/v1/chat/completions", stub.got.URL)
	assert.Equal(t, http.MethodPost, stub.got.Method)
	assert.Equal(t, "Bearer k", stub.got.Headers["Authorization"])

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Empty(t, resp.Header.Get("Content-Length"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `{"error":"slow down"}`, string(body))
}

func TestTransport_PropagatesRelayError(t *testing.T) {
	stub := &stubRelayer{err: &Error{Err: errors.New("no relay")}}
	client := &http.Client{Transport: &Transport{Relayer: stub}}

	_, err := client.Get("https://llm.test/v1/models")

	var relayErr *Error
	require.ErrorAs(t, err, &relayErr)
	assert.Equal(t, 0, relayErr.Status)
}
