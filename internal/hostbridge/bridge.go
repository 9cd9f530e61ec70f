// Package hostbridge is the narrow set of capabilities the server needs from
// the browser extension host: asking for host permission, relaying fetches
// and opening panels.
package hostbridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/polypost/polypost-server/internal/errors"
	"github.com/polypost/polypost-server/internal/relay"
	"github.com/polypost/polypost-server/internal/sse"
)

// Bridge is implemented once per host runtime.
type Bridge interface {
	RequestPermission(ctx context.Context, origin string) (bool, error)
	Relay(ctx context.Context, req relay.Request) (relay.Response, error)
	OpenPanel(ctx context.Context, panel string) error
}

// ErrConsentTimeout is returned when nobody answers a permission request in time.
var ErrConsentTimeout = domainerrors.New("permission request timed out")

// PendingRequest is an unanswered permission request.
type PendingRequest struct {
	ID        string    `json:"id"`
	Origin    string    `json:"origin"`
	ExpiresAt time.Time `json:"expires_at"`
}

type pending struct {
	PendingRequest
	answer chan bool
}

// SSEBridge talks to the extension over the event stream. Permission requests
// are published as events and answered through Resolve.
type SSEBridge struct {
	emitter sse.Emitter
	relayer relay.Relayer
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]*pending
}

// NewSSEBridge creates a bridge. timeout bounds how long a consent request waits.
func NewSSEBridge(emitter sse.Emitter, relayer relay.Relayer, timeout time.Duration, logger *slog.Logger) *SSEBridge {
	return &SSEBridge{
		emitter: emitter,
		relayer: relayer,
		timeout: timeout,
		logger:  logger,
		pending: make(map[string]*pending),
	}
}

// RequestPermission publishes a permission.requested event and blocks until the
// extension answers, the timeout passes or ctx is cancelled.
func (b *SSEBridge) RequestPermission(ctx context.Context, origin string) (bool, error) {
	p := &pending{
		PendingRequest: PendingRequest{
			ID:        uuid.NewString(),
			Origin:    origin,
			ExpiresAt: time.Now().Add(b.timeout),
		},
		answer: make(chan bool, 1),
	}

	b.mu.Lock()
	b.pending[p.ID] = p
	b.mu.Unlock()
	defer b.forget(p.ID)

	b.emitter.Emit(sse.NewPermissionRequestedEvent(p.ID, origin, p.ExpiresAt))
	b.logger.Info("permission requested", "request_id", p.ID, "origin", origin)

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case granted := <-p.answer:
		b.emitter.Emit(sse.NewPermissionResolvedEvent(p.ID, origin, granted))
		return granted, nil
	case <-timer.C:
		b.emitter.Emit(sse.NewPermissionResolvedEvent(p.ID, origin, false))
		return false, ErrConsentTimeout
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Resolve answers a pending permission request.
func (b *SSEBridge) Resolve(requestID string, granted bool) error {
	b.mu.Lock()
	p, ok := b.pending[requestID]
	if ok {
		delete(b.pending, requestID)
	}
	b.mu.Unlock()

	if !ok {
		return domainerrors.NotFoundf("permission request %s not found", requestID)
	}
	p.answer <- granted
	return nil
}

// Pending lists unanswered requests, for extension surfaces that connect late.
func (b *SSEBridge) Pending() []PendingRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]PendingRequest, 0, len(b.pending))
	for _, p := range b.pending {
		out = append(out, p.PendingRequest)
	}
	return out
}

// Replay re-announces unanswered requests to a surface that just connected.
func (b *SSEBridge) Replay(*sse.Client) []sse.Event {
	pending := b.Pending()
	events := make([]sse.Event, 0, len(pending))
	for _, p := range pending {
		events = append(events, sse.NewPermissionRequestedEvent(p.ID, p.Origin, p.ExpiresAt))
	}
	return events
}

func (b *SSEBridge) forget(id string) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// Relay implements Bridge.
func (b *SSEBridge) Relay(ctx context.Context, req relay.Request) (relay.Response, error) {
	return b.relayer.Relay(ctx, req)
}

// OpenPanel implements Bridge.
func (b *SSEBridge) OpenPanel(_ context.Context, panel string) error {
	if panel == "" {
		return domainerrors.Validation("panel is required")
	}
	b.emitter.Emit(sse.NewPanelOpenEvent(panel))
	return nil
}
