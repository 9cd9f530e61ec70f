package sse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polypost/polypost-server/internal/id"
)

// Emitter queues events for connected surfaces.
type Emitter interface {
	Emit(event Event)
}

// NoopEmitter discards events. Used by tests and when no surface is wired.
type NoopEmitter struct{}

// Emit implements Emitter as a no-op.
func (NoopEmitter) Emit(Event) {}

// Client is one open event stream.
type Client struct {
	Subscription
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
	ID          string
}

const (
	eventBuffer  = 256
	clientBuffer = 100
)

// Manager fans events out to the extension surfaces that subscribed to them.
type Manager struct {
	clients           map[string]*Client
	events            chan Event
	logger            *slog.Logger
	wg                sync.WaitGroup
	heartbeatInterval time.Duration
	mu                sync.RWMutex

	closeMu sync.RWMutex
	closed  bool
}

// NewManager creates a manager. Call Start to begin delivering events.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients:           make(map[string]*Client),
		events:            make(chan Event, eventBuffer),
		logger:            logger,
		heartbeatInterval: 30 * time.Second,
	}
}

// Start delivers queued events and heartbeats until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	m.logger.Info("SSE manager starting")

	heartbeat := time.NewTicker(m.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-m.events:
			if !ok {
				return
			}
			m.deliver(event)

		case <-heartbeat.C:
			m.deliver(NewHeartbeatEvent())

		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAllClients()
			return
		}
	}
}

// Shutdown stops accepting events, delivers what is queued and closes every stream.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.closeMu.Lock()
	if m.closed {
		m.closeMu.Unlock()
		return nil
	}
	m.closed = true
	close(m.events)
	m.closeMu.Unlock()

	drained := make(chan struct{})
	go func() {
		for event := range m.events {
			m.deliver(event)
		}
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		m.logger.Warn("SSE drain timed out, queued events dropped")
	}

	m.wg.Wait()
	m.closeAllClients()

	m.logger.Info("SSE manager shut down")
	return nil
}

func (m *Manager) deliver(event Event) {
	var delivered, dropped int

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		if !client.Wants(event.Type) {
			continue
		}
		// A stuck surface loses events rather than stalling the others.
		select {
		case client.EventChan <- event:
			delivered++
		default:
			dropped++
			m.logger.Warn("dropped event for slow surface",
				slog.String("client_id", client.ID),
				slog.String("surface", client.Surface),
				slog.String("event_type", string(event.Type)))
		}
	}

	if event.Type != EventHeartbeat {
		m.logger.Debug("event delivered",
			slog.String("event_type", string(event.Type)),
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped))
	}
}

// Connect registers a stream for sub.
func (m *Manager) Connect(sub Subscription) (*Client, error) {
	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}

	client := &Client{
		Subscription: sub,
		ID:           clientID,
		EventChan:    make(chan Event, clientBuffer),
		Done:         make(chan struct{}),
		ConnectedAt:  time.Now(),
	}

	m.mu.Lock()
	m.clients[client.ID] = client
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("surface connected",
		slog.String("client_id", clientID),
		slog.String("surface", sub.Surface),
		slog.Any("topics", sub.Topics),
		slog.Int("total_clients", total))
	return client, nil
}

// Disconnect removes a stream. Unknown ids are ignored.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	client, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	total := len(m.clients)
	m.mu.Unlock()

	close(client.Done)
	close(client.EventChan)

	m.logger.Info("surface disconnected",
		slog.String("client_id", clientID),
		slog.String("surface", client.Surface),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", total))
}

// Emit queues an event without blocking. Events emitted after Shutdown are dropped.
func (m *Manager) Emit(event Event) {
	m.closeMu.RLock()
	defer m.closeMu.RUnlock()

	if m.closed {
		return
	}

	select {
	case m.events <- event:
	default:
		m.logger.Error("SSE queue full, dropping event", slog.String("event_type", string(event.Type)))
	}
}

// ClientCount returns the number of open streams.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Surfaces counts open streams by surface.
func (m *Manager) Surfaces() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int)
	for _, c := range m.clients {
		out[c.Surface]++
	}
	return out
}

func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		close(client.Done)
		close(client.EventChan)
	}
	m.clients = make(map[string]*Client)
}
