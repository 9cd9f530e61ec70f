package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// writeDeadline bounds a single frame write; heartbeats keep healthy streams inside it.
const writeDeadline = 60 * time.Second

// ReplayFunc returns events a surface should see as soon as it connects,
// such as consent requests raised while it was closed.
type ReplayFunc func(client *Client) []Event

// Handler serves GET /api/v1/events?surface=popup&topics=translation,permission.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
	replay  ReplayFunc
}

// NewHandler creates a handler. replay may be nil.
func NewHandler(manager *Manager, replay ReplayFunc, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, replay: replay, logger: logger}
}

// ConnectedEventData is the first frame of every stream.
type ConnectedEventData struct {
	ClientID string   `json:"client_id"`
	Surface  string   `json:"surface"`
	Topics   []string `json:"topics,omitempty"`
}

// ServeHTTP streams events until the surface goes away or the manager shuts down.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("streaming unsupported", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	client, err := h.manager.Connect(ParseSubscription(q.Get("surface"), q.Get("topics")))
	if err != nil {
		h.logger.Error("failed to register surface", slog.String("error", err.Error()))
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	log := h.logger.With(slog.String("client_id", client.ID), slog.String("surface", client.Surface))

	if err := h.write(w, rc, "connected", ConnectedEventData{
		ClientID: client.ID,
		Surface:  client.Surface,
		Topics:   client.Topics,
	}); err != nil {
		log.Warn("failed to send connected frame", slog.String("error", err.Error()))
		return
	}

	if h.replay != nil {
		for _, event := range h.replay(client) {
			if !client.Wants(event.Type) {
				continue
			}
			if err := h.write(w, rc, string(event.Type), event); err != nil {
				return
			}
		}
	}

	ctx := r.Context()
	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				return
			}
			if err := h.write(w, rc, string(event.Type), event); err != nil {
				log.Debug("surface went away during send")
				return
			}
		case <-client.Done:
			log.Debug("stream closed by manager")
			return
		case <-ctx.Done():
			log.Debug("surface disconnected")
			return
		}
	}
}

func (h *Handler) write(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	// Not every ResponseWriter supports deadlines.
	if err := rc.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		h.logger.Debug("write deadline unsupported", slog.String("error", err.Error()))
	}
	return nil
}
