// Package sse implements Server-Sent Events for pushing state changes,
// translation progress and consent requests to the extension.
package sse

import (
	"time"

	"github.com/polypost/polypost-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"

	EventPostCreated EventType = "post.created"
	EventPostUpdated EventType = "post.updated"
	EventPostDeleted EventType = "post.deleted"

	EventVariantCreated  EventType = "variant.created"
	EventVariantSelected EventType = "variant.selected"
	EventVariantDeleted  EventType = "variant.deleted"

	EventFolderCreated EventType = "folder.created"
	EventFolderUpdated EventType = "folder.updated"
	EventFolderDeleted EventType = "folder.deleted"

	EventSettingsUpdated EventType = "settings.updated"

	// Translation batch lifecycle. Progress is emitted before and after each target.
	EventTranslationProgress  EventType = "translation.progress"
	EventTranslationCompleted EventType = "translation.completed"
	EventTranslationFailed    EventType = "translation.failed"

	// EventPermissionRequested asks the extension to prompt the user for host access.
	EventPermissionRequested EventType = "permission.requested"
	EventPermissionResolved  EventType = "permission.resolved"

	// EventPanelOpen asks the extension to open one of its panels.
	EventPanelOpen EventType = "panel.open"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// PostEventData carries a post snapshot.
type PostEventData struct {
	Post *domain.Post `json:"post"`
}

// DeletedEventData identifies a removed entity.
type DeletedEventData struct {
	ID     string `json:"id"`
	PostID string `json:"post_id,omitempty"`
}

// VariantEventData carries a variant snapshot.
type VariantEventData struct {
	Variant *domain.Variant `json:"variant"`
}

// VariantSelectedEventData names the new selection of a post.
type VariantSelectedEventData struct {
	PostID    string `json:"post_id"`
	VariantID string `json:"variant_id"`
}

// FolderEventData carries a folder snapshot.
type FolderEventData struct {
	Folder *domain.Folder `json:"folder"`
}

// ProgressEventData reports how far a translation batch got.
type ProgressEventData struct {
	BatchID      string `json:"batch_id"`
	PostID       string `json:"post_id"`
	Completed    int    `json:"completed"`
	Total        int    `json:"total"`
	CurrentLabel string `json:"current_label"`
}

// BatchResultEventData ends a translation batch.
type BatchResultEventData struct {
	BatchID    string   `json:"batch_id"`
	PostID     string   `json:"post_id"`
	VariantIDs []string `json:"variant_ids"`
	Error      string   `json:"error,omitempty"`
}

// PermissionRequestEventData asks for consent to contact Origin.
type PermissionRequestEventData struct {
	RequestID string    `json:"request_id"`
	Origin    string    `json:"origin"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PermissionResolvedEventData reports the decision for a request.
type PermissionResolvedEventData struct {
	RequestID string `json:"request_id"`
	Origin    string `json:"origin"`
	Granted   bool   `json:"granted"`
}

// PanelOpenEventData names the panel to open.
type PanelOpenEventData struct {
	Panel string `json:"panel"`
}

func newEvent(t EventType, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return newEvent(EventHeartbeat, HeartbeatEventData{ServerTime: time.Now()})
}

// NewPostEvent creates a post.created or post.updated event.
func NewPostEvent(t EventType, post *domain.Post) Event {
	return newEvent(t, PostEventData{Post: post})
}

// NewPostDeletedEvent creates a post.deleted event.
func NewPostDeletedEvent(postID string) Event {
	return newEvent(EventPostDeleted, DeletedEventData{ID: postID})
}

// NewVariantCreatedEvent creates a variant.created event.
func NewVariantCreatedEvent(v *domain.Variant) Event {
	return newEvent(EventVariantCreated, VariantEventData{Variant: v})
}

// NewVariantSelectedEvent creates a variant.selected event.
func NewVariantSelectedEvent(postID, variantID string) Event {
	return newEvent(EventVariantSelected, VariantSelectedEventData{PostID: postID, VariantID: variantID})
}

// NewVariantDeletedEvent creates a variant.deleted event.
func NewVariantDeletedEvent(postID, variantID string) Event {
	return newEvent(EventVariantDeleted, DeletedEventData{ID: variantID, PostID: postID})
}

// NewFolderEvent creates a folder.created or folder.updated event.
func NewFolderEvent(t EventType, folder *domain.Folder) Event {
	return newEvent(t, FolderEventData{Folder: folder})
}

// NewFolderDeletedEvent creates a folder.deleted event.
func NewFolderDeletedEvent(folderID string) Event {
	return newEvent(EventFolderDeleted, DeletedEventData{ID: folderID})
}

// NewSettingsUpdatedEvent creates a settings.updated event. Secrets are never included.
func NewSettingsUpdatedEvent() Event {
	return newEvent(EventSettingsUpdated, struct{}{})
}

// NewTranslationProgressEvent creates a translation.progress event.
func NewTranslationProgressEvent(p ProgressEventData) Event {
	return newEvent(EventTranslationProgress, p)
}

// NewTranslationCompletedEvent creates a translation.completed event.
func NewTranslationCompletedEvent(batchID, postID string, variantIDs []string) Event {
	return newEvent(EventTranslationCompleted, BatchResultEventData{BatchID: batchID, PostID: postID, VariantIDs: variantIDs})
}

// NewTranslationFailedEvent creates a translation.failed event.
func NewTranslationFailedEvent(batchID, postID string, variantIDs []string, err error) Event {
	return newEvent(EventTranslationFailed, BatchResultEventData{BatchID: batchID, PostID: postID, VariantIDs: variantIDs, Error: err.Error()})
}

// NewPermissionRequestedEvent creates a permission.requested event.
func NewPermissionRequestedEvent(requestID, origin string, expiresAt time.Time) Event {
	return newEvent(EventPermissionRequested, PermissionRequestEventData{RequestID: requestID, Origin: origin, ExpiresAt: expiresAt})
}

// NewPermissionResolvedEvent creates a permission.resolved event.
func NewPermissionResolvedEvent(requestID, origin string, granted bool) Event {
	return newEvent(EventPermissionResolved, PermissionResolvedEventData{RequestID: requestID, Origin: origin, Granted: granted})
}

// NewPanelOpenEvent creates a panel.open event.
func NewPanelOpenEvent(panel string) Event {
	return newEvent(EventPanelOpen, PanelOpenEventData{Panel: panel})
}
