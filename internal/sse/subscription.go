package sse

import (
	"slices"
	"strings"
)

// Extension surfaces that hold an event stream open.
const (
	SurfacePopup      = "popup"
	SurfaceSidePanel  = "sidepanel"
	SurfaceOptions    = "options"
	SurfaceBackground = "background"
	SurfaceUnknown    = "unknown"
)

var knownSurfaces = []string{SurfacePopup, SurfaceSidePanel, SurfaceOptions, SurfaceBackground}

// Subscription describes what a connecting surface wants to hear about.
// Topics are event type prefixes such as "translation" or "permission";
// no topics means every event.
type Subscription struct {
	Surface string
	Topics  []string
}

// ParseSubscription reads the surface and topics query values.
// Unrecognized surfaces are kept as SurfaceUnknown.
func ParseSubscription(surface, topics string) Subscription {
	sub := Subscription{Surface: SurfaceUnknown}
	if s := strings.ToLower(strings.TrimSpace(surface)); slices.Contains(knownSurfaces, s) {
		sub.Surface = s
	}
	for _, t := range strings.Split(topics, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && !slices.Contains(sub.Topics, t) {
			sub.Topics = append(sub.Topics, t)
		}
	}
	return sub
}

// Wants reports whether events of type t reach this subscription. Heartbeats always do.
func (s Subscription) Wants(t EventType) bool {
	if len(s.Topics) == 0 || t == EventHeartbeat {
		return true
	}
	topic, _, _ := strings.Cut(string(t), ".")
	return slices.Contains(s.Topics, topic)
}
