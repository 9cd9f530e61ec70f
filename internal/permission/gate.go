// Package permission authorizes outbound calls to API origins.
package permission

import (
	"context"
	"log/slog"
	"sync"

	domainerrors "github.com/polypost/polypost-server/internal/errors"
)

// Reason explains a refusal.
type Reason string

// Refusal reasons.
const (
	ReasonInvalidURL Reason = "invalid_url"
	ReasonNotAllowed Reason = "not_allowed"
	ReasonDenied     Reason = "denied"
)

// Message returns the user-facing text for r.
func (r Reason) Message() string {
	switch r {
	case ReasonInvalidURL:
		return "The API base URL is not a valid http or https address. Please check it in Settings."
	case ReasonNotAllowed:
		return "This API host is not on the list of allowed hosts."
	case ReasonDenied:
		return "Permission to contact this API host was denied. Grant access to continue."
	default:
		return "Permission to contact this API host was not granted."
	}
}

// Result is the outcome of an authorization check.
type Result struct {
	Granted bool   `json:"granted"`
	Origin  string `json:"origin,omitempty"`
	Reason  Reason `json:"reason,omitempty"`
}

// Err converts a refusal into a PermissionDenied error. It returns nil when granted.
func (r Result) Err() error {
	if r.Granted {
		return nil
	}
	return domainerrors.PermissionDenied(r.Reason.Message(), string(r.Reason), r.Origin)
}

// Consenter asks the user to allow an origin.
type Consenter interface {
	RequestPermission(ctx context.Context, origin string) (bool, error)
}

// GrantStore persists consent decisions keyed by origin pattern.
type GrantStore interface {
	GetPermissionGrants(ctx context.Context) (map[string]bool, error)
	SavePermissionGrants(ctx context.Context, grants map[string]bool) error
}

// Config holds the pattern lists.
type Config struct {
	// Required origins are pre-authorized.
	Required []string
	// Optional origins may be used after consent. May contain <all_urls>.
	Optional []string
}

// Gate decides whether an origin may be contacted.
type Gate struct {
	cfg     Config
	grants  GrantStore
	consent Consenter
	logger  *slog.Logger

	mu sync.Mutex // serializes grant read-modify-write
}

// NewGate creates a gate.
func NewGate(cfg Config, grants GrantStore, consent Consenter, logger *slog.Logger) *Gate {
	return &Gate{cfg: cfg, grants: grants, consent: consent, logger: logger}
}

// EnsureAuthorized checks baseURL's origin, asking for consent when needed.
// It never returns an error: store and consent failures are refusals.
func (g *Gate) EnsureAuthorized(ctx context.Context, baseURL string) Result {
	origin, ok := OriginPattern(baseURL)
	if !ok {
		return Result{Reason: ReasonInvalidURL}
	}

	if Matches(g.cfg.Required, origin) {
		return Result{Granted: true, Origin: origin}
	}

	if !Matches(g.cfg.Optional, origin) {
		return Result{Origin: origin, Reason: ReasonNotAllowed}
	}

	grants, err := g.grants.GetPermissionGrants(ctx)
	if err != nil {
		g.logger.Error("failed to read permission grants", "origin", origin, "error", err)
		return Result{Origin: origin, Reason: ReasonDenied}
	}
	if grants[origin] {
		return Result{Granted: true, Origin: origin}
	}

	granted, err := g.consent.RequestPermission(ctx, origin)
	if err != nil {
		g.logger.Warn("permission request failed", "origin", origin, "error", err)
		return Result{Origin: origin, Reason: ReasonDenied}
	}

	if err := g.record(ctx, origin, granted); err != nil {
		g.logger.Error("failed to record permission grant", "origin", origin, "error", err)
	}

	if !granted {
		return Result{Origin: origin, Reason: ReasonDenied}
	}
	g.logger.Info("origin granted", "origin", origin)
	return Result{Granted: true, Origin: origin}
}

func (g *Gate) record(ctx context.Context, origin string, granted bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	grants, err := g.grants.GetPermissionGrants(ctx)
	if err != nil {
		return err
	}
	if grants == nil {
		grants = make(map[string]bool)
	}
	grants[origin] = granted
	return g.grants.SavePermissionGrants(ctx, grants)
}

// ListGrants returns the recorded decisions.
func (g *Gate) ListGrants(ctx context.Context) (map[string]bool, error) {
	return g.grants.GetPermissionGrants(ctx)
}

// Revoke forgets the decision for origin, so the next use asks again.
func (g *Gate) Revoke(ctx context.Context, origin string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	grants, err := g.grants.GetPermissionGrants(ctx)
	if err != nil {
		return err
	}
	if _, ok := grants[origin]; !ok {
		return domainerrors.NotFoundf("no permission recorded for %s", origin)
	}
	delete(grants, origin)
	return g.grants.SavePermissionGrants(ctx, grants)
}
