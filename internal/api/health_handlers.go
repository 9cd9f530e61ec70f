package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/polypost/polypost-server/internal/errors"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports storage, search, connected surfaces and whether a transform provider is configured",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// Component statuses, from best to worst.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" enum:"healthy,degraded,unhealthy" doc:"Component status"`
	Latency string `json:"latency,omitempty" doc:"Time the check took"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" enum:"healthy,degraded,unhealthy" doc:"Worst component status"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	checks := map[string]func(context.Context) ComponentHealth{
		"database":    s.checkDatabase,
		"search":      s.checkSearchIndex,
		"events":      s.checkEvents,
		"credentials": s.checkCredentials,
	}

	resp := HealthResponse{Status: statusHealthy, Components: make(map[string]ComponentHealth, len(checks))}
	for name, check := range checks {
		start := time.Now()
		c := check(ctx)
		if c.Latency == "" {
			c.Latency = time.Since(start).String()
		}
		resp.Components[name] = c
		resp.Status = worse(resp.Status, c.Status)
	}
	return &HealthOutput{Body: resp}, nil
}

func worse(a, b string) string {
	rank := func(s string) int {
		return slices.Index([]string{statusHealthy, statusDegraded, statusUnhealthy}, s)
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

// checkDatabase reads settings, which touches the sync tier.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.services == nil || s.services.Settings == nil {
		return ComponentHealth{Status: statusDegraded, Message: "database not configured"}
	}
	if _, err := s.services.Settings.Get(ctx); err != nil {
		return ComponentHealth{Status: statusUnhealthy, Message: "database read failed"}
	}
	return ComponentHealth{Status: statusHealthy}
}

func (s *Server) checkSearchIndex(context.Context) ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search not configured"}
	}
	docs, err := s.services.Search.DocumentCount()
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Message: "search index unreachable"}
	}
	return ComponentHealth{Status: statusHealthy, Message: fmt.Sprintf("%d documents", docs)}
}

// checkEvents lists the extension surfaces holding a stream open.
func (s *Server) checkEvents(context.Context) ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{Status: statusDegraded, Message: "event stream not configured"}
	}
	return ComponentHealth{Status: statusHealthy, Message: describeSurfaces(s.sseManager.Surfaces())}
}

// checkCredentials is degraded until the active provider has a key.
func (s *Server) checkCredentials(ctx context.Context) ComponentHealth {
	if s.services == nil || s.services.Settings == nil {
		return ComponentHealth{Status: statusDegraded, Message: "settings not configured"}
	}
	if _, err := s.services.Settings.Credentials(ctx); err != nil {
		if domainerrors.Is(err, domainerrors.ErrAuth) {
			return ComponentHealth{Status: statusDegraded, Message: err.Error()}
		}
		return ComponentHealth{Status: statusUnhealthy, Message: "settings unreadable"}
	}
	return ComponentHealth{Status: statusHealthy}
}

func describeSurfaces(surfaces map[string]int) string {
	if len(surfaces) == 0 {
		return "no connected surfaces"
	}
	names := make([]string, 0, len(surfaces))
	for name, n := range surfaces {
		if n > 1 {
			name = fmt.Sprintf("%s x%d", name, n)
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}
