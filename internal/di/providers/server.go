package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/polypost/polypost-server/internal/api"
	"github.com/polypost/polypost-server/internal/catalog"
	"github.com/polypost/polypost-server/internal/config"
	"github.com/polypost/polypost-server/internal/hostbridge"
	"github.com/polypost/polypost-server/internal/logger"
	"github.com/polypost/polypost-server/internal/permission"
	"github.com/polypost/polypost-server/internal/service"
)

// Version is reported by the API. Overridden at build time.
var Version = "dev"

// HTTPServerHandle stops accepting requests on shutdown, then releases the
// API's background state.
type HTTPServerHandle struct {
	*http.Server
	api     *api.Server
	timeout time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	return errors.Join(h.Server.Shutdown(ctx), h.api.Shutdown(ctx))
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Posts:        do.MustInvoke[*service.PostService](i),
		Variants:     do.MustInvoke[*service.VariantService](i),
		Folders:      do.MustInvoke[*service.FolderService](i),
		Settings:     do.MustInvoke[*service.SettingsService](i),
		Search:       do.MustInvoke[*service.SearchService](i),
		Orchestrator: do.MustInvoke[*service.Orchestrator](i),
		Prompts:      do.MustInvoke[*catalog.Catalog](i),
		Gate:         do.MustInvoke[*permission.Gate](i),
		Bridge:       do.MustInvoke[*hostbridge.SSEBridge](i),
	}

	handler := api.NewServer(services, sseHandle.Manager, api.Options{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RequestsPerSecond:  api.DefaultRequestsPerSecond,
		Burst:              api.DefaultBurst,
		Version:            Version,
	}, log.Component("api"))

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if !cfg.Server.Loopback() {
		log.Warn("HTTP server is reachable from other hosts; the API has no authentication", "host", cfg.Server.Host)
	}

	// Bind before returning so a taken port fails bootstrap.
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}
	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String(), "version", Version)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler, timeout: cfg.Server.ShutdownTimeout}, nil
}
