package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/do/v2"

	"github.com/polypost/polypost-server/internal/config"
	"github.com/polypost/polypost-server/internal/logger"
	"github.com/polypost/polypost-server/internal/secret"
	"github.com/polypost/polypost-server/internal/sse"
	"github.com/polypost/polypost-server/internal/store"
	"github.com/polypost/polypost-server/internal/store/sqlite"
)

// SSEManagerHandle owns the manager's delivery loop.
type SSEManagerHandle struct {
	*sse.Manager
	stop    context.CancelFunc
	timeout time.Duration
}

// Shutdown drains queued events, then stops the delivery loop.
func (h *SSEManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	err := h.Manager.Shutdown(ctx)
	h.stop()
	return err
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse"))
	ctx, stop := context.WithCancel(context.Background())
	go manager.Start(ctx)

	return &SSEManagerHandle{
		Manager: manager,
		stop:    stop,
		timeout: cfg.Server.ShutdownTimeout,
	}, nil
}

// RepositoryHandle wraps the repository with both of its tiers for shutdown.
type RepositoryHandle struct {
	*store.Repository
	local *store.BadgerKV
	sync  *sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *RepositoryHandle) Shutdown() error {
	return errors.Join(h.local.Close(), h.sync.Close())
}

// ProvideRepository opens the local (badger) and sync (sqlite) tiers.
func ProvideRepository(i do.Injector) (*RepositoryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	localPath := filepath.Join(cfg.Data.BasePath, "local")
	local, err := store.OpenBadger(localPath, log.Component("badger"))
	if err != nil {
		return nil, fmt.Errorf("open local tier: %w", err)
	}

	syncPath := filepath.Join(cfg.Data.BasePath, "sync.db")
	syncTier, err := sqlite.Open(syncPath, log.Component("sqlite"))
	if err != nil {
		_ = local.Close()
		return nil, fmt.Errorf("open sync tier: %w", err)
	}

	repo := store.NewRepository(local, syncTier)
	if err := repo.Open(context.Background()); err != nil {
		_ = local.Close()
		_ = syncTier.Close()
		return nil, err
	}

	log.Info("Database initialized", "local", localPath, "sync", syncPath)

	return &RepositoryHandle{Repository: repo, local: local, sync: syncTier}, nil
}

// ProvideSealer provides the sealer for API keys at rest.
func ProvideSealer(i do.Injector) (*secret.Sealer, error) {
	cfg := do.MustInvoke[*config.Config](i)

	key, err := secret.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, fmt.Errorf("load secret key: %w", err)
	}
	return secret.NewSealer(key)
}
