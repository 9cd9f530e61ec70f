// Package di provides dependency injection configuration for the PolyPost server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/polypost/polypost-server/internal/catalog"
	"github.com/polypost/polypost-server/internal/config"
	"github.com/polypost/polypost-server/internal/di/providers"
	"github.com/polypost/polypost-server/internal/hostbridge"
	"github.com/polypost/polypost-server/internal/logger"
	"github.com/polypost/polypost-server/internal/permission"
	"github.com/polypost/polypost-server/internal/relay"
	"github.com/polypost/polypost-server/internal/secret"
	"github.com/polypost/polypost-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSealer)

	// Database layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideRepository)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Transform layer
	do.Provide(injector, providers.ProvideRelayer)
	do.Provide(injector, providers.ProvideBridge)
	do.Provide(injector, providers.ProvideGate)
	do.Provide(injector, providers.ProvideAIClient)

	// Business services
	do.Provide(injector, providers.ProvideVariantService)
	do.Provide(injector, providers.ProvidePostService)
	do.Provide(injector, providers.ProvideFolderService)
	do.Provide(injector, providers.ProvideSettingsService)
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideOrchestrator)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap resolves every service eagerly so configuration, storage and
// listen errors surface before the server reports itself ready.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*secret.Sealer](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	if _, err := do.Invoke[*providers.RepositoryHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*service.SearchService](injector)

	_ = do.MustInvoke[relay.Relayer](injector)
	_ = do.MustInvoke[*hostbridge.SSEBridge](injector)
	_ = do.MustInvoke[*permission.Gate](injector)
	_ = do.MustInvoke[*providers.AIClientHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.VariantService](injector)
	_ = do.MustInvoke[*service.PostService](injector)
	_ = do.MustInvoke[*service.FolderService](injector)
	_ = do.MustInvoke[*service.SettingsService](injector)
	_ = do.MustInvoke[*catalog.Catalog](injector)
	_ = do.MustInvoke[*service.Orchestrator](injector)

	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
