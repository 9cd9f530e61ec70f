package providers

import (
	"github.com/samber/do/v2"

	"github.com/polypost/polypost-server/internal/catalog"
	"github.com/polypost/polypost-server/internal/config"
	"github.com/polypost/polypost-server/internal/id"
	"github.com/polypost/polypost-server/internal/logger"
	"github.com/polypost/polypost-server/internal/permission"
	"github.com/polypost/polypost-server/internal/secret"
	"github.com/polypost/polypost-server/internal/service"
)

// ProvideVariantService provides the variant service.
func ProvideVariantService(i do.Injector) (*service.VariantService, error) {
	repo := do.MustInvoke[*RepositoryHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVariantService(repo, id.NanoGenerator{}, searchService, sseHandle.Manager, log.Component("variants")), nil
}

// ProvidePostService provides the post service.
func ProvidePostService(i do.Injector) (*service.PostService, error) {
	repo := do.MustInvoke[*RepositoryHandle](i)
	variants := do.MustInvoke[*service.VariantService](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPostService(repo, repo, variants, searchService, id.NanoGenerator{}, sseHandle.Manager, log.Component("posts")), nil
}

// ProvideFolderService provides the folder service.
func ProvideFolderService(i do.Injector) (*service.FolderService, error) {
	repo := do.MustInvoke[*RepositoryHandle](i)
	posts := do.MustInvoke[*service.PostService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFolderService(repo, posts, id.NanoGenerator{}, sseHandle.Manager, log.Component("folders")), nil
}

// ProvideSettingsService provides the settings service. Changes invalidate cached transform clients.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	repo := do.MustInvoke[*RepositoryHandle](i)
	sealer := do.MustInvoke[*secret.Sealer](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	client := do.MustInvoke[*AIClientHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	settings := service.NewSettingsService(repo, sealer, cfg.AI.DefaultBaseURL, sseHandle.Manager, log.Component("settings"))
	settings.OnChange(client.Invalidate)
	return settings, nil
}

// ProvideCatalog provides the prompt catalog.
func ProvideCatalog(i do.Injector) (*catalog.Catalog, error) {
	settings := do.MustInvoke[*service.SettingsService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.New(settings, log.Component("catalog")), nil
}

// ProvideOrchestrator provides the polish and translation orchestrator.
func ProvideOrchestrator(i do.Injector) (*service.Orchestrator, error) {
	posts := do.MustInvoke[*service.PostService](i)
	variants := do.MustInvoke[*service.VariantService](i)
	prompts := do.MustInvoke[*catalog.Catalog](i)
	settings := do.MustInvoke[*service.SettingsService](i)
	gate := do.MustInvoke[*permission.Gate](i)
	client := do.MustInvoke[*AIClientHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewOrchestrator(posts, variants, prompts, settings, gate, client.Client, sseHandle.Manager, log.Component("orchestrator")), nil
}
