package api

import (
	"github.com/polypost/polypost-server/internal/catalog"
	"github.com/polypost/polypost-server/internal/hostbridge"
	"github.com/polypost/polypost-server/internal/permission"
	"github.com/polypost/polypost-server/internal/service"
)

// Services groups the business logic used by the API server.
type Services struct {
	Posts        *service.PostService
	Variants     *service.VariantService
	Folders      *service.FolderService
	Settings     *service.SettingsService
	Search       *service.SearchService
	Orchestrator *service.Orchestrator
	Prompts      *catalog.Catalog
	Gate         *permission.Gate
	Bridge       *hostbridge.SSEBridge // Consent answers and relay
}
