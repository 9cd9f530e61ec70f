package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/polypost/polypost-server/internal/config"
	"github.com/polypost/polypost-server/internal/logger"
	"github.com/polypost/polypost-server/internal/search"
	"github.com/polypost/polypost-server/internal/service"
)

// SearchIndexHandle closes the Bleve index on shutdown.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex opens the index next to the other data files.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	idx, err := search.Open(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}
	n, _ := idx.Count()
	log.Info("Search index ready", "documents", n)
	return &SearchIndexHandle{Index: idx}, nil
}

// ProvideSearchService provides the service that keeps the index current.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	h := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewSearchService(h.Index, log.Component("search")), nil
}

// TriggerSearchReindexIfNeeded refills an empty index from the stored posts
// in the background. A fresh or recreated index starts empty.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	svc := do.MustInvoke[*service.SearchService](i)
	repo := do.MustInvoke[*RepositoryHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if n, _ := svc.DocumentCount(); n > 0 {
		return
	}
	ctx := context.Background()
	if posts, err := repo.GetPosts(ctx); err != nil || len(posts) == 0 {
		return
	}

	go func() {
		log.Info("Reindexing stored posts")
		if err := svc.Reindex(ctx, repo, repo); err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		n, _ := svc.DocumentCount()
		log.Info("Search reindex completed", "documents", n)
	}()
}
