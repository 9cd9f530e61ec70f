package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/polypost/polypost-server/internal/domain"
	"github.com/polypost/polypost-server/internal/search"
)

// SearchService keeps the search index in step with posts and variants.
// Indexing is best effort: failures are logged and never fail the write
// that triggered them. A nil index disables search.
type SearchService struct {
	index  *search.Index
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.Index, logger *slog.Logger) *SearchService {
	return &SearchService{index: index, logger: logger}
}

// Search runs a query against the index.
func (s *SearchService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	if s == nil || s.index == nil {
		return &search.Result{Query: params.Query, Hits: []search.Hit{}}, nil
	}
	return s.index.Search(ctx, params)
}

// IndexPost indexes a post.
func (s *SearchService) IndexPost(post *domain.Post) {
	if s == nil || s.index == nil {
		return
	}
	if err := s.index.Put(search.FromPost(post)); err != nil {
		s.logger.Warn("failed to index post", "post_id", post.ID, "error", err)
	}
}

// IndexVariant indexes a variant.
func (s *SearchService) IndexVariant(v *domain.Variant) {
	if s == nil || s.index == nil {
		return
	}
	if err := s.index.Put(search.FromVariant(v)); err != nil {
		s.logger.Warn("failed to index variant", "variant_id", v.ID, "error", err)
	}
}

// Remove deletes documents from the index.
func (s *SearchService) Remove(ids ...string) {
	if s == nil || s.index == nil || len(ids) == 0 {
		return
	}
	if err := s.index.Remove(ids...); err != nil {
		s.logger.Warn("failed to remove documents from index", "count", len(ids), "error", err)
	}
}

// DocumentCount reports how many documents the index holds.
func (s *SearchService) DocumentCount() (uint64, error) {
	if s == nil || s.index == nil {
		return 0, nil
	}
	return s.index.Count()
}

// Reindex rebuilds the index from the stored collections.
func (s *SearchService) Reindex(ctx context.Context, posts PostRepository, variants VariantRepository) error {
	if s == nil || s.index == nil {
		return nil
	}

	allPosts, err := posts.GetPosts(ctx)
	if err != nil {
		return fmt.Errorf("load posts: %w", err)
	}
	allVariants, err := variants.GetVariants(ctx)
	if err != nil {
		return fmt.Errorf("load variants: %w", err)
	}

	if err := s.index.Reset(); err != nil {
		return err
	}

	docs := make([]*search.Document, 0, len(allPosts)+len(allVariants))
	for _, p := range allPosts {
		docs = append(docs, search.FromPost(p))
	}
	for _, v := range allVariants {
		docs = append(docs, search.FromVariant(v))
	}

	if err := s.index.PutAll(docs); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}

	s.logger.Info("search index rebuilt", "posts", len(allPosts), "variants", len(allVariants))
	return nil
}
