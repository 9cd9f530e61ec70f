package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/polypost/polypost-server/internal/domain"
	domainerrors "github.com/polypost/polypost-server/internal/errors"
	"github.com/polypost/polypost-server/internal/id"
	"github.com/polypost/polypost-server/internal/sse"
)

// VariantService owns the variant collection and its selection invariant:
// a post has at most one selected variant.
//
// Every operation is a whole-collection read-modify-write under mu, so a
// select and the deselection of its siblings land in one persisted write.
type VariantService struct {
	mu      sync.Mutex
	repo    VariantRepository
	ids     id.Generator
	search  *SearchService
	emitter sse.Emitter
	logger  *slog.Logger
}

// NewVariantService creates a new variant service.
func NewVariantService(repo VariantRepository, ids id.Generator, search *SearchService, emitter sse.Emitter, logger *slog.Logger) *VariantService {
	return &VariantService{
		repo:    repo,
		ids:     ids,
		search:  search,
		emitter: emitter,
		logger:  logger,
	}
}

// Add creates an unselected variant.
func (s *VariantService) Add(ctx context.Context, nv domain.NewVariant) (*domain.Variant, error) {
	v, err := s.build(nv)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.GetVariants(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveVariants(ctx, append(all, v)); err != nil {
		return nil, err
	}

	s.search.IndexVariant(v)
	s.emitter.Emit(sse.NewVariantCreatedEvent(v))
	s.logger.Debug("variant added", "variant_id", v.ID, "post_id", v.PostID, "type", v.Type)

	return v, nil
}

func (s *VariantService) build(nv domain.NewVariant) (*domain.Variant, error) {
	if strings.TrimSpace(nv.PostID) == "" {
		return nil, domainerrors.Validation("variant must belong to a post")
	}
	if nv.AIConfidence < 0 || nv.AIConfidence > 100 {
		return nil, domainerrors.Validationf("confidence %d out of range 0-100", nv.AIConfidence)
	}

	v := &domain.Variant{
		PostID:       nv.PostID,
		Type:         nv.Type,
		Content:      nv.Content,
		AIConfidence: nv.AIConfidence,
		Description:  nv.Description,
	}

	switch nv.Type {
	case domain.VariantTypeTranslation:
		if !nv.Language.Valid() {
			return nil, domainerrors.Validationf("unsupported language %q", nv.Language)
		}
		lang := nv.Language
		v.Language = &lang
	case domain.VariantTypePolish:
		if nv.PromptTemplate == "" {
			return nil, domainerrors.Validation("polish variant needs a prompt id")
		}
		tmpl := nv.PromptTemplate
		v.PromptTemplate = &tmpl
	default:
		return nil, domainerrors.Validationf("unknown variant type %q", nv.Type)
	}

	vid, err := s.ids.Generate(id.PrefixVariant)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate variant id")
	}
	v.ID = vid
	v.CreatedAt = time.Now()

	return v, nil
}

// Select marks id as its post's selected variant and deselects every sibling.
// An unknown id is a no-op.
func (s *VariantService) Select(ctx context.Context, variantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.GetVariants(ctx)
	if err != nil {
		return err
	}

	i := slices.IndexFunc(all, func(v *domain.Variant) bool { return v.ID == variantID })
	if i < 0 {
		return nil
	}
	postID := all[i].PostID

	changed := false
	for _, v := range all {
		if v.PostID != postID {
			continue
		}
		want := v.ID == variantID
		if v.IsSelected != want {
			v.IsSelected = want
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if err := s.repo.SaveVariants(ctx, all); err != nil {
		return err
	}

	s.emitter.Emit(sse.NewVariantSelectedEvent(postID, variantID))
	return nil
}

// Delete removes a variant. If it was selected, the post is left without a selection.
func (s *VariantService) Delete(ctx context.Context, variantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.GetVariants(ctx)
	if err != nil {
		return err
	}

	i := slices.IndexFunc(all, func(v *domain.Variant) bool { return v.ID == variantID })
	if i < 0 {
		return domainerrors.NotFoundf("variant %q not found", variantID)
	}
	removed := all[i]

	if err := s.repo.SaveVariants(ctx, slices.Delete(all, i, i+1)); err != nil {
		return err
	}

	s.search.Remove(variantID)
	s.emitter.Emit(sse.NewVariantDeletedEvent(removed.PostID, variantID))
	return nil
}

// Get returns a variant by id.
func (s *VariantService) Get(ctx context.Context, variantID string) (*domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.GetVariants(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range all {
		if v.ID == variantID {
			return v, nil
		}
	}
	return nil, domainerrors.NotFoundf("variant %q not found", variantID)
}

// ListByPost returns a post's variants, newest first.
func (s *VariantService) ListByPost(ctx context.Context, postID string) ([]*domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.GetVariants(ctx)
	if err != nil {
		return nil, err
	}
	return byPostNewestFirst(all, postID), nil
}

// Selected returns the selected variant of a post, if any.
func (s *VariantService) Selected(ctx context.Context, postID string) (*domain.Variant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.GetVariants(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, v := range all {
		if v.PostID == postID && v.IsSelected {
			return v, true, nil
		}
	}
	return nil, false, nil
}

// DeleteByPost removes every variant of a post and returns their ids.
func (s *VariantService) DeleteByPost(ctx context.Context, postID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.GetVariants(ctx)
	if err != nil {
		return nil, err
	}

	var removed []string
	kept := all[:0]
	for _, v := range all {
		if v.PostID == postID {
			removed = append(removed, v.ID)
			continue
		}
		kept = append(kept, v)
	}
	if len(removed) == 0 {
		return nil, nil
	}

	if err := s.repo.SaveVariants(ctx, kept); err != nil {
		return nil, err
	}

	s.search.Remove(removed...)
	return removed, nil
}

// byPostNewestFirst filters by post and orders by CreatedAt descending.
// Equal timestamps keep reverse insertion order.
func byPostNewestFirst(all []*domain.Variant, postID string) []*domain.Variant {
	out := make([]*domain.Variant, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].PostID == postID {
			out = append(out, all[i])
		}
	}
	slices.SortStableFunc(out, func(a, b *domain.Variant) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}
