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
	"github.com/polypost/polypost-server/internal/publish"
	"github.com/polypost/polypost-server/internal/search"
	"github.com/polypost/polypost-server/internal/sse"
	"github.com/polypost/polypost-server/internal/validation"
)

// autoTags are the classifier's labels; they are recomputed whenever content changes.
var autoTags = []string{publish.TagThread, publish.TagEmoji, publish.TagShort, publish.TagTechnical}

// PostService manages posts. Deleting a post cascades to its variants.
type PostService struct {
	mu        sync.Mutex
	repo      PostRepository
	folders   FolderRepository
	variants  *VariantService
	search    *SearchService
	ids       id.Generator
	validator *validation.Validator
	emitter   sse.Emitter
	logger    *slog.Logger
}

// NewPostService creates a new post service.
func NewPostService(
	repo PostRepository,
	folders FolderRepository,
	variants *VariantService,
	search *SearchService,
	ids id.Generator,
	emitter sse.Emitter,
	logger *slog.Logger,
) *PostService {
	return &PostService{
		repo:      repo,
		folders:   folders,
		variants:  variants,
		search:    search,
		ids:       ids,
		validator: validation.New(),
		emitter:   emitter,
		logger:    logger,
	}
}

// CreatePostRequest holds the fields of a new post.
type CreatePostRequest struct {
	SourceContent string   `json:"source_content" validate:"max=20000"`
	FolderID      *string  `json:"folder_id,omitempty"`
	Tags          []string `json:"tags,omitempty" validate:"max=20,dive,notblank,max=50"`
	CampaignID    *string  `json:"campaign_id,omitempty"`
}

// UpdatePostRequest is a partial update. Nil fields are left unchanged.
type UpdatePostRequest struct {
	SourceContent *string            `json:"source_content,omitempty" validate:"omitempty,max=20000"`
	FolderID      *string            `json:"folder_id,omitempty"`
	ClearFolder   bool               `json:"clear_folder,omitempty"`
	Status        *domain.PostStatus `json:"status,omitempty"`
	Tags          *[]string          `json:"tags,omitempty" validate:"omitempty,max=20,dive,notblank,max=50"`
	CampaignID    *string            `json:"campaign_id,omitempty"`
}

// ListPostsOptions filters the library view.
type ListPostsOptions struct {
	Filter   domain.PostFilter
	FolderID *string // Only posts in this folder
	Unfiled  bool    // Only posts without a folder; ignored when FolderID is set
}

// PublishRequest holds the optional intent fields of a publish.
type PublishRequest struct {
	URL      string   `json:"url,omitempty" validate:"omitempty,url"`
	Hashtags []string `json:"hashtags,omitempty"`
	Via      string   `json:"via,omitempty"`
}

// PublishResult is what the extension needs to open the compose page.
type PublishResult struct {
	Post      *domain.Post  `json:"post"`
	Content   string        `json:"content"`
	VariantID string        `json:"variant_id,omitempty"`
	IntentURL string        `json:"intent_url"`
	Stats     publish.Stats `json:"stats"`
}

// Create adds a draft post. Tags are the classifier's labels plus the caller's.
func (s *PostService) Create(ctx context.Context, req CreatePostRequest) (*domain.Post, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.checkFolder(ctx, req.FolderID); err != nil {
		return nil, err
	}

	postID, err := s.ids.Generate(id.PrefixPost)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate post id")
	}

	now := time.Now()
	post := &domain.Post{
		ID:            postID,
		FolderID:      req.FolderID,
		SourceContent: req.SourceContent,
		Status:        domain.PostStatusDraft,
		Tags:          publish.MergeTags(publish.Classify(req.SourceContent), req.Tags...),
		CampaignID:    req.CampaignID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.repo.GetPosts(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SavePosts(ctx, append(posts, post)); err != nil {
		return nil, err
	}

	s.search.IndexPost(post)
	s.emitter.Emit(sse.NewPostEvent(sse.EventPostCreated, post))
	s.logger.Info("post created", "post_id", post.ID, "tags", post.Tags)

	return post, nil
}

// Get returns a post by id.
func (s *PostService) Get(ctx context.Context, postID string) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.repo.GetPosts(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOfPost(posts, postID); i >= 0 {
		return posts[i], nil
	}
	return nil, domainerrors.NotFoundf("post %q not found", postID)
}

// List returns posts matching opts, most recently updated first.
func (s *PostService) List(ctx context.Context, opts ListPostsOptions) ([]*domain.Post, error) {
	s.mu.Lock()
	posts, err := s.repo.GetPosts(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		switch {
		case opts.FolderID != nil:
			if !p.InFolder(*opts.FolderID) {
				continue
			}
		case opts.Unfiled:
			if p.FolderID != nil {
				continue
			}
		}
		if opts.Filter.Matches(p) {
			out = append(out, p)
		}
	}

	slices.SortStableFunc(out, func(a, b *domain.Post) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

// Update applies a partial update and bumps UpdatedAt.
func (s *PostService) Update(ctx context.Context, postID string, req UpdatePostRequest) (*domain.Post, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, domainerrors.Validationf("unknown status %q", *req.Status)
	}
	if err := s.checkFolder(ctx, req.FolderID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.repo.GetPosts(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfPost(posts, postID)
	if i < 0 {
		return nil, domainerrors.NotFoundf("post %q not found", postID)
	}
	post := posts[i]

	if req.Tags != nil {
		post.Tags = publish.MergeTags(autoTagsOf(post.Tags), *req.Tags...)
	}
	if req.SourceContent != nil {
		post.SourceContent = *req.SourceContent
		post.Tags = publish.MergeTags(publish.Classify(post.SourceContent), userTagsOf(post.Tags)...)
	}
	if req.FolderID != nil {
		post.FolderID = req.FolderID
	} else if req.ClearFolder {
		post.FolderID = nil
	}
	if req.CampaignID != nil {
		post.CampaignID = req.CampaignID
	}
	if req.Status != nil {
		post.Status = *req.Status
		if post.Status == domain.PostStatusPosted && post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}
	}
	post.Touch()

	if err := s.repo.SavePosts(ctx, posts); err != nil {
		return nil, err
	}

	s.search.IndexPost(post)
	s.emitter.Emit(sse.NewPostEvent(sse.EventPostUpdated, post))
	return post, nil
}

// Delete removes a post and all of its variants.
func (s *PostService) Delete(ctx context.Context, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.repo.GetPosts(ctx)
	if err != nil {
		return err
	}
	i := indexOfPost(posts, postID)
	if i < 0 {
		return domainerrors.NotFoundf("post %q not found", postID)
	}

	if err := s.repo.SavePosts(ctx, slices.Delete(posts, i, i+1)); err != nil {
		return err
	}

	removed, err := s.variants.DeleteByPost(ctx, postID)
	if err != nil {
		s.logger.Error("failed to delete variants of deleted post", "post_id", postID, "error", err)
		return err
	}

	s.search.Remove(postID)
	s.emitter.Emit(sse.NewPostDeletedEvent(postID))
	s.logger.Info("post deleted", "post_id", postID, "variants_removed", len(removed))
	return nil
}

// Publish builds the compose intent for the post's selected variant, or its
// source content when nothing is selected, and marks the post posted.
func (s *PostService) Publish(ctx context.Context, postID string, req PublishRequest) (*PublishResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}

	result := &PublishResult{Content: post.SourceContent}

	selected, ok, err := s.variants.Selected(ctx, postID)
	if err != nil {
		return nil, err
	}
	if ok {
		result.Content = selected.Content
		result.VariantID = selected.ID
	}

	if strings.TrimSpace(result.Content) == "" {
		return nil, domainerrors.EmptyInput("There is nothing to publish yet. Write or select some content first.")
	}

	result.IntentURL = publish.IntentURL(publish.IntentOptions{
		Text:     result.Content,
		URL:      req.URL,
		Hashtags: req.Hashtags,
		Via:      req.Via,
	})
	result.Stats = publish.Measure(result.Content)

	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.repo.GetPosts(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfPost(posts, postID)
	if i < 0 {
		return nil, domainerrors.NotFoundf("post %q not found", postID)
	}
	posts[i].MarkPosted(time.Now())

	if err := s.repo.SavePosts(ctx, posts); err != nil {
		return nil, err
	}
	result.Post = posts[i]

	s.search.IndexPost(posts[i])
	s.emitter.Emit(sse.NewPostEvent(sse.EventPostUpdated, posts[i]))
	s.logger.Info("post published", "post_id", postID, "variant_id", result.VariantID, "length", result.Stats.Length)

	return result, nil
}

// Search returns the posts whose content, variants or tags match query, best match first.
func (s *PostService) Search(ctx context.Context, params search.Params) ([]*domain.Post, error) {
	res, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}

	s.mu.Lock()
	posts, err := s.repo.GetPosts(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	out := make([]*domain.Post, 0, len(res.Hits))
	for _, pid := range res.PostIDs() {
		if p, ok := byID[pid]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ClearFolder unfiles every post in folderID and returns how many changed.
func (s *PostService) ClearFolder(ctx context.Context, folderID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.repo.GetPosts(ctx)
	if err != nil {
		return 0, err
	}

	var changed []*domain.Post
	for _, p := range posts {
		if p.InFolder(folderID) {
			p.FolderID = nil
			p.Touch()
			changed = append(changed, p)
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}

	if err := s.repo.SavePosts(ctx, posts); err != nil {
		return 0, err
	}

	for _, p := range changed {
		s.search.IndexPost(p)
		s.emitter.Emit(sse.NewPostEvent(sse.EventPostUpdated, p))
	}
	return len(changed), nil
}

func (s *PostService) checkFolder(ctx context.Context, folderID *string) error {
	if folderID == nil {
		return nil
	}
	folders, err := s.folders.GetFolders(ctx)
	if err != nil {
		return err
	}
	for _, f := range folders {
		if f.ID == *folderID {
			return nil
		}
	}
	return domainerrors.NotFoundf("folder %q not found", *folderID)
}

func indexOfPost(posts []*domain.Post, postID string) int {
	return slices.IndexFunc(posts, func(p *domain.Post) bool { return p.ID == postID })
}

func autoTagsOf(tags []string) []string {
	var out []string
	for _, t := range tags {
		if slices.Contains(autoTags, t) {
			out = append(out, t)
		}
	}
	return out
}

func userTagsOf(tags []string) []string {
	var out []string
	for _, t := range tags {
		if !slices.Contains(autoTags, t) {
			out = append(out, t)
		}
	}
	return out
}
