package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/polypost/polypost-server/internal/domain"
	"github.com/polypost/polypost-server/internal/publish"
	"github.com/polypost/polypost-server/internal/search"
	"github.com/polypost/polypost-server/internal/service"
	"github.com/polypost/polypost-server/internal/sse"
)

func (s *Server) registerPostRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts",
		Summary:     "List posts",
		Description: "Returns posts in the library, most recently updated first",
		Tags:        []string{"Posts"},
	}, s.handleListPosts)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPost",
		Method:        http.MethodPost,
		Path:          "/api/v1/posts",
		Summary:       "Create post",
		Description:   "Creates a draft post. Tags are classified from the content and merged with the given ones.",
		Tags:          []string{"Posts"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchPosts",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/search",
		Summary:     "Search posts",
		Description: "Full-text search over post content, variants and tags",
		Tags:        []string{"Posts"},
	}, s.handleSearchPosts)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPost",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Get post",
		Description: "Returns a post with its variants, newest first",
		Tags:        []string{"Posts"},
	}, s.handleGetPost)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePost",
		Method:      http.MethodPatch,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Update post",
		Description: "Partially updates a post",
		Tags:        []string{"Posts"},
	}, s.handleUpdatePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePost",
		Method:      http.MethodDelete,
		Path:        "/api/v1/posts/{id}",
		Summary:     "Delete post",
		Description: "Deletes a post and all of its variants",
		Tags:        []string{"Posts"},
	}, s.handleDeletePost)

	huma.Register(s.api, huma.Operation{
		OperationID: "publishPost",
		Method:      http.MethodPost,
		Path:        "/api/v1/posts/{id}/publish",
		Summary:     "Publish post",
		Description: "Builds the tweet intent URL from the selected variant, or the source when none is selected, and marks the post posted",
		Tags:        []string{"Posts"},
	}, s.handlePublishPost)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPostProgress",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{id}/progress",
		Summary:     "Get translation progress",
		Description: "Returns the progress of the post's running or last failed translation batch",
		Tags:        []string{"Posts"},
	}, s.handleGetPostProgress)
}

// === DTOs ===

// ListPostsInput contains parameters for listing posts.
type ListPostsInput struct {
	Filter   string `query:"filter" enum:"all,drafts,scheduled,posted" default:"all" doc:"Status filter"`
	FolderID string `query:"folder_id" doc:"Only posts in this folder"`
	Unfiled  bool   `query:"unfiled" doc:"Only posts without a folder"`
}

// ListPostsResponse contains a list of posts.
type ListPostsResponse struct {
	Posts []*domain.Post `json:"posts" doc:"Posts"`
}

// ListPostsOutput wraps the list posts response for Huma.
type ListPostsOutput struct {
	Body ListPostsResponse
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	SourceContent string   `json:"source_content" maxLength:"20000" doc:"Source text, may be empty for a blank draft"`
	FolderID      *string  `json:"folder_id,omitempty" doc:"Folder to file the post under"`
	Tags          []string `json:"tags,omitempty" maxItems:"20" doc:"User tags"`
	CampaignID    *string  `json:"campaign_id,omitempty" doc:"Campaign the post belongs to"`
}

// CreatePostInput wraps the create post request for Huma.
type CreatePostInput struct {
	Body CreatePostRequest
}

// PostOutput wraps a post for Huma.
type PostOutput struct {
	Body *domain.Post
}

// PostIDInput identifies a post.
type PostIDInput struct {
	ID string `path:"id" doc:"Post ID"`
}

// PostDetailResponse is a post with its variants.
type PostDetailResponse struct {
	Post              *domain.Post      `json:"post" doc:"Post"`
	Variants          []*domain.Variant `json:"variants" doc:"Variants, newest first"`
	SelectedVariantID string            `json:"selected_variant_id,omitempty" doc:"Selected variant, if any"`
	Stats             publish.Stats     `json:"stats" doc:"Length of the text that would be published"`
}

// PostDetailOutput wraps the post detail response for Huma.
type PostDetailOutput struct {
	Body PostDetailResponse
}

// UpdatePostInput wraps the update post request for Huma.
type UpdatePostInput struct {
	ID   string `path:"id" doc:"Post ID"`
	Body service.UpdatePostRequest
}

// SearchPostsInput contains parameters for searching posts.
type SearchPostsInput struct {
	Query    string `query:"q" minLength:"1" maxLength:"200" required:"true" doc:"Search query"`
	Status   string `query:"status" doc:"Post status filter: draft, scheduled or posted"`
	FolderID string `query:"folder_id" doc:"Folder filter"`
	Tags     string `query:"tags" doc:"Comma-separated tags, any of which must match"`
	Language string `query:"language" doc:"Only match translations into this language"`
	Sort     string `query:"sort" enum:"relevance,recent" default:"relevance" doc:"Sort order"`
	Limit    int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset   int    `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// SearchPostsResponse contains matching posts.
type SearchPostsResponse struct {
	Query string         `json:"query" doc:"The query that was run"`
	Posts []*domain.Post `json:"posts" doc:"Matching posts, best first"`
}

// SearchPostsOutput wraps the search response for Huma.
type SearchPostsOutput struct {
	Body SearchPostsResponse
}

// PublishPostInput wraps the publish request for Huma.
type PublishPostInput struct {
	ID   string                 `path:"id" doc:"Post ID"`
	Body service.PublishRequest `required:"false"`
}

// PublishPostOutput wraps the publish result for Huma.
type PublishPostOutput struct {
	Body *service.PublishResult
}

// ProgressResponse reports a batch's progress.
type ProgressResponse struct {
	Active   bool                   `json:"active" doc:"Whether a batch has reported progress for this post"`
	Progress *sse.ProgressEventData `json:"progress,omitempty" doc:"Last progress report"`
}

// ProgressOutput wraps the progress response for Huma.
type ProgressOutput struct {
	Body ProgressResponse
}

// === Handlers ===

func (s *Server) handleListPosts(ctx context.Context, input *ListPostsInput) (*ListPostsOutput, error) {
	opts := service.ListPostsOptions{
		Filter:  domain.PostFilter(input.Filter),
		Unfiled: input.Unfiled,
	}
	if input.FolderID != "" {
		opts.FolderID = &input.FolderID
	}

	posts, err := s.services.Posts.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &ListPostsOutput{Body: ListPostsResponse{Posts: posts}}, nil
}

func (s *Server) handleCreatePost(ctx context.Context, input *CreatePostInput) (*PostOutput, error) {
	post, err := s.services.Posts.Create(ctx, service.CreatePostRequest{
		SourceContent: input.Body.SourceContent,
		FolderID:      input.Body.FolderID,
		Tags:          input.Body.Tags,
		CampaignID:    input.Body.CampaignID,
	})
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: post}, nil
}

func (s *Server) handleGetPost(ctx context.Context, input *PostIDInput) (*PostDetailOutput, error) {
	post, err := s.services.Posts.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	variants, err := s.services.Variants.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	resp := PostDetailResponse{Post: post, Variants: variants}
	text := post.SourceContent
	for _, v := range variants {
		if v.IsSelected {
			resp.SelectedVariantID = v.ID
			text = v.Content
			break
		}
	}
	resp.Stats = publish.Measure(text)

	return &PostDetailOutput{Body: resp}, nil
}

func (s *Server) handleUpdatePost(ctx context.Context, input *UpdatePostInput) (*PostOutput, error) {
	post, err := s.services.Posts.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &PostOutput{Body: post}, nil
}

func (s *Server) handleDeletePost(ctx context.Context, input *PostIDInput) (*MessageOutput, error) {
	if err := s.services.Posts.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("Post deleted"), nil
}

func (s *Server) handleSearchPosts(ctx context.Context, input *SearchPostsInput) (*SearchPostsOutput, error) {
	params := search.DefaultParams()
	params.Query = input.Query
	params.Status = input.Status
	params.FolderID = input.FolderID
	params.Tags = splitCSV(input.Tags)
	params.Language = input.Language
	params.Offset = input.Offset
	params.IncludeFacets = false
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	if input.Limit > 0 {
		params.Limit = min(input.Limit, MaxSearchLimit)
	}

	posts, err := s.services.Posts.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchPostsOutput{Body: SearchPostsResponse{Query: input.Query, Posts: posts}}, nil
}

func (s *Server) handlePublishPost(ctx context.Context, input *PublishPostInput) (*PublishPostOutput, error) {
	res, err := s.services.Posts.Publish(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &PublishPostOutput{Body: res}, nil
}

func (s *Server) handleGetPostProgress(ctx context.Context, input *PostIDInput) (*ProgressOutput, error) {
	if _, err := s.services.Posts.Get(ctx, input.ID); err != nil {
		return nil, err
	}

	p, ok := s.services.Orchestrator.Progress(input.ID)
	if !ok {
		return &ProgressOutput{Body: ProgressResponse{}}, nil
	}
	return &ProgressOutput{Body: ProgressResponse{Active: true, Progress: &p}}, nil
}
