package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/polypost/polypost-server/internal/domain"
)

func (s *Server) registerVariantRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPostVariants",
		Method:      http.MethodGet,
		Path:        "/api/v1/posts/{id}/variants",
		Summary:     "List variants",
		Description: "Returns a post's variants, newest first",
		Tags:        []string{"Variants"},
	}, s.handleListVariants)

	huma.Register(s.api, huma.Operation{
		OperationID: "getVariant",
		Method:      http.MethodGet,
		Path:        "/api/v1/variants/{id}",
		Summary:     "Get variant",
		Tags:        []string{"Variants"},
	}, s.handleGetVariant)

	huma.Register(s.api, huma.Operation{
		OperationID: "selectVariant",
		Method:      http.MethodPost,
		Path:        "/api/v1/variants/{id}/select",
		Summary:     "Select variant",
		Description: "Marks the variant selected and deselects its siblings. Unknown ids are ignored.",
		Tags:        []string{"Variants"},
	}, s.handleSelectVariant)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteVariant",
		Method:      http.MethodDelete,
		Path:        "/api/v1/variants/{id}",
		Summary:     "Delete variant",
		Tags:        []string{"Variants"},
	}, s.handleDeleteVariant)
}

// VariantIDInput identifies a variant.
type VariantIDInput struct {
	ID string `path:"id" doc:"Variant ID"`
}

// ListVariantsResponse contains a post's variants.
type ListVariantsResponse struct {
	Variants []*domain.Variant `json:"variants" doc:"Variants, newest first"`
}

// ListVariantsOutput wraps the list variants response for Huma.
type ListVariantsOutput struct {
	Body ListVariantsResponse
}

// VariantOutput wraps a variant for Huma.
type VariantOutput struct {
	Body *domain.Variant
}

func (s *Server) handleListVariants(ctx context.Context, input *PostIDInput) (*ListVariantsOutput, error) {
	if _, err := s.services.Posts.Get(ctx, input.ID); err != nil {
		return nil, err
	}
	variants, err := s.services.Variants.ListByPost(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ListVariantsOutput{Body: ListVariantsResponse{Variants: variants}}, nil
}

func (s *Server) handleGetVariant(ctx context.Context, input *VariantIDInput) (*VariantOutput, error) {
	v, err := s.services.Variants.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &VariantOutput{Body: v}, nil
}

func (s *Server) handleSelectVariant(ctx context.Context, input *VariantIDInput) (*MessageOutput, error) {
	if err := s.services.Variants.Select(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("Variant selected"), nil
}

func (s *Server) handleDeleteVariant(ctx context.Context, input *VariantIDInput) (*MessageOutput, error) {
	if err := s.services.Variants.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("Variant deleted"), nil
}
