package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/polypost/polypost-server/internal/domain"
)

func (s *Server) registerPromptRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPrompts",
		Method:      http.MethodGet,
		Path:        "/api/v1/prompts",
		Summary:     "List prompts",
		Tags:        []string{"Prompts"},
	}, s.handleListPrompts)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addPrompt",
		Method:        http.MethodPost,
		Path:          "/api/v1/prompts",
		Summary:       "Add prompt",
		Tags:          []string{"Prompts"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddPrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePrompt",
		Method:      http.MethodPut,
		Path:        "/api/v1/prompts/{id}",
		Summary:     "Update prompt",
		Tags:        []string{"Prompts"},
	}, s.handleUpdatePrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePrompt",
		Method:      http.MethodDelete,
		Path:        "/api/v1/prompts/{id}",
		Summary:     "Delete prompt",
		Description: "Deletes a prompt. The last remaining prompt cannot be deleted.",
		Tags:        []string{"Prompts"},
	}, s.handleDeletePrompt)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetPrompts",
		Method:      http.MethodPost,
		Path:        "/api/v1/prompts/reset",
		Summary:     "Reset prompts",
		Description: "Replaces the catalog with the built-in prompts",
		Tags:        []string{"Prompts"},
	}, s.handleResetPrompts)
}

// PromptRequest is the request body for adding or updating a prompt.
type PromptRequest struct {
	ID          string `json:"id,omitempty" maxLength:"64" doc:"Prompt ID, required when adding"`
	Template    string `json:"template,omitempty" doc:"Category key, defaults to the ID"`
	Name        string `json:"name" minLength:"1" maxLength:"100" doc:"Display name"`
	Description string `json:"description,omitempty" maxLength:"500" doc:"Short description"`
	Content     string `json:"content" minLength:"1" maxLength:"4000" doc:"Instruction text; {content} is replaced with the user's text"`
}

func (r PromptRequest) prompt(id string) domain.Prompt {
	return domain.Prompt{
		ID:          id,
		Template:    r.Template,
		Name:        r.Name,
		Description: r.Description,
		Content:     r.Content,
	}
}

// AddPromptInput wraps the add prompt request for Huma.
type AddPromptInput struct {
	Body PromptRequest
}

// UpdatePromptInput wraps the update prompt request for Huma.
type UpdatePromptInput struct {
	ID   string `path:"id" doc:"Prompt ID"`
	Body PromptRequest
}

// PromptIDInput identifies a prompt.
type PromptIDInput struct {
	ID string `path:"id" doc:"Prompt ID"`
}

// ListPromptsResponse contains the prompt catalog.
type ListPromptsResponse struct {
	Prompts []domain.Prompt `json:"prompts" doc:"Prompts in catalog order"`
}

// ListPromptsOutput wraps the list prompts response for Huma.
type ListPromptsOutput struct {
	Body ListPromptsResponse
}

// PromptOutput wraps a prompt for Huma.
type PromptOutput struct {
	Body domain.Prompt
}

func (s *Server) handleListPrompts(ctx context.Context, _ *struct{}) (*ListPromptsOutput, error) {
	prompts, err := s.services.Prompts.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListPromptsOutput{Body: ListPromptsResponse{Prompts: prompts}}, nil
}

func (s *Server) handleAddPrompt(ctx context.Context, input *AddPromptInput) (*PromptOutput, error) {
	p := input.Body.prompt(input.Body.ID)
	if err := s.services.Prompts.Add(ctx, p); err != nil {
		return nil, err
	}
	return s.promptOutput(ctx, p.ID)
}

func (s *Server) handleUpdatePrompt(ctx context.Context, input *UpdatePromptInput) (*PromptOutput, error) {
	if err := s.services.Prompts.Update(ctx, input.Body.prompt(input.ID)); err != nil {
		return nil, err
	}
	return s.promptOutput(ctx, input.ID)
}

func (s *Server) handleDeletePrompt(ctx context.Context, input *PromptIDInput) (*MessageOutput, error) {
	if err := s.services.Prompts.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("Prompt deleted"), nil
}

func (s *Server) handleResetPrompts(ctx context.Context, _ *struct{}) (*ListPromptsOutput, error) {
	if err := s.services.Prompts.Reset(ctx); err != nil {
		return nil, err
	}
	return s.handleListPrompts(ctx, nil)
}

func (s *Server) promptOutput(ctx context.Context, id string) (*PromptOutput, error) {
	p, err := s.services.Prompts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PromptOutput{Body: p}, nil
}
