package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/polypost/polypost-server/internal/ai"
	"github.com/polypost/polypost-server/internal/domain"
	"github.com/polypost/polypost-server/internal/normalize"
	"github.com/polypost/polypost-server/internal/service"
)

func (s *Server) registerTransformRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "polishPost",
		Method:        http.MethodPost,
		Path:          "/api/v1/polish",
		Summary:       "Polish post",
		Description:   "Rewrites the post with a prompt and selects the resulting variant",
		Tags:          []string{"Transform"},
		DefaultStatus: http.StatusCreated,
	}, s.handlePolish)

	huma.Register(s.api, huma.Operation{
		OperationID: "translatePost",
		Method:      http.MethodPost,
		Path:        "/api/v1/translate",
		Summary:     "Translate post",
		Description: "Translates the post into each target in order. Progress is streamed as translation.progress events. " +
			"The first failure stops the batch; variants created before it are kept.",
		Tags: []string{"Transform"},
	}, s.handleTranslate)

	huma.Register(s.api, huma.Operation{
		OperationID: "quickTranslate",
		Method:      http.MethodPost,
		Path:        "/api/v1/quick-translate",
		Summary:     "Quick translate",
		Description: "Translates ad-hoc text without saving anything",
		Tags:        []string{"Transform"},
	}, s.handleQuickTranslate)
}

// PolishRequest is the request body for polishing a post.
type PolishRequest struct {
	PostID   string `json:"post_id" minLength:"1" doc:"Post to polish"`
	PromptID string `json:"prompt_id,omitempty" doc:"Prompt to apply, defaults to the configured polish template"`
	Content  string `json:"content,omitempty" doc:"Unsaved editor text to polish instead of the saved source"`
}

// PolishInput wraps the polish request for Huma.
type PolishInput struct {
	Body PolishRequest
}

// TranslateRequest is the request body for a translation batch.
type TranslateRequest struct {
	PostID     string            `json:"post_id" minLength:"1" doc:"Post to translate"`
	Targets    []domain.Language `json:"targets" doc:"Target languages, translated in this order. Codes, locales and names are accepted, e.g. ja-JP or Spanish"`
	SourceMode string            `json:"source_mode,omitempty" enum:"post,selected" doc:"Translate the post source or the selected variant"`
	Content    string            `json:"content,omitempty" doc:"Unsaved editor text, used in post mode"`
}

// TranslateInput wraps the translate request for Huma.
type TranslateInput struct {
	Body TranslateRequest
}

// TranslateOutput wraps the batch result for Huma.
type TranslateOutput struct {
	Body *service.BatchResult
}

// QuickTranslateRequest is the request body for an ad-hoc translation.
type QuickTranslateRequest struct {
	Text   string          `json:"text" doc:"Text to translate"`
	Target domain.Language `json:"target,omitempty" doc:"Target language, defaults to the configured default language"`
}

// QuickTranslateInput wraps the quick translate request for Huma.
type QuickTranslateInput struct {
	Body QuickTranslateRequest
}

// QuickTranslateResponse is a translation that was not saved.
type QuickTranslateResponse struct {
	Target domain.Language `json:"target" doc:"Language translated into"`
	ai.Result
}

// QuickTranslateOutput wraps the quick translate response for Huma.
type QuickTranslateOutput struct {
	Body QuickTranslateResponse
}

func (s *Server) handlePolish(ctx context.Context, input *PolishInput) (*VariantOutput, error) {
	promptID := input.Body.PromptID
	if promptID == "" {
		settings, err := s.services.Settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		promptID = settings.DefaultPolishTemplate
	}

	v, err := s.services.Orchestrator.Polish(ctx, service.PolishRequest{
		PostID:   input.Body.PostID,
		PromptID: promptID,
		Content:  input.Body.Content,
	})
	if err != nil {
		return nil, err
	}
	return &VariantOutput{Body: v}, nil
}

func (s *Server) handleTranslate(ctx context.Context, input *TranslateInput) (*TranslateOutput, error) {
	res, err := s.services.Orchestrator.TranslateBatch(ctx, service.TranslateRequest{
		PostID:     input.Body.PostID,
		Targets:    normalize.Languages(input.Body.Targets),
		SourceMode: service.SourceMode(input.Body.SourceMode),
		Content:    input.Body.Content,
	})
	if err != nil {
		return nil, err
	}
	return &TranslateOutput{Body: res}, nil
}

func (s *Server) handleQuickTranslate(ctx context.Context, input *QuickTranslateInput) (*QuickTranslateOutput, error) {
	target := normalize.Language(input.Body.Target)
	if target == "" {
		settings, err := s.services.Settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		target = settings.DefaultLanguage
	}

	res, err := s.services.Orchestrator.QuickTranslate(ctx, input.Body.Text, target)
	if err != nil {
		return nil, err
	}
	return &QuickTranslateOutput{Body: QuickTranslateResponse{Target: target, Result: res}}, nil
}
