package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/polypost/polypost-server/internal/domain"
)

func (s *Server) registerLanguageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLanguages",
		Method:      http.MethodGet,
		Path:        "/api/v1/languages",
		Summary:     "List languages",
		Description: "Returns the supported translation targets in display order",
		Tags:        []string{"Languages"},
	}, s.handleListLanguages)
}

// ListLanguagesResponse contains the supported languages.
type ListLanguagesResponse struct {
	Languages []domain.LanguageInfo `json:"languages" doc:"Supported languages"`
}

// ListLanguagesOutput wraps the list languages response for Huma.
type ListLanguagesOutput struct {
	Body ListLanguagesResponse
}

func (s *Server) handleListLanguages(_ context.Context, _ *struct{}) (*ListLanguagesOutput, error) {
	return &ListLanguagesOutput{Body: ListLanguagesResponse{Languages: domain.Languages()}}, nil
}
