package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/polypost/polypost-server/internal/domain"
	"github.com/polypost/polypost-server/internal/service"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings",
		Summary:     "Get settings",
		Description: "Returns settings with API keys masked",
		Tags:        []string{"Settings"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPatch,
		Path:        "/api/v1/settings",
		Summary:     "Update settings",
		Description: "Partially updates settings. Omitted fields are left unchanged.",
		Tags:        []string{"Settings"},
	}, s.handleUpdateSettings)
}

// UpdateSettingsInput wraps the update settings request for Huma.
type UpdateSettingsInput struct {
	Body service.UpdateSettingsRequest
}

// SettingsOutput wraps redacted settings for Huma.
type SettingsOutput struct {
	Body *domain.Settings
}

func (s *Server) handleGetSettings(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: service.Redacted(settings)}, nil
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Update(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: service.Redacted(settings)}, nil
}
