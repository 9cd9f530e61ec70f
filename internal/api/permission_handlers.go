package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/polypost/polypost-server/internal/hostbridge"
)

func (s *Server) registerPermissionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listPermissionRequests",
		Method:      http.MethodGet,
		Path:        "/api/v1/permissions/requests",
		Summary:     "List pending permission requests",
		Description: "Returns consent requests still waiting for an answer, for surfaces that connected after the event",
		Tags:        []string{"Permissions"},
	}, s.handleListPermissionRequests)

	huma.Register(s.api, huma.Operation{
		OperationID: "resolvePermissionRequest",
		Method:      http.MethodPost,
		Path:        "/api/v1/permissions/requests/{id}",
		Summary:     "Answer permission request",
		Tags:        []string{"Permissions"},
	}, s.handleResolvePermissionRequest)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPermissionGrants",
		Method:      http.MethodGet,
		Path:        "/api/v1/permissions/grants",
		Summary:     "List permission grants",
		Description: "Returns the recorded consent decisions by origin pattern",
		Tags:        []string{"Permissions"},
	}, s.handleListPermissionGrants)

	huma.Register(s.api, huma.Operation{
		OperationID: "revokePermissionGrant",
		Method:      http.MethodDelete,
		Path:        "/api/v1/permissions/grants",
		Summary:     "Revoke permission grant",
		Description: "Forgets the decision for an origin so the next call asks again",
		Tags:        []string{"Permissions"},
	}, s.handleRevokePermissionGrant)

	huma.Register(s.api, huma.Operation{
		OperationID: "openPanel",
		Method:      http.MethodPost,
		Path:        "/api/v1/panels/open",
		Summary:     "Open extension panel",
		Description: "Asks connected extension surfaces to open a panel",
		Tags:        []string{"Permissions"},
	}, s.handleOpenPanel)
}

// ListPermissionRequestsResponse contains pending requests.
type ListPermissionRequestsResponse struct {
	Requests []hostbridge.PendingRequest `json:"requests" doc:"Pending requests, oldest deadline first"`
}

// ListPermissionRequestsOutput wraps the pending requests for Huma.
type ListPermissionRequestsOutput struct {
	Body ListPermissionRequestsResponse
}

// ResolvePermissionRequest is the user's answer.
type ResolvePermissionRequest struct {
	Granted bool `json:"granted" doc:"Whether the user allowed the origin"`
}

// ResolvePermissionInput wraps the answer for Huma.
type ResolvePermissionInput struct {
	ID   string `path:"id" doc:"Permission request ID"`
	Body ResolvePermissionRequest
}

// PermissionGrant is one recorded decision.
type PermissionGrant struct {
	Origin  string `json:"origin" doc:"Origin pattern, e.g. https://api.example.com/*"`
	Granted bool   `json:"granted" doc:"Recorded decision"`
}

// ListPermissionGrantsResponse contains recorded decisions.
type ListPermissionGrantsResponse struct {
	Grants []PermissionGrant `json:"grants" doc:"Decisions sorted by origin"`
}

// ListPermissionGrantsOutput wraps the grants for Huma.
type ListPermissionGrantsOutput struct {
	Body ListPermissionGrantsResponse
}

// RevokePermissionInput names the origin to forget.
type RevokePermissionInput struct {
	Origin string `query:"origin" required:"true" minLength:"1" doc:"Origin pattern to revoke"`
}

// OpenPanelRequest names a panel.
type OpenPanelRequest struct {
	Panel string `json:"panel" minLength:"1" doc:"Panel name, e.g. settings"`
}

// OpenPanelInput wraps the open panel request for Huma.
type OpenPanelInput struct {
	Body OpenPanelRequest
}

func (s *Server) handleListPermissionRequests(_ context.Context, _ *struct{}) (*ListPermissionRequestsOutput, error) {
	pending := s.services.Bridge.Pending()
	sort.Slice(pending, func(i, j int) bool { return pending[i].ExpiresAt.Before(pending[j].ExpiresAt) })
	return &ListPermissionRequestsOutput{Body: ListPermissionRequestsResponse{Requests: pending}}, nil
}

func (s *Server) handleResolvePermissionRequest(_ context.Context, input *ResolvePermissionInput) (*MessageOutput, error) {
	if err := s.services.Bridge.Resolve(input.ID, input.Body.Granted); err != nil {
		return nil, err
	}
	if input.Body.Granted {
		return message("Permission granted"), nil
	}
	return message("Permission denied"), nil
}

func (s *Server) handleListPermissionGrants(ctx context.Context, _ *struct{}) (*ListPermissionGrantsOutput, error) {
	grants, err := s.services.Gate.ListGrants(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]PermissionGrant, 0, len(grants))
	for origin, granted := range grants {
		resp = append(resp, PermissionGrant{Origin: origin, Granted: granted})
	}
	sort.Slice(resp, func(i, j int) bool { return resp[i].Origin < resp[j].Origin })

	return &ListPermissionGrantsOutput{Body: ListPermissionGrantsResponse{Grants: resp}}, nil
}

func (s *Server) handleRevokePermissionGrant(ctx context.Context, input *RevokePermissionInput) (*MessageOutput, error) {
	if err := s.services.Gate.Revoke(ctx, input.Origin); err != nil {
		return nil, err
	}
	return message("Permission revoked"), nil
}

func (s *Server) handleOpenPanel(ctx context.Context, input *OpenPanelInput) (*MessageOutput, error) {
	if err := s.services.Bridge.OpenPanel(ctx, input.Body.Panel); err != nil {
		return nil, err
	}
	return message("Panel requested"), nil
}
