package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/polypost/polypost-server/internal/relay"
)

func (s *Server) registerRelayRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "relayRequest",
		Method:      http.MethodPost,
		Path:        "/api/v1/relay",
		Summary:     "Relay request",
		Description: "Performs a text HTTP request on behalf of the extension. The target origin must pass the permission gate. " +
			"Transport failures are reported in the envelope with status 0.",
		Tags: []string{"Relay"},
	}, s.handleRelay)
}

// RelayRequest is the request envelope.
type RelayRequest struct {
	URL     string            `json:"url" format:"uri" doc:"Target URL"`
	Method  string            `json:"method,omitempty" enum:"GET,POST,PUT,PATCH,DELETE,HEAD" doc:"HTTP method, defaults to GET"`
	Headers map[string]string `json:"headers,omitempty" doc:"Request headers"`
	Body    string            `json:"body,omitempty" doc:"Request body"`
}

// RelayInput wraps the relay request for Huma.
type RelayInput struct {
	Body RelayRequest
}

// RelayOutput wraps the relay response for Huma.
type RelayOutput struct {
	Body relay.Response
}

func (s *Server) handleRelay(ctx context.Context, input *RelayInput) (*RelayOutput, error) {
	if res := s.services.Gate.EnsureAuthorized(ctx, input.Body.URL); !res.Granted {
		return nil, res.Err()
	}

	resp, err := s.services.Bridge.Relay(ctx, relay.Request{
		URL:     input.Body.URL,
		Method:  input.Body.Method,
		Headers: input.Body.Headers,
		Body:    input.Body.Body,
	})
	if err != nil {
		var relayErr *relay.Error
		if !errors.As(err, &relayErr) {
			return nil, err
		}
		s.logger.Warn("relay failed", "url", input.Body.URL, "status", relayErr.Status, "error", relayErr.Err)
		return &RelayOutput{Body: relay.Response{
			Status:     relayErr.Status,
			StatusText: relayErr.Error(),
			Headers:    map[string]string{},
		}}, nil
	}
	return &RelayOutput{Body: resp}, nil
}
