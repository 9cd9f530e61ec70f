package api

import (
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/polypost/polypost-server/internal/errors"
)

// EnvelopeVersion is bumped on breaking changes to the response shape.
const EnvelopeVersion = 1

// APIEnvelope wraps successful responses and uncoded errors.
type APIEnvelope struct { //nolint:revive // API prefix matches APIError
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps coded errors so the extension can branch on Code.
type APIErrorEnvelope struct { //nolint:revive // API prefix matches APIError
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// errorEnvelope builds the coded envelope for err, if err carries a code.
func errorEnvelope(err error) (APIErrorEnvelope, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		var de *domainerrors.Error
		if !errors.As(err, &de) {
			return APIErrorEnvelope{}, false
		}
		apiErr = fromDomain(de)
	}
	return APIErrorEnvelope{
		Version: EnvelopeVersion,
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}, true
}

// EnvelopeTransformer is a huma transformer that wraps every body in the
// versioned envelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if err, ok := v.(error); ok {
		if env, coded := errorEnvelope(err); coded {
			return env, nil
		}
		return APIEnvelope{Version: EnvelopeVersion, Error: err.Error()}, nil
	}

	code, _ := strconv.Atoi(status)
	return APIEnvelope{Version: EnvelopeVersion, Success: code < 400, Data: v}, nil
}
