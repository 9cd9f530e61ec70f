package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/polypost/polypost-server/internal/errors"
)

// APIError is the huma.StatusError behind every error response.
type APIError struct { //nolint:revive // API prefix matches APIEnvelope
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

func (e *APIError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int { return e.status }

// ContentType implements huma.ContentTypeFilter.
func (e *APIError) ContentType(string) string { return "application/json" }

// Codes for errors huma raises itself, before a handler runs.
var codeByStatus = map[int]domainerrors.Code{
	http.StatusBadRequest:          domainerrors.CodeValidation,
	http.StatusUnprocessableEntity: domainerrors.CodeValidation,
	http.StatusUnauthorized:        domainerrors.CodeAuth,
	http.StatusForbidden:           domainerrors.CodePermissionDenied,
	http.StatusNotFound:            domainerrors.CodeNotFound,
	http.StatusConflict:            domainerrors.CodeInvariantViolation,
	http.StatusTooManyRequests:     domainerrors.CodeRateLimited,
	http.StatusBadGateway:          domainerrors.CodeTransform,
}

func codeFor(status int) string {
	if c, ok := codeByStatus[status]; ok {
		return string(c)
	}
	return string(domainerrors.CodeInternal)
}

// fromDomain renders a domain error with its own status and code.
func fromDomain(e *domainerrors.Error) *APIError {
	return &APIError{
		status:  e.HTTPStatus(),
		Code:    string(e.Code),
		Message: e.Message,
		Details: e.Details,
	}
}

// newAPIError replaces huma.NewError. A domain error anywhere in errs wins;
// otherwise the status decides the code and schema failures are listed
// as details.
func newAPIError(status int, message string, errs ...error) huma.StatusError {
	var details []string
	for _, err := range errs {
		var de *domainerrors.Error
		if errors.As(err, &de) {
			return fromDomain(de)
		}
		if err != nil {
			details = append(details, err.Error())
		}
	}

	e := &APIError{status: status, Code: codeFor(status), Message: message}
	if len(details) > 0 && (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity) {
		e.Details = details
	}
	return e
}

// RegisterErrorHandler installs newAPIError as huma's error constructor.
// Call it before registering operations.
func RegisterErrorHandler() {
	huma.NewError = newAPIError
}
