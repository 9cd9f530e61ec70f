package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/polypost/polypost-server/internal/errors"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{name: "success response", status: "200", input: map[string]string{"key": "value"}},
		{name: "created response", status: "201", input: map[string]string{"id": "123"}},
		{name: "no content response", status: "204", input: nil},
		{name: "bad request error", status: "400", input: errors.New("invalid input")},
		{name: "domain error", status: "403", input: domainerrors.PermissionDenied("denied", "denied", "https://x.example/*")},
		{
			name:   "api error with details",
			status: "409",
			input: &APIError{
				Code:    "INVARIANT_VIOLATION",
				Message: "Cannot delete the last prompt",
				Details: map[string]string{"prompt_id": "professional"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			jsonBytes, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(jsonBytes, &envelope))

			require.Contains(t, envelope, "v", "Envelope must contain version field 'v'")
			assert.Equal(t, float64(EnvelopeVersion), envelope["v"])
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"name": "Hello world"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")

	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_PlainError(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "400", errors.New("validation failed"))
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")

	assert.False(t, envelope.Success)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, "validation failed", envelope.Error)
}

func TestEnvelopeTransformer_CodedErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		result, err := EnvelopeTransformer(nil, "409", &APIError{
			Code:    "INVARIANT_VIOLATION",
			Message: "Cannot delete the last prompt",
			Details: []string{"professional"},
		})
		require.NoError(t, err)

		envelope, ok := result.(APIErrorEnvelope)
		require.True(t, ok, "Expected APIErrorEnvelope type")
		assert.False(t, envelope.Success)
		assert.Equal(t, "INVARIANT_VIOLATION", envelope.Code)
		assert.Equal(t, "Cannot delete the last prompt", envelope.Message)
		assert.Equal(t, []string{"professional"}, envelope.Details)
	})

	t.Run("domain error", func(t *testing.T) {
		result, err := EnvelopeTransformer(nil, "403", domainerrors.PermissionDenied("Access denied", "denied", "https://x.example/*"))
		require.NoError(t, err)

		envelope, ok := result.(APIErrorEnvelope)
		require.True(t, ok, "Expected APIErrorEnvelope type")
		assert.Equal(t, string(domainerrors.CodePermissionDenied), envelope.Code)
		assert.Equal(t, "Access denied", envelope.Message)
		assert.Equal(t, map[string]string{"reason": "denied", "origin": "https://x.example/*"}, envelope.Details)
	})
}

func TestCodeFor(t *testing.T) {
	assert.Equal(t, "VALIDATION", codeFor(400))
	assert.Equal(t, "VALIDATION", codeFor(422))
	assert.Equal(t, "AUTH", codeFor(401))
	assert.Equal(t, "NOT_FOUND", codeFor(404))
	assert.Equal(t, "RATE_LIMITED", codeFor(429))
	assert.Equal(t, "TRANSFORM", codeFor(502))
	assert.Equal(t, "INTERNAL", codeFor(500))
}

func TestNewAPIError(t *testing.T) {
	t.Run("domain error keeps its code", func(t *testing.T) {
		err := newAPIError(500, "boom", errors.New("other"), domainerrors.EmptyInput("Please enter some content first"))
		assert.Equal(t, 400, err.GetStatus())
		apiErr := err.(*APIError)
		assert.Equal(t, "EMPTY_INPUT", apiErr.Code)
		assert.Equal(t, "Please enter some content first", apiErr.Message)
	})

	t.Run("schema failures become details", func(t *testing.T) {
		err := newAPIError(422, "validation failed", errors.New("body.content: required"))
		apiErr := err.(*APIError)
		assert.Equal(t, 422, apiErr.GetStatus())
		assert.Equal(t, "VALIDATION", apiErr.Code)
		assert.Equal(t, []string{"body.content: required"}, apiErr.Details)
	})

	t.Run("server errors hide causes", func(t *testing.T) {
		apiErr := newAPIError(500, "internal", errors.New("disk on fire")).(*APIError)
		assert.Nil(t, apiErr.Details)
	})
}
