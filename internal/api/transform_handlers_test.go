package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolish_EndToEnd(t *testing.T) {
	ts := setupTestServer(t)
	ts.configureKey(t)
	postID := ts.createPost(t, "Hello world")

	resp := ts.api.Post("/api/v1/polish", map[string]any{"post_id": postID, "prompt_id": "concise"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	v := decode[variantJSON](t, resp).Data
	assert.Equal(t, "polish", v.Type)
	assert.Equal(t, "Hi.", v.Content)
	require.NotNil(t, v.PromptTemplate)
	assert.Equal(t, "concise", *v.PromptTemplate)
	assert.Nil(t, v.Language)
	assert.True(t, v.IsSelected)
	assert.GreaterOrEqual(t, v.AIConfidence, 0)
	assert.LessOrEqual(t, v.AIConfidence, 100)
	assert.Equal(t, "Bearer sk-test-1234567890", ts.llm.authHeader)

	resp = ts.api.Get("/api/v1/posts/" + postID + "/variants")
	require.Equal(t, http.StatusOK, resp.Code)
	variants := decode[struct {
		Variants []variantJSON `json:"variants"`
	}](t, resp).Data.Variants
	require.Len(t, variants, 1)
	assert.Equal(t, v.ID, variants[0].ID)
}

func TestPolish_DefaultPrompt(t *testing.T) {
	ts := setupTestServer(t)
	ts.configureKey(t)
	postID := ts.createPost(t, "Hello world")

	resp := ts.api.Post("/api/v1/polish", map[string]any{"post_id": postID})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	v := decode[variantJSON](t, resp).Data
	require.NotNil(t, v.PromptTemplate)
	assert.Equal(t, "professional", *v.PromptTemplate)
}

func TestPolish_Errors(t *testing.T) {
	tests := []struct {
		name       string
		withKey    bool
		content    string
		promptID   string
		wantStatus int
		wantCode   string
	}{
		{name: "empty content", withKey: true, content: "  ", promptID: "concise", wantStatus: http.StatusBadRequest, wantCode: "EMPTY_INPUT"},
		{name: "missing key", content: "Hello", promptID: "concise", wantStatus: http.StatusUnauthorized, wantCode: "AUTH"},
		{name: "unknown prompt", withKey: true, content: "Hello", promptID: "nope", wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t)
			if tt.withKey {
				ts.configureKey(t)
			}
			postID := ts.createPost(t, tt.content)

			resp := ts.api.Post("/api/v1/polish", map[string]any{"post_id": postID, "prompt_id": tt.promptID})
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Equal(t, tt.wantCode, decode[any](t, resp).Code)
			assert.Zero(t, ts.llm.callCount(), "the model is never called")
		})
	}
}

func TestTranslate_Batch(t *testing.T) {
	ts := setupTestServer(t)
	ts.configureKey(t)
	postID := ts.createPost(t, "Hello world")

	resp := ts.api.Post("/api/v1/translate", map[string]any{
		"post_id": postID,
		"targets": []string{"es", "fr"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[struct {
		BatchID  string        `json:"batch_id"`
		Variants []variantJSON `json:"variants"`
		Progress struct {
			Completed int `json:"completed"`
			Total     int `json:"total"`
		} `json:"progress"`
	}](t, resp)
	require.Len(t, env.Data.Variants, 2)
	assert.NotEmpty(t, env.Data.BatchID)
	assert.Equal(t, "Hola mundo", env.Data.Variants[0].Content)
	assert.Equal(t, "Bonjour le monde", env.Data.Variants[1].Content)
	assert.Equal(t, 2, env.Data.Progress.Completed)
	assert.Equal(t, 2, env.Data.Progress.Total)

	resp = ts.api.Get("/api/v1/posts/" + postID)
	require.Equal(t, http.StatusOK, resp.Code)
	detail := decode[struct {
		SelectedVariantID string `json:"selected_variant_id"`
	}](t, resp)
	assert.Equal(t, env.Data.Variants[1].ID, detail.Data.SelectedVariantID, "last target is selected")

	resp = ts.api.Get("/api/v1/posts/" + postID + "/progress")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[ProgressResponse](t, resp).Data.Active, "completed batches clear progress")
}

func TestTranslate_StopsAtFirstFailure(t *testing.T) {
	ts := setupTestServer(t)
	ts.configureKey(t)
	ts.llm.failFrench = true
	postID := ts.createPost(t, "Hello world")

	resp := ts.api.Post("/api/v1/translate", map[string]any{
		"post_id": postID,
		"targets": []string{"es", "fr", "de"},
	})
	assert.Equal(t, http.StatusBadGateway, resp.Code, resp.Body.String())
	env := decode[any](t, resp)
	assert.Equal(t, "TRANSFORM", env.Code)
	assert.Equal(t, "upstream exploded", env.Message)
	assert.Equal(t, 2, ts.llm.callCount(), "de is never attempted")

	resp = ts.api.Get("/api/v1/posts/" + postID + "/variants")
	require.Equal(t, http.StatusOK, resp.Code)
	variants := decode[struct {
		Variants []variantJSON `json:"variants"`
	}](t, resp).Data.Variants
	require.Len(t, variants, 1)
	require.NotNil(t, variants[0].Language)
	assert.Equal(t, "es", *variants[0].Language)

	resp = ts.api.Get("/api/v1/posts/" + postID + "/progress")
	require.Equal(t, http.StatusOK, resp.Code)
	progress := decode[ProgressResponse](t, resp).Data
	require.True(t, progress.Active)
	assert.Equal(t, 1, progress.Progress.Completed)
	assert.Equal(t, 3, progress.Progress.Total)
}

func TestTranslate_RejectsUnknownLanguage(t *testing.T) {
	ts := setupTestServer(t)
	ts.configureKey(t)
	postID := ts.createPost(t, "Hello world")

	resp := ts.api.Post("/api/v1/translate", map[string]any{"post_id": postID, "targets": []string{"xx"}})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp).Code)
}

func TestQuickTranslate_UsesDefaultLanguage(t *testing.T) {
	ts := setupTestServer(t)
	ts.configureKey(t)

	resp := ts.api.Patch("/api/v1/settings", map[string]any{"default_language": "es"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/quick-translate", map[string]any{"text": "Hello world"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[struct {
		Target     string `json:"target"`
		Content    string `json:"content"`
		Confidence int    `json:"confidence"`
	}](t, resp)
	assert.Equal(t, "es", env.Data.Target)
	assert.Equal(t, "Hola mundo", env.Data.Content)

	resp = ts.api.Get("/api/v1/posts")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[struct {
		Posts []postJSON `json:"posts"`
	}](t, resp).Data.Posts, "nothing is saved")
}

func TestTranslate_AcceptsLanguageAliases(t *testing.T) {
	ts := setupTestServer(t)
	ts.configureKey(t)
	postID := ts.createPost(t, "Hello world")

	resp := ts.api.Post("/api/v1/translate", map[string]any{"post_id": postID, "targets": []string{"es-MX"}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[struct {
		Variants []variantJSON `json:"variants"`
	}](t, resp)
	require.Len(t, env.Data.Variants, 1)
	require.NotNil(t, env.Data.Variants[0].Language)
	assert.Equal(t, "es", *env.Data.Variants[0].Language)
}
