package api

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/polypost/polypost-server/internal/ai"
	"github.com/polypost/polypost-server/internal/catalog"
	"github.com/polypost/polypost-server/internal/hostbridge"
	"github.com/polypost/polypost-server/internal/id"
	"github.com/polypost/polypost-server/internal/logger"
	"github.com/polypost/polypost-server/internal/permission"
	"github.com/polypost/polypost-server/internal/relay"
	"github.com/polypost/polypost-server/internal/search"
	"github.com/polypost/polypost-server/internal/secret"
	"github.com/polypost/polypost-server/internal/service"
	"github.com/polypost/polypost-server/internal/sse"
	"github.com/polypost/polypost-server/internal/store"
)

// testEnvelope mirrors both envelope shapes for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

// fakeLLM is an OpenAI-compatible chat completion endpoint.
type fakeLLM struct {
	*httptest.Server

	mu         sync.Mutex
	calls      int
	failFrench bool
	authHeader string
}

func newFakeLLM(t *testing.T) *fakeLLM {
	t.Helper()
	f := &fakeLLM{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", f.handleCompletion)
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeLLM) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	user := req.Messages[len(req.Messages)-1].Content

	f.mu.Lock()
	f.calls++
	f.authHeader = r.Header.Get("Authorization")
	failFrench := f.failFrench
	f.mu.Unlock()

	reply := "Hi."
	switch {
	case strings.Contains(user, "Spanish"):
		reply = "Hola mundo"
	case strings.Contains(user, "French"):
		if failFrench {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
			return
		}
		reply = "Bonjour le monde"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": reply},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// testServer wraps the API server with everything behind it.
type testServer struct {
	*Server
	api      humatest.TestAPI
	llm      *fakeLLM
	services *Services
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithOptions(t, Options{CORSAllowedOrigins: []string{"chrome-extension://*"}})
}

func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard()
	llm := newFakeLLM(t)
	baseURL := llm.URL + "/v1"

	repo := store.NewRepository(store.NewMemoryKV(), store.NewMemoryKV())
	require.NoError(t, repo.Open(ctx))

	index, err := search.Open(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	sealer, err := secret.NewSealer(make([]byte, 32))
	require.NoError(t, err)

	sseManager := sse.NewManager(log)
	ids := id.NanoGenerator{}

	relayer := relay.NewDirectRelayer(5*time.Second, log)
	bridge := hostbridge.NewSSEBridge(sseManager, relayer, 5*time.Second, log)
	gate := permission.NewGate(permission.Config{
		Required: []string{"http://127.0.0.1*"},
		Optional: []string{permission.AllURLs},
	}, repo, bridge, log)

	client := ai.New(ai.Config{
		DefaultBaseURL: baseURL,
		Model:          "gpt-4o-mini",
		Timeout:        5 * time.Second,
		RPS:            100,
		Burst:          100,
	}, relayer, rand.New(rand.NewPCG(1, 2)), log)
	t.Cleanup(client.Close)

	searchService := service.NewSearchService(index, log)
	variants := service.NewVariantService(repo, ids, searchService, sseManager, log)
	posts := service.NewPostService(repo, repo, variants, searchService, ids, sseManager, log)
	folders := service.NewFolderService(repo, posts, ids, sseManager, log)
	settings := service.NewSettingsService(repo, sealer, baseURL, sseManager, log)
	settings.OnChange(client.Invalidate)
	prompts := catalog.New(settings, log)

	services := &Services{
		Posts:        posts,
		Variants:     variants,
		Folders:      folders,
		Settings:     settings,
		Search:       searchService,
		Orchestrator: service.NewOrchestrator(posts, variants, prompts, settings, gate, client, sseManager, log),
		Prompts:      prompts,
		Gate:         gate,
		Bridge:       bridge,
	}

	s := NewServer(services, sseManager, opts, log)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	return &testServer{
		Server:   s,
		api:      humatest.Wrap(t, s.API()),
		llm:      llm,
		services: services,
	}
}

// configureKey stores an OpenAI key through the API.
func (ts *testServer) configureKey(t *testing.T) {
	t.Helper()
	resp := ts.api.Patch("/api/v1/settings", map[string]any{"openai_api_key": "sk-test-1234567890"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

// createPost creates a post through the API and returns its id.
func (ts *testServer) createPost(t *testing.T, content string) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/posts", map[string]any{"source_content": content})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[postJSON](t, resp).Data.ID
}

type postJSON struct {
	ID            string   `json:"id"`
	FolderID      *string  `json:"folder_id"`
	SourceContent string   `json:"source_content"`
	Status        string   `json:"status"`
	Tags          []string `json:"tags"`
	PublishedAt   *string  `json:"published_at"`
}

type variantJSON struct {
	ID             string  `json:"id"`
	PostID         string  `json:"post_id"`
	Type           string  `json:"type"`
	Language       *string `json:"language"`
	PromptTemplate *string `json:"prompt_template"`
	Content        string  `json:"content"`
	AIConfidence   int     `json:"ai_confidence"`
	IsSelected     bool    `json:"is_selected"`
}
