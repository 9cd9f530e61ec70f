package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polypost/polypost-server/internal/ai"
	"github.com/polypost/polypost-server/internal/catalog"
	"github.com/polypost/polypost-server/internal/config"
	"github.com/polypost/polypost-server/internal/domain"
	"github.com/polypost/polypost-server/internal/id"
	"github.com/polypost/polypost-server/internal/logger"
	"github.com/polypost/polypost-server/internal/permission"
	"github.com/polypost/polypost-server/internal/search"
	"github.com/polypost/polypost-server/internal/secret"
	"github.com/polypost/polypost-server/internal/sse"
	"github.com/polypost/polypost-server/internal/store"
)

// recordingEmitter keeps every emitted event.
type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
	onEmit func(sse.Event)
}

func (r *recordingEmitter) Emit(e sse.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	hook := r.onEmit
	r.mu.Unlock()
	if hook != nil {
		hook(e)
	}
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func (r *recordingEmitter) progress() []sse.ProgressEventData {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sse.ProgressEventData
	for _, e := range r.events {
		if p, ok := e.Data.(sse.ProgressEventData); ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *recordingEmitter) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// fakeTransformer answers polish and translate calls from functions.
type fakeTransformer struct {
	mu         sync.Mutex
	polish     func(content, instruction string) (ai.Result, error)
	translate  func(content string, target domain.Language) (ai.Result, error)
	calls      int
	lastCreds  domain.Credentials
	translated []domain.Language
}

func (f *fakeTransformer) Polish(_ context.Context, content, instruction string, creds domain.Credentials) (ai.Result, error) {
	f.mu.Lock()
	f.calls++
	f.lastCreds = creds
	f.mu.Unlock()
	if f.polish == nil {
		return ai.Result{Content: "polished", Confidence: 92, Description: "Polished content"}, nil
	}
	return f.polish(content, instruction)
}

func (f *fakeTransformer) Translate(_ context.Context, content string, target domain.Language, creds domain.Credentials) (ai.Result, error) {
	f.mu.Lock()
	f.calls++
	f.lastCreds = creds
	f.translated = append(f.translated, target)
	f.mu.Unlock()
	if f.translate == nil {
		return ai.Result{Content: string(target) + ": " + content, Confidence: 95, Description: "Accurate translation to " + target.FullName()}, nil
	}
	return f.translate(content, target)
}

// fakeConsent answers permission requests with a fixed decision.
type fakeConsent struct {
	mu      sync.Mutex
	granted bool
	calls   int
}

func (f *fakeConsent) RequestPermission(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.granted, nil
}

type testEnv struct {
	local, sync *store.MemoryKV
	repo        *store.Repository
	events      *recordingEmitter
	transformer *fakeTransformer
	consent     *fakeConsent

	search   *SearchService
	variants *VariantService
	posts    *PostService
	folders  *FolderService
	settings *SettingsService
	catalog  *catalog.Catalog
	gate     *permission.Gate
	orch     *Orchestrator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		local:       store.NewMemoryKV(),
		sync:        store.NewMemoryKV(),
		events:      &recordingEmitter{},
		transformer: &fakeTransformer{},
		consent:     &fakeConsent{},
	}
	e.repo = store.NewRepository(e.local, e.sync)
	require.NoError(t, e.repo.Open(context.Background()))

	log := logger.Discard()
	ids := id.NanoGenerator{}

	index, err := search.Open(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	sealer, err := secret.NewSealer(make([]byte, 32))
	require.NoError(t, err)

	e.search = NewSearchService(index, log)
	e.variants = NewVariantService(e.repo, ids, e.search, e.events, log)
	e.posts = NewPostService(e.repo, e.repo, e.variants, e.search, ids, e.events, log)
	e.folders = NewFolderService(e.repo, e.posts, ids, e.events, log)
	e.settings = NewSettingsService(e.repo, sealer, config.DefaultOpenAIBaseURL, e.events, log)
	e.catalog = catalog.New(e.settings, log)
	e.gate = permission.NewGate(permission.Config{
		Required: []string{"https://api.openai.com/*"},
		Optional: []string{permission.AllURLs},
	}, e.repo, e.consent, log)
	e.orch = NewOrchestrator(e.posts, e.variants, e.catalog, e.settings, e.gate, e.transformer, e.events, log)

	return e
}

// withOpenAIKey configures the default provider.
func (e *testEnv) withOpenAIKey(t *testing.T) {
	t.Helper()
	key := "sk-test-key"
	_, err := e.settings.Update(context.Background(), UpdateSettingsRequest{OpenAIAPIKey: &key})
	require.NoError(t, err)
}

// withCustomProvider configures a custom endpoint.
func (e *testEnv) withCustomProvider(t *testing.T, baseURL string) {
	t.Helper()
	provider := domain.ProviderCustom
	key := "custom-key"
	_, err := e.settings.Update(context.Background(), UpdateSettingsRequest{
		Provider:     &provider,
		CustomAPIURL: &baseURL,
		CustomAPIKey: &key,
	})
	require.NoError(t, err)
}

func (e *testEnv) createPost(t *testing.T, content string) *domain.Post {
	t.Helper()
	p, err := e.posts.Create(context.Background(), CreatePostRequest{SourceContent: content})
	require.NoError(t, err)
	return p
}

func (e *testEnv) storedVariants(t *testing.T) []*domain.Variant {
	t.Helper()
	vs, err := e.repo.GetVariants(context.Background())
	require.NoError(t, err)
	return vs
}

// requireSingleSelection checks that no post has more than one selected variant.
func requireSingleSelection(t *testing.T, variants []*domain.Variant) {
	t.Helper()
	selected := make(map[string]int)
	for _, v := range variants {
		if v.IsSelected {
			selected[v.PostID]++
		}
	}
	for postID, n := range selected {
		require.LessOrEqualf(t, n, 1, "post %s has %d selected variants", postID, n)
	}
}
