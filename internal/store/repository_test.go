package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polypost/polypost-server/internal/domain"
	"github.com/polypost/polypost-server/internal/store"
)

func newBadger(t *testing.T) *store.BadgerKV {
	t.Helper()
	kv, err := store.OpenBadger(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestBadgerKV_RoundTrip(t *testing.T) {
	kv := newBadger(t)
	ctx := context.Background()

	var out []string
	found, err := kv.Get(ctx, "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, kv.Set(ctx, "k", []string{"a", "b"}))
	found, err = kv.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, out)

	require.NoError(t, kv.Delete(ctx, "k"))
	found, err = kv.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBadgerKV_CancelledContext(t *testing.T) {
	kv := newBadger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, kv.Set(ctx, "k", 1), context.Canceled)
}

func TestEnsureSchema(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	require.NoError(t, store.EnsureSchema(ctx, kv, 1))
	var v int
	found, err := kv.Get(ctx, store.KeySchemaVersion, &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, v)

	require.NoError(t, store.EnsureSchema(ctx, kv, 2))
	_, _ = kv.Get(ctx, store.KeySchemaVersion, &v)
	assert.Equal(t, 2, v)

	assert.ErrorIs(t, store.EnsureSchema(ctx, kv, 1), store.ErrSchemaTooNew)
}

func TestRepository_Collections(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(newBadger(t), store.NewMemoryKV())
	require.NoError(t, repo.Open(ctx))

	posts, err := repo.GetPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.SavePosts(ctx, []*domain.Post{{ID: "post-1", SourceContent: "hi", Status: domain.PostStatusDraft, CreatedAt: now, UpdatedAt: now}}))
	posts, err = repo.GetPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "hi", posts[0].SourceContent)
	assert.True(t, posts[0].CreatedAt.Equal(now))

	lang := domain.LanguageFrench
	require.NoError(t, repo.SaveVariants(ctx, []*domain.Variant{{ID: "var-1", PostID: "post-1", Type: domain.VariantTypeTranslation, Language: &lang}}))
	variants, err := repo.GetVariants(ctx)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, domain.LanguageFrench, *variants[0].Language)

	require.NoError(t, repo.SaveFolders(ctx, nil))
	folders, err := repo.GetFolders(ctx)
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestRepository_SettingsAndGrants(t *testing.T) {
	ctx := context.Background()
	repo := store.NewRepository(store.NewMemoryKV(), store.NewMemoryKV())

	settings, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, settings)

	require.NoError(t, repo.SaveSettings(ctx, domain.DefaultSettings()))
	settings, err = repo.GetSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, domain.ProviderOpenAI, settings.Provider)

	grants, err := repo.GetPermissionGrants(ctx)
	require.NoError(t, err)
	assert.Empty(t, grants)

	require.NoError(t, repo.SavePermissionGrants(ctx, map[string]bool{"https://x.test/*": false}))
	grants, err = repo.GetPermissionGrants(ctx)
	require.NoError(t, err)
	v, ok := grants["https://x.test/*"]
	assert.True(t, ok)
	assert.False(t, v)
}
