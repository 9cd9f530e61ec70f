package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polypost/polypost-server/internal/domain"
	domainerrors "github.com/polypost/polypost-server/internal/errors"
	"github.com/polypost/polypost-server/internal/sse"
	"github.com/polypost/polypost-server/internal/store"
)

func addPolish(t *testing.T, e *testEnv, postID, content string) *domain.Variant {
	t.Helper()
	v, err := e.variants.Add(context.Background(), domain.NewVariant{
		PostID:         postID,
		Type:           domain.VariantTypePolish,
		PromptTemplate: "professional",
		Content:        content,
		AIConfidence:   92,
		Description:    "Polished content",
	})
	require.NoError(t, err)
	return v
}

func TestVariantService_Add(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	v := addPolish(t, e, "post-1", "hi")
	assert.NotEmpty(t, v.ID)
	assert.False(t, v.IsSelected)
	assert.False(t, v.CreatedAt.IsZero())
	require.NotNil(t, v.PromptTemplate)
	assert.Equal(t, "professional", *v.PromptTemplate)
	assert.Nil(t, v.Language)

	tr, err := e.variants.Add(ctx, domain.NewVariant{
		PostID:   "post-1",
		Type:     domain.VariantTypeTranslation,
		Language: domain.LanguageFrench,
		Content:  "salut",
	})
	require.NoError(t, err)
	require.NotNil(t, tr.Language)
	assert.Equal(t, domain.LanguageFrench, *tr.Language)
	assert.Nil(t, tr.PromptTemplate)

	assert.Len(t, e.storedVariants(t), 2)
	assert.Equal(t, []sse.EventType{sse.EventVariantCreated, sse.EventVariantCreated}, e.events.types())
}

func TestVariantService_Add_Rejects(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		nv   domain.NewVariant
	}{
		{"no post", domain.NewVariant{Type: domain.VariantTypePolish, PromptTemplate: "x"}},
		{"translation without language", domain.NewVariant{PostID: "p", Type: domain.VariantTypeTranslation}},
		{"translation with unknown language", domain.NewVariant{PostID: "p", Type: domain.VariantTypeTranslation, Language: "xx"}},
		{"polish without prompt", domain.NewVariant{PostID: "p", Type: domain.VariantTypePolish}},
		{"unknown type", domain.NewVariant{PostID: "p", Type: "summary"}},
		{"confidence out of range", domain.NewVariant{PostID: "p", Type: domain.VariantTypePolish, PromptTemplate: "x", AIConfidence: 101}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.variants.Add(ctx, tt.nv)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
	assert.Empty(t, e.storedVariants(t))
}

func TestVariantService_Select_MovesSelection(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	a1 := addPolish(t, e, "post-a", "a1")
	a2 := addPolish(t, e, "post-a", "a2")
	a3 := addPolish(t, e, "post-a", "a3")
	b1 := addPolish(t, e, "post-b", "b1")

	require.NoError(t, e.variants.Select(ctx, b1.ID))
	require.NoError(t, e.variants.Select(ctx, a1.ID))
	requireSingleSelection(t, e.storedVariants(t))

	require.NoError(t, e.variants.Select(ctx, a2.ID))
	requireSingleSelection(t, e.storedVariants(t))

	selected, ok, err := e.variants.Selected(ctx, "post-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a2.ID, selected.ID)

	byID := map[string]bool{}
	for _, v := range e.storedVariants(t) {
		byID[v.ID] = v.IsSelected
	}
	assert.False(t, byID[a1.ID])
	assert.True(t, byID[a2.ID])
	assert.False(t, byID[a3.ID])
	assert.True(t, byID[b1.ID], "other posts are untouched")
}

func TestVariantService_Select_UnknownIsNoop(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	v := addPolish(t, e, "post-a", "a1")
	require.NoError(t, e.variants.Select(ctx, v.ID))
	e.events.reset()

	require.NoError(t, e.variants.Select(ctx, "var-missing"))
	assert.Empty(t, e.events.types())

	selected, ok, err := e.variants.Selected(ctx, "post-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, v.ID, selected.ID)
}

func TestVariantService_Select_SingleWrite(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	v1 := addPolish(t, e, "post-a", "a1")
	addPolish(t, e, "post-a", "a2")
	require.NoError(t, e.variants.Select(ctx, v1.ID))

	var writes int
	e.local.FailSet = func(key string) error {
		if key == store.KeyVariants {
			writes++
		}
		return nil
	}

	all := e.storedVariants(t)
	require.NoError(t, e.variants.Select(ctx, all[1].ID))
	assert.Equal(t, 1, writes)
}

func TestVariantService_Select_FailedWriteKeepsState(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	v1 := addPolish(t, e, "post-a", "a1")
	v2 := addPolish(t, e, "post-a", "a2")
	require.NoError(t, e.variants.Select(ctx, v1.ID))

	boom := errors.New("disk full")
	e.local.FailSet = func(key string) error {
		if key == store.KeyVariants {
			return boom
		}
		return nil
	}

	err := e.variants.Select(ctx, v2.ID)
	require.ErrorIs(t, err, boom)

	selected, ok, err := e.variants.Selected(ctx, "post-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, v1.ID, selected.ID)
}

func TestVariantService_Delete(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	v1 := addPolish(t, e, "post-a", "a1")
	v2 := addPolish(t, e, "post-a", "a2")
	require.NoError(t, e.variants.Select(ctx, v2.ID))

	require.NoError(t, e.variants.Delete(ctx, v2.ID))

	_, ok, err := e.variants.Selected(ctx, "post-a")
	require.NoError(t, err)
	assert.False(t, ok, "no replacement is selected")

	remaining, err := e.variants.ListByPost(ctx, "post-a")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, v1.ID, remaining[0].ID)

	err = e.variants.Delete(ctx, v2.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestVariantService_ListByPost_NewestFirst(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	first := addPolish(t, e, "post-a", "first")
	time.Sleep(2 * time.Millisecond)
	second := addPolish(t, e, "post-a", "second")
	addPolish(t, e, "post-b", "other")
	time.Sleep(2 * time.Millisecond)
	third := addPolish(t, e, "post-a", "third")

	list, err := e.variants.ListByPost(ctx, "post-a")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	empty, err := e.variants.ListByPost(ctx, "post-none")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestByPostNewestFirst_TiesKeepReverseInsertion(t *testing.T) {
	ts := time.Now()
	all := []*domain.Variant{
		{ID: "a", PostID: "p", CreatedAt: ts},
		{ID: "b", PostID: "p", CreatedAt: ts},
		{ID: "c", PostID: "q", CreatedAt: ts},
	}
	out := byPostNewestFirst(all, "p")
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "a", out[1].ID)
}

func TestVariantService_DeleteByPost(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	a := addPolish(t, e, "post-a", "a1")
	addPolish(t, e, "post-b", "b1")

	removed, err := e.variants.DeleteByPost(ctx, "post-a")
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, removed)

	all := e.storedVariants(t)
	require.Len(t, all, 1)
	assert.Equal(t, "post-b", all[0].PostID)

	removed, err = e.variants.DeleteByPost(ctx, "post-a")
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestVariantService_InvariantAcrossSequences(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	var ids []string
	for i := range 5 {
		postID := "post-a"
		if i%2 == 1 {
			postID = "post-b"
		}
		ids = append(ids, addPolish(t, e, postID, "x").ID)
		requireSingleSelection(t, e.storedVariants(t))
	}

	ops := []func() error{
		func() error { return e.variants.Select(ctx, ids[0]) },
		func() error { return e.variants.Select(ctx, ids[1]) },
		func() error { return e.variants.Select(ctx, ids[2]) },
		func() error { return e.variants.Delete(ctx, ids[2]) },
		func() error { return e.variants.Select(ctx, ids[4]) },
		func() error { return e.variants.Select(ctx, ids[3]) },
		func() error { return e.variants.Select(ctx, ids[0]) },
	}
	for _, op := range ops {
		require.NoError(t, op())
		requireSingleSelection(t, e.storedVariants(t))
	}
}
