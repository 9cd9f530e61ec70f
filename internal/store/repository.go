package store

import (
	"context"
	"fmt"

	"github.com/polypost/polypost-server/internal/domain"
)

// Repository maps domain collections onto the two tiers.
// Every method reads or writes a whole collection.
type Repository struct {
	local KV
	sync  KV
}

// NewRepository creates a repository over a local and a sync tier.
func NewRepository(local, sync KV) *Repository {
	return &Repository{local: local, sync: sync}
}

// Open checks the schema version of both tiers.
func (r *Repository) Open(ctx context.Context) error {
	if err := EnsureSchema(ctx, r.local, domain.CurrentSchemaVersion); err != nil {
		return fmt.Errorf("local tier: %w", err)
	}
	if err := EnsureSchema(ctx, r.sync, domain.CurrentSchemaVersion); err != nil {
		return fmt.Errorf("sync tier: %w", err)
	}
	return nil
}

// GetPosts returns all posts.
func (r *Repository) GetPosts(ctx context.Context) ([]*domain.Post, error) {
	var posts []*domain.Post
	if _, err := r.local.Get(ctx, KeyPosts, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// SavePosts replaces all posts.
func (r *Repository) SavePosts(ctx context.Context, posts []*domain.Post) error {
	return r.local.Set(ctx, KeyPosts, nonNil(posts))
}

// GetVariants returns all variants of all posts.
func (r *Repository) GetVariants(ctx context.Context) ([]*domain.Variant, error) {
	var variants []*domain.Variant
	if _, err := r.local.Get(ctx, KeyVariants, &variants); err != nil {
		return nil, err
	}
	return variants, nil
}

// SaveVariants replaces all variants.
func (r *Repository) SaveVariants(ctx context.Context, variants []*domain.Variant) error {
	return r.local.Set(ctx, KeyVariants, nonNil(variants))
}

// GetFolders returns all folders.
func (r *Repository) GetFolders(ctx context.Context) ([]*domain.Folder, error) {
	var folders []*domain.Folder
	if _, err := r.local.Get(ctx, KeyFolders, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// SaveFolders replaces all folders.
func (r *Repository) SaveFolders(ctx context.Context, folders []*domain.Folder) error {
	return r.local.Set(ctx, KeyFolders, nonNil(folders))
}

// GetSettings returns the stored settings, or nil when none were saved yet.
func (r *Repository) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	found, err := r.sync.Get(ctx, KeySettings, &settings)
	if err != nil || !found {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings replaces the settings object.
func (r *Repository) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	return r.sync.Set(ctx, KeySettings, settings)
}

// GetPermissionGrants returns recorded consent decisions by origin pattern.
func (r *Repository) GetPermissionGrants(ctx context.Context) (map[string]bool, error) {
	grants := make(map[string]bool)
	if _, err := r.sync.Get(ctx, KeyPermissionGrants, &grants); err != nil {
		return nil, err
	}
	return grants, nil
}

// SavePermissionGrants replaces the recorded consent decisions.
func (r *Repository) SavePermissionGrants(ctx context.Context, grants map[string]bool) error {
	return r.sync.Set(ctx, KeyPermissionGrants, grants)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
