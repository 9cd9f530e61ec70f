// Package service holds the PolyPost use cases: posts and their variants,
// folders, settings, and the orchestration of polish and translate calls.
package service

import (
	"context"

	"github.com/polypost/polypost-server/internal/domain"
)

// PostRepository persists the post collection.
type PostRepository interface {
	GetPosts(ctx context.Context) ([]*domain.Post, error)
	SavePosts(ctx context.Context, posts []*domain.Post) error
}

// VariantRepository persists the variant collection.
type VariantRepository interface {
	GetVariants(ctx context.Context) ([]*domain.Variant, error)
	SaveVariants(ctx context.Context, variants []*domain.Variant) error
}

// FolderRepository persists the folder collection.
type FolderRepository interface {
	GetFolders(ctx context.Context) ([]*domain.Folder, error)
	SaveFolders(ctx context.Context, folders []*domain.Folder) error
}

// SettingsRepository persists the settings object. GetSettings returns nil
// when nothing was saved yet.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (*domain.Settings, error)
	SaveSettings(ctx context.Context, settings *domain.Settings) error
}
