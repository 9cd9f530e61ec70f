package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/polypost/polypost-server/internal/domain"
	domainerrors "github.com/polypost/polypost-server/internal/errors"
	"github.com/polypost/polypost-server/internal/id"
	"github.com/polypost/polypost-server/internal/sse"
	"github.com/polypost/polypost-server/internal/validation"
)

// FolderService manages folders. Posts reference folders weakly, so deleting
// a folder unfiles its posts instead of deleting them.
type FolderService struct {
	mu        sync.Mutex
	repo      FolderRepository
	posts     *PostService
	ids       id.Generator
	validator *validation.Validator
	emitter   sse.Emitter
	logger    *slog.Logger
}

// NewFolderService creates a new folder service.
func NewFolderService(repo FolderRepository, posts *PostService, ids id.Generator, emitter sse.Emitter, logger *slog.Logger) *FolderService {
	return &FolderService{
		repo:      repo,
		posts:     posts,
		ids:       ids,
		validator: validation.New(),
		emitter:   emitter,
		logger:    logger,
	}
}

// CreateFolderRequest holds the fields of a new folder. An empty color picks
// the first palette color not in use.
type CreateFolderRequest struct {
	Name  string `json:"name" validate:"notblank,max=50"`
	Color string `json:"color,omitempty" validate:"omitempty,folder_color"`
	Icon  string `json:"icon,omitempty" validate:"max=32"`
}

// UpdateFolderRequest is a partial update.
type UpdateFolderRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,notblank,max=50"`
	Color *string `json:"color,omitempty" validate:"omitempty,folder_color"`
	Icon  *string `json:"icon,omitempty" validate:"omitempty,max=32"`
}

// List returns folders in creation order.
func (s *FolderService) List(ctx context.Context) ([]*domain.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.GetFolders(ctx)
}

// Get returns a folder by id.
func (s *FolderService) Get(ctx context.Context, folderID string) (*domain.Folder, error) {
	folders, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOfFolder(folders, folderID); i >= 0 {
		return folders[i], nil
	}
	return nil, domainerrors.NotFoundf("folder %q not found", folderID)
}

// Create adds a folder.
func (s *FolderService) Create(ctx context.Context, req CreateFolderRequest) (*domain.Folder, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	folderID, err := s.ids.Generate(id.PrefixFolder)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate folder id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folders, err := s.repo.GetFolders(ctx)
	if err != nil {
		return nil, err
	}

	color := strings.ToUpper(req.Color)
	if color == "" {
		color = domain.NextFolderColor(folders)
	}

	now := time.Now()
	folder := &domain.Folder{
		ID:        folderID,
		Name:      strings.TrimSpace(req.Name),
		Color:     color,
		Icon:      req.Icon,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.SaveFolders(ctx, append(folders, folder)); err != nil {
		return nil, err
	}

	s.emitter.Emit(sse.NewFolderEvent(sse.EventFolderCreated, folder))
	s.logger.Info("folder created", "folder_id", folder.ID, "color", folder.Color)
	return folder, nil
}

// Update applies a partial update.
func (s *FolderService) Update(ctx context.Context, folderID string, req UpdateFolderRequest) (*domain.Folder, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folders, err := s.repo.GetFolders(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfFolder(folders, folderID)
	if i < 0 {
		return nil, domainerrors.NotFoundf("folder %q not found", folderID)
	}
	folder := folders[i]

	if req.Name != nil {
		folder.Name = strings.TrimSpace(*req.Name)
	}
	if req.Color != nil {
		folder.Color = strings.ToUpper(*req.Color)
	}
	if req.Icon != nil {
		folder.Icon = *req.Icon
	}
	folder.Touch()

	if err := s.repo.SaveFolders(ctx, folders); err != nil {
		return nil, err
	}

	s.emitter.Emit(sse.NewFolderEvent(sse.EventFolderUpdated, folder))
	return folder, nil
}

// Delete removes a folder and unfiles its posts.
func (s *FolderService) Delete(ctx context.Context, folderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	folders, err := s.repo.GetFolders(ctx)
	if err != nil {
		return err
	}
	i := indexOfFolder(folders, folderID)
	if i < 0 {
		return domainerrors.NotFoundf("folder %q not found", folderID)
	}

	// Unfile first so no post is left pointing at a missing folder.
	unfiled, err := s.posts.ClearFolder(ctx, folderID)
	if err != nil {
		return err
	}

	if err := s.repo.SaveFolders(ctx, slices.Delete(folders, i, i+1)); err != nil {
		return err
	}

	s.emitter.Emit(sse.NewFolderDeletedEvent(folderID))
	s.logger.Info("folder deleted", "folder_id", folderID, "posts_unfiled", unfiled)
	return nil
}

func indexOfFolder(folders []*domain.Folder, folderID string) int {
	return slices.IndexFunc(folders, func(f *domain.Folder) bool { return f.ID == folderID })
}
