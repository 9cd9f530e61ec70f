package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/polypost/polypost-server/internal/domain"
	"github.com/polypost/polypost-server/internal/service"
)

func (s *Server) registerFolderRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFolders",
		Method:      http.MethodGet,
		Path:        "/api/v1/folders",
		Summary:     "List folders",
		Tags:        []string{"Folders"},
	}, s.handleListFolders)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createFolder",
		Method:        http.MethodPost,
		Path:          "/api/v1/folders",
		Summary:       "Create folder",
		Description:   "Creates a folder. Without a color the first unused palette color is picked.",
		Tags:          []string{"Folders"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFolder",
		Method:      http.MethodGet,
		Path:        "/api/v1/folders/{id}",
		Summary:     "Get folder",
		Tags:        []string{"Folders"},
	}, s.handleGetFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateFolder",
		Method:      http.MethodPatch,
		Path:        "/api/v1/folders/{id}",
		Summary:     "Update folder",
		Tags:        []string{"Folders"},
	}, s.handleUpdateFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteFolder",
		Method:      http.MethodDelete,
		Path:        "/api/v1/folders/{id}",
		Summary:     "Delete folder",
		Description: "Deletes a folder. Its posts become unfiled.",
		Tags:        []string{"Folders"},
	}, s.handleDeleteFolder)
}

// FolderIDInput identifies a folder.
type FolderIDInput struct {
	ID string `path:"id" doc:"Folder ID"`
}

// ListFoldersResponse contains folders.
type ListFoldersResponse struct {
	Folders []*domain.Folder `json:"folders" doc:"Folders in creation order"`
}

// ListFoldersOutput wraps the list folders response for Huma.
type ListFoldersOutput struct {
	Body ListFoldersResponse
}

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name  string `json:"name" minLength:"1" maxLength:"50" doc:"Folder name"`
	Color string `json:"color,omitempty" doc:"Palette color, e.g. #3B82F6"`
	Icon  string `json:"icon,omitempty" maxLength:"32" doc:"Icon name"`
}

// CreateFolderInput wraps the create folder request for Huma.
type CreateFolderInput struct {
	Body CreateFolderRequest
}

// UpdateFolderInput wraps the update folder request for Huma.
type UpdateFolderInput struct {
	ID   string `path:"id" doc:"Folder ID"`
	Body service.UpdateFolderRequest
}

// FolderOutput wraps a folder for Huma.
type FolderOutput struct {
	Body *domain.Folder
}

func (s *Server) handleListFolders(ctx context.Context, _ *struct{}) (*ListFoldersOutput, error) {
	folders, err := s.services.Folders.List(ctx)
	if err != nil {
		return nil, err
	}
	return &ListFoldersOutput{Body: ListFoldersResponse{Folders: folders}}, nil
}

func (s *Server) handleCreateFolder(ctx context.Context, input *CreateFolderInput) (*FolderOutput, error) {
	f, err := s.services.Folders.Create(ctx, service.CreateFolderRequest{
		Name:  input.Body.Name,
		Color: input.Body.Color,
		Icon:  input.Body.Icon,
	})
	if err != nil {
		return nil, err
	}
	return &FolderOutput{Body: f}, nil
}

func (s *Server) handleGetFolder(ctx context.Context, input *FolderIDInput) (*FolderOutput, error) {
	f, err := s.services.Folders.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &FolderOutput{Body: f}, nil
}

func (s *Server) handleUpdateFolder(ctx context.Context, input *UpdateFolderInput) (*FolderOutput, error) {
	f, err := s.services.Folders.Update(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &FolderOutput{Body: f}, nil
}

func (s *Server) handleDeleteFolder(ctx context.Context, input *FolderIDInput) (*MessageOutput, error) {
	if err := s.services.Folders.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return message("Folder deleted"), nil
}
