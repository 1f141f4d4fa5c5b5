// Package web exposes the service layer over HTTP. Routes are mounted with
// chi; authenticated endpoints expect a Bearer token issued by the login
// endpoint, and share links resolve without authentication.
package web

import (
	"net/http"
	"net/url"
	"time"

	"github.com/avolkov/filevault/internal/logging"
	"github.com/avolkov/filevault/internal/server/config"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/avolkov/filevault/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type Handler struct {
	config  *config.Config
	logger  logging.Logger
	users   *services.UserService
	files   *services.FileService
	folders *services.FolderService
	access  *services.AccessService
	sync    *services.SyncService
}

func NewHandler(cfg *config.Config, logger logging.Logger,
	users *services.UserService, files *services.FileService,
	folders *services.FolderService, access *services.AccessService,
	sync *services.SyncService) *Handler {
	return &Handler{
		config:  cfg,
		logger:  logger.With("component", "web"),
		users:   users,
		files:   files,
		folders: folders,
		access:  access,
		sync:    sync,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)

	// anonymous share-link resolution
	r.Get("/share/{token}", h.handleShareDownload)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/api/files", h.handleListFiles)
		r.Post("/api/files", h.handleUpload)
		r.Get("/api/files/{fileID}/download", h.handleDownload)
		r.Get("/api/files/by-name/{name}/download", h.handleDownloadByName)
		r.Patch("/api/files/{fileID}/access", h.handleSetAccess)
		r.Get("/api/files/{fileID}/link", h.handleShareLink)
		r.Post("/api/files/{fileID}/share", h.handleShareWith)
		r.Post("/api/files/{fileID}/sync", h.handleSync)

		r.Post("/api/folders", h.handleCreateFolder)
		r.Get("/api/folders", h.handleListFolders)
		r.Get("/api/folders/{folderID}/files", h.handleListFolderFiles)
		r.Patch("/api/folders/{folderID}", h.handleRenameFolder)
		r.Delete("/api/folders/{folderID}", h.handleDeleteFolder)

		r.Get("/api/profile/sync", h.handleGetSyncPreference)
		r.Put("/api/profile/sync", h.handleSetSyncPreference)
	})

	return r
}

// shareLink builds the public URL for a token under the configured base.
func (h *Handler) shareLink(token string) string {
	link, err := url.JoinPath(h.config.ShareLinkBase, "share", token)
	if err != nil {
		return h.config.ShareLinkBase + "/share/" + token
	}
	return link
}

type fileResponse struct {
	ID                uuid.UUID          `json:"id"`
	Name              string             `json:"name"`
	FolderID          *uuid.UUID         `json:"folder_id,omitempty"`
	Size              int64              `json:"size"`
	MIMEType          string             `json:"mime_type"`
	UploadedAt        time.Time          `json:"uploaded_at"`
	AccessLevel       models.AccessLevel `json:"access_level"`
	ShareTokenExpires *time.Time         `json:"share_token_expires,omitempty"`
	DownloadCount     int64              `json:"download_count"`
	SyncState         models.SyncState   `json:"sync_state"`
	ExternalLink      *string            `json:"external_link,omitempty"`
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:                f.ID,
		Name:              f.Name,
		FolderID:          f.FolderID,
		Size:              f.Size,
		MIMEType:          f.MIMEType,
		UploadedAt:        f.UploadedAt,
		AccessLevel:       f.Access,
		ShareTokenExpires: f.ShareTokenExpires,
		DownloadCount:     f.DownloadCount,
		SyncState:         f.SyncState,
		ExternalLink:      f.ExternalLink,
	}
}

func toFileResponses(fs []*models.File) []fileResponse {
	out := make([]fileResponse, 0, len(fs))
	for _, f := range fs {
		out = append(out, toFileResponse(f))
	}
	return out
}
