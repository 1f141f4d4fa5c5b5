package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type folderResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toFolderResponse(f *models.Folder) folderResponse {
	return folderResponse{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt}
}

type folderNameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}

	var req folderNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, common.ErrValidation)
		return
	}

	folder, err := h.folders.Create(r.Context(), userID, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFolderResponse(folder))
}

func (h *Handler) handleListFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}

	fs, err := h.folders.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]folderResponse, 0, len(fs))
	for _, f := range fs {
		out = append(out, toFolderResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListFolderFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}
	folderID, err := uuid.Parse(chi.URLParam(r, "folderID"))
	if err != nil {
		h.writeError(w, r, common.ErrNotFound)
		return
	}

	fs, err := h.folders.ListFiles(r.Context(), folderID, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponses(fs))
}

func (h *Handler) handleRenameFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}
	folderID, err := uuid.Parse(chi.URLParam(r, "folderID"))
	if err != nil {
		h.writeError(w, r, common.ErrNotFound)
		return
	}

	var req folderNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, common.ErrValidation)
		return
	}

	if err := h.folders.Rename(r.Context(), folderID, userID, req.Name); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}
	folderID, err := uuid.Parse(chi.URLParam(r, "folderID"))
	if err != nil {
		h.writeError(w, r, common.ErrNotFound)
		return
	}

	if err := h.folders.Delete(r.Context(), folderID, userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
