package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/filex"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/avolkov/filevault/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxUploadBytes caps a single multipart upload.
const maxUploadBytes = 512 << 20

func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}

	fs, err := h.files.ListForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponses(fs))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	part, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: missing file part", common.ErrValidation))
		return
	}
	defer part.Close()

	var folderID *uuid.UUID
	if raw := r.FormValue("folder_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: bad folder_id", common.ErrValidation))
			return
		}
		folderID = &id
	}

	dir, err := filex.EnsureSubDir(h.config.UploadDir)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	path, size, err := filex.Store(dir, header.Filename, part)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	f, err := h.files.Register(r.Context(), userID, folderID, services.UploadMeta{
		Name:     header.Filename,
		Path:     path,
		Size:     size,
		MIMEType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(f))
}

func (h *Handler) serveBlob(w http.ResponseWriter, r *http.Request, f *models.File) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	if f.MIMEType != "" {
		w.Header().Set("Content-Type", f.MIMEType)
	}
	http.ServeFile(w, r, f.Path)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		h.writeError(w, r, common.ErrNotFound)
		return
	}

	f, err := h.files.RecordDownload(r.Context(), fileID, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.serveBlob(w, r, f)
}

func (h *Handler) handleDownloadByName(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}

	f, err := h.files.DownloadByName(r.Context(), chi.URLParam(r, "name"), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.serveBlob(w, r, f)
}

func (h *Handler) handleShareDownload(w http.ResponseWriter, r *http.Request) {
	f, err := h.files.DownloadViaShareToken(r.Context(), chi.URLParam(r, "token"), time.Now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.serveBlob(w, r, f)
}

type setAccessRequest struct {
	AccessLevel string `json:"access_level"`
	ExpiryHours int    `json:"expiry_hours"`
}

func (h *Handler) handleSetAccess(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		h.writeError(w, r, common.ErrNotFound)
		return
	}

	var req setAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, common.ErrValidation)
		return
	}

	f, err := h.access.SetAccessLevel(r.Context(), fileID, userID, models.AccessLevel(req.AccessLevel), req.ExpiryHours)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := struct {
		fileResponse
		ShareLink string `json:"share_link,omitempty"`
	}{fileResponse: toFileResponse(f)}
	if f.ShareToken != nil {
		resp.ShareLink = h.shareLink(*f.ShareToken)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleShareLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		h.writeError(w, r, common.ErrNotFound)
		return
	}

	link, err := h.access.GenerateShareLink(r.Context(), fileID, userID, h.shareLink)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ShareLink string `json:"share_link"`
	}{ShareLink: link})
}

type shareWithRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

func (h *Handler) handleShareWith(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		h.writeError(w, r, common.ErrNotFound)
		return
	}

	var req shareWithRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
		h.writeError(w, r, common.ErrValidation)
		return
	}

	if err := h.files.ShareWith(r.Context(), fileID, userID, req.UserID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}
	fileID, err := uuid.Parse(chi.URLParam(r, "fileID"))
	if err != nil {
		h.writeError(w, r, common.ErrNotFound)
		return
	}

	f, err := h.sync.RequestSync(r.Context(), fileID, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(f))
}
