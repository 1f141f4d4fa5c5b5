package web

import (
	"encoding/json"
	"net/http"

	"github.com/avolkov/filevault/internal/common"
)

type syncPreferenceBody struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) handleGetSyncPreference(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}

	enabled, err := h.users.SyncPreference(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, syncPreferenceBody{Enabled: enabled})
}

func (h *Handler) handleSetSyncPreference(w http.ResponseWriter, r *http.Request) {
	userID, ok := requesterID(r)
	if !ok {
		h.writeError(w, r, common.ErrUnauthorized)
		return
	}

	var req syncPreferenceBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, common.ErrValidation)
		return
	}

	if err := h.users.SetSyncPreference(r.Context(), userID, req.Enabled); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
