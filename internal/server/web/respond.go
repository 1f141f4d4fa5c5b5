package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avolkov/filevault/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps service errors onto HTTP status codes. Unknown errors are
// reported as 500 without leaking the message.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrInvalidAccessLevel),
		errors.Is(err, common.ErrMissingExpiry):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden),
		errors.Is(err, common.ErrAccessDenied),
		errors.Is(err, common.ErrLinkExpired),
		errors.Is(err, common.ErrSyncDisabled):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrTokenNotFound),
		errors.Is(err, common.ErrFolderNotOwned):
		return http.StatusNotFound
	case errors.Is(err, common.ErrDuplicateName),
		errors.Is(err, common.ErrAlreadyExists),
		errors.Is(err, common.ErrLinkNotAvailable):
		return http.StatusConflict
	case errors.Is(err, common.ErrLocalCopyMissing):
		return http.StatusGone
	case errors.Is(err, common.ErrRemoteUpload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", msg)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
