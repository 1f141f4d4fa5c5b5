package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/server/auth"
	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "userID"

// authenticate validates the Bearer token and stores the requester id in the
// request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.writeError(w, r, common.ErrUnauthorized)
			return
		}

		raw, err := auth.GetUserIDFromToken(token, []byte(h.config.SecretKey))
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			h.writeError(w, r, common.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func requesterID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(userIDKey).(uuid.UUID)
	return id, ok
}
