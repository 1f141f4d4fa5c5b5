// Package services contains server-side business logic: the access-level
// state machine, the external-sync state machine, and the file/folder/user
// registries built on top of the repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/avolkov/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// shareTokenBytes is the entropy of a share token; the hex form is twice as
// many characters.
const shareTokenBytes = 16

// LinkBuilder turns a share token into a full shareable URL. The token is
// the only thing persisted; the URL shape belongs to the transport.
type LinkBuilder func(token string) string

// AccessService owns the access-level state machine and the share-token
// lifecycle of a file.
type AccessService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewAccessService(db *sql.DB, m repomanager.RepositoryManager) *AccessService {
	return &AccessService{db: db, repomanager: m}
}

// SetAccessLevel moves a file to the requested access level. Only the owner
// may change access. Entering a shared level always mints a fresh token, so
// previously distributed links stop resolving. The level, token and expiry
// are committed in a single write.
func (s *AccessService) SetAccessLevel(ctx context.Context, fileID, requesterID uuid.UUID, level models.AccessLevel, expiryHours int) (*models.File, error) {
	repo := s.repomanager.Files(s.db)

	f, err := repo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f.OwnerID != requesterID {
		return nil, common.ErrForbidden
	}
	if !level.Valid() {
		return nil, common.ErrInvalidAccessLevel
	}

	var token *string
	var expires *time.Time

	if level.Shared() {
		if level == models.AccessTimedAccess {
			if expiryHours <= 0 {
				return nil, common.ErrMissingExpiry
			}
			e := time.Now().Add(time.Duration(expiryHours) * time.Hour)
			expires = &e
		}
		t, err := common.MakeRandHexString(shareTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("token generation: %w", err)
		}
		token = &t
	}

	if err := repo.UpdateAccess(ctx, fileID, level, token, expires); err != nil {
		return nil, err
	}

	f.Access = level
	f.ShareToken = token
	f.ShareTokenExpires = expires
	return f, nil
}

// ResolveShareToken resolves an anonymous share link. An expired timed link
// is durably downgraded to private before ErrLinkExpired is reported, so the
// same token can never succeed later: a second resolution attempt sees
// ErrTokenNotFound.
func (s *AccessService) ResolveShareToken(ctx context.Context, token string, now time.Time) (*models.File, error) {
	repo := s.repomanager.Files(s.db)

	f, err := repo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if f.Access == models.AccessPrivate {
		// The token row survived a rollback to private; treat it as stale.
		return nil, common.ErrAccessDenied
	}

	if f.Access == models.AccessTimedAccess && f.ShareTokenExpires != nil && f.ShareTokenExpires.Before(now) {
		if err := repo.RevokeShareToken(ctx, token); err != nil && !errors.Is(err, common.ErrTokenNotFound) {
			return nil, err
		}
		return nil, common.ErrLinkExpired
	}

	return f, nil
}

// AuthorizeDirectAccess checks authenticated access: the owner and users
// with an explicit grant may always read, regardless of the link settings.
func (s *AccessService) AuthorizeDirectAccess(file *models.File, requesterID uuid.UUID) error {
	if file.OwnerID == requesterID || file.SharedWithUser(requesterID) {
		return nil
	}
	return common.ErrForbidden
}

// GenerateShareLink builds a shareable URL for the file's current token.
// The file must already be in a shared access level.
func (s *AccessService) GenerateShareLink(ctx context.Context, fileID, requesterID uuid.UUID, build LinkBuilder) (string, error) {
	repo := s.repomanager.Files(s.db)

	f, err := repo.GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	if f.OwnerID != requesterID {
		return "", common.ErrForbidden
	}
	if f.Access == models.AccessPrivate || f.ShareToken == nil {
		return "", common.ErrLinkNotAvailable
	}

	return build(*f.ShareToken), nil
}
