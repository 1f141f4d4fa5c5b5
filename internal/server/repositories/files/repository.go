package files

import (
	"context"
	"time"

	"github.com/avolkov/filevault/internal/server/models"
	"github.com/google/uuid"
)

// Repository persists file records. Every mutation is atomic per record:
// concurrent writers to the same file never observe partial updates.
type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.File, error)
	// GetByName returns the file with the given name among the files the
	// user owns or has been granted access to.
	GetByName(ctx context.Context, name string, userID uuid.UUID) (*models.File, error)
	GetByShareToken(ctx context.Context, token string) (*models.File, error)
	// ListForUser returns owned and shared-with files in a stable order.
	// SharedWith grants are not populated on listed records.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.File, error)
	ListByFolder(ctx context.Context, folderID uuid.UUID) ([]*models.File, error)

	// UpdateAccess atomically replaces the access level, share token and
	// expiry of a record in one write.
	UpdateAccess(ctx context.Context, id uuid.UUID, access models.AccessLevel, token *string, expires *time.Time) error
	// RevokeShareToken downgrades the record holding token to private and
	// clears token and expiry. Returns ErrTokenNotFound when no record holds
	// the token (e.g. it was rotated by a concurrent writer).
	RevokeShareToken(ctx context.Context, token string) error
	AddShare(ctx context.Context, fileID, userID uuid.UUID) error

	IncrementDownloadCount(ctx context.Context, id uuid.UUID) (int64, error)

	SetSyncState(ctx context.Context, id uuid.UUID, state models.SyncState) error
	// SetSynced transitions to SyncSynced and records the external ref.
	SetSynced(ctx context.Context, id uuid.UUID, ref models.ExternalRef) error

	// ClearFolder detaches all files from a folder (FolderID becomes nil).
	ClearFolder(ctx context.Context, folderID uuid.UUID) error
}
