// Package common contains shared constants and sentinel errors used across
// FileVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Authorization errors.
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// Access-level / share-token lifecycle errors.
	ErrInvalidAccessLevel = errors.New("invalid access level")
	ErrMissingExpiry      = errors.New("expiry hours required for timed access")
	ErrTokenNotFound      = errors.New("share token not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrLinkExpired        = errors.New("share link expired")
	ErrLinkNotAvailable   = errors.New("share link not available for private file")

	// Folder errors.
	ErrDuplicateName  = errors.New("folder name already exists")
	ErrFolderNotOwned = errors.New("folder not owned by requester")

	// Sync errors.
	ErrSyncDisabled     = errors.New("external sync is disabled")
	ErrLocalCopyMissing = errors.New("local file copy is missing")
	ErrRemoteUpload     = errors.New("remote upload failed")

	// Generic flow control.
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
)
