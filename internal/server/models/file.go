// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/google/uuid"
)

// AccessLevel is the sharing policy attached to a file. It is a closed set;
// anything outside the three constants below is rejected before it can reach
// storage.
type AccessLevel string

const (
	// AccessPrivate: only the owner and users in SharedWith can read.
	AccessPrivate AccessLevel = "private"
	// AccessAnyoneWithLink: anyone presenting the share token can read.
	AccessAnyoneWithLink AccessLevel = "anyone_with_link"
	// AccessTimedAccess: like AccessAnyoneWithLink, but the token expires.
	AccessTimedAccess AccessLevel = "timed_access"
)

// Valid reports whether l is one of the known access levels.
func (l AccessLevel) Valid() bool {
	switch l {
	case AccessPrivate, AccessAnyoneWithLink, AccessTimedAccess:
		return true
	}
	return false
}

// Shared reports whether l grants link-based access and therefore requires
// a share token.
func (l AccessLevel) Shared() bool {
	return l == AccessAnyoneWithLink || l == AccessTimedAccess
}

// SyncState is the mirroring status of a file's remote copy on the external
// storage provider.
type SyncState string

const (
	SyncNotSynced SyncState = "not_synced"
	SyncPending   SyncState = "pending"
	SyncSynced    SyncState = "synced"
	SyncFailed    SyncState = "failed"
)

// Valid reports whether s is one of the known sync states.
func (s SyncState) Valid() bool {
	switch s {
	case SyncNotSynced, SyncPending, SyncSynced, SyncFailed:
		return true
	}
	return false
}

// ExternalRef identifies a file's mirrored copy on the external provider.
// It is only trustworthy while the file's SyncState is SyncSynced.
type ExternalRef struct {
	ID   string
	Link string
}

// File describes an uploaded file: its local blob, sharing policy and the
// state of its mirrored copy.
//
// Invariants maintained by the service layer:
//   - ShareToken is non-nil iff Access is a shared level; nil when private.
//   - ShareTokenExpires is non-nil iff Access is AccessTimedAccess.
//   - DownloadCount never decreases.
//   - FolderID, when set, references a folder owned by OwnerID.
type File struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	// FolderID is nil for unfiled files.
	FolderID *uuid.UUID

	Name       string
	Path       string
	Size       int64
	MIMEType   string
	UploadedAt time.Time

	// SharedWith lists users granted explicit read access.
	SharedWith []uuid.UUID

	Access            AccessLevel
	ShareToken        *string
	ShareTokenExpires *time.Time

	DownloadCount int64

	SyncState    SyncState
	ExternalID   *string
	ExternalLink *string
}

// SharedWithUser reports whether userID has an explicit read grant.
func (f *File) SharedWithUser(userID uuid.UUID) bool {
	for _, id := range f.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// ExternalRefValue returns the external ref, or nil when either half is unset.
func (f *File) ExternalRefValue() *ExternalRef {
	if f.ExternalID == nil || f.ExternalLink == nil {
		return nil
	}
	return &ExternalRef{ID: *f.ExternalID, Link: *f.ExternalLink}
}
