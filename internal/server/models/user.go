package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID
	UserName string
	PassHash []byte
	// SyncEnabled is the owner's preference for mirroring uploads to the
	// external storage provider.
	SyncEnabled bool
	CreatedAt   time.Time
}
