package models

import (
	"time"

	"github.com/google/uuid"
)

// Folder groups files for a single owner. Names are unique per owner,
// case-sensitive.
type Folder struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	CreatedAt time.Time
}
