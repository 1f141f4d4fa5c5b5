// Package storage abstracts the external object-storage provider used to
// mirror local file blobs.
package storage

import (
	"context"

	"github.com/avolkov/filevault/internal/server/models"
)

// Client uploads a local blob to the external provider and returns the
// resulting external ref (remote id + public link). Implementations must
// wrap any provider-side failure in common.ErrRemoteUpload so callers can
// classify it with errors.Is.
type Client interface {
	Upload(ctx context.Context, localPath, fileName, mimeType string) (models.ExternalRef, error)
}
