package folders

import (
	"context"

	"github.com/avolkov/filevault/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Folder, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Folder, error)
	Rename(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
