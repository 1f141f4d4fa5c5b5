package users

import (
	"context"

	"github.com/avolkov/filevault/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByLogin(ctx context.Context, userName string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetSyncEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
}
