package services

import (
	"context"
	"database/sql"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/dbx"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/avolkov/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// FolderService owns folder organization. Folder names are unique per owner.
type FolderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewFolderService(db *sql.DB, m repomanager.RepositoryManager) *FolderService {
	return &FolderService{db: db, repomanager: m}
}

func (s *FolderService) Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.Folder, error) {
	if name == "" {
		return nil, common.ErrValidation
	}
	return s.repomanager.Folders(s.db).Create(ctx, &models.Folder{OwnerID: ownerID, Name: name})
}

func (s *FolderService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Folder, error) {
	return s.repomanager.Folders(s.db).ListForOwner(ctx, ownerID)
}

// ListFiles returns the files in a folder. The requester must own the folder.
func (s *FolderService) ListFiles(ctx context.Context, folderID, requesterID uuid.UUID) ([]*models.File, error) {
	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.OwnerID != requesterID {
		return nil, common.ErrForbidden
	}
	return s.repomanager.Files(s.db).ListByFolder(ctx, folderID)
}

func (s *FolderService) Rename(ctx context.Context, folderID, requesterID uuid.UUID, name string) error {
	if name == "" {
		return common.ErrValidation
	}
	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if folder.OwnerID != requesterID {
		return common.ErrForbidden
	}
	return s.repomanager.Folders(s.db).Rename(ctx, folderID, name)
}

// Delete removes a folder. Files inside it are detached, not deleted; the
// detach and the folder removal happen in one transaction.
func (s *FolderService) Delete(ctx context.Context, folderID, requesterID uuid.UUID) error {
	folder, err := s.repomanager.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return err
	}
	if folder.OwnerID != requesterID {
		return common.ErrForbidden
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Files(tx).ClearFolder(ctx, folderID); err != nil {
			return err
		}
		return s.repomanager.Folders(tx).Delete(ctx, folderID)
	})
}
