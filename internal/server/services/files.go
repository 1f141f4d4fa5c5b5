package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/filex"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/avolkov/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// UploadMeta describes a locally stored upload to be registered.
type UploadMeta struct {
	Name     string
	Path     string
	Size     int64
	MIMEType string
}

// FileService owns the file registry: registration, listing, sharing with
// named users, and download bookkeeping.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *AccessService
	sync        *SyncService
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, access *AccessService, sync *SyncService) *FileService {
	return &FileService{db: db, repomanager: m, access: access, sync: sync}
}

// Register records an uploaded file. New files always start private and
// not_synced. When the owner has sync enabled a background mirror attempt is
// enqueued; registration never fails because of the mirror.
func (s *FileService) Register(ctx context.Context, ownerID uuid.UUID, folderID *uuid.UUID, meta UploadMeta) (*models.File, error) {
	if meta.Name == "" || meta.Path == "" {
		return nil, common.ErrValidation
	}

	if folderID != nil {
		folder, err := s.repomanager.Folders(s.db).GetByID(ctx, *folderID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrFolderNotOwned
			}
			return nil, err
		}
		if folder.OwnerID != ownerID {
			return nil, common.ErrFolderNotOwned
		}
	}

	f, err := s.repomanager.Files(s.db).Create(ctx, &models.File{
		OwnerID:  ownerID,
		FolderID: folderID,
		Name:     filex.SanitizeName(meta.Name),
		Path:     meta.Path,
		Size:     meta.Size,
		MIMEType: meta.MIMEType,
	})
	if err != nil {
		return nil, err
	}

	if s.sync != nil {
		owner, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
		if err == nil && owner.SyncEnabled {
			s.sync.Enqueue(f.ID, ownerID)
		}
	}

	return f, nil
}

// ListForUser returns the files the user owns or has been granted access to.
func (s *FileService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.File, error) {
	return s.repomanager.Files(s.db).ListForUser(ctx, userID)
}

// ShareWith grants a named user read access to the file. Only the owner may
// grant, and the grantee must exist.
func (s *FileService) ShareWith(ctx context.Context, fileID, ownerID, granteeID uuid.UUID) error {
	repo := s.repomanager.Files(s.db)

	f, err := repo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if f.OwnerID != ownerID {
		return common.ErrForbidden
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, granteeID); err != nil {
		return err
	}

	return repo.AddShare(ctx, fileID, granteeID)
}

// RecordDownload authorizes an authenticated download by id and bumps the
// download counter. The returned record carries the updated count.
func (s *FileService) RecordDownload(ctx context.Context, fileID, requesterID uuid.UUID) (*models.File, error) {
	repo := s.repomanager.Files(s.db)

	f, err := repo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := s.access.AuthorizeDirectAccess(f, requesterID); err != nil {
		return nil, err
	}
	if !filex.Exists(f.Path) {
		return nil, common.ErrLocalCopyMissing
	}

	n, err := repo.IncrementDownloadCount(ctx, fileID)
	if err != nil {
		return nil, err
	}
	f.DownloadCount = n
	return f, nil
}

// DownloadByName resolves a download by file name among the requester's
// accessible files and bumps the counter.
func (s *FileService) DownloadByName(ctx context.Context, name string, requesterID uuid.UUID) (*models.File, error) {
	repo := s.repomanager.Files(s.db)

	f, err := repo.GetByName(ctx, name, requesterID)
	if err != nil {
		return nil, err
	}
	if !filex.Exists(f.Path) {
		return nil, common.ErrLocalCopyMissing
	}

	n, err := repo.IncrementDownloadCount(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	f.DownloadCount = n
	return f, nil
}

// DownloadViaShareToken resolves an anonymous download through a share link
// and bumps the counter. Anonymous downloads count the same as direct ones.
func (s *FileService) DownloadViaShareToken(ctx context.Context, token string, now time.Time) (*models.File, error) {
	f, err := s.access.ResolveShareToken(ctx, token, now)
	if err != nil {
		return nil, err
	}
	if !filex.Exists(f.Path) {
		return nil, common.ErrLocalCopyMissing
	}

	n, err := s.repomanager.Files(s.db).IncrementDownloadCount(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	f.DownloadCount = n
	return f, nil
}
