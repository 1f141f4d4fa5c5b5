package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/filex"
	"github.com/avolkov/filevault/internal/logging"
	"github.com/avolkov/filevault/internal/server/config"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/avolkov/filevault/internal/server/repositories/repomanager"
	"github.com/avolkov/filevault/internal/server/storage"
	"github.com/google/uuid"
)

// syncTask is a queued mirror request. The owner is recorded at enqueue time
// and re-checked when the task runs.
type syncTask struct {
	fileID  uuid.UUID
	ownerID uuid.UUID
}

// SyncService mirrors local files to the external storage provider and owns
// the sync state machine. A single attempt moves a record to pending, runs
// the upload, and settles on synced or failed. Failed records stay failed
// until another explicit request; there is no automatic retry.
type SyncService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	storage       storage.Client
	logger        logging.Logger
	uploadTimeout time.Duration
	workers       int
	queue         chan syncTask
}

func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, st storage.Client, logger logging.Logger, cfg *config.Config) *SyncService {
	return &SyncService{
		db:            db,
		repomanager:   m,
		storage:       st,
		logger:        logger.With("component", "sync"),
		uploadTimeout: cfg.SyncUploadTimeout,
		workers:       cfg.SyncWorkers,
		queue:         make(chan syncTask, cfg.SyncQueueSize),
	}
}

// RequestSync performs one mirror attempt for the file. Only the owner may
// request a sync, the owner's sync preference must be enabled, and the local
// copy must still exist; when any precondition fails the sync state is left
// untouched.
//
// The pending state is committed before the remote call starts, so an
// attempt interrupted mid-upload is observable as pending. On provider
// failure the record moves to failed but keeps its previous external ref,
// leaving the last successfully mirrored copy reachable.
func (s *SyncService) RequestSync(ctx context.Context, fileID, requesterID uuid.UUID) (*models.File, error) {
	fileRepo := s.repomanager.Files(s.db)

	f, err := fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f.OwnerID != requesterID {
		return nil, common.ErrForbidden
	}

	owner, err := s.repomanager.Users(s.db).GetByID(ctx, f.OwnerID)
	if err != nil {
		return nil, err
	}
	if !owner.SyncEnabled {
		return nil, common.ErrSyncDisabled
	}

	if !filex.Exists(f.Path) {
		return nil, common.ErrLocalCopyMissing
	}

	if err := fileRepo.SetSyncState(ctx, fileID, models.SyncPending); err != nil {
		return nil, err
	}

	ref, err := s.upload(ctx, f)
	if err != nil {
		if stateErr := fileRepo.SetSyncState(ctx, fileID, models.SyncFailed); stateErr != nil {
			s.logger.Error(ctx, "recording failed sync state", "file", fileID, "error", stateErr.Error())
		}
		return nil, fmt.Errorf("mirroring %s: %w", f.Name, err)
	}

	if err := fileRepo.SetSynced(ctx, fileID, ref); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "file mirrored", "file", fileID, "external_id", ref.ID)
	return fileRepo.GetByID(ctx, fileID)
}

func (s *SyncService) upload(ctx context.Context, f *models.File) (models.ExternalRef, error) {
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()
	return s.storage.Upload(ctx, f.Path, f.Name, f.MIMEType)
}

// Enqueue schedules a background mirror attempt. It never blocks: when the
// queue is full the request is dropped and false is returned, the record
// simply stays in its current state.
func (s *SyncService) Enqueue(fileID, ownerID uuid.UUID) bool {
	select {
	case s.queue <- syncTask{fileID: fileID, ownerID: ownerID}:
		return true
	default:
		s.logger.Warn(context.Background(), "sync queue full, dropping request", "file", fileID)
		return false
	}
}

// Run starts the background workers and blocks until ctx is cancelled and
// every worker has drained.
func (s *SyncService) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	wg.Wait()
}

func (s *SyncService) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-s.queue:
			if _, err := s.RequestSync(ctx, task.fileID, task.ownerID); err != nil {
				s.logger.Warn(ctx, "background sync failed", "file", task.fileID, "error", err.Error())
			}
		}
	}
}
