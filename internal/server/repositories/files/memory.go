package files

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded map implementation used in tests and
// single-process setups. The store mutex serializes every mutation, which
// gives the same per-record atomicity the SQL implementation gets from
// single-statement updates.
type MemoryRepository struct {
	mu    sync.RWMutex
	files map[uuid.UUID]*models.File
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{files: make(map[uuid.UUID]*models.File)}
}

func cloneFile(f *models.File) *models.File {
	c := *f
	if f.FolderID != nil {
		id := *f.FolderID
		c.FolderID = &id
	}
	if f.ShareToken != nil {
		v := *f.ShareToken
		c.ShareToken = &v
	}
	if f.ShareTokenExpires != nil {
		v := *f.ShareTokenExpires
		c.ShareTokenExpires = &v
	}
	if f.ExternalID != nil {
		v := *f.ExternalID
		c.ExternalID = &v
	}
	if f.ExternalLink != nil {
		v := *f.ExternalLink
		c.ExternalLink = &v
	}
	c.SharedWith = append([]uuid.UUID(nil), f.SharedWith...)
	return &c
}

func sortFiles(fs []*models.File) {
	sort.Slice(fs, func(i, j int) bool {
		if !fs[i].UploadedAt.Equal(fs[j].UploadedAt) {
			return fs[i].UploadedAt.Before(fs[j].UploadedAt)
		}
		return fs[i].ID.String() < fs[j].ID.String()
	})
}

func (r *MemoryRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file.ID = uuid.New()
	file.UploadedAt = time.Now()
	file.Access = models.AccessPrivate
	file.SyncState = models.SyncNotSynced
	r.files[file.ID] = cloneFile(file)
	return cloneFile(file), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.files[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneFile(f), nil
}

func (r *MemoryRepository) GetByName(ctx context.Context, name string, userID uuid.UUID) (*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*models.File
	for _, f := range r.files {
		if f.Name == name && (f.OwnerID == userID || f.SharedWithUser(userID)) {
			matches = append(matches, f)
		}
	}
	if len(matches) == 0 {
		return nil, common.ErrNotFound
	}
	sortFiles(matches)
	return cloneFile(matches[0]), nil
}

func (r *MemoryRepository) GetByShareToken(ctx context.Context, token string) (*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, f := range r.files {
		if f.ShareToken != nil && *f.ShareToken == token {
			return cloneFile(f), nil
		}
	}
	return nil, common.ErrTokenNotFound
}

func (r *MemoryRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.File
	for _, f := range r.files {
		if f.OwnerID == userID || f.SharedWithUser(userID) {
			result = append(result, cloneFile(f))
		}
	}
	sortFiles(result)
	return result, nil
}

func (r *MemoryRepository) ListByFolder(ctx context.Context, folderID uuid.UUID) ([]*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.File
	for _, f := range r.files {
		if f.FolderID != nil && *f.FolderID == folderID {
			result = append(result, cloneFile(f))
		}
	}
	sortFiles(result)
	return result, nil
}

func (r *MemoryRepository) UpdateAccess(ctx context.Context, id uuid.UUID, access models.AccessLevel, token *string, expires *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[id]
	if !ok {
		return common.ErrNotFound
	}
	f.Access = access
	f.ShareToken = token
	f.ShareTokenExpires = expires
	return nil
}

func (r *MemoryRepository) RevokeShareToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.files {
		if f.ShareToken != nil && *f.ShareToken == token {
			f.Access = models.AccessPrivate
			f.ShareToken = nil
			f.ShareTokenExpires = nil
			return nil
		}
	}
	return common.ErrTokenNotFound
}

func (r *MemoryRepository) AddShare(ctx context.Context, fileID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[fileID]
	if !ok {
		return common.ErrNotFound
	}
	if !f.SharedWithUser(userID) {
		f.SharedWith = append(f.SharedWith, userID)
	}
	return nil
}

func (r *MemoryRepository) IncrementDownloadCount(ctx context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	f.DownloadCount++
	return f.DownloadCount, nil
}

func (r *MemoryRepository) SetSyncState(ctx context.Context, id uuid.UUID, state models.SyncState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[id]
	if !ok {
		return common.ErrNotFound
	}
	f.SyncState = state
	return nil
}

func (r *MemoryRepository) SetSynced(ctx context.Context, id uuid.UUID, ref models.ExternalRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[id]
	if !ok {
		return common.ErrNotFound
	}
	f.SyncState = models.SyncSynced
	f.ExternalID = &ref.ID
	f.ExternalLink = &ref.Link
	return nil
}

func (r *MemoryRepository) ClearFolder(ctx context.Context, folderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.files {
		if f.FolderID != nil && *f.FolderID == folderID {
			f.FolderID = nil
		}
	}
	return nil
}
