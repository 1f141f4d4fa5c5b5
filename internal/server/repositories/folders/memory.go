package folders

import (
	"context"
	"sync"
	"time"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded map implementation used in tests and
// single-process setups.
type MemoryRepository struct {
	mu      sync.RWMutex
	folders map[uuid.UUID]*models.Folder
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{folders: make(map[uuid.UUID]*models.Folder)}
}

func cloneFolder(f *models.Folder) *models.Folder {
	c := *f
	return &c
}

func (r *MemoryRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.folders {
		if f.OwnerID == folder.OwnerID && f.Name == folder.Name {
			return nil, common.ErrDuplicateName
		}
	}

	folder.ID = uuid.New()
	folder.CreatedAt = time.Now()
	r.folders[folder.ID] = cloneFolder(folder)
	return cloneFolder(folder), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.folders[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneFolder(f), nil
}

func (r *MemoryRepository) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Folder
	for _, f := range r.folders {
		if f.OwnerID == ownerID {
			result = append(result, cloneFolder(f))
		}
	}
	return result, nil
}

func (r *MemoryRepository) Rename(ctx context.Context, id uuid.UUID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.folders[id]
	if !ok {
		return common.ErrNotFound
	}
	for _, other := range r.folders {
		if other.ID != id && other.OwnerID == f.OwnerID && other.Name == name {
			return common.ErrDuplicateName
		}
	}
	f.Name = name
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.folders[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.folders, id)
	return nil
}
