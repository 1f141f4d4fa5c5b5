package repomanager

import (
	"context"
	"database/sql"

	"github.com/avolkov/filevault/internal/dbx"
	"github.com/avolkov/filevault/internal/server/repositories/files"
	"github.com/avolkov/filevault/internal/server/repositories/folders"
	"github.com/avolkov/filevault/internal/server/repositories/users"
)

// MemoryRepositoryManager vends shared in-memory repositories. The DBTX
// argument is ignored; all calls see the same stores.
type MemoryRepositoryManager struct {
	users   *users.MemoryRepository
	folders *folders.MemoryRepository
	files   *files.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:   users.NewMemoryRepository(),
		folders: folders.NewMemoryRepository(),
		files:   files.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Folders(db dbx.DBTX) folders.Repository {
	return m.folders
}

func (m *MemoryRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return m.files
}
