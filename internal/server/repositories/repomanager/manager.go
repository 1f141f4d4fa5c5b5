package repomanager

import (
	"context"
	"database/sql"

	"github.com/avolkov/filevault/internal/dbx"
	"github.com/avolkov/filevault/internal/server/repositories/files"
	"github.com/avolkov/filevault/internal/server/repositories/folders"
	"github.com/avolkov/filevault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so services can run
// several repository calls inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Folders(db dbx.DBTX) folders.Repository
	Files(db dbx.DBTX) files.Repository
}
