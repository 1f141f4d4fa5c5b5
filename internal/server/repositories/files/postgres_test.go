package files

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/google/uuid"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func fileRows(f *models.File) *sqlmock.Rows {
	var folderID any
	if f.FolderID != nil {
		folderID = *f.FolderID
	}
	var token, extID, extLink any
	if f.ShareToken != nil {
		token = *f.ShareToken
	}
	if f.ExternalID != nil {
		extID = *f.ExternalID
	}
	if f.ExternalLink != nil {
		extLink = *f.ExternalLink
	}
	var expires any
	if f.ShareTokenExpires != nil {
		expires = *f.ShareTokenExpires
	}
	return sqlmock.NewRows([]string{
		"id", "owner_id", "folder_id", "name", "path", "size", "mime_type", "uploaded_at",
		"access_level", "share_token", "share_token_expires", "download_count",
		"sync_state", "external_id", "external_link",
	}).AddRow(f.ID, f.OwnerID, folderID, f.Name, f.Path, f.Size, f.MIMEType, f.UploadedAt,
		string(f.Access), token, expires, f.DownloadCount,
		string(f.SyncState), extID, extLink)
}

func sampleFile() *models.File {
	return &models.File{
		ID:         uuid.New(),
		OwnerID:    uuid.New(),
		Name:       "report.pdf",
		Path:       "/var/uploads/report.pdf",
		Size:       1024,
		MIMEType:   "application/pdf",
		UploadedAt: time.Now(),
		Access:     models.AccessPrivate,
		SyncState:  models.SyncNotSynced,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	want := sampleFile()

	mock.ExpectQuery(`INSERT\s+INTO\s+files`).
		WithArgs(want.OwnerID, uuid.NullUUID{}, want.Name, want.Path, want.Size, want.MIMEType).
		WillReturnRows(fileRows(want))

	got, err := repo.Create(context.Background(), &models.File{
		OwnerID:  want.OwnerID,
		Name:     want.Name,
		Path:     want.Path,
		Size:     want.Size,
		MIMEType: want.MIMEType,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != want.ID {
		t.Fatalf("want id %v, got %v", want.ID, got.ID)
	}
	if got.Access != models.AccessPrivate || got.SyncState != models.SyncNotSynced {
		t.Fatalf("new file must be private/not_synced, got %v/%v", got.Access, got.SyncState)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByID_PopulatesShares(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	want := sampleFile()
	grantee := uuid.New()

	mock.ExpectQuery(`SELECT\s+.*FROM\s+files\s+WHERE\s+id`).
		WithArgs(want.ID).
		WillReturnRows(fileRows(want))
	mock.ExpectQuery(`SELECT\s+user_id\s+FROM\s+file_shares`).
		WithArgs(want.ID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(grantee))

	got, err := repo.GetByID(context.Background(), want.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.SharedWith) != 1 || got.SharedWith[0] != grantee {
		t.Fatalf("want shares [%v], got %v", grantee, got.SharedWith)
	}
}

func TestGetByShareToken_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.*FROM\s+files\s+WHERE\s+share_token`).
		WithArgs("tok").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByShareToken(context.Background(), "tok")
	if !errors.Is(err, common.ErrTokenNotFound) {
		t.Fatalf("want ErrTokenNotFound, got %v", err)
	}
}

func TestUpdateAccess_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.New()
	token := "abcd"
	expires := time.Now().Add(time.Hour)

	mock.ExpectExec(`UPDATE\s+files\s+SET\s+access_level`).
		WithArgs(id, string(models.AccessTimedAccess), token, expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateAccess(context.Background(), id, models.AccessTimedAccess, &token, &expires)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRevokeShareToken_AlreadyRotated(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+files\s+SET\s+access_level\s+=\s+'private'`).
		WithArgs("stale").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RevokeShareToken(context.Background(), "stale")
	if !errors.Is(err, common.ErrTokenNotFound) {
		t.Fatalf("want ErrTokenNotFound, got %v", err)
	}
}

func TestIncrementDownloadCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectQuery(`UPDATE\s+files\s+SET\s+download_count\s+=\s+download_count\s+\+\s+1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"download_count"}).AddRow(int64(5)))

	n, err := repo.IncrementDownloadCount(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("want count 5, got %d", n)
	}
}

func TestSetSynced_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE\s+files\s+SET\s+sync_state\s+=\s+'synced'`).
		WithArgs(id, "ext-1", "https://storage.example/ext-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetSynced(context.Background(), id,
		models.ExternalRef{ID: "ext-1", Link: "https://storage.example/ext-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetSyncState_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE\s+files\s+SET\s+sync_state`).
		WithArgs(id, string(models.SyncPending)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetSyncState(context.Background(), id, models.SyncPending)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestClearFolder(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	folderID := uuid.New()
	mock.ExpectExec(`UPDATE\s+files\s+SET\s+folder_id\s+=\s+NULL`).
		WithArgs(folderID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.ClearFolder(context.Background(), folderID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
