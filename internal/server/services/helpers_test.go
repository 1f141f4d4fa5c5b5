package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/logging"
	"github.com/avolkov/filevault/internal/server/config"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/avolkov/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "test-secret"
	cfg.SyncUploadTimeout = time.Second
	return cfg
}

func seedUser(t *testing.T, m repomanager.RepositoryManager, name string, syncEnabled bool) *models.User {
	t.Helper()
	u, err := m.Users(nil).Create(context.Background(), &models.User{
		UserName:    name,
		PassHash:    []byte("x"),
		SyncEnabled: syncEnabled,
	})
	require.NoError(t, err)
	return u
}

// seedBlob writes a small real file so Exists checks in the services pass.
func seedBlob(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))
	return path
}

func seedFile(t *testing.T, m repomanager.RepositoryManager, ownerID uuid.UUID, name, path string) *models.File {
	t.Helper()
	f, err := m.Files(nil).Create(context.Background(), &models.File{
		OwnerID:  ownerID,
		Name:     name,
		Path:     path,
		Size:     7,
		MIMEType: "text/plain",
	})
	require.NoError(t, err)
	return f
}

// fakeStorage is a storage.Client double. It records the last upload, can be
// flipped into a failing mode, and can run a callback while the "remote" call
// is in flight.
type fakeStorage struct {
	mu       sync.Mutex
	ref      models.ExternalRef
	fail     bool
	uploads  int
	gotPath  string
	gotName  string
	onUpload func()
}

func (f *fakeStorage) Upload(ctx context.Context, localPath, fileName, mimeType string) (models.ExternalRef, error) {
	f.mu.Lock()
	f.uploads++
	f.gotPath = localPath
	f.gotName = fileName
	hook := f.onUpload
	fail := f.fail
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if fail {
		return models.ExternalRef{}, fmt.Errorf("%w: provider unavailable", common.ErrRemoteUpload)
	}
	return f.ref, nil
}

func (f *fakeStorage) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func (f *fakeStorage) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}
