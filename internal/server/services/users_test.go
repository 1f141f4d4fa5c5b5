package services

import (
	"context"
	"testing"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/server/auth"
	"github.com/avolkov/filevault/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserRegister(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	svc := NewUserService(nil, m, testConfig())

	user, err := svc.Register(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.UserName)
	assert.False(t, user.SyncEnabled)
	assert.NoError(t, bcrypt.CompareHashAndPassword(user.PassHash, []byte("s3cret")))

	_, err = svc.Register(context.Background(), "alice", "other")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = svc.Register(context.Background(), "", "pw")
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Register(context.Background(), "bob", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestUserLogin(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	cfg := testConfig()
	svc := NewUserService(nil, m, cfg)

	user, err := svc.Register(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	userID, err := auth.GetUserIDFromToken(token, []byte(cfg.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), userID)
}

func TestUserLogin_BadCredentials(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	svc := NewUserService(nil, m, testConfig())

	_, err := svc.Register(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	// unknown user reported the same way as a wrong password
	_, err = svc.Login(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestUserSyncPreference(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	svc := NewUserService(nil, m, testConfig())

	user, err := svc.Register(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	enabled, err := svc.SyncPreference(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, svc.SetSyncPreference(context.Background(), user.ID, true))

	enabled, err = svc.SyncPreference(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, enabled)
}
