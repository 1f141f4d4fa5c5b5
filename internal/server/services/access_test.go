package services

import (
	"context"
	"testing"
	"time"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/avolkov/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAccessLevel_AnyoneWithLink(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	svc := NewAccessService(nil, m)
	owner := seedUser(t, m, "alice", false)
	f := seedFile(t, m, owner.ID, "report.pdf", "/tmp/report.pdf")

	got, err := svc.SetAccessLevel(context.Background(), f.ID, owner.ID, models.AccessAnyoneWithLink, 0)
	require.NoError(t, err)

	assert.Equal(t, models.AccessAnyoneWithLink, got.Access)
	require.NotNil(t, got.ShareToken)
	assert.Len(t, *got.ShareToken, 32)
	assert.Nil(t, got.ShareTokenExpires)

	stored, err := m.Files(nil).GetByID(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ShareToken, stored.ShareToken)
}

func TestSetAccessLevel_TimedRequiresExpiry(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	svc := NewAccessService(nil, m)
	owner := seedUser(t, m, "alice", false)
	f := seedFile(t, m, owner.ID, "report.pdf", "/tmp/report.pdf")

	_, err := svc.SetAccessLevel(context.Background(), f.ID, owner.ID, models.AccessTimedAccess, 0)
	assert.ErrorIs(t, err, common.ErrMissingExpiry)

	got, err := svc.SetAccessLevel(context.Background(), f.ID, owner.ID, models.AccessTimedAccess, 2)
	require.NoError(t, err)
	require.NotNil(t, got.ShareTokenExpires)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), *got.ShareTokenExpires, time.Minute)
}

func TestSetAccessLevel_RotatesToken(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	svc := NewAccessService(nil, m)
	owner := seedUser(t, m, "alice", false)
	f := seedFile(t, m, owner.ID, "report.pdf", "/tmp/report.pdf")

	first, err := svc.SetAccessLevel(context.Background(), f.ID, owner.ID, models.AccessAnyoneWithLink, 0)
	require.NoError(t, err)
	second, err := svc.SetAccessLevel(context.Background(), f.ID, owner.ID, models.AccessAnyoneWithLink, 0)
	require.NoError(t, err)

	assert.NotEqual(t, *first.ShareToken, *second.ShareToken)

	// the rotated-out token no longer resolves
	_, err = svc.ResolveShareToken(context.Background(), *first.ShareToken, time.Now())
	assert.ErrorIs(t, err, common.ErrTokenNotFound)

	_, err = svc.ResolveShareToken(context.Background(), *second.ShareToken, time.Now())
	assert.NoError(t, err)
}

func TestSetAccessLevel_BackToPrivateClearsToken(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	svc := NewAccessService(nil, m)
	owner := seedUser(t, m, "alice", false)
	f := seedFile(t, m, owner.ID, "report.pdf", "/tmp/report.pdf")

	shared, err := svc.SetAccessLevel(context.Background(), f.ID, owner.ID, models.AccessAnyoneWithLink, 0)
	require.NoError(t, err)
	token := *shared.ShareToken

	got, err := svc.SetAccessLevel(context.Background(), f.ID, owner.ID, models.AccessPrivate, 0)
	require.NoError(t, err)
	assert.Nil(t, got.ShareToken)
	assert.Nil(t, got.ShareTokenExpires)

	_, err = svc.ResolveShareToken(context.Background(), token, time.Now())
	assert.ErrorIs(t, err, common.ErrTokenNotFound)
}

func TestSetAccessLevel_Errors(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	svc := NewAccessService(nil, m)
	owner := seedUser(t, m, "alice", false)
	stranger := seedUser(t, m, "mallory", false)
	f := seedFile(t, m, owner.ID, "report.pdf", "/tmp/report.pdf")

	_, err := svc.SetAccessLevel(context.Background(), f.ID, stranger.ID, models.AccessAnyoneWithLink, 0)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = svc.SetAccessLevel(context.Background(), f.ID, owner.ID, models.AccessLevel("public"), 0)
	assert.ErrorIs(t, err, common.ErrInvalidAccessLevel)

	_, err = svc.SetAccessLevel(context.Background(), uuid.New(), owner.ID, models.AccessAnyoneWithLink, 0)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestResolveShareToken_TimedNotExpired(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	svc := NewAccessService(nil, m)
	owner := seedUser(t, m, "alice", false)
	f := seedFile(t, m, owner.ID, "report.pdf", "/tmp/report.pdf")

	shared, err := svc.SetAccessLevel(context.Background(), f.ID, owner.ID, models.AccessTimedAccess, 1)
	require.NoError(t, err)

	got, err := svc.ResolveShareToken(context.Background(), *shared.ShareToken, time.Now())
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
}

func TestResolveShareToken_ExpiredDowngradesDurably(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	svc := NewAccessService(nil, m)
	owner := seedUser(t, m, "alice", false)
	f := seedFile(t, m, owner.ID, "report.pdf", "/tmp/report.pdf")

	token := "deadbeefdeadbeefdeadbeefdeadbeef"
	past := time.Now().Add(-time.Hour)
	require.NoError(t, m.Files(nil).UpdateAccess(context.Background(), f.ID, models.AccessTimedAccess, &token, &past))

	_, err := svc.ResolveShareToken(context.Background(), token, time.Now())
	assert.ErrorIs(t, err, common.ErrLinkExpired)

	// the downgrade is persisted, so the second attempt fails differently
	_, err = svc.ResolveShareToken(context.Background(), token, time.Now())
	assert.ErrorIs(t, err, common.ErrTokenNotFound)

	stored, err := m.Files(nil).GetByID(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccessPrivate, stored.Access)
	assert.Nil(t, stored.ShareToken)
	assert.Nil(t, stored.ShareTokenExpires)
}

func TestAuthorizeDirectAccess(t *testing.T) {
	svc := NewAccessService(nil, repomanager.NewMemoryRepositoryManager())
	owner := uuid.New()
	grantee := uuid.New()
	f := &models.File{OwnerID: owner, SharedWith: []uuid.UUID{grantee}}

	assert.NoError(t, svc.AuthorizeDirectAccess(f, owner))
	assert.NoError(t, svc.AuthorizeDirectAccess(f, grantee))
	assert.ErrorIs(t, svc.AuthorizeDirectAccess(f, uuid.New()), common.ErrForbidden)
}

func TestGenerateShareLink(t *testing.T) {
	m := repomanager.NewMemoryRepositoryManager()
	svc := NewAccessService(nil, m)
	owner := seedUser(t, m, "alice", false)
	f := seedFile(t, m, owner.ID, "report.pdf", "/tmp/report.pdf")
	build := func(token string) string { return "https://vault.test/share/" + token }

	_, err := svc.GenerateShareLink(context.Background(), f.ID, owner.ID, build)
	assert.ErrorIs(t, err, common.ErrLinkNotAvailable)

	shared, err := svc.SetAccessLevel(context.Background(), f.ID, owner.ID, models.AccessAnyoneWithLink, 0)
	require.NoError(t, err)

	link, err := svc.GenerateShareLink(context.Background(), f.ID, owner.ID, build)
	require.NoError(t, err)
	assert.Equal(t, "https://vault.test/share/"+*shared.ShareToken, link)

	_, err = svc.GenerateShareLink(context.Background(), f.ID, uuid.New(), build)
	assert.ErrorIs(t, err, common.ErrForbidden)
}
