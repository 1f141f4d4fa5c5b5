package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/server/auth"
	"github.com/avolkov/filevault/internal/server/config"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/avolkov/filevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles registration, login and the per-user sync preference.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{db: db, repomanager: m, config: cfg}
}

func (s *UserService) Register(ctx context.Context, userName, password string) (*models.User, error) {
	if userName == "" || password == "" {
		return nil, common.ErrValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	return s.repomanager.Users(s.db).Create(ctx, &models.User{
		UserName: userName,
		PassHash: hash,
	})
}

// Login verifies credentials and returns a signed session token. A missing
// user and a wrong password are reported identically.
func (s *UserService) Login(ctx context.Context, userName, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		return "", common.ErrUnauthorized
	}

	return auth.GenerateToken(user.ID.String(), []byte(s.config.SecretKey), s.config.AccessTokenValidityDuration)
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

func (s *UserService) SyncPreference(ctx context.Context, id uuid.UUID) (bool, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.SyncEnabled, nil
}

// SetSyncPreference flips the user's external-sync preference. Already
// mirrored files keep their state; the preference only gates new attempts.
func (s *UserService) SetSyncPreference(ctx context.Context, id uuid.UUID, enabled bool) error {
	return s.repomanager.Users(s.db).SetSyncEnabled(ctx, id, enabled)
}
