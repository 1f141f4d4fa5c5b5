package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/filevault/internal/common"
	"github.com/avolkov/filevault/internal/dbx"
	"github.com/avolkov/filevault/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or
// *sql.Tx). Per-record write atomicity comes from single-statement row
// updates; no transaction spans a remote call.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, owner_id, folder_id, name, path, size, mime_type, uploaded_at,
	access_level, share_token, share_token_expires, download_count,
	sync_state, external_id, external_link`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.File, error) {
	var (
		f        models.File
		folderID uuid.NullUUID
		token    sql.NullString
		expires  sql.NullTime
		extID    sql.NullString
		extLink  sql.NullString
	)

	err := row.Scan(&f.ID, &f.OwnerID, &folderID, &f.Name, &f.Path, &f.Size, &f.MIMEType,
		&f.UploadedAt, &f.Access, &token, &expires, &f.DownloadCount,
		&f.SyncState, &extID, &extLink)
	if err != nil {
		return nil, err
	}

	if folderID.Valid {
		id := folderID.UUID
		f.FolderID = &id
	}
	if token.Valid {
		v := token.String
		f.ShareToken = &v
	}
	if expires.Valid {
		v := expires.Time
		f.ShareTokenExpires = &v
	}
	if extID.Valid {
		v := extID.String
		f.ExternalID = &v
	}
	if extLink.Valid {
		v := extLink.String
		f.ExternalLink = &v
	}

	return &f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (owner_id, folder_id, name, path, size, mime_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + fileColumns

	var folderID uuid.NullUUID
	if file.FolderID != nil {
		folderID = uuid.NullUUID{UUID: *file.FolderID, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, query,
		file.OwnerID, folderID, file.Name, file.Path, file.Size, file.MIMEType)

	created, err := scanFile(row)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if f.SharedWith, err = r.loadShares(ctx, f.ID); err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string, userID uuid.UUID) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files f
		WHERE f.name = $1
		  AND (f.owner_id = $2
		       OR EXISTS (SELECT 1 FROM file_shares s WHERE s.file_id = f.id AND s.user_id = $2))
		ORDER BY f.uploaded_at, f.id
		LIMIT 1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, name, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if f.SharedWith, err = r.loadShares(ctx, f.ID); err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PostgresRepository) GetByShareToken(ctx context.Context, token string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE share_token = $1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrTokenNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files f
		WHERE f.owner_id = $1
		   OR EXISTS (SELECT 1 FROM file_shares s WHERE s.file_id = f.id AND s.user_id = $1)
		ORDER BY f.uploaded_at, f.id`

	return r.queryFiles(ctx, query, userID)
}

func (r *PostgresRepository) ListByFolder(ctx context.Context, folderID uuid.UUID) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files f
		WHERE f.folder_id = $1
		ORDER BY f.uploaded_at, f.id`

	return r.queryFiles(ctx, query, folderID)
}

func (r *PostgresRepository) queryFiles(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) loadShares(ctx context.Context, fileID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM file_shares WHERE file_id = $1`, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shares: %w", err)
	}
	defer rows.Close()

	var result []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateAccess replaces the sharing policy of a record in a single write, so
// a concurrent resolve never observes a token without its matching level.
func (r *PostgresRepository) UpdateAccess(ctx context.Context, id uuid.UUID, access models.AccessLevel, token *string, expires *time.Time) error {
	query := `UPDATE files
		SET access_level = $2, share_token = $3, share_token_expires = $4
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, access, token, expires)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) RevokeShareToken(ctx context.Context, token string) error {
	query := `UPDATE files
		SET access_level = 'private', share_token = NULL, share_token_expires = NULL
		WHERE share_token = $1`

	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrTokenNotFound
	}
	return nil
}

func (r *PostgresRepository) AddShare(ctx context.Context, fileID, userID uuid.UUID) error {
	query := `INSERT INTO file_shares (file_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, fileID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// IncrementDownloadCount bumps the counter server-side so concurrent
// downloads never lose an update.
func (r *PostgresRepository) IncrementDownloadCount(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `UPDATE files
		SET download_count = download_count + 1
		WHERE id = $1
		RETURNING download_count`

	var count int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) SetSyncState(ctx context.Context, id uuid.UUID, state models.SyncState) error {
	query := `UPDATE files SET sync_state = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, state)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetSynced(ctx context.Context, id uuid.UUID, ref models.ExternalRef) error {
	query := `UPDATE files
		SET sync_state = 'synced', external_id = $2, external_link = $3
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, ref.ID, ref.Link)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ClearFolder(ctx context.Context, folderID uuid.UUID) error {
	query := `UPDATE files SET folder_id = NULL WHERE folder_id = $1`

	if _, err := r.db.ExecContext(ctx, query, folderID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
