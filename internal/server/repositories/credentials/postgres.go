package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ojudge/identity/internal/common"
	"github.com/ojudge/identity/internal/dbx"
	"github.com/ojudge/identity/internal/server/models"
)

// PostgresRepository implements credential row operations over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the credential row for its identity.
func (r *PostgresRepository) Create(ctx context.Context, cred *models.Credential) error {
	query := `
		INSERT INTO credentials (identity_id, password_hash, updated_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, cred.IdentityID, cred.PasswordHash, time.Now()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update replaces the stored hash for the credential's identity.
func (r *PostgresRepository) Update(ctx context.Context, cred *models.Credential) error {
	query := `
		UPDATE credentials SET password_hash = $2, updated_at = $3
		WHERE identity_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, cred.IdentityID, cred.PasswordHash, time.Now())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Get returns the credential row owned by identityID.
// If not found, it returns common.ErrNotFound.
func (r *PostgresRepository) Get(ctx context.Context, identityID string) (*models.Credential, error) {
	query := `
		SELECT identity_id, password_hash, updated_at
		FROM credentials
		WHERE identity_id = $1
	`
	cred := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, identityID).Scan(
		&cred.IdentityID, &cred.PasswordHash, &cred.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cred, nil
}

// Delete removes the credential row owned by identityID.
func (r *PostgresRepository) Delete(ctx context.Context, identityID string) error {
	query := `DELETE FROM credentials WHERE identity_id = $1`
	if _, err := r.db.ExecContext(ctx, query, identityID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
