package identities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ojudge/identity/internal/common"
	"github.com/ojudge/identity/internal/dbx"
	"github.com/ojudge/identity/internal/server/models"
)

// uniqueViolation is the SQLSTATE Postgres reports for a unique-constraint
// breach (duplicate username/email).
const uniqueViolation = "23505"

// PostgresRepository implements CRUD and query operations for identity rows
// over dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *PostgresRepository) Create(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	query := `
		INSERT INTO identities (id, email, username, nickname, sex, motto, description, avatar_key, privilege)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		identity.ID, identity.Email, identity.Username, identity.Nickname,
		identity.Sex, identity.Motto, identity.Description, identity.AvatarKey,
		int(identity.Privilege)).Scan(&identity.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return identity, nil
}

func (r *PostgresRepository) Update(ctx context.Context, identity *models.Identity) error {
	query := `
		UPDATE identities
		SET email = $2, username = $3, nickname = $4, sex = $5, motto = $6,
		    description = $7, avatar_key = $8, privilege = $9
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		identity.ID, identity.Email, identity.Username, identity.Nickname,
		identity.Sex, identity.Motto, identity.Description, identity.AvatarKey,
		int(identity.Privilege))
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrConflict
		}
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

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM identities WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get looks an identity up by one of its unique keys. An unknown key
// selector is common.ErrInvalidParameter; a miss is common.ErrNotFound.
func (r *PostgresRepository) Get(ctx context.Context, key string, by By) (*models.Identity, error) {
	switch by {
	case ByID, ByUsername, ByEmail:
	default:
		return nil, fmt.Errorf("%w: lookup by %q", common.ErrInvalidParameter, by)
	}

	query := fmt.Sprintf(`
		SELECT id, email, username, nickname, sex, motto, description, avatar_key, privilege, created_at
		FROM identities
		WHERE %s = $1
	`, by)

	identity := &models.Identity{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&identity.ID, &identity.Email, &identity.Username, &identity.Nickname,
		&identity.Sex, &identity.Motto, &identity.Description, &identity.AvatarKey,
		&identity.Privilege, &identity.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return identity, nil
}

func orderClause(orderBy OrderField, order Direction) (string, error) {
	switch orderBy {
	case OrderByID, OrderByUsername, OrderByEmail, OrderByNickname, OrderByPrivilege, OrderByCreatedAt:
	default:
		return "", fmt.Errorf("%w: order by %q", common.ErrInvalidParameter, orderBy)
	}
	switch order {
	case Asc, Desc:
	default:
		return "", fmt.Errorf("%w: order %q", common.ErrInvalidParameter, order)
	}
	return fmt.Sprintf("ORDER BY %s %s", orderBy, order), nil
}

func (r *PostgresRepository) queryPage(ctx context.Context, query string, args ...any) ([]models.Identity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Identity
	for rows.Next() {
		var identity models.Identity
		if err := rows.Scan(
			&identity.ID, &identity.Email, &identity.Username, &identity.Nickname,
			&identity.Sex, &identity.Motto, &identity.Description, &identity.AvatarKey,
			&identity.Privilege, &identity.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// List returns one page of identities (public fields only) in a stable
// order. Pagination math (1-indexed pages) is the store's job; the repo
// works in limit/offset terms.
func (r *PostgresRepository) List(ctx context.Context, orderBy OrderField, order Direction, limit, offset int) ([]models.Identity, error) {
	clause, err := orderClause(orderBy, order)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT id, email, username, nickname, sex, motto, description, avatar_key, privilege, created_at
		FROM identities
		%s
		LIMIT $1 OFFSET $2
	`, clause)
	return r.queryPage(ctx, query, limit, offset)
}

// Search returns one page of identities whose username, email, or nickname
// contains keyword, case-insensitively.
func (r *PostgresRepository) Search(ctx context.Context, keyword string, orderBy OrderField, order Direction, limit, offset int) ([]models.Identity, error) {
	clause, err := orderClause(orderBy, order)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT id, email, username, nickname, sex, motto, description, avatar_key, privilege, created_at
		FROM identities
		WHERE username ILIKE '%%' || $1 || '%%'
		   OR email ILIKE '%%' || $1 || '%%'
		   OR nickname ILIKE '%%' || $1 || '%%'
		%s
		LIMIT $2 OFFSET $3
	`, clause)
	return r.queryPage(ctx, query, keyword, limit, offset)
}
