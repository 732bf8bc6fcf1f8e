// Package repomanager vends repository implementations bound to a DBTX and
// exposes a schema-migration hook. Services hold a manager plus a *sql.DB
// and can rebind the same repositories to a transaction when needed.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/ojudge/identity/internal/dbx"
	"github.com/ojudge/identity/internal/server/repositories/credentials"
	"github.com/ojudge/identity/internal/server/repositories/identities"
)

type RepositoryManager interface {
	Identities(db dbx.DBTX) identities.Repository
	Credentials(db dbx.DBTX) credentials.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
