package services

import (
	"context"

	"github.com/ojudge/identity/internal/server/models"
	"github.com/ojudge/identity/internal/server/repositories/identities"
)

// IdentityStorage is the transactional boundary the services sit on,
// implemented by store.IdentityStore. Services never talk to row
// repositories directly; the dual-write consistency protocol lives behind
// this interface.
type IdentityStorage interface {
	UpsertWithCredential(ctx context.Context, identity *models.Identity, cred *models.Credential, isNew bool) (*models.Identity, error)
	FindIdentity(ctx context.Context, key string, by identities.By) (*models.Identity, error)
	FindCredential(ctx context.Context, identityID string) (*models.Credential, error)
	ListIdentities(ctx context.Context, orderBy identities.OrderField, order identities.Direction, page, pageSize int) ([]models.Identity, error)
	SearchIdentities(ctx context.Context, keyword string, orderBy identities.OrderField, order identities.Direction, page, pageSize int) ([]models.Identity, error)
}
