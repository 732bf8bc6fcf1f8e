// Package credentials provides row-level persistence for credential records.
package credentials

import (
	"context"

	"github.com/ojudge/identity/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, cred *models.Credential) error
	Update(ctx context.Context, cred *models.Credential) error
	Get(ctx context.Context, identityID string) (*models.Credential, error)
	Delete(ctx context.Context, identityID string) error
}
