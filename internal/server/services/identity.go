// This file implements IdentityService: registration and profile updates
// (coordinating the privilege policy and the credential store before the
// dual-write), plus the read-side lookups.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ojudge/identity/internal/common"
	"github.com/ojudge/identity/internal/logging"
	"github.com/ojudge/identity/internal/server/config"
	"github.com/ojudge/identity/internal/server/credstore"
	"github.com/ojudge/identity/internal/server/models"
	"github.com/ojudge/identity/internal/server/privilege"
	"github.com/ojudge/identity/internal/server/repositories/identities"
)

// RegistrationPayload carries the fields a new identity starts from.
type RegistrationPayload struct {
	Email    string
	Username string
	Nickname string
	Password string
}

// IdentityService owns the identity lifecycle: create, patch, lookups.
type IdentityService struct {
	store  IdentityStorage
	creds  *credstore.Store
	cfg    *config.Config
	logger logging.Logger
}

func NewIdentityService(st IdentityStorage, creds *credstore.Store, cfg *config.Config, logger logging.Logger) *IdentityService {
	return &IdentityService{
		store:  st,
		creds:  creds,
		cfg:    cfg,
		logger: logger.With("module", "identity_service"),
	}
}

// Create registers a new identity with its credential. The initial
// privilege comes from the deployment's confirmation policy. Duplicate
// email/username is common.ErrConflict, and in that case no credential row
// is ever written.
func (s *IdentityService) Create(ctx context.Context, payload RegistrationPayload) (*models.Identity, error) {
	username := strings.TrimSpace(payload.Username)
	email := strings.TrimSpace(payload.Email)
	if username == "" || email == "" {
		return nil, fmt.Errorf("%w: username and email are required", common.ErrInvalidParameter)
	}

	identity := &models.Identity{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  username,
		Nickname:  strings.TrimSpace(payload.Nickname),
		Privilege: privilege.Initial(s.cfg.SignupRequiresConfirmation),
	}

	cred := &models.Credential{IdentityID: identity.ID}
	if err := s.creds.UpdatePassword(cred, payload.Password); err != nil {
		return nil, err
	}

	created, err := s.store.UpsertWithCredential(ctx, identity, cred, true)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "identity registered",
		"identity_id", created.ID, "privilege", created.Privilege.String())
	return created, nil
}

// Update applies a partial update to an identity. Fields absent from the
// patch are left unchanged. A privilege change must pass the policy check
// for the acting caller's privilege; a password change is hashed through
// the credential store and persisted under the dual-write protocol
// together with the profile.
func (s *IdentityService) Update(ctx context.Context, id string, patch *models.IdentityPatch, acting privilege.Privilege) (*models.Identity, error) {
	if patch == nil {
		return nil, fmt.Errorf("%w: nil patch", common.ErrInvalidParameter)
	}

	current, err := s.store.FindIdentity(ctx, id, identities.ByID)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)

	if patch.Privilege != nil {
		if !privilege.CanChange(acting, current.Privilege, *patch.Privilege) {
			s.logger.Warn(ctx, "privilege change refused",
				"identity_id", id, "from", current.Privilege.String(), "to", patch.Privilege.String())
			return nil, common.ErrUnauthorized
		}
		updated.Privilege = *patch.Privilege
	}

	var cred *models.Credential
	if patch.Password != nil {
		cred, err = s.store.FindCredential(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.creds.UpdatePassword(cred, *patch.Password); err != nil {
			return nil, err
		}
	}

	result, err := s.store.UpsertWithCredential(ctx, &updated, cred, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "identity updated", "identity_id", id)
	return result, nil
}

// Get looks an identity up by id, username, or email.
func (s *IdentityService) Get(ctx context.Context, key string, by identities.By) (*models.Identity, error) {
	return s.store.FindIdentity(ctx, key, by)
}

// List returns one page of identities. A zero pageSize falls back to the
// configured default.
func (s *IdentityService) List(ctx context.Context, orderBy identities.OrderField, order identities.Direction, page, pageSize int) ([]models.Identity, error) {
	if pageSize == 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	return s.store.ListIdentities(ctx, orderBy, order, page, pageSize)
}

// Search returns one page of identities matching keyword across username,
// email, and nickname.
func (s *IdentityService) Search(ctx context.Context, keyword string, orderBy identities.OrderField, order identities.Direction, page, pageSize int) ([]models.Identity, error) {
	if pageSize == 0 {
		pageSize = s.cfg.DefaultPageSize
	}
	return s.store.SearchIdentities(ctx, keyword, orderBy, order, page, pageSize)
}

// SetAvatar records the storage key of an uploaded avatar on the profile.
func (s *IdentityService) SetAvatar(ctx context.Context, id, avatarKey string) (*models.Identity, error) {
	current, err := s.store.FindIdentity(ctx, id, identities.ByID)
	if err != nil {
		return nil, err
	}
	updated := *current
	updated.AvatarKey = avatarKey
	result, err := s.store.UpsertWithCredential(ctx, &updated, nil, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}
