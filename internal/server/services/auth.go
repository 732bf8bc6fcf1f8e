// Package services contains the server-side business logic. This file
// implements AuthService, the externally-called façade for login and token
// refresh: credential check → token mint, and token validate → re-mint.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ojudge/identity/internal/common"
	"github.com/ojudge/identity/internal/logging"
	"github.com/ojudge/identity/internal/server/credstore"
	"github.com/ojudge/identity/internal/server/privilege"
	"github.com/ojudge/identity/internal/server/repositories/identities"
	"github.com/ojudge/identity/internal/server/tokens"
)

// AuthService orchestrates login and token refresh. It holds no state of
// its own; credentials, tokens, and storage are collaborators.
type AuthService struct {
	store  IdentityStorage
	creds  *credstore.Store
	tokens *tokens.Service
	logger logging.Logger
}

func NewAuthService(st IdentityStorage, creds *credstore.Store, tk *tokens.Service, logger logging.Logger) *AuthService {
	return &AuthService{
		store:  st,
		creds:  creds,
		tokens: tk,
		logger: logger.With("module", "auth_service"),
	}
}

// Login verifies the password for the identity known by username and mints
// a bearer token carrying the identity's current privilege. A missing user
// and a wrong password are indistinguishable to the caller: both are
// common.ErrInvalidCredentials. Persistence failures during lookup are
// common.ErrStorage and fatal to the request; retries belong to the
// storage collaborator, not here.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.store.FindIdentity(ctx, identifier, identities.ByUsername)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Burn a hash comparison so a miss takes as long as a
			// mismatch; otherwise response time leaks which usernames
			// exist.
			s.creds.VerifyDummy(password)
			return "", common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "identity lookup failed during login", "op", "login")
		return "", fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	cred, err := s.store.FindCredential(ctx, identity.ID)
	if err != nil {
		// A queryable identity without a credential row is a broken
		// invariant, not a bad password.
		s.logger.Error(ctx, "credential lookup failed during login",
			"identity_id", identity.ID, "op", "login")
		return "", fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	ok, err := s.creds.VerifyPassword(password, cred.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "stored credential unreadable",
			"identity_id", identity.ID, "op", "login")
		return "", fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	if !ok {
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Mint(identity.ID, identity.Privilege)
	if err != nil {
		s.logger.Error(ctx, "token mint failed", "identity_id", identity.ID, "op", "login")
		return "", common.ErrInternal
	}
	return token, nil
}

// RefreshToken validates existingToken, re-reads the identity's live
// privilege, and re-mints. The privilege inside the old token is only a
// snapshot; an account disabled since issuance must not be able to renew.
// Every validation failure (expired, malformed, forged, identity gone or
// disabled) surfaces as common.ErrUnauthorized.
func (s *AuthService) RefreshToken(ctx context.Context, existingToken string) (string, error) {
	claims, err := s.tokens.Validate(existingToken)
	if err != nil {
		if errors.Is(err, tokens.ErrTokenMalformed) || errors.Is(err, tokens.ErrTokenSignatureInvalid) {
			s.logger.Warn(ctx, "suspicious token rejected", "op", "refresh", "reason", err.Error())
		}
		return "", common.ErrUnauthorized
	}

	identity, err := s.store.FindIdentity(ctx, claims.IdentityID, identities.ByID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		s.logger.Error(ctx, "identity lookup failed during refresh",
			"identity_id", claims.IdentityID, "op", "refresh")
		return "", fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	if identity.Privilege == privilege.Disabled {
		return "", common.ErrUnauthorized
	}

	token, err := s.tokens.Refresh(claims, identity.Privilege)
	if err != nil {
		return "", common.ErrUnauthorized
	}
	return token, nil
}
