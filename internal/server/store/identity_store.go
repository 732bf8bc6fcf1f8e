// Package store keeps an identity profile and its credential record
// consistent across two independently persisted tables. The two rows are
// deliberately not covered by one cross-table transaction (the stores may
// be heterogeneous); instead each row is written in its own transaction,
// identity first, and a failed credential write triggers a compensating
// action that undoes the identity write. The ordering is load-bearing:
// the rollback protocol assumes the identity row went in first.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ojudge/identity/internal/common"
	"github.com/ojudge/identity/internal/dbx"
	"github.com/ojudge/identity/internal/logging"
	"github.com/ojudge/identity/internal/server/models"
	"github.com/ojudge/identity/internal/server/repositories/identities"
	"github.com/ojudge/identity/internal/server/repositories/repomanager"
)

// compensationTimeout bounds the compensating write's own deadline. The
// compensation runs detached from the caller's context: the usual reason
// it runs at all is that the caller's deadline fired during the credential
// write, and reusing that dead context would doom the rollback too.
const compensationTimeout = 5 * time.Second

// IdentityStore is the transactional boundary for identity+credential
// writes and the query surface for identity lookups.
type IdentityStore struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	logger  logging.Logger
	alerter Alerter
}

func NewIdentityStore(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, alerter Alerter) *IdentityStore {
	return &IdentityStore{
		db:      db,
		repos:   m,
		logger:  logger.With("module", "identity_store"),
		alerter: alerter,
	}
}

// UpsertWithCredential persists identity and, when cred is non-nil, its
// credential record. From the caller's observable point of view the write
// is all-or-nothing: if the credential write fails, the identity write is
// compensated (deleted on create, restored to its prior state on update)
// before the error is surfaced. A failed compensation is escalated as
// common.ErrIrrecoverableStorage and alerted; that state requires manual
// reconciliation.
//
// Uniqueness violations on email/username surface as common.ErrConflict
// before any credential write is attempted.
func (s *IdentityStore) UpsertWithCredential(ctx context.Context, identity *models.Identity, cred *models.Credential, isNew bool) (*models.Identity, error) {
	if identity == nil {
		return nil, fmt.Errorf("%w: nil identity", common.ErrInvalidParameter)
	}
	if isNew {
		return s.createPair(ctx, identity, cred)
	}
	return s.updatePair(ctx, identity, cred)
}

func (s *IdentityStore) createPair(ctx context.Context, identity *models.Identity, cred *models.Credential) (*models.Identity, error) {
	// An identity must never become queryable for login without a hash.
	if cred == nil || cred.PasswordHash == "" {
		return nil, fmt.Errorf("%w: new identity requires a credential", common.ErrInvalidParameter)
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.repos.Identities(tx).Create(ctx, identity)
		return err
	}); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrConflict
		}
		s.logger.Error(ctx, "identity create failed", "identity_id", identity.ID, "op", "create")
		return nil, fmt.Errorf("%w: creating identity: %v", common.ErrStorage, err)
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Credentials(tx).Create(ctx, cred)
	}); err != nil {
		return nil, s.compensateCreate(ctx, identity.ID, err)
	}

	return identity, nil
}

// compensateCreate deletes the identity row that was written before the
// credential write failed, and reports which of the two failures the
// caller is looking at.
func (s *IdentityStore) compensateCreate(ctx context.Context, identityID string, cause error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	compErr := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Identities(tx).Delete(ctx, identityID)
	})
	if compErr != nil {
		s.alerter.Notify(ctx, "compensating delete failed; identity row orphaned without credential",
			"identity_id", identityID, "op", "create", "cause", cause.Error(), "compensation_error", compErr.Error())
		return fmt.Errorf("%w: credential write failed (%v) and compensating delete failed (%v)",
			common.ErrIrrecoverableStorage, cause, compErr)
	}
	s.logger.Error(ctx, "credential write failed, identity write compensated",
		"identity_id", identityID, "op", "create")
	return fmt.Errorf("%w: credential write failed (identity delete compensated): %v",
		common.ErrStorage, cause)
}

func (s *IdentityStore) updatePair(ctx context.Context, identity *models.Identity, cred *models.Credential) (*models.Identity, error) {
	// Capture the prior row first so the identity write can be undone if
	// the credential write fails.
	prior, err := s.repos.Identities(s.db).Get(ctx, identity.ID, identities.ByID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: reading identity: %v", common.ErrStorage, err)
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Identities(tx).Update(ctx, identity)
	}); err != nil {
		switch {
		case errors.Is(err, common.ErrConflict):
			return nil, common.ErrConflict
		case errors.Is(err, common.ErrNotFound):
			return nil, common.ErrNotFound
		default:
			s.logger.Error(ctx, "identity update failed", "identity_id", identity.ID, "op", "update")
			return nil, fmt.Errorf("%w: updating identity: %v", common.ErrStorage, err)
		}
	}

	if cred == nil {
		return identity, nil
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Credentials(tx).Update(ctx, cred)
	}); err != nil {
		return nil, s.compensateUpdate(ctx, prior, err)
	}

	identity.CreatedAt = prior.CreatedAt
	return identity, nil
}

// compensateUpdate restores the identity row captured before the failed
// credential write.
func (s *IdentityStore) compensateUpdate(ctx context.Context, prior *models.Identity, cause error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	compErr := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Identities(tx).Update(ctx, prior)
	})
	if compErr != nil {
		s.alerter.Notify(ctx, "compensating restore failed; identity and credential rows may disagree",
			"identity_id", prior.ID, "op", "update", "cause", cause.Error(), "compensation_error", compErr.Error())
		return fmt.Errorf("%w: credential write failed (%v) and compensating restore failed (%v)",
			common.ErrIrrecoverableStorage, cause, compErr)
	}
	s.logger.Error(ctx, "credential write failed, identity write compensated",
		"identity_id", prior.ID, "op", "update")
	return fmt.Errorf("%w: credential write failed (identity restore compensated): %v",
		common.ErrStorage, cause)
}

// FindIdentity looks up a single identity by id, username, or email.
func (s *IdentityStore) FindIdentity(ctx context.Context, key string, by identities.By) (*models.Identity, error) {
	identity, err := s.repos.Identities(s.db).Get(ctx, key, by)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrInvalidParameter) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return identity, nil
}

// FindCredential returns the credential owned by identityID.
func (s *IdentityStore) FindCredential(ctx context.Context, identityID string) (*models.Credential, error) {
	cred, err := s.repos.Credentials(s.db).Get(ctx, identityID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return cred, nil
}

func pageBounds(page, pageSize int) (limit, offset int, err error) {
	if page < 1 || pageSize < 1 {
		return 0, 0, fmt.Errorf("%w: page and pageSize must be >= 1", common.ErrInvalidParameter)
	}
	return pageSize, (page - 1) * pageSize, nil
}

// ListIdentities returns one 1-indexed page of identities. An empty page,
// whether beyond the data or in an empty table, is common.ErrNotFound:
// callers treat it as "nothing found", not an empty success.
func (s *IdentityStore) ListIdentities(ctx context.Context, orderBy identities.OrderField, order identities.Direction, page, pageSize int) ([]models.Identity, error) {
	limit, offset, err := pageBounds(page, pageSize)
	if err != nil {
		return nil, err
	}
	result, err := s.repos.Identities(s.db).List(ctx, orderBy, order, limit, offset)
	if err != nil {
		if errors.Is(err, common.ErrInvalidParameter) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	if len(result) == 0 {
		return nil, common.ErrNotFound
	}
	return result, nil
}

// SearchIdentities returns one page of identities matching keyword
// case-insensitively across username, email, and nickname. Pagination and
// the empty-page contract match ListIdentities.
func (s *IdentityStore) SearchIdentities(ctx context.Context, keyword string, orderBy identities.OrderField, order identities.Direction, page, pageSize int) ([]models.Identity, error) {
	limit, offset, err := pageBounds(page, pageSize)
	if err != nil {
		return nil, err
	}
	result, err := s.repos.Identities(s.db).Search(ctx, keyword, orderBy, order, limit, offset)
	if err != nil {
		if errors.Is(err, common.ErrInvalidParameter) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	if len(result) == 0 {
		return nil, common.ErrNotFound
	}
	return result, nil
}
