// Package credstore owns password hashing, verification, and update for a
// single identity's credential. It knows nothing about HTTP or tokens, and
// it never persists anything; persistence is the store package's job.
package credstore

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ojudge/identity/internal/common"
	"github.com/ojudge/identity/internal/server/models"
)

// ErrCorruptCredential is returned when a stored hash is not a recognizable
// bcrypt encoding. A plain mismatch is not an error.
var ErrCorruptCredential = errors.New("corrupt credential")

// Store hashes and verifies passwords with bcrypt. Length bounds come from
// caller configuration, not from this package.
type Store struct {
	minLength int
	maxLength int
	cost      int
	dummyHash string
}

// New constructs a Store with the given password length bounds and bcrypt
// cost. A cost outside bcrypt's supported range falls back to the default.
func New(minLength, maxLength, cost int) *Store {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// GenerateFromPassword only fails on an out-of-range cost, which the
	// clamp above rules out.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-credential"), cost)
	return &Store{minLength: minLength, maxLength: maxLength, cost: cost, dummyHash: string(dummy)}
}

// HashPassword hashes plaintext with bcrypt. The result embeds its own
// salt and cost, so verification is self-describing. Empty plaintext is
// rejected with common.ErrInvalidParameter.
func (s *Store) HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: empty password", common.ErrInvalidParameter)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches storedHash. The
// comparison is constant-time inside bcrypt. A mismatch returns
// (false, nil); only an unparseable storedHash yields ErrCorruptCredential.
func (s *Store) VerifyPassword(plaintext, storedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrCorruptCredential, err)
}

// VerifyDummy burns a bcrypt comparison against a fixed hash at the
// configured cost. Callers invoke it on a lookup miss so that an unknown
// username costs as much as a wrong password.
func (s *Store) VerifyDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword([]byte(s.dummyHash), []byte(plaintext))
}

// UpdatePassword validates newPlaintext against the configured length
// bounds and replaces the credential's hash in memory. The caller persists
// the mutated credential through the identity store.
func (s *Store) UpdatePassword(cred *models.Credential, newPlaintext string) error {
	if n := len(newPlaintext); n < s.minLength || n > s.maxLength {
		return fmt.Errorf("%w: password length must be between %d and %d",
			common.ErrPolicyViolation, s.minLength, s.maxLength)
	}
	hash, err := s.HashPassword(newPlaintext)
	if err != nil {
		return err
	}
	cred.PasswordHash = hash
	cred.UpdatedAt = time.Now()
	return nil
}
