// Package tokens mints and validates the short-lived bearer tokens the
// identity service hands out. A token is a self-contained signed value; it
// carries the identity id and a privilege snapshot taken at issuance time,
// and is never persisted server-side.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ojudge/identity/internal/server/privilege"
)

// Narrow, component-local errors. Callers react differently: expired means
// "prompt re-login", the other two mean "reject outright, log as suspicious".
var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenMalformed        = errors.New("token malformed")
)

// timeNow is a test seam.
var timeNow = time.Now

// Claims are the statements embedded in every issued token.
type Claims struct {
	jwt.RegisteredClaims
	IdentityID string              `json:"identity_id"`
	Privilege  privilege.Privilege `json:"privilege"`
}

// Service signs tokens with a process-wide HMAC secret bound once at
// construction and read-only thereafter. The validity duration is a
// required configuration value, not a per-call default.
type Service struct {
	secret   []byte
	validity time.Duration
}

func NewService(secret []byte, validity time.Duration) *Service {
	return &Service{secret: secret, validity: validity}
}

// Mint produces a signed token for the identity with issuedAt = now and
// expiresAt = now + the configured validity.
func (s *Service) Mint(identityID string, priv privilege.Privilege) (string, error) {
	now := timeNow()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		IdentityID: identityID,
		Privilege:  priv,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature and expiry of tokenString and returns its
// claims. The three failure modes are distinguished so callers can treat
// an expired token (re-login) differently from a forged or garbled one.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid || claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// Refresh re-mints a token for claims.IdentityID with a fresh validity
// window, carrying currentPrivilege as looked up live by the caller; the
// privilege snapshot inside the old token is never trusted. Refresh is only
// reachable from claims that just passed Validate; an already-expired token
// is refused so it can never be extended.
func (s *Service) Refresh(claims *Claims, currentPrivilege privilege.Privilege) (string, error) {
	if claims.ExpiresAt == nil || !timeNow().Before(claims.ExpiresAt.Time) {
		return "", ErrTokenExpired
	}
	return s.Mint(claims.IdentityID, currentPrivilege)
}
