package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/ojudge/identity/internal/server/privilege"
)

func restoreNow(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { timeNow = time.Now })
}

func TestMintValidate_RoundTrip(t *testing.T) {
	s := NewService([]byte("secret"), time.Hour)

	token, err := s.Mint("id-1", privilege.Enabled)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	claims, err := s.Validate(token)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if claims.IdentityID != "id-1" || claims.Privilege != privilege.Enabled {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		t.Fatalf("expiresAt must be after issuedAt")
	}
}

func TestValidate_Expired(t *testing.T) {
	restoreNow(t)
	s := NewService([]byte("secret"), time.Hour)

	timeNow = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := s.Mint("id-1", privilege.Enabled)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	timeNow = time.Now

	if _, err := s.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	s1 := NewService([]byte("secret-a"), time.Hour)
	s2 := NewService([]byte("secret-b"), time.Hour)

	token, err := s1.Mint("id-1", privilege.Enabled)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	if _, err := s2.Validate(token); !errors.Is(err, ErrTokenSignatureInvalid) {
		t.Fatalf("expected ErrTokenSignatureInvalid, got %v", err)
	}
}

func TestValidate_Malformed(t *testing.T) {
	s := NewService([]byte("secret"), time.Hour)

	for _, bad := range []string{"", "garbage", "a.b", "a.b.c"} {
		if _, err := s.Validate(bad); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("token %q: expected ErrTokenMalformed, got %v", bad, err)
		}
	}
}

func TestRefresh_NewWindowAndLivePrivilege(t *testing.T) {
	restoreNow(t)
	s := NewService([]byte("secret"), time.Hour)

	base := time.Now().Truncate(time.Second)
	timeNow = func() time.Time { return base }
	original, err := s.Mint("id-1", privilege.Enabled)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	claims, err := s.Validate(original)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	// The clock advances before the refresh.
	timeNow = func() time.Time { return base.Add(30 * time.Minute) }
	refreshed, err := s.Refresh(claims, privilege.Admin)
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}

	newClaims, err := s.Validate(refreshed)
	if err != nil {
		t.Fatalf("Validate refreshed error: %v", err)
	}
	if newClaims.IdentityID != "id-1" {
		t.Fatalf("identity id changed on refresh: %q", newClaims.IdentityID)
	}
	if newClaims.Privilege != privilege.Admin {
		t.Fatalf("refresh must carry the live privilege, got %v", newClaims.Privilege)
	}
	if !newClaims.ExpiresAt.After(claims.ExpiresAt.Time) {
		t.Fatalf("refreshed expiry %v not after original %v",
			newClaims.ExpiresAt.Time, claims.ExpiresAt.Time)
	}
}

func TestRefresh_RefusesExpiredClaims(t *testing.T) {
	restoreNow(t)
	s := NewService([]byte("secret"), time.Minute)

	base := time.Now()
	timeNow = func() time.Time { return base }
	token, err := s.Mint("id-1", privilege.Enabled)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	claims, err := s.Validate(token)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	timeNow = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := s.Refresh(claims, privilege.Enabled); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
