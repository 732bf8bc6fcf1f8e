package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ojudge/identity/internal/common"
	"github.com/ojudge/identity/internal/logging"
	"github.com/ojudge/identity/internal/server/privilege"
	"github.com/ojudge/identity/internal/server/tokens"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// claimsFromContext returns the verified token claims the auth middleware
// stored, or nil on unauthenticated routes.
func claimsFromContext(ctx context.Context) *tokens.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*tokens.Claims)
	return claims
}

// bearerToken extracts the raw token from the Authorization header without
// validating it. The refresh endpoint wants exactly that.
func bearerToken(r *http.Request) string {
	header := r.Header.Get(common.AuthorizationHeaderName)
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return ""
	}
	return strings.TrimPrefix(header, common.BearerPrefix)
}

// authenticate validates the bearer token and threads its claims through
// the request context. Missing, expired, or forged tokens are 401.
func authenticate(svc *tokens.Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := svc.Validate(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin sits behind authenticate and gates admin-tier routes.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Privilege < privilege.Admin {
			writeError(w, http.StatusForbidden, "admin privilege required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// canActOn reports whether the caller may touch the identity with id:
// the identity itself, or any admin-tier account.
func canActOn(claims *tokens.Claims, id string) bool {
	if claims == nil {
		return false
	}
	return claims.IdentityID == id || claims.Privilege >= privilege.Admin
}

// requestLogging logs one line per request with method, path, and latency.
func requestLogging(logger logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info(r.Context(), "request handled",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}
