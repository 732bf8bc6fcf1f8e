package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/ojudge/identity/internal/logging"
	"github.com/ojudge/identity/internal/server/services"
	"github.com/ojudge/identity/internal/server/tokens"
)

// Server wraps the configured http.Server. Routes are fixed at
// construction; Start and Shutdown bracket its lifecycle.
type Server struct {
	inner *http.Server
}

// New wires routes, auth middleware, and request logging into a ready
// server listening on addr.
func New(addr string,
	auth *services.AuthService,
	ids *services.IdentityService,
	avatars *services.AvatarService,
	tokenSvc *tokens.Service,
	logger logging.Logger,
) *Server {
	authHandler := NewAuthHandler(auth, logger)
	identityHandler := NewIdentityHandler(ids, avatars, logger)

	mux := http.NewServeMux()

	// Public surface.
	mux.HandleFunc("POST /login", authHandler.handleLogin)
	mux.HandleFunc("POST /refresh", authHandler.handleRefresh)
	mux.HandleFunc("POST /identities", identityHandler.handleCreate)

	// Authenticated surface.
	mux.Handle("GET /identities/{id}", authenticate(tokenSvc,
		http.HandlerFunc(identityHandler.handleGet)))
	mux.Handle("PATCH /identities/{id}", authenticate(tokenSvc,
		http.HandlerFunc(identityHandler.handlePatch)))
	mux.Handle("POST /identities/{id}/avatar-upload-url", authenticate(tokenSvc,
		http.HandlerFunc(identityHandler.handleAvatarUploadURL)))
	mux.Handle("GET /identities/{id}/avatar-url", authenticate(tokenSvc,
		http.HandlerFunc(identityHandler.handleAvatarDownloadURL)))

	// Admin-tier surface.
	mux.Handle("GET /identities", authenticate(tokenSvc,
		requireAdmin(http.HandlerFunc(identityHandler.handleList))))

	handler := requestLogging(logger.With("module", "http"), mux)

	return &Server{inner: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
