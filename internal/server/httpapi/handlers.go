package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ojudge/identity/internal/logging"
	"github.com/ojudge/identity/internal/server/models"
	"github.com/ojudge/identity/internal/server/repositories/identities"
	"github.com/ojudge/identity/internal/server/services"
)

// AuthHandler owns the unauthenticated token endpoints.
type AuthHandler struct {
	auth   *services.AuthService
	logger logging.Logger
}

func NewAuthHandler(auth *services.AuthService, logger logging.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger.With("module", "http_auth")}
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	token, err := h.auth.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "login successful", tokenResponse{Token: token})
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	raw := bearerToken(r)
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	token, err := h.auth.RefreshToken(r.Context(), raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "token refreshed", tokenResponse{Token: token})
}

// IdentityHandler owns identity CRUD and the paged read endpoints.
type IdentityHandler struct {
	identities *services.IdentityService
	avatars    *services.AvatarService
	logger     logging.Logger
}

func NewIdentityHandler(ids *services.IdentityService, avatars *services.AvatarService, logger logging.Logger) *IdentityHandler {
	return &IdentityHandler{identities: ids, avatars: avatars, logger: logger.With("module", "http_identity")}
}

func (h *IdentityHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	created, err := h.identities.Create(r.Context(), services.RegistrationPayload{
		Email:    req.Email,
		Username: req.Username,
		Nickname: req.Nickname,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, "identity created", toIdentityResponse(created))
}

func (h *IdentityHandler) handlePatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	claims := claimsFromContext(r.Context())
	if !canActOn(claims, id) {
		writeError(w, http.StatusForbidden, "not your account")
		return
	}

	var req patchIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	updated, err := h.identities.Update(r.Context(), id, req.toPatch(), claims.Privilege)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "identity updated", toIdentityResponse(updated))
}

func (h *IdentityHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identities.Get(r.Context(), r.PathValue("id"), identities.ByID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "ok", toIdentityResponse(identity))
}

// handleList serves both listing and keyword search: a non-empty q query
// parameter switches to search. Pages are 1-indexed; a page past the end
// is a 404, so clients can walk pages until they hit one.
func (h *IdentityHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := intQueryParam(q.Get("page"), 1)
	pageSize := intQueryParam(q.Get("page_size"), 0)
	orderBy := identities.OrderField(q.Get("order_by"))
	if orderBy == "" {
		orderBy = identities.OrderByCreatedAt
	}
	order := identities.Direction(strings.ToUpper(q.Get("order")))
	if order == "" {
		order = identities.Asc
	}

	var items []models.Identity
	var err error
	if keyword := strings.TrimSpace(q.Get("q")); keyword != "" {
		items, err = h.identities.Search(r.Context(), keyword, orderBy, order, page, pageSize)
	} else {
		items, err = h.identities.List(r.Context(), orderBy, order, page, pageSize)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "ok", toIdentityResponses(items))
}

func (h *IdentityHandler) handleAvatarUploadURL(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !canActOn(claimsFromContext(r.Context()), id) {
		writeError(w, http.StatusForbidden, "not your account")
		return
	}
	key, url, err := h.avatars.GetUploadURL(r.Context(), id)
	if err != nil {
		h.logger.Error(r.Context(), "presign upload failed", "identity_id", id)
		writeError(w, http.StatusBadGateway, "object store unavailable")
		return
	}
	if _, err := h.identities.SetAvatar(r.Context(), id, key); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, "ok", uploadURLResponse{Key: key, URL: url})
}

func (h *IdentityHandler) handleAvatarDownloadURL(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identities.Get(r.Context(), r.PathValue("id"), identities.ByID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if identity.AvatarKey == "" {
		writeError(w, http.StatusNotFound, "no avatar set")
		return
	}
	url, err := h.avatars.GetDownloadURL(r.Context(), identity.AvatarKey)
	if err != nil {
		h.logger.Error(r.Context(), "presign download failed", "identity_id", identity.ID)
		writeError(w, http.StatusBadGateway, "object store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, "ok", downloadURLResponse{URL: url})
}

func intQueryParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
