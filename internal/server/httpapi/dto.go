package httpapi

import (
	"time"

	"github.com/ojudge/identity/internal/server/models"
	"github.com/ojudge/identity/internal/server/privilege"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type createIdentityRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// patchIdentityRequest mirrors models.IdentityPatch: a field omitted from
// the JSON body is left unchanged, a field present (even as "") is set.
type patchIdentityRequest struct {
	Email       *string `json:"email"`
	Username    *string `json:"username"`
	Nickname    *string `json:"nickname"`
	Sex         *string `json:"sex"`
	Motto       *string `json:"motto"`
	Description *string `json:"description"`
	Privilege   *int    `json:"privilege"`
	Password    *string `json:"password"`
}

func (r *patchIdentityRequest) toPatch() *models.IdentityPatch {
	patch := &models.IdentityPatch{
		Email:       r.Email,
		Username:    r.Username,
		Nickname:    r.Nickname,
		Sex:         r.Sex,
		Motto:       r.Motto,
		Description: r.Description,
		Password:    r.Password,
	}
	if r.Privilege != nil {
		p := privilege.Privilege(*r.Privilege)
		patch.Privilege = &p
	}
	return patch
}

// identityResponse is the public view of an identity. The password hash
// never appears here; it lives in a different row entirely.
type identityResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Nickname    string    `json:"nickname"`
	Sex         string    `json:"sex"`
	Motto       string    `json:"motto"`
	Description string    `json:"description"`
	AvatarKey   string    `json:"avatar_key,omitempty"`
	Privilege   int       `json:"privilege"`
	CreatedAt   time.Time `json:"created_at"`
}

func toIdentityResponse(m *models.Identity) identityResponse {
	return identityResponse{
		ID:          m.ID,
		Email:       m.Email,
		Username:    m.Username,
		Nickname:    m.Nickname,
		Sex:         m.Sex,
		Motto:       m.Motto,
		Description: m.Description,
		AvatarKey:   m.AvatarKey,
		Privilege:   int(m.Privilege),
		CreatedAt:   m.CreatedAt,
	}
}

func toIdentityResponses(ms []models.Identity) []identityResponse {
	out := make([]identityResponse, 0, len(ms))
	for i := range ms {
		out = append(out, toIdentityResponse(&ms[i]))
	}
	return out
}

type uploadURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type downloadURLResponse struct {
	URL string `json:"url"`
}
