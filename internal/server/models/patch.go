package models

import "github.com/ojudge/identity/internal/server/privilege"

// IdentityPatch is a partial update of an Identity. A nil field means
// "absent, leave unchanged"; a non-nil field means "present, set to this
// value" even when the value is the empty string. Password travels here
// too so a profile edit and a password change can share one entry point,
// but its hash is written to the credential row, never to the identity.
type IdentityPatch struct {
	Email       *string
	Username    *string
	Nickname    *string
	Sex         *string
	Motto       *string
	Description *string
	Privilege   *privilege.Privilege
	Password    *string
}

// Apply copies the present fields onto a copy of base and returns it.
// Privilege and Password are deliberately not applied here: privilege
// changes pass through the policy check and passwords through the
// credential store first.
func (p *IdentityPatch) Apply(base Identity) Identity {
	if p.Email != nil {
		base.Email = *p.Email
	}
	if p.Username != nil {
		base.Username = *p.Username
	}
	if p.Nickname != nil {
		base.Nickname = *p.Nickname
	}
	if p.Sex != nil {
		base.Sex = *p.Sex
	}
	if p.Motto != nil {
		base.Motto = *p.Motto
	}
	if p.Description != nil {
		base.Description = *p.Description
	}
	return base
}
