// Package models defines the persisted entities of the identity service.
package models

import (
	"time"

	"github.com/ojudge/identity/internal/server/privilege"
)

// Identity is a user's profile record. ID is immutable once assigned;
// Email and Username are globally unique. Privilege only moves through
// explicit authorized transitions.
type Identity struct {
	ID          string
	Email       string
	Username    string
	Nickname    string
	Sex         string
	Motto       string
	Description string
	AvatarKey   string
	Privilege   privilege.Privilege
	CreatedAt   time.Time
}
