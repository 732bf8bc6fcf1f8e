package models

import "time"

// Credential is the secret-bearing record owned by exactly one Identity.
// PasswordHash is a self-describing bcrypt encoding (algorithm id, cost and
// salt are embedded in the string); a plaintext password is never stored.
// A credential row exists if and only if its identity row exists; the
// pairing is enforced by the dual-write protocol in the store package.
type Credential struct {
	IdentityID   string
	PasswordHash string
	UpdatedAt    time.Time
}
