// Package privilege defines the closed access-level enumeration attached to
// an identity and the pure decision logic around privilege transitions.
package privilege

// Privilege is an ordered access level. The numeric order is meaningful:
// a higher value strictly outranks a lower one.
type Privilege int

const (
	// Disabled covers both administratively disabled accounts and accounts
	// still pending signup confirmation; neither may log in to protected
	// operations.
	Disabled Privilege = 0
	Enabled  Privilege = 1
	Admin    Privilege = 2
	Root     Privilege = 3
)

// Valid reports whether p is a member of the closed enumeration.
// Arbitrary integers must not flow into an identity's privilege field.
func Valid(p Privilege) bool {
	return p >= Disabled && p <= Root
}

func (p Privilege) String() string {
	switch p {
	case Disabled:
		return "disabled"
	case Enabled:
		return "enabled"
	case Admin:
		return "admin"
	case Root:
		return "root"
	default:
		return "unknown"
	}
}
