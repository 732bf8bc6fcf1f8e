package privilege

// Initial returns the privilege a freshly registered identity starts with.
// Deployments that require signup confirmation keep the account Disabled
// until the confirmation flow (or an admin) raises it.
func Initial(requiresConfirmation bool) Privilege {
	if requiresConfirmation {
		return Disabled
	}
	return Enabled
}

// CanChange decides whether an actor holding acting may move a target
// identity from targetCurrent to targetRequested. Evaluated before any
// privilege-bearing update reaches storage, so a generic profile-update
// path cannot be used for silent self-escalation.
//
// Rules: the actor must hold an administrative tier and strictly outrank
// both the target's current and requested levels. A no-op change is
// allowed for any administrative actor.
func CanChange(acting, targetCurrent, targetRequested Privilege) bool {
	if !Valid(acting) || !Valid(targetCurrent) || !Valid(targetRequested) {
		return false
	}
	if acting < Admin {
		return false
	}
	if targetCurrent == targetRequested {
		return true
	}
	return targetCurrent < acting && targetRequested < acting
}
