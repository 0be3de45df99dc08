package auth

// AccountState is the lifecycle position of an account, derived from
// its persisted fields.
type AccountState string

const (
	// AccountStatePending is an invited account that did not register yet
	AccountStatePending AccountState = "pending"
	// AccountStateActive can sign in
	AccountStateActive AccountState = "active"
	// AccountStateDisabled is inactive but holds a real password
	AccountStateDisabled AccountState = "disabled"
	// AccountStateRemoved is soft deleted
	AccountStateRemoved AccountState = "removed"
)

var accountTransitions = map[AccountState]map[AccountState]struct{}{
	AccountStatePending: {
		AccountStateActive:  {},
		AccountStateRemoved: {},
	},
	AccountStateActive: {
		AccountStateActive:   {},
		AccountStateDisabled: {},
		AccountStateRemoved:  {},
	},
	AccountStateDisabled: {
		AccountStateActive:  {},
		AccountStateRemoved: {},
	},
}

// AccountStateOf derives the state of user. Removal wins over the
// other flags.
func AccountStateOf(user *User) AccountState {
	switch {
	case user == nil:
		return ""
	case user.IsRemoved():
		return AccountStateRemoved
	case !user.HasUsablePassword():
		return AccountStatePending
	case user.IsActive():
		return AccountStateActive
	default:
		return AccountStateDisabled
	}
}

// CanTransition reports whether an account may move from one state to
// another. Removed is terminal.
func CanTransition(from, to AccountState) bool {
	allowed, ok := accountTransitions[from]
	if !ok {
		return false
	}
	_, exists := allowed[to]
	return exists
}

// Authenticated is true only when user holds a usable hash matching
// plain. Invited accounts carry a placeholder and can never match.
func Authenticated(user *User, plain string) bool {
	if user == nil || !user.HasUsablePassword() || plain == "" {
		return false
	}
	return CheckPassword(user.PasswordHash, plain)
}
