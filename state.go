package session

// Status is the tagged session lifecycle state. Modeling the lifecycle
// as a variant instead of independent loading/user/error fields makes
// illegal combinations unrepresentable.
type Status string

const (
	// StatusUninitialized is the state before Bootstrap runs
	StatusUninitialized Status = "uninitialized"
	// StatusBootstrapping is the one-time startup restore from storage
	StatusBootstrapping Status = "bootstrapping"
	// StatusAnonymous has no user; login and registration are reachable
	StatusAnonymous Status = "anonymous"
	// StatusAuthenticated has a populated user
	StatusAuthenticated Status = "authenticated"
)

// Loading reports whether the session outcome is still unknown.
func (s Status) Loading() bool {
	return s == StatusUninitialized || s == StatusBootstrapping
}

// Snapshot is a read-only view of the session state, safe to hand to
// guards and templates. All mutations go through Manager.
type Snapshot struct {
	Status Status
	User   *User
	Err    string
}

// Loading reports whether bootstrap has not settled yet.
func (s Snapshot) Loading() bool {
	return s.Status.Loading()
}

// Authenticated reports whether a user is present.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// Role returns the authenticated user's role, or "".
func (s Snapshot) Role() Role {
	if !s.Authenticated() {
		return ""
	}
	return s.User.Role
}

// sessionTransitions is the allowed lifecycle graph. Same-state moves are
// permitted (profile re-hydration while authenticated).
var sessionTransitions = map[Status]map[Status]struct{}{
	StatusUninitialized: {
		StatusBootstrapping: {},
	},
	StatusBootstrapping: {
		StatusAnonymous:     {},
		StatusAuthenticated: {},
	},
	StatusAnonymous: {
		StatusAuthenticated: {},
	},
	StatusAuthenticated: {
		StatusAnonymous: {},
	},
}

func canTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := sessionTransitions[from]
	if !ok {
		return false
	}
	_, exists := allowed[to]
	return exists
}
