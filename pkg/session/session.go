package session

import "time"

// Status is the domain type for session lifecycle states.
type Status string

// Session status constants (typed).
const (
	// StatusUnresolved means the local cache has not been consulted yet.
	StatusUnresolved Status = "unresolved"
	// StatusAuthenticating means a provider round trip is in flight.
	StatusAuthenticating Status = "authenticating"
	// StatusAuthenticated means the provider confirmed an active identity.
	StatusAuthenticated Status = "authenticated"
	// StatusAnonymous means the provider confirmed no active identity,
	// or logout completed.
	StatusAnonymous Status = "anonymous"
)

// Profile is the denormalized display data for a user, merged from
// provider defaults and the stored profile record.
type Profile struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Institution string `json:"institution"`
	CohortYear  string `json:"cohort_year"`
}

// Session is the single shared value representing the current user.
//
// Sessions are replaced wholesale, never field-mutated in place, so
// observers always see a self-consistent snapshot. Provisional is set
// while the session reflects only the startup cache hint; a confirmed
// StatusAuthenticated session always carries a non-empty Identity and
// a non-nil Profile.
type Session struct {
	Identity    string   `json:"identity,omitempty"`
	Profile     *Profile `json:"profile,omitempty"`
	Status      Status   `json:"status"`
	Provisional bool     `json:"provisional,omitempty"`

	// Generation increases monotonically with every replacement and is
	// used to discard results of provider round trips that lost a race.
	Generation uint64 `json:"-"`
}

// Authenticated reports whether the session represents a confirmed
// signed-in user (cache hints do not count).
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated && !s.Provisional && s.Identity != "" && s.Profile != nil
}

// Identity is the provider-issued account identity plus the display
// defaults the provider holds for it.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
}

// RegistrationInput carries the fields collected at sign-up.
// Validation beyond a non-empty check happens at the provider boundary.
type RegistrationInput struct {
	Name        string
	Email       string
	Password    string
	Institution string
	CohortYear  string
}

// ProfileRecord is the per-user record held by the ProfileStore.
type ProfileRecord struct {
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Institution string    `json:"institution"`
	CohortYear  string    `json:"cohort_year"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileUpdate describes a partial update to a profile record.
// Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string
	Institution *string
	CohortYear  *string
}
