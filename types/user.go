package types

import "time"

// Role is the authorization level of a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleViewer:
		return true
	}
	return false
}

// Status is the lifecycle state of a user. Deleted users are inactive.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// User is the public representation of an account.
// It never carries the password.
type User struct {
	// ID is assigned by the store on insert and never changes.
	ID int `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is unique across every record, active or not.
	Email string `json:"email" db:"email"`

	Role   Role   `json:"role" db:"role"`
	Status Status `json:"status" db:"status"`

	// CreatedAt is set once at insert.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is refreshed on every mutation made through the admin API.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// LastLogin is nil until the first successful authentication.
	LastLogin *time.Time `json:"last_login" db:"last_login"`
}

// UserRecord is the full stored row, used only for authentication.
type UserRecord struct {
	User

	// Password is stored as supplied by the configured password scheme.
	Password string `json:"-" db:"password"`
}

// NewUser holds the fields required to insert a user.
// An empty Status defaults to active.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     Role
	Status   Status
}

// UserUpdate holds the fields of a partial update. Empty values mean
// "not supplied" and leave the column untouched.
type UserUpdate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role" validate:"omitempty,role"`
	Status   Status `json:"status" validate:"omitempty,status"`
}

// RoleCounts holds the number of active users per role.
type RoleCounts struct {
	Admin    int `json:"admin"`
	Operator int `json:"operator"`
	Viewer   int `json:"viewer"`
}

// Total sums the three role counts.
func (c RoleCounts) Total() int {
	return c.Admin + c.Operator + c.Viewer
}

// UserStats is the stats payload: per-role counts plus their total.
type UserStats struct {
	RoleCounts
	Total int `json:"total"`
}

// AuthUser is the identity returned by a successful login.
type AuthUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
