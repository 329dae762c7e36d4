package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
)

// Capability names an action guarded by role.
type Capability string

const (
	CapManageStudents     Capability = "students:manage"
	CapRecordTransactions Capability = "transactions:record"
	CapAuditLedger        Capability = "ledger:audit"
)

var roleCapabilities = map[UserRole]map[Capability]struct{}{
	RoleAdmin: {
		CapManageStudents:     {},
		CapRecordTransactions: {},
		CapAuditLedger:        {},
	},
	RoleTeacher: {
		CapRecordTransactions: {},
	},
}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants the capability.
func (r UserRole) Can(c Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[c]
	return ok
}

// User is an operator of the application (administrator or teacher).
type User struct {
	ID       string   `db:"user_id" json:"id"`
	Username string   `db:"username" json:"username"`
	Name     string   `db:"name" json:"name"`
	Role     UserRole `db:"role" json:"role"`
}

// UserCredential pairs a user with its bcrypt password hash.
type UserCredential struct {
	User         User
	PasswordHash string
}

// Session is the persisted current-user record.
type Session struct {
	User
	SessionID  string    `db:"session_id" json:"session_id"`
	LoggedInAt time.Time `db:"logged_in_at" json:"logged_in_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
