package types

import "time"

// Admin roles assignable to a user. An empty AdminRole means the user holds
// no role even when IsAdmin is set.
const (
	RoleSuperadmin     = "superadmin"
	RoleModerator      = "moderator"
	RoleContentManager = "content-manager"
)

// User represents an account in the system. Accounts are created on first
// identity-provider sign-in and updated on every subsequent sign-in.
type User struct {
	// ID is the unique identifier of the user. Identifiers are rendered as
	// opaque strings at the API boundary.
	ID int `json:"id,string" db:"id"`

	// GoogleID is the identity provider's stable subject key for this
	// account. Unique; sign-in upserts on it.
	GoogleID string `json:"google_id" db:"google_id"`

	// Name is the user's display name, refreshed from the identity
	// provider on each sign-in.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. Unique, stored lowercased.
	Email string `json:"email" db:"email"`

	// Image is the URL of the user's avatar.
	Image string `json:"image,omitempty" db:"image"`

	// IsAdmin gates access to the management surface. When false the user
	// is a content consumer only.
	IsAdmin bool `json:"is_admin" db:"is_admin"`

	// AdminRole is one of RoleSuperadmin, RoleModerator,
	// RoleContentManager, or empty when no role is assigned.
	AdminRole string `json:"admin_role,omitempty" db:"admin_role"`

	// Permissions is the set of action tokens granted to this user
	// (e.g. "create", "update", "delete"). Always normalized to a flat
	// lowercase slice; legacy comma-joined values are split at the
	// persistence boundary.
	Permissions []string `json:"permissions" db:"permissions"`

	// LastLogin is updated on every successful session establishment.
	LastLogin time.Time `json:"last_login,omitempty" db:"last_login"`

	// PasswordHash is set only for locally bootstrapped admin accounts.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasPermission reports whether the user's permission set contains the token.
func (u User) HasPermission(token string) bool {
	for _, p := range u.Permissions {
		if p == token {
			return true
		}
	}
	return false
}
