package models

// Role is a member's capability inside a group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Membership links a user to a group. Group CRUD lives elsewhere; the
// settlement core only reads memberships for the roster and admin checks.
type Membership struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
	Role    Role   `json:"role"`
	Active  bool   `json:"active"`
}

// IsAdmin reports whether the membership grants admin capability.
func (m *Membership) IsAdmin() bool {
	return m != nil && m.Active && m.Role == RoleAdmin
}
