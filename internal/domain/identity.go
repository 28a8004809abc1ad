package domain

// Role describes what a verified identity is allowed to do on the relay.
type Role string

const (
	// RoleUser is a regular end user. Users only ever see their own
	// conversation.
	RoleUser Role = "user"
	// RoleAdmin is a support administrator. Admins share the admins room and
	// may address any user's conversation.
	RoleAdmin Role = "admin"
)

// Identity is the authenticated identity bound to a connection. It is
// obtained exclusively from the identity verifier; client-supplied fields are
// never trusted. An Identity is immutable for the lifetime of its session.
type Identity struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
