package chatter

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleResponder Role = "responder"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleResponder
}
