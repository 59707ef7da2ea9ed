package domain

// Role differentiates end-users from platform administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Principal is the acting identity supplied by the identity provider.
type Principal struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// NoteOrigin maps the principal to the origin recorded on notes it writes.
func (p Principal) NoteOrigin() NoteOrigin {
	if p.IsAdmin() {
		return OriginAdmin
	}
	return OriginUser
}

// CanAccess reports whether the principal may see a request owned by ownerID.
func (p Principal) CanAccess(ownerID string) bool {
	return p.IsAdmin() || (p.ID != "" && p.ID == ownerID)
}
