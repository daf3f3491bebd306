package domain

// Role enumerates profile roles. A profile without a role field is a plain
// user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserProfile is the directory document keyed by the identity provider's
// subject id. Created lazily on first profile access.
type UserProfile struct {
	UID        string `json:"-"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Location   string `json:"location,omitempty"`
	Department string `json:"department,omitempty"`
	Role       Role   `json:"role,omitempty"`
}

// EffectiveRole resolves the absent-role default.
func (p UserProfile) EffectiveRole() Role {
	if p.Role == "" {
		return RoleUser
	}
	return p.Role
}
