package dto

// ProfileResponse is the directory representation of a user.
type ProfileResponse struct {
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Location   string `json:"location,omitempty"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role"`
}

// SaveProfileRequest payload.
type SaveProfileRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Location   string `json:"location"`
	Department string `json:"department"`
}

// SetRoleRequest payload for admin role management.
type SetRoleRequest struct {
	Role string `json:"role"`
}
