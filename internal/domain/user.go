package domain

import "time"

// Role distinguishes administrators from regular participants.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User represents a platform account.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Points         int       `json:"points"`
	Bio            string    `json:"bio,omitempty"`
	Skills         []string  `json:"skills,omitempty"`
	GithubHandle   string    `json:"github_handle,omitempty"`
	LinkedinHandle string    `json:"linkedin_handle,omitempty"`
	PasswordHash   []byte    `json:"password_hash,omitempty"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Public returns a copy safe to hand to clients.
func (u User) Public() User {
	u.PasswordHash = nil
	if u.Skills != nil {
		u.Skills = append([]string(nil), u.Skills...)
	}
	return u
}

// ProfileUpdate carries the optional fields a user may change on their own
// profile. Nil fields are left untouched.
type ProfileUpdate struct {
	FullName       *string   `json:"full_name,omitempty"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	Bio            *string   `json:"bio,omitempty"`
	Skills         *[]string `json:"skills,omitempty"`
	GithubHandle   *string   `json:"github_handle,omitempty"`
	LinkedinHandle *string   `json:"linkedin_handle,omitempty"`
}

// Apply merges the update into u and returns the result.
func (p ProfileUpdate) Apply(u User) User {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Skills != nil {
		u.Skills = append([]string(nil), (*p.Skills)...)
	}
	if p.GithubHandle != nil {
		u.GithubHandle = *p.GithubHandle
	}
	if p.LinkedinHandle != nil {
		u.LinkedinHandle = *p.LinkedinHandle
	}
	return u
}
