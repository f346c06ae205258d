package models

import (
	"strings"
	"time"
)

// Validate checks if the user meets all validation requirements
func (u *User) Validate() error {
	return validate.Struct(u)
}

// ValidateProfile validates every field except the password hash.
func (u *User) ValidateProfile() error {
	return validate.StructExcept(u, "Password")
}

// BeforeCreate forces the defaults every new account starts with.
func (u *User) BeforeCreate(now time.Time) {
	u.Email = NormalizeEmail(u.Email)
	u.Role = RoleUser
	u.IsVerified = false
	u.CreatedAt = now
	u.UpdatedAt = now
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Public returns the client-safe projection of the user.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Bio:        u.Bio,
		Username:   u.Username,
		Location:   u.Location,
		Avatar:     u.Avatar,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// NormalizeEmail lowercases and trims an email address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
