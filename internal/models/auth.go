package models

import "github.com/golang-jwt/jwt/v5"

// UserRole is the role claim issued by the auth provider.
type UserRole string

const (
	RoleAuthenticated UserRole = "authenticated"
	RoleAnonymous     UserRole = "anon"
	RoleServiceRole   UserRole = "service_role"
)

// JWTClaims represents the access token payload issued by the auth provider.
type JWTClaims struct {
	UserID   string   `json:"user_id,omitempty"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the user id, falling back to the subject claim.
func (c *JWTClaims) Identity() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name,omitempty"`
	Role  UserRole `json:"role"`
	Mode  Mode     `json:"mode"`
}
