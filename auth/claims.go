package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the token payload issued by the auth service.
// iss, iat, exp and jti arrive through the embedded registered claims
// (jti is RegisteredClaims.ID).
type Claims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}
