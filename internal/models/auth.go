package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        User      `json:"user"`
	SessionID   string    `json:"session_id"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Username  string   `json:"username"`
	Name      string   `json:"name"`
	Role      UserRole `json:"role"`
	SessionID string   `json:"sid"`
	jwt.RegisteredClaims
}

// User returns the user described by the claims.
func (c *JWTClaims) User() User {
	return User{ID: c.UserID, Username: c.Username, Name: c.Name, Role: c.Role}
}
