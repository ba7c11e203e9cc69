package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims identifica o operador autenticado
type Claims struct {
	UserEmail  string `json:"user_email"`
	UserName   string `json:"user_name"`
	UserRoleID int    `json:"user_role_id"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

const (
	RoleAdmin      = 1
	RoleSupervisor = 2
	RoleClient     = 3
)
