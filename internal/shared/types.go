package shared

import "github.com/golang-jwt/jwt/v5"

// shared types across the application

// TokenTypeAccess is the only token type the API issues.
const TokenTypeAccess = "access"

// AuthClaims is the JWT payload handed out by POST /auth/token/.
// Subject carries the user id; the actor is re-read from the store on every request.
type AuthClaims struct {
	Username string `json:"username"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}
