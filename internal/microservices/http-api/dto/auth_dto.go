package dto

// Data Transfer Objects for the signup and token exchange flow

// SignupRequest: payload for POST /auth/signup/
type SignupRequest struct {
	Username string `json:"username" binding:"required,max=150,username"`
	Email    string `json:"email" binding:"required,max=254,email"`
}

// SignupResponse echoes the accepted identity; the code travels out of band.
type SignupResponse struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// TokenRequest: payload for POST /auth/token/
type TokenRequest struct {
	Username         string `json:"username" binding:"required,max=150"`
	ConfirmationCode string `json:"confirmation_code" binding:"required,max=64"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
