package auth

import (
	"github.com/grupobarca/barca-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
// Accounts are keyed by phone number.
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token and user produced by a successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}

// RegisterRequest contains the payload required to create an account. The
// referral code is optional and links the new user to their referrer.
type RegisterRequest struct {
	FirstName    string  `json:"first_name" validate:"required"`
	LastName     string  `json:"last_name" validate:"required"`
	Phone        string  `json:"phone" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	ReferralCode *string `json:"referral_code,omitempty"`
}

// RegisterResponse exposes the created account.
type RegisterResponse struct {
	User *users.UserDTO `json:"user"`
}
