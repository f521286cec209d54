package models

import (
	"time"

	"github.com/google/uuid"
)

// Member is a registered library member. The password hash never leaves the
// member vertical.
type Member struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash []byte    `json:"-"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the member view returned over the API.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Admin     bool      `json:"admin"`
}

func (m *Member) Profile() *Profile {
	return &Profile{
		ID:        m.ID,
		Username:  m.Username,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Admin:     m.Admin,
	}
}

// RegisterRequest creates a member account.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

// LoginRequest exchanges credentials for an access token.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}
