package models

import (
	"time"

	"github.com/google/uuid"
)

// Tokens is the password-grant response of the upstream auth endpoint.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	AccessToken  string    `db:"access_token" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	TokenType    string    `db:"token_type" json:"token_type"`
	User         *User     `db:"user_profile" json:"user,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Token returns the bearer token, or "" for a nil session.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.AccessToken
}
