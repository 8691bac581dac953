// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUserIDTooLong   = errors.New("user id too long")
)

type UserID string

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// NewUser builds a user from client-supplied identity. Clients own their
// userId; an empty one gets a fresh uuid so a bare username still works.
func NewUser(id, username string) (*User, error) {
	if len(username) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	if len(id) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &User{ID: UserID(id), Username: username}, nil
}
