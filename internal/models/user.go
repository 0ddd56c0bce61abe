package models

import "time"

type User struct {
	ID           int64
	Email        string
	PasswordHash []byte
	Name         string
	Phone        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the caller-visible projection of a User. Password material
// never leaves the auth service.
type PublicUser struct {
	ID    int64   `json:"id"`
	Email string  `json:"email"`
	Name  string  `json:"name"`
	Phone *string `json:"phone"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Phone: u.Phone,
	}
}

// AuthToken is a tracked bearer token. A token is only accepted while a row
// for it exists and its expiry has not passed, in addition to the JWT
// signature check.
type AuthToken struct {
	ID        int64
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}
