package models

import "time"

// User is a registered account. Email is the lowercased login key.
type User struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}
