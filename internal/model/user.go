package model

import "time"

// User is an account holder. The password digest and both session tokens are
// never serialized; the auth handlers return tokens through a dedicated
// session payload instead.
type User struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	NetID             string    `json:"netid"`
	Email             string    `json:"email"`
	PasswordDigest    string    `json:"-"`
	SessionToken      string    `json:"-"`
	SessionExpiration time.Time `json:"-"`
	UpdateToken       string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
