package model

import "time"

// User represents a player account.
//
// Passcode is stored and compared in plaintext: it is a low-value shared
// secret handed out by the operator, not a real credential.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Passcode  string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerLoginRequest is the payload for a player login.
type PlayerLoginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Passcode string `json:"passcode" binding:"omitempty,max=16"`
}
