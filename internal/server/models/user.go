package models

import "time"

// User is one account row. Password holds the bcrypt digest, never the
// plaintext. ID is generated by the database at insert time.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
