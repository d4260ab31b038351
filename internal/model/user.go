package model

import "time"

// User represents an account record as stored in the `users` table.
// The password is never kept in plain text; only the bcrypt hash is
// persisted.  Users are immutable after registration.
//
// Fields:
//  ID           – UUID primary key.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           ID        // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}
