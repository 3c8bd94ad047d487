// Package models declares the documents stored by folio. Field names are
// shared by the bson and json tags so every document store backend sees
// the same shape.
package models

import "time"

// Role is an account's permission level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account collection and field names.
const (
	AccountsCollection = "users"

	AccountUsername          = "username"
	AccountVerificationToken = "verificationToken"
	AccountAccessCount       = "accessCount"
	AccountRole              = "role"
)

type Account struct {
	ID                string    `bson:"_id,omitempty" json:"id,omitempty"`
	Username          string    `bson:"username" json:"username"`
	PasswordHash      string    `bson:"passwordHash" json:"passwordHash"`
	VerificationToken string    `bson:"verificationToken,omitempty" json:"verificationToken,omitempty"`
	IsVerified        bool      `bson:"isVerified" json:"isVerified"`
	Role              Role      `bson:"role" json:"role"`
	AccessCount       int64     `bson:"accessCount" json:"accessCount"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
}

// IsAdmin reports whether the account carries the admin role.
func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
