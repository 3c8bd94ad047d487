package models

import "time"

const (
	RefreshTokensCollection = "refresh_tokens"

	RefreshTokenUsername = "username"
	RefreshTokenValue    = "refreshToken"
)

// RefreshToken is the single live refresh token of a user.
type RefreshToken struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Username  string    `bson:"username" json:"username"`
	Token     string    `bson:"refreshToken" json:"refreshToken"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
