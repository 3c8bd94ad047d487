// Package common contains constants and the error taxonomy shared by the
// folio server and its operator CLI.
package common

// Cookie names carrying the session tokens.
const (
	AccessTokenCookieName  = "authToken"
	RefreshTokenCookieName = "refreshToken"
)

