package auth

import (
	"regexp"
	"strings"

	"github.com/dmitrijs2005/folio/internal/common"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var (
	passwordCharset = regexp.MustCompile(`^[!-~]+$`)
	passwordLower   = regexp.MustCompile(`[a-z]`)
	passwordUpper   = regexp.MustCompile(`[A-Z]`)
	passwordDigit   = regexp.MustCompile(`[0-9]`)
	passwordSymbol  = regexp.MustCompile("[!-/:-@\\[-`{-~]")
)

var errWeakPassword = common.ErrValidation.WithMessage(
	"password must be 8 to 128 printable ASCII characters without spaces and include a lowercase letter, an uppercase letter, a digit and a symbol")

// ValidatePassword enforces the password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return errWeakPassword
	}
	if !passwordCharset.MatchString(password) {
		return errWeakPassword
	}
	for _, re := range []*regexp.Regexp{passwordLower, passwordUpper, passwordDigit, passwordSymbol} {
		if !re.MatchString(password) {
			return errWeakPassword
		}
	}
	return nil
}

// ValidateUsername rejects empty or blank account names.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return common.ErrInvalidUsername
	}
	return nil
}
