package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// BcryptHasher stores bcrypt hashes. bcrypt reads at most 72 bytes, so the
// password is reduced to its hex SHA-256 digest first.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(prehash(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// maxLegacyPasswordLen is the longest password bcrypt accepts unhashed.
const maxLegacyPasswordLen = 72

// digestRe matches prehash output. No password passing ValidatePassword has
// this shape, so a digest is never tried against a legacy hash.
var digestRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Compare reports whether password matches hash. A malformed hash is an
// error, a mismatch is not. Hashes imported from the older store were taken
// over the plain password and are accepted as well.
func (h *BcryptHasher) Compare(hash, password string) (bool, error) {
	ok, err := compare(hash, prehash(password))
	if ok || err != nil || len(password) > maxLegacyPasswordLen || digestRe.MatchString(password) {
		return ok, err
	}
	return compare(hash, []byte(password))
}

func compare(hash string, password []byte) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), password)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
