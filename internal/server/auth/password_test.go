package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, "Passw0rd!", hash)

	ok, err := h.Compare(hash, "Passw0rd!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(hash, "Passw0rd?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_LongPasswordsDiffer(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	base := strings.Repeat("Aa1!", 25)
	hash, err := h.Hash(base + "x")
	require.NoError(t, err)

	ok, err := h.Compare(hash, base+"y")
	require.NoError(t, err)
	assert.False(t, ok, "bytes past 72 must still count")
}

func TestBcryptHasher_AcceptsPlainBcryptHashes(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	legacy, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := h.Compare(string(legacy), "Passw0rd!")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(string(legacy), "Passw0rd?")
	require.NoError(t, err)
	assert.False(t, ok)

	hash, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	ok, err = h.Compare(hash, string(prehash("Passw0rd!")))
	require.NoError(t, err)
	assert.False(t, ok, "a digest is not accepted as the password")
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	h := NewBcryptHasher(0)
	assert.Equal(t, bcrypt.DefaultCost, h.Cost)

	_, err := h.Compare("not-a-hash", "Passw0rd!")
	assert.Error(t, err)
}
