package security

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashers(t *testing.T) map[string]Hasher {
	t.Helper()
	argon, err := NewHasher("argon2id", 0)
	require.NoError(t, err)
	bc, err := NewHasher("bcrypt", bcrypt.MinCost)
	require.NoError(t, err)
	return map[string]Hasher{"argon2id": argon, "bcrypt": bc}
}

func TestHasher_RoundTrip(t *testing.T) {
	for name, h := range hashers(t) {
		t.Run(name, func(t *testing.T) {
			salt, err := h.GenerateSalt()
			require.NoError(t, err)

			hash, err := h.Hash("Passw0rd!", salt)
			require.NoError(t, err)
			assert.NotEqual(t, "Passw0rd!", hash)

			assert.NoError(t, h.Verify("Passw0rd!", salt, hash))
			assert.ErrorIs(t, h.Verify("passw0rd!", salt, hash), ErrPasswordMismatch)
		})
	}
}

func TestHasher_SaltChangesHash(t *testing.T) {
	for name, h := range hashers(t) {
		t.Run(name, func(t *testing.T) {
			saltA, err := h.GenerateSalt()
			require.NoError(t, err)
			saltB, err := h.GenerateSalt()
			require.NoError(t, err)
			require.NotEqual(t, saltA, saltB)

			hashA, err := h.Hash("Passw0rd!", saltA)
			require.NoError(t, err)
			hashB, err := h.Hash("Passw0rd!", saltB)
			require.NoError(t, err)
			assert.NotEqual(t, hashA, hashB)

			err = h.Verify("Passw0rd!", saltB, hashA)
			assert.True(t, errors.Is(err, ErrPasswordMismatch), "got %v", err)
		})
	}
}

func TestArgon2Hasher_Deterministic(t *testing.T) {
	h := Argon2Hasher{}
	salt, err := h.GenerateSalt()
	require.NoError(t, err)

	first, err := h.Hash("Passw0rd!", salt)
	require.NoError(t, err)
	second, err := h.Hash("Passw0rd!", salt)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestArgon2Hasher_RejectsCorruptInput(t *testing.T) {
	h := Argon2Hasher{}

	_, err := h.Hash("Passw0rd!", "not base64!")
	assert.Error(t, err)

	salt, err := h.GenerateSalt()
	require.NoError(t, err)
	err = h.Verify("Passw0rd!", salt, "%%%")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestNewHasher(t *testing.T) {
	_, err := NewHasher("md5", 10)
	assert.Error(t, err)

	_, err = NewHasher("bcrypt", 99)
	assert.Error(t, err)

	h, err := NewHasher("", 0)
	require.NoError(t, err)
	assert.IsType(t, Argon2Hasher{}, h)
}
