package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	saltLength = 16

	argonIterations  = 2
	argonMemory      = 19 * 1024
	argonParallelism = 1
	argonKeyLength   = 32
)

var ErrPasswordMismatch = errors.New("security: password does not match")

// Hasher turns a password and a per-user salt into a stored hash. Verify
// returns nil on match and ErrPasswordMismatch otherwise.
type Hasher interface {
	GenerateSalt() (string, error)
	Hash(password, salt string) (string, error)
	Verify(password, salt, hash string) error
}

// NewHasher returns the hasher registered under name.
func NewHasher(name string, bcryptCost int) (Hasher, error) {
	switch name {
	case "", "argon2id":
		return Argon2Hasher{}, nil
	case "bcrypt":
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("security: bcrypt cost %d out of range", bcryptCost)
		}
		return BcryptHasher{Cost: bcryptCost}, nil
	default:
		return nil, fmt.Errorf("security: unknown hasher %q", name)
	}
}

func generateSalt() (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("security: read salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(salt), nil
}

type Argon2Hasher struct{}

func (Argon2Hasher) GenerateSalt() (string, error) {
	return generateSalt()
}

func (Argon2Hasher) Hash(password, salt string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("security: decode salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), raw, argonIterations, argonMemory, argonParallelism, argonKeyLength)
	return base64.RawStdEncoding.EncodeToString(key), nil
}

func (h Argon2Hasher) Verify(password, salt, hash string) error {
	expected, err := base64.RawStdEncoding.DecodeString(hash)
	if err != nil {
		return fmt.Errorf("security: decode hash: %w", err)
	}
	computed, err := h.Hash(password, salt)
	if err != nil {
		return err
	}
	actual, _ := base64.RawStdEncoding.DecodeString(computed)

	if subtle.ConstantTimeCompare(actual, expected) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

// BcryptHasher prefixes the per-user salt to the password. bcrypt embeds its
// own salt as well, so the stored salt only has to be stable per user.
type BcryptHasher struct {
	Cost int
}

func (BcryptHasher) GenerateSalt() (string, error) {
	return generateSalt()
}

func (h BcryptHasher) Hash(password, salt string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(salt+password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("security: bcrypt: %w", err)
	}
	return string(hashed), nil
}

func (BcryptHasher) Verify(password, salt, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(salt+password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
