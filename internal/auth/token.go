package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const MinSecretLength = 32

var (
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// Claims carry the username as both a custom claim and the subject.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	clock  func() time.Time
}

type Option func(*TokenManager)

// WithClock overrides time.Now for both issuing and verifying.
func WithClock(clock func() time.Time) Option {
	return func(m *TokenManager) { m.clock = clock }
}

func NewTokenManager(secret []byte, ttl time.Duration, issuer string, opts ...Option) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token ttl must be positive")
	}

	m := &TokenManager{
		secret: secret,
		ttl:    ttl,
		issuer: issuer,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *TokenManager) Issue(username string) (string, error) {
	now := m.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username: username,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid || claims.Username == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignature
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// ResolveSecret returns the signing key to use. Production requires a
// configured secret of at least MinSecretLength bytes. Elsewhere an empty
// secret is replaced by random bytes and generated is true.
func ResolveSecret(configured string, production bool) (secret []byte, generated bool, err error) {
	if configured != "" {
		if production && len(configured) < MinSecretLength {
			return nil, false, fmt.Errorf("auth: secret must be at least %d bytes", MinSecretLength)
		}
		return []byte(configured), false, nil
	}
	if production {
		return nil, false, errors.New("auth: secret is required in production")
	}

	secret = make([]byte, MinSecretLength)
	if _, err := rand.Read(secret); err != nil {
		return nil, false, fmt.Errorf("auth: generate secret: %w", err)
	}
	return secret, true, nil
}
