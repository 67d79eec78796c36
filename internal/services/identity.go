package services

import (
	"context"
	"errors"
	"time"

	"task-tracker/backend/internal/auth"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/security"
)

type Credentials struct {
	Username string
	Password string
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type TokenAuthority interface {
	Issue(username string) (string, error)
	Verify(token string) (*auth.Claims, error)
}

type IdentityService struct {
	users  UserStore
	hasher security.Hasher
	tokens TokenAuthority
}

func NewIdentityService(users UserStore, hasher security.Hasher, tokens TokenAuthority) *IdentityService {
	return &IdentityService{users: users, hasher: hasher, tokens: tokens}
}

func (s *IdentityService) SignUp(ctx context.Context, creds Credentials) (err error) {
	start := time.Now()
	defer func() { observe(ctx, "sign_up", start, err, "username", creds.Username) }()

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return storeError(err)
	}
	hash, err := s.hasher.Hash(creds.Password, salt)
	if err != nil {
		return storeError(err)
	}

	user := &models.User{
		Username:     creds.Username,
		PasswordHash: hash,
		Salt:         salt,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return ErrUsernameTaken
		}
		return storeError(err)
	}
	return nil
}

// SignIn is the only place access tokens are minted.
func (s *IdentityService) SignIn(ctx context.Context, creds Credentials) (token string, err error) {
	start := time.Now()
	reason := ""
	defer func() {
		attrs := []any{"username", creds.Username}
		if reason != "" {
			attrs = append(attrs, "reason", reason)
		}
		observe(ctx, "sign_in", start, err, attrs...)
	}()

	user, err := s.users.FindByUsername(ctx, creds.Username)
	if errors.Is(err, repositories.ErrNotFound) {
		reason = "user_not_found"
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", storeError(err)
	}

	if err := s.hasher.Verify(creds.Password, user.Salt, user.PasswordHash); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			reason = "password_mismatch"
			return "", ErrInvalidCredentials
		}
		return "", storeError(err)
	}

	token, err = s.tokens.Issue(user.Username)
	if err != nil {
		return "", storeError(err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to its user. Every failure is
// ErrUnauthorized unless the store itself is failing.
func (s *IdentityService) Authenticate(ctx context.Context, token string) (user *models.User, err error) {
	start := time.Now()
	var attrs []any
	defer func() {
		if user != nil {
			attrs = append(attrs, "user_id", user.ID.String())
		}
		observe(ctx, "authenticate", start, err, attrs...)
	}()

	claims, err := s.tokens.Verify(token)
	if err != nil {
		attrs = append(attrs, "reason", "invalid_token", "token_error", tokenFailure(err))
		return nil, ErrUnauthorized
	}

	user, err = s.users.FindByUsername(ctx, claims.Username)
	if errors.Is(err, repositories.ErrNotFound) {
		attrs = append(attrs, "reason", "user_not_found", "username", claims.Username)
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, storeError(err)
	}
	return user, nil
}

func tokenFailure(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenSignature):
		return "bad_signature"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
