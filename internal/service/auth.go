// Package service contains application services for authentication and tasks.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid/v5"
	pkgcrypto "github.com/taskflow/backend/internal/crypto"
	"github.com/taskflow/backend/internal/errs"
	"github.com/taskflow/backend/internal/limiter"
	"github.com/taskflow/backend/internal/model"
	"github.com/taskflow/backend/internal/repository"
	"github.com/taskflow/backend/internal/token"
)

// AuthService defines signup, login and identity resolution.
type AuthService interface {
	// Signup creates a new user with a hashed password. No auto-login.
	Signup(ctx context.Context, name, email, password string) (userID string, err error)
	// LoginWithIP applies rate-limiting and authenticates the user.
	LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error)
	// Resolve maps a presented bearer token to a user record, failing closed.
	Resolve(ctx context.Context, bearer string) (*model.User, error)
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens *token.Service
	lim    limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, tokens *token.Service, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, tokens: tokens, lim: lim}
}

// Signup creates a new user record. Email uniqueness is enforced by the store
// (exact string match); a duplicate surfaces as errs.ErrAlreadyExists.
func (s *AuthServiceImpl) Signup(ctx context.Context, name, email, password string) (string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return "", errors.New("empty name/email/password")
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return "", err
	}

	u := &model.User{
		ID:      uid,
		Name:    name,
		Email:   email,
		PwdHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}
	return uid.String(), nil
}

// LoginWithIP authenticates with rate limiting by (email, ip). Unknown email
// and wrong password are both reported as ErrUnauthorized so a caller cannot
// probe which accounts exist.
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	email = strings.TrimSpace(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword(password, u.PwdHash) {
		// Record failure; if threshold reached — return rate-limited.
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// Unknown email and wrong password are deliberately the same error.
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, email, ipHash)

	access, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return model.Tokens{AccessToken: access, TokenType: "bearer", ExpiresAt: exp}, *u, nil
}

// Resolve validates the bearer token and loads the subject. Every failure
// (malformed token, bad signature, expiry, vanished subject) collapses into
// ErrUnauthenticated.
func (s *AuthServiceImpl) Resolve(ctx context.Context, bearer string) (*model.User, error) {
	subject, err := s.tokens.Validate(bearer)
	if err != nil {
		return nil, errs.ErrUnauthenticated
	}
	u, err := s.users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthenticated
		}
		return nil, err
	}
	return u, nil
}
