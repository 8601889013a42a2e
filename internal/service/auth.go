package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/lexloop/lexloop/internal/domain"
	"github.com/lexloop/lexloop/internal/store"
	"github.com/lexloop/lexloop/pkg/cryptox"
	"github.com/lexloop/lexloop/pkg/idx"
	"github.com/lexloop/lexloop/pkg/jwtx"
	"github.com/lexloop/lexloop/pkg/slogx"
)

const minPasswordLength = 8

// AuthService handles account registration, password login, and the access
// token half of the refresh flow.
type AuthService struct {
	Store    store.Store
	Sessions *SessionService
	Signer   *jwtx.Signer
}

// TokenPair is what every successful authentication returns: a short-lived
// JWT access token and an opaque refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access token lifetime in seconds
}

// Register creates an account and logs it straight in.
func (s *AuthService) Register(ctx context.Context, email, password string) (domain.User, TokenPair, error) {
	log := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("%w: invalid email address", ErrInvalidRequest)
	}
	if len(password) < minPasswordLength {
		return domain.User{}, TokenPair{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRequest, minPasswordLength)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.UserRoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, TokenPair{}, ErrEmailTaken
		}
		return domain.User{}, TokenPair{}, err
	}

	pair, err := s.tokens(ctx, user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}

	log.Info("user registered", slog.String("user_id", user.ID))
	return user, pair, nil
}

// Login verifies credentials and issues a token pair. Unknown email and
// wrong password produce the same error, so login can't be used to probe
// which addresses have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, TokenPair, error) {
	log := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return domain.User{}, TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.tokens(ctx, user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}

	log.Info("user logged in", slog.String("user_id", user.ID))
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair, rotating
// the refresh session in the process.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	user, err := s.Sessions.Validate(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	rotated, err := s.Sessions.Rotate(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	access, err := s.Signer.Sign(user.ID, user.Email, string(user.Role), time.Now().UTC())
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: rotated,
		ExpiresIn:    int64(s.Signer.TTL().Seconds()),
	}, nil
}

// Logout revokes the refresh session. Always succeeds from the client's
// point of view.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.Sessions.Revoke(ctx, refreshToken)
}

func (s *AuthService) tokens(ctx context.Context, user domain.User) (TokenPair, error) {
	access, err := s.Signer.Sign(user.ID, user.Email, string(user.Role), time.Now().UTC())
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.Sessions.Issue(ctx, user.ID)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.Signer.TTL().Seconds()),
	}, nil
}
