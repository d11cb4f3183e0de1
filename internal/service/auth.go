// Package service provides the backend's business logic, delegating
// persistence to repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobtrail/extension-host/internal/auth"
	"github.com/jobtrail/extension-host/internal/models"
	"github.com/jobtrail/extension-host/internal/repository"
)

// ErrInvalidCredentials reports a failed email/password check.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNoSession reports an absent or expired cookie session.
var ErrNoSession = errors.New("no session")

// ErrEmailTaken reports a registration against an existing email.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository defines the user persistence operations required by the
// authentication service.
type UserRepository interface {
	Create(ctx context.Context, u *repository.UserRow) error
	GetByEmail(ctx context.Context, email string) (*repository.UserRow, error)
	GetByID(ctx context.Context, id string) (*repository.UserRow, error)
	SetWebsiteLink(ctx context.Context, id, websiteEmail string) error
}

// SessionRepository defines the session persistence operations required by
// the cookie login flow.
type SessionRepository interface {
	Create(ctx context.Context, s *repository.Session) error
	Get(ctx context.Context, token string) (*repository.Session, error)
	Delete(ctx context.Context, token string) error
}

// AuthService implements login, verification, and account linking.
type AuthService struct {
	users      UserRepository
	sessions   SessionRepository
	secret     []byte
	tokenTTL   time.Duration
	sessionTTL time.Duration
}

// NewAuthService constructs an AuthService. secret signs bearer tokens;
// tokenTTL and sessionTTL bound token and cookie-session lifetimes.
func NewAuthService(users UserRepository, sessions SessionRepository, secret []byte, tokenTTL, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		secret:     secret,
		tokenTTL:   tokenTTL,
		sessionTTL: sessionTTL,
	}
}

// TokenGrant is an issued bearer token with its expiry and owner.
type TokenGrant struct {
	Token     string
	ExpiresAt int64
	User      *models.User
}

// Register creates a new user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	row := &repository.UserRow{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return row.User(), nil
}

// Login checks the credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenGrant, error) {
	row, err := s.checkPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.grant(row)
}

// CookieLogin checks the credentials and creates a cookie-backed session.
func (s *AuthService) CookieLogin(ctx context.Context, email, password string) (*repository.Session, error) {
	row, err := s.checkPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	sess := &repository.Session{
		Token:     uuid.NewString(),
		UserID:    row.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// SessionToBearer exchanges a valid session cookie for a bearer token, so
// the extension can authenticate the way every other caller does.
func (s *AuthService) SessionToBearer(ctx context.Context, sessionToken string) (*TokenGrant, error) {
	sess, err := s.sessions.Get(ctx, sessionToken)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	row, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s.grant(row)
}

// VerifyToken validates a bearer token and returns its owner and expiry.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*TokenGrant, error) {
	userID, err := auth.GetUserIDFromToken(token, s.secret)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	expiresAt, err := auth.TokenExpiry(token, s.secret)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	row, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &TokenGrant{Token: token, ExpiresAt: expiresAt, User: row.User()}, nil
}

// LinkAccount verifies the website account's credentials and links the
// caller's account to it. Bad website credentials are
// ErrInvalidCredentials, never a 401-class failure, so the extension does
// not discard its own token over a typo.
func (s *AuthService) LinkAccount(ctx context.Context, userID, websiteEmail, websitePassword string) (string, error) {
	if _, err := s.checkPassword(ctx, websiteEmail, websitePassword); err != nil {
		return "", err
	}
	if err := s.users.SetWebsiteLink(ctx, userID, websiteEmail); err != nil {
		return "", fmt.Errorf("link account: %w", err)
	}
	return websiteEmail, nil
}

// checkPassword loads the user by email and compares the bcrypt hash.
// Missing users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) checkPassword(ctx context.Context, email, password string) (*repository.UserRow, error) {
	row, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword(row.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return row, nil
}

// grant mints a bearer token for the user.
func (s *AuthService) grant(row *repository.UserRow) (*TokenGrant, error) {
	token, err := auth.GenerateToken(row.ID, s.secret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	expiresAt, err := auth.TokenExpiry(token, s.secret)
	if err != nil {
		return nil, fmt.Errorf("read token expiry: %w", err)
	}
	return &TokenGrant{Token: token, ExpiresAt: expiresAt, User: row.User()}, nil
}
