package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobtrail/extension-host/internal/auth"
	"github.com/jobtrail/extension-host/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	byEmail map[string]*repository.UserRow
	byID    map[string]*repository.UserRow
	err     error
}

func newFakeUserRepo(rows ...*repository.UserRow) *fakeUserRepo {
	f := &fakeUserRepo{
		byEmail: map[string]*repository.UserRow{},
		byID:    map[string]*repository.UserRow{},
	}
	for _, r := range rows {
		f.byEmail[r.Email] = r
		f.byID[r.ID] = r
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *repository.UserRow) error {
	if f.err != nil {
		return f.err
	}
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*repository.UserRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*repository.UserRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) SetWebsiteLink(ctx context.Context, id, websiteEmail string) error {
	u, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.WebsiteLinked = true
	u.WebsiteEmail = websiteEmail
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*repository.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*repository.Session{}}
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *repository.Session) error {
	f.sessions[s.Token] = s
	return nil
}

func (f *fakeSessionRepo) Get(ctx context.Context, token string) (*repository.Session, error) {
	s, ok := f.sessions[token]
	if !ok || s.ExpiresAt.Before(time.Now()) {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

var testSecret = []byte("svc-secret")

func userRow(t *testing.T, id, email, password string) *repository.UserRow {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &repository.UserRow{ID: id, Email: email, PasswordHash: hash}
}

func newService(users *fakeUserRepo, sessions *fakeSessionRepo) *AuthService {
	return NewAuthService(users, sessions, testSecret, time.Hour, 24*time.Hour)
}

func TestLogin_Success(t *testing.T) {
	users := newFakeUserRepo(userRow(t, "u-1", "a@b.com", "pw"))
	s := newService(users, newFakeSessionRepo())

	grant, err := s.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u-1", grant.User.ID)
	assert.Greater(t, grant.ExpiresAt, time.Now().UnixMilli())

	uid, err := auth.GetUserIDFromToken(grant.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", uid)
}

func TestLogin_BadCredentials(t *testing.T) {
	users := newFakeUserRepo(userRow(t, "u-1", "a@b.com", "pw"))
	s := newService(users, newFakeSessionRepo())

	_, err := s.Login(context.Background(), "a@b.com", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = s.Login(context.Background(), "nobody@b.com", "pw")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestCookieLoginAndSessionToBearer(t *testing.T) {
	users := newFakeUserRepo(userRow(t, "u-1", "a@b.com", "pw"))
	sessions := newFakeSessionRepo()
	s := newService(users, sessions)

	sess, err := s.CookieLogin(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	grant, err := s.SessionToBearer(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", grant.User.ID)
	assert.NotEmpty(t, grant.Token)
}

func TestSessionToBearer_NoSession(t *testing.T) {
	s := newService(newFakeUserRepo(), newFakeSessionRepo())

	_, err := s.SessionToBearer(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestVerifyToken(t *testing.T) {
	users := newFakeUserRepo(userRow(t, "u-1", "a@b.com", "pw"))
	s := newService(users, newFakeSessionRepo())

	grant, err := s.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	verified, err := s.VerifyToken(context.Background(), grant.Token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", verified.User.Email)

	_, err = s.VerifyToken(context.Background(), "garbage")
	assert.True(t, errors.Is(err, auth.ErrInvalidToken))
}

func TestVerifyToken_DeletedUser(t *testing.T) {
	users := newFakeUserRepo(userRow(t, "u-1", "a@b.com", "pw"))
	s := newService(users, newFakeSessionRepo())

	grant, err := s.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	delete(users.byID, "u-1")
	_, err = s.VerifyToken(context.Background(), grant.Token)
	assert.True(t, errors.Is(err, auth.ErrInvalidToken))
}

func TestLinkAccount(t *testing.T) {
	extension := userRow(t, "u-ext", "ext@b.com", "pw1")
	website := userRow(t, "u-web", "web@b.com", "pw2")
	users := newFakeUserRepo(extension, website)
	s := newService(users, newFakeSessionRepo())

	email, err := s.LinkAccount(context.Background(), "u-ext", "web@b.com", "pw2")
	require.NoError(t, err)
	assert.Equal(t, "web@b.com", email)
	assert.True(t, extension.WebsiteLinked)
	assert.Equal(t, "web@b.com", extension.WebsiteEmail)
}

func TestLinkAccount_BadWebsitePassword(t *testing.T) {
	extension := userRow(t, "u-ext", "ext@b.com", "pw1")
	website := userRow(t, "u-web", "web@b.com", "pw2")
	users := newFakeUserRepo(extension, website)
	s := newService(users, newFakeSessionRepo())

	_, err := s.LinkAccount(context.Background(), "u-ext", "web@b.com", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	assert.False(t, extension.WebsiteLinked)
}

func TestRegister(t *testing.T) {
	users := newFakeUserRepo()
	s := newService(users, newFakeSessionRepo())

	u, err := s.Register(context.Background(), "new@b.com", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	// The stored hash must verify against the password.
	grant, err := s.Login(context.Background(), "new@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, u.ID, grant.User.ID)
}
