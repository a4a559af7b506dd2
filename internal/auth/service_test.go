package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"SKCKPortal/internal/config"
	"SKCKPortal/pkg/apperror"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*User{}}
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("Pengguna tidak ditemukan")
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("Pengguna tidak ditemukan")
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) CreateUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("Email sudah terdaftar")
		}
	}
	user.ID = primitive.NewObjectID()
	cp := *user
	m.users[user.ID.Hex()] = &cp
	return nil
}

func (m *memoryUsers) UpdateRole(_ context.Context, email string, role Role, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u.Role = role
			u.UpdatedAt = at
			return nil
		}
	}
	return apperror.NotFound("Pengguna tidak ditemukan")
}

func (m *memoryUsers) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func testIssuer() *TokenIssuer {
	return NewTokenIssuer(&config.Config{Auth: config.AuthConfig{JWTKey: "test-key-0123456789", TokenTTL: time.Hour}})
}

type UserServiceSuite struct {
	suite.Suite
	repo    *memoryUsers
	service *UserService
	ctx     context.Context
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) SetupTest() {
	s.repo = newMemoryUsers()
	s.service = NewUserService(s.repo, testIssuer(), zap.NewNop())
	s.ctx = context.Background()
}

func (s *UserServiceSuite) register(email string) *User {
	u, err := s.service.RegisterUser(s.ctx, RegisterRequest{Email: email, Password: "rahasia123"})
	s.Require().NoError(err)
	return u
}

func (s *UserServiceSuite) TestRegister() {
	s.Run("defaults role to user and display name to local part", func() {
		u := s.register("  Budi@Example.ID ")
		s.Equal(RoleUser, u.Role)
		s.Equal("budi@example.id", u.Email)
		s.Equal("budi", u.DisplayName)
		s.NotEqual("rahasia123", u.PasswordHash)
	})

	s.Run("rejects duplicate email", func() {
		_, err := s.service.RegisterUser(s.ctx, RegisterRequest{Email: "budi@example.id", Password: "rahasia123"})
		s.ErrorIs(err, apperror.ErrConflict)
	})

	s.Run("validates email and password", func() {
		_, err := s.service.RegisterUser(s.ctx, RegisterRequest{Email: "bukan-email", Password: "123"})
		s.Require().ErrorIs(err, apperror.ErrValidation)
		details := apperror.From(err).Details
		s.Contains(details, "email")
		s.Contains(details, "password")
	})
}

func (s *UserServiceSuite) TestAuthenticateAndResolve() {
	u := s.register("siti@example.id")

	token, user, err := s.service.AuthenticateUser(s.ctx, Credential{Email: "SITI@example.id", Password: "rahasia123"})
	s.Require().NoError(err)
	s.Equal(u.ID, user.ID)

	p, err := s.service.ResolvePrincipal(s.ctx, token)
	s.Require().NoError(err)
	s.Equal(u.ID.Hex(), p.ID)
	s.False(p.IsAdmin())

	s.Run("role comes from the user record, not the token", func() {
		s.Require().NoError(s.service.SetRole(s.ctx, "siti@example.id", RoleAdmin))
		p, err := s.service.ResolvePrincipal(s.ctx, token)
		s.Require().NoError(err)
		s.True(p.IsAdmin())
	})

	s.Run("wrong password", func() {
		_, _, err := s.service.AuthenticateUser(s.ctx, Credential{Email: "siti@example.id", Password: "salah"})
		s.ErrorIs(err, apperror.ErrUnauthorized)
	})

	s.Run("unknown email", func() {
		_, _, err := s.service.AuthenticateUser(s.ctx, Credential{Email: "x@example.id", Password: "rahasia123"})
		s.ErrorIs(err, apperror.ErrUnauthorized)
	})

	s.Run("garbage token", func() {
		_, err := s.service.ResolvePrincipal(s.ctx, "not-a-token")
		s.ErrorIs(err, apperror.ErrUnauthorized)
	})
}

func (s *UserServiceSuite) TestSetRole() {
	s.register("andi@example.id")
	s.ErrorIs(s.service.SetRole(s.ctx, "andi@example.id", Role("root")), apperror.ErrValidation)
	s.ErrorIs(s.service.SetRole(s.ctx, "nobody@example.id", RoleAdmin), apperror.ErrNotFound)
}

func TestTokenIssuer(t *testing.T) {
	issuer := testIssuer()
	user := &User{ID: primitive.NewObjectID(), Email: "a@b.id", Role: RoleUser}

	token, err := issuer.GenerateJWT(user)
	require.NoError(t, err)

	claims, err := issuer.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.Subject)
	assert.Equal(t, "a@b.id", claims.Email)

	t.Run("expired", func(t *testing.T) {
		issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { issuer.now = time.Now }()
		_, err := issuer.ValidateJWT(token)
		assert.Error(t, err)
	})

	t.Run("other key", func(t *testing.T) {
		other := NewTokenIssuer(&config.Config{Auth: config.AuthConfig{JWTKey: "another-key-987654321", TokenTTL: time.Hour}})
		_, err := other.ValidateJWT(token)
		assert.Error(t, err)
	})
}
