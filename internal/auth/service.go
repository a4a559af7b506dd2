package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"SKCKPortal/pkg/apperror"
)

// UserStore is the persistence the user service needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	UpdateRole(ctx context.Context, email string, role Role, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

const minPasswordLength = 6

type UserService struct {
	repo   UserStore
	tokens *TokenIssuer
	log    *zap.Logger
	now    func() time.Time
}

func NewUserService(repo UserStore, tokens *TokenIssuer, log *zap.Logger) *UserService {
	return &UserService{repo: repo, tokens: tokens, log: log.With(zap.String("component", "auth")), now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterUser creates the user record on first sign-up. Everybody starts as
// RoleUser; promotion happens out of band through skckctl.
func (s *UserService) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	email := normalizeEmail(req.Email)
	details := map[string]string{}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "Email tidak valid"
	}
	if len(req.Password) < minPasswordLength {
		details["password"] = "Kata sandi minimal 6 karakter"
	}
	if len(details) > 0 {
		return nil, apperror.Validation("Data pendaftaran tidak valid", details)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	now := s.now()
	user := &User{
		Email:        email,
		DisplayName:  displayName,
		PhotoURL:     req.PhotoURL,
		Role:         RoleUser,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID.Hex()))
	return user, nil
}

// AuthenticateUser checks credentials and returns a signed token.
func (s *UserService) AuthenticateUser(ctx context.Context, cred Credential) (string, *User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(cred.Email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", nil, apperror.Unauthorized("Email atau kata sandi salah")
		}
		return "", nil, err
	}
	if !CheckPasswordHash(cred.Password, user.PasswordHash) {
		return "", nil, apperror.Unauthorized("Email atau kata sandi salah")
	}

	token, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return "", nil, apperror.Internal(err)
	}
	return token, user, nil
}

// ResolvePrincipal validates a bearer token and looks the role up from the
// user record, so a role change takes effect without re-issuing tokens.
func (s *UserService) ResolvePrincipal(ctx context.Context, token string) (Principal, error) {
	claims, err := s.tokens.ValidateJWT(token)
	if err != nil {
		return Principal{}, apperror.Unauthorized("Token tidak valid")
	}
	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return Principal{}, apperror.Unauthorized("Pengguna tidak ditemukan")
		}
		return Principal{}, err
	}
	role := user.Role
	if !role.Valid() {
		role = RoleUser
	}
	return Principal{ID: user.ID.Hex(), Email: user.Email, Role: role}, nil
}

func (s *UserService) Profile(ctx context.Context, p Principal) (*User, error) {
	return s.repo.FindByID(ctx, p.ID)
}

// EmailOf returns the address notifications for userID are sent to.
func (s *UserService) EmailOf(ctx context.Context, userID string) (string, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// SetRole is the out-of-band administrative role change.
func (s *UserService) SetRole(ctx context.Context, email string, role Role) error {
	if !role.Valid() {
		return apperror.Validation("Peran tidak valid", map[string]string{"role": "must be admin or user"})
	}
	if err := s.repo.UpdateRole(ctx, normalizeEmail(email), role, s.now()); err != nil {
		return err
	}
	s.log.Info("role changed", zap.String("email", normalizeEmail(email)), zap.String("role", string(role)))
	return nil
}
