package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"taskforge/api/internal/ids"
	"taskforge/api/internal/models"
	"taskforge/api/internal/repository"
	"taskforge/api/internal/security"
)

// CredentialStore is the durable identity record the auth and profile
// services run against.
type CredentialStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, name, bio, avatarURL *string) (models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
}

type AuthService struct {
	users  CredentialStore
	tokens *security.TokenService
	log    zerolog.Logger
}

func NewAuthService(users CredentialStore, tokens *security.TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type AuthResult struct {
	Token string
	User  UserView
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Name = strings.TrimSpace(input.Name)

	if input.Email == "" {
		return AuthResult{}, validationf("email is required")
	}
	if len(input.Password) < 6 {
		return AuthResult{}, validationf("password must be at least 6 characters")
	}
	if input.Name == "" {
		return AuthResult{}, validationf("name is required")
	}
	if len(input.Name) > 50 {
		return AuthResult{}, validationf("name cannot exceed 50 characters")
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		Name:         input.Name,
		Role:         models.UserRoleStandard,
	}

	// The unique index on LOWER(email) is the authoritative duplicate check;
	// the store maps its violation to ErrEmailTaken.
	if err := s.users.Create(ctx, user); err != nil {
		return AuthResult{}, err
	}

	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return AuthResult{}, err
	}

	token, err := s.tokens.Issue(created.ID, string(created.Role))
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info().Str("user_id", created.ID).Msg("user registered")

	return AuthResult{Token: token, User: NewUserView(created)}, nil
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{Token: token, User: NewUserView(user)}, nil
}
