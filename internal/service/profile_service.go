package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"taskforge/api/internal/models"
	"taskforge/api/internal/security"
)

type ProfileService struct {
	users CredentialStore
	log   zerolog.Logger
}

func NewProfileService(users CredentialStore, log zerolog.Logger) *ProfileService {
	return &ProfileService{users: users, log: log}
}

// ProfileUpdateInput carries partial-update fields: nil means untouched.
type ProfileUpdateInput struct {
	Name   *string
	Bio    *string
	Avatar *string
}

func (s *ProfileService) UpdateProfile(ctx context.Context, user models.User, input ProfileUpdateInput) (UserView, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return UserView{}, validationf("name cannot be empty")
		}
		if len(trimmed) > 50 {
			return UserView{}, validationf("name cannot exceed 50 characters")
		}
		input.Name = &trimmed
	}
	if input.Bio != nil && len(*input.Bio) > 500 {
		return UserView{}, validationf("bio cannot exceed 500 characters")
	}
	if input.Avatar != nil && *input.Avatar != "" {
		parsed, err := url.ParseRequestURI(*input.Avatar)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return UserView{}, validationf("avatar must be a valid URL")
		}
	}

	updated, err := s.users.UpdateProfile(ctx, user.ID, input.Name, input.Bio, input.Avatar)
	if err != nil {
		return UserView{}, err
	}
	return NewUserView(updated), nil
}

// UpdatePassword replaces the stored hash after verifying the current
// password. Outstanding tokens stay valid until they expire; that is the
// stateless-token trade-off, not an oversight.
func (s *ProfileService) UpdatePassword(ctx context.Context, user models.User, currentPassword, newPassword string) error {
	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	if len(newPassword) < 6 {
		return validationf("new password must be at least 6 characters")
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	s.log.Info().Str("user_id", user.ID).Msg("password updated")
	return nil
}
