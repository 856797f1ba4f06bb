package service

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskforge/api/internal/models"
	"taskforge/api/internal/repository"
	"taskforge/api/internal/security"
)

// memCredentialStore is an in-memory CredentialStore for service tests.
type memCredentialStore struct {
	users map[string]models.User

	lastProfileName   *string
	lastProfileBio    *string
	lastProfileAvatar *string
}

func newMemCredentialStore() *memCredentialStore {
	return &memCredentialStore{users: make(map[string]models.User)}
}

func (m *memCredentialStore) Create(ctx context.Context, user models.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return nil
}

func (m *memCredentialStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memCredentialStore) GetByID(ctx context.Context, id string) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *memCredentialStore) UpdateProfile(ctx context.Context, id string, name, bio, avatarURL *string) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	m.lastProfileName = name
	m.lastProfileBio = bio
	m.lastProfileAvatar = avatarURL
	if name != nil {
		user.Name = *name
	}
	if bio != nil {
		user.Bio = *bio
	}
	if avatarURL != nil {
		user.AvatarURL = avatarURL
	}
	m.users[id] = user
	return user, nil
}

func (m *memCredentialStore) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	m.users[id] = user
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testTokenService() *security.TokenService {
	return security.NewTokenService("test-secret", time.Hour)
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	store := newMemCredentialStore()
	tokens := testTokenService()
	svc := NewAuthService(store, tokens, testLogger())

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "A@X.com",
		Password: "secret1",
		Name:     "Ann",
	})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", result.User.Email, "email is normalized")
	assert.Equal(t, "Ann", result.User.Name)
	assert.Equal(t, string(models.UserRoleStandard), result.User.Role)
	require.NotEmpty(t, result.Token)

	// The issued token verifies and binds to the new identity.
	claims, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)

	login, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := NewAuthService(newMemCredentialStore(), testTokenService(), testLogger())

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing email", RegisterInput{Password: "secret1", Name: "Ann"}},
		{"short password", RegisterInput{Email: "a@x.com", Password: "abc", Name: "Ann"}},
		{"missing name", RegisterInput{Email: "a@x.com", Password: "secret1"}},
		{"long name", RegisterInput{Email: "a@x.com", Password: "secret1", Name: string(make([]byte, 51))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	store := newMemCredentialStore()
	svc := NewAuthService(store, testTokenService(), testLogger())

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "secret2", Name: "Bob"})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestAuthService_LoginFailuresAreUniform(t *testing.T) {
	store := newMemCredentialStore()
	svc := NewAuthService(store, testTokenService(), testLogger())

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "wrong"})
	_, unknownEmail := svc.Login(context.Background(), LoginInput{Email: "nobody@x.com", Password: "secret1"})

	// Wrong password and unknown email must be indistinguishable.
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_ViewNeverCarriesHash(t *testing.T) {
	store := newMemCredentialStore()
	svc := NewAuthService(store, testTokenService(), testLogger())

	result, err := svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)

	stored, err := store.GetByID(context.Background(), result.User.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)

	view := NewUserView(stored)
	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "argon2id")
	assert.Equal(t, stored.Email, view.Email)
}
