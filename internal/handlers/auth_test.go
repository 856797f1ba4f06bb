package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskforge/api/internal/models"
	"taskforge/api/internal/repository"
	"taskforge/api/internal/security"
	"taskforge/api/internal/service"
)

// memCredStore is the in-memory CredentialStore behind the auth handler tests.
type memCredStore struct {
	users map[string]models.User
}

func newMemCredStore() *memCredStore {
	return &memCredStore{users: make(map[string]models.User)}
}

func (m *memCredStore) Create(ctx context.Context, user models.User) error {
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

func (m *memCredStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memCredStore) GetByID(ctx context.Context, id string) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *memCredStore) UpdateProfile(ctx context.Context, id string, name, bio, avatarURL *string) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
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

func (m *memCredStore) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	m.users[id] = user
	return nil
}

func authTestRouter(store *memCredStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zerolog.New(io.Discard)
	tokens := security.NewTokenService("test-secret", time.Hour)

	h := HandlerSet{
		log:            logger,
		tokens:         tokens,
		authService:    service.NewAuthService(store, tokens, logger),
		profileService: service.NewProfileService(store, logger),
	}

	r := gin.New()
	r.POST("/register", h.RegisterUser)
	r.POST("/login", h.Login)
	return r
}

func TestRegisterHandler(t *testing.T) {
	store := newMemCredStore()
	r := authTestRouter(store)

	w := doJSON(t, r, http.MethodPost, "/register", gin.H{
		"email":    "a@x.com",
		"password": "secret1",
		"name":     "Ann",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "a@x.com", resp.User.Email)
	assert.Equal(t, "standard", resp.User.Role)
}

func TestRegisterHandler_DuplicateEmailIs409(t *testing.T) {
	store := newMemCredStore()
	r := authTestRouter(store)

	w := doJSON(t, r, http.MethodPost, "/register", gin.H{
		"email": "a@x.com", "password": "secret1", "name": "Ann",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/register", gin.H{
		"email": "a@x.com", "password": "secret2", "name": "Bob",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterHandler_BindingRejectsBadInput(t *testing.T) {
	r := authTestRouter(newMemCredStore())

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing email", gin.H{"password": "secret1", "name": "Ann"}},
		{"bad email", gin.H{"email": "nope", "password": "secret1", "name": "Ann"}},
		{"short password", gin.H{"email": "a@x.com", "password": "abc", "name": "Ann"}},
		{"missing name", gin.H{"email": "a@x.com", "password": "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLoginHandler_UniformFailure(t *testing.T) {
	store := newMemCredStore()
	r := authTestRouter(store)

	w := doJSON(t, r, http.MethodPost, "/register", gin.H{
		"email": "a@x.com", "password": "secret1", "name": "Ann",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	wrongPassword := doJSON(t, r, http.MethodPost, "/login", gin.H{"email": "a@x.com", "password": "wrong"})
	unknownEmail := doJSON(t, r, http.MethodPost, "/login", gin.H{"email": "b@x.com", "password": "secret1"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())

	ok := doJSON(t, r, http.MethodPost, "/login", gin.H{"email": "a@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, ok.Code)
}
