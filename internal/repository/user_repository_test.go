package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskforge/api/internal/models"
)

func newUserRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "password_hash", "name", "bio", "avatar_url", "role", "created_at", "updated_at",
	})
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u1", "a@x.com", []byte("hash"), "Ann", "", pgxmock.AnyArg(), models.UserRoleStandard).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	repo := NewUserRepository(mock)
	err = repo.Create(context.Background(), models.User{
		ID:           "u1",
		Email:        "a@x.com",
		PasswordHash: []byte("hash"),
		Name:         "Ann",
		Role:         models.UserRoleStandard,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmailNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("nobody@x.com").
		WillReturnRows(newUserRows())

	repo := NewUserRepository(mock)
	_, err = repo.FindByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WithArgs("a@x.com").
		WillReturnRows(newUserRows().AddRow(
			"u1", "a@x.com", []byte("hash"), "Ann", "hi", nil, models.UserRoleStandard, now, now,
		))

	repo := NewUserRepository(mock)
	user, err := repo.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, models.UserRoleStandard, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateProfilePassesNilForAbsentFields(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	bio := "new bio"
	mock.ExpectQuery(`UPDATE users\s+SET name = COALESCE\(\$2, name\)`).
		WithArgs("u1", pgxmock.AnyArg(), &bio, pgxmock.AnyArg()).
		WillReturnRows(newUserRows().AddRow(
			"u1", "a@x.com", []byte("hash"), "Ann", "new bio", nil, models.UserRoleStandard, now, now,
		))

	repo := NewUserRepository(mock)
	user, err := repo.UpdateProfile(context.Background(), "u1", nil, &bio, nil)
	require.NoError(t, err)
	assert.Equal(t, "new bio", user.Bio)
	assert.Equal(t, "Ann", user.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePasswordMissingUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE users SET password_hash = \$2`).
		WithArgs("ghost", []byte("hash")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewUserRepository(mock)
	err = repo.UpdatePassword(context.Background(), "ghost", []byte("hash"))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
