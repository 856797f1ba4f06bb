package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taskforge/api/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

const userColumns = `id, email, password_hash, name, bio, avatar_url, role, created_at, updated_at`

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Bio,
		&user.AvatarURL,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash, name, bio, avatar_url, role, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
	`

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Bio,
		user.AvatarURL,
		user.Role,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// FindByEmail matches case-insensitively; the unique index on LOWER(email)
// makes this the authoritative duplicate check.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users WHERE LOWER(email) = LOWER($1)
	`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users WHERE id = $1
	`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// UpdateProfile touches only the non-nil fields. A nil argument leaves the
// stored value as it is, never clears it.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, name, bio, avatarURL *string) (models.User, error) {
	const query = `
		UPDATE users
		SET name = COALESCE($2, name),
		    bio = COALESCE($3, bio),
		    avatar_url = COALESCE($4, avatar_url),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns + `
	`
	return scanUser(r.db.QueryRow(ctx, query, id, name, bio, avatarURL))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	const query = `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CountAll returns the user total, for the jobs gauge.
func (r *UserRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
