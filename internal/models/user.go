package models

import "time"

type UserRole string

const (
	UserRoleStandard UserRole = "standard"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleStandard, UserRoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Name         string
	Bio          string
	AvatarURL    *string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
