package service

import (
	"time"

	"taskforge/api/internal/models"
)

// UserView is the sanitized identity handed back to clients. The password
// hash never leaves the service layer.
type UserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	Avatar    *string   `json:"avatar"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserView(user models.User) UserView {
	return UserView{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Bio:       user.Bio,
		Avatar:    user.AvatarURL,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
