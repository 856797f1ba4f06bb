package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskforge/api/internal/middleware"
	"taskforge/api/internal/service"
)

type updateProfileRequest struct {
	Name   *string `json:"name" binding:"omitempty,max=50"`
	Bio    *string `json:"bio" binding:"omitempty,max=500"`
	Avatar *string `json:"avatar" binding:"omitempty"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.profileService.UpdateProfile(c.Request.Context(), user, service.ProfileUpdateInput{
		Name:   req.Name,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": view})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

func (h HandlerSet) UpdatePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profileService.UpdatePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
