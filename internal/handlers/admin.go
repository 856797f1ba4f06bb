package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskforge/api/internal/service"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	users, err := h.users.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	views := make([]service.UserView, 0, len(users))
	for _, user := range users {
		views = append(views, service.NewUserView(user))
	}

	c.JSON(http.StatusOK, gin.H{"data": views})
}
