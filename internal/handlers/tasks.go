package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskforge/api/internal/middleware"
	"taskforge/api/internal/models"
	"taskforge/api/internal/service"
)

type taskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func newTaskResponse(task models.Task) taskResponse {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		Tags:        tags,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// parseDueDate accepts a plain calendar date or a full RFC3339 timestamp.
func parseDueDate(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	return nil, false
}

func (h HandlerSet) ListTasks(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	tasks, err := h.taskService.List(c.Request.Context(), user, service.ListParams{
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		SortBy:   c.Query("sortBy"),
		Order:    c.Query("order"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		resp = append(resp, newTaskResponse(task))
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h HandlerSet) TaskStats(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.taskService.Stats(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}

	data := gin.H{"total": stats.Total}
	for status, count := range stats.PerStatus {
		data[string(status)] = count
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}

type createTaskRequest struct {
	Title       string   `json:"title" binding:"required,max=100"`
	Description string   `json:"description" binding:"omitempty,max=1000"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	DueDate     string   `json:"dueDate"`
	Tags        []string `json:"tags"`
}

func (h HandlerSet) CreateTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dueDate, ok := parseDueDate(req.DueDate)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dueDate must be a valid date"})
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), user, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     dueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": newTaskResponse(task)})
}

func (h HandlerSet) GetTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newTaskResponse(task)})
}

type updateTaskRequest struct {
	Title       *string   `json:"title" binding:"omitempty,max=100"`
	Description *string   `json:"description" binding:"omitempty,max=1000"`
	Status      *string   `json:"status"`
	Priority    *string   `json:"priority"`
	DueDate     *string   `json:"dueDate"`
	Tags        *[]string `json:"tags"`
}

func (h HandlerSet) UpdateTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Tags:        req.Tags,
	}
	if req.DueDate != nil {
		dueDate, ok := parseDueDate(*req.DueDate)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dueDate must be a valid date"})
			return
		}
		input.DueDate = dueDate
	}

	task, err := h.taskService.Update(c.Request.Context(), user, c.Param("id"), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": newTaskResponse(task)})
}

func (h HandlerSet) DeleteTask(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}
