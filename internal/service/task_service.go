package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"taskforge/api/internal/ids"
	"taskforge/api/internal/models"
	"taskforge/api/internal/repository"
)

// TaskStore is the durable task collection, always addressed through an
// owner scope.
type TaskStore interface {
	Create(ctx context.Context, task models.Task) error
	GetByOwner(ctx context.Context, id, ownerID string) (models.Task, error)
	List(ctx context.Context, ownerID string, q repository.TaskQuery) ([]models.Task, error)
	CountByStatus(ctx context.Context, ownerID string) (map[models.TaskStatus]int, error)
	Update(ctx context.Context, id, ownerID string, upd repository.TaskUpdate) (models.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// StatsCache is optional: a nil implementation is handled by passing nil to
// NewTaskService, in which case every Stats call hits the store.
type StatsCache interface {
	Get(ctx context.Context, userID string) (models.TaskStats, bool)
	Set(ctx context.Context, userID string, stats models.TaskStats) error
	Invalidate(ctx context.Context, userID string) error
}

type TaskService struct {
	tasks TaskStore
	stats StatsCache
	log   zerolog.Logger
}

func NewTaskService(tasks TaskStore, stats StatsCache, log zerolog.Logger) *TaskService {
	return &TaskService{tasks: tasks, stats: stats, log: log}
}

// ListParams are the raw client-supplied query options. Everything is
// optional; enumerated values outside their set are rejected, never guessed.
type ListParams struct {
	Search   string
	Status   string
	Priority string
	SortBy   string
	Order    string
}

var sortFields = map[string]struct{}{
	"createdAt": {},
	"updatedAt": {},
	"dueDate":   {},
	"priority":  {},
	"title":     {},
}

func (s *TaskService) List(ctx context.Context, owner models.User, params ListParams) ([]models.Task, error) {
	if params.Status != "" && !models.TaskStatus(params.Status).Valid() {
		return nil, validationf("invalid status %q", params.Status)
	}
	if params.Priority != "" && !models.TaskPriority(params.Priority).Valid() {
		return nil, validationf("invalid priority %q", params.Priority)
	}

	sortBy := params.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	if _, ok := sortFields[sortBy]; !ok {
		return nil, validationf("invalid sortBy %q", params.SortBy)
	}

	order := params.Order
	if order == "" {
		order = "desc"
	}
	if order != "asc" && order != "desc" {
		return nil, validationf("invalid order %q", params.Order)
	}

	return s.tasks.List(ctx, owner.ID, repository.TaskQuery{
		Search:   params.Search,
		Status:   params.Status,
		Priority: params.Priority,
		SortBy:   sortBy,
		Order:    order,
	})
}

// Stats aggregates over the owner scope only, ignoring filter params, so its
// total always matches an unfiltered List.
func (s *TaskService) Stats(ctx context.Context, owner models.User) (models.TaskStats, error) {
	if s.stats != nil {
		if cached, ok := s.stats.Get(ctx, owner.ID); ok {
			return cached, nil
		}
	}

	counts, err := s.tasks.CountByStatus(ctx, owner.ID)
	if err != nil {
		return models.TaskStats{}, err
	}

	stats := models.TaskStats{PerStatus: make(map[models.TaskStatus]int, len(models.AllTaskStatuses))}
	for _, status := range models.AllTaskStatuses {
		stats.PerStatus[status] = counts[status]
		stats.Total += counts[status]
	}

	if s.stats != nil {
		if err := s.stats.Set(ctx, owner.ID, stats); err != nil {
			s.log.Debug().Err(err).Str("user_id", owner.ID).Msg("stats cache set failed")
		}
	}
	return stats, nil
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	Tags        []string
}

func (s *TaskService) Create(ctx context.Context, owner models.User, input CreateTaskInput) (models.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return models.Task{}, validationf("title is required")
	}
	if len(input.Title) > 100 {
		return models.Task{}, validationf("title cannot exceed 100 characters")
	}
	if len(input.Description) > 1000 {
		return models.Task{}, validationf("description cannot exceed 1000 characters")
	}

	status := models.TaskStatusPending
	if input.Status != "" {
		status = models.TaskStatus(input.Status)
		if !status.Valid() {
			return models.Task{}, validationf("invalid status %q", input.Status)
		}
	}
	priority := models.TaskPriorityMedium
	if input.Priority != "" {
		priority = models.TaskPriority(input.Priority)
		if !priority.Valid() {
			return models.Task{}, validationf("invalid priority %q", input.Priority)
		}
	}

	task := models.Task{
		ID:          ids.New(),
		UserID:      owner.ID, // owner comes from the session, never the body
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
		Tags:        normalizeTags(input.Tags),
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return models.Task{}, err
	}

	s.invalidateStats(ctx, owner.ID)
	return s.tasks.GetByOwner(ctx, task.ID, owner.ID)
}

func (s *TaskService) Get(ctx context.Context, owner models.User, id string) (models.Task, error) {
	return s.tasks.GetByOwner(ctx, id, owner.ID)
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	Tags        *[]string
}

func (s *TaskService) Update(ctx context.Context, owner models.User, id string, input UpdateTaskInput) (models.Task, error) {
	upd := repository.TaskUpdate{
		Description: input.Description,
		DueDate:     input.DueDate,
	}

	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return models.Task{}, validationf("title cannot be empty")
		}
		if len(trimmed) > 100 {
			return models.Task{}, validationf("title cannot exceed 100 characters")
		}
		upd.Title = &trimmed
	}
	if input.Description != nil && len(*input.Description) > 1000 {
		return models.Task{}, validationf("description cannot exceed 1000 characters")
	}
	if input.Status != nil {
		status := models.TaskStatus(*input.Status)
		if !status.Valid() {
			return models.Task{}, validationf("invalid status %q", *input.Status)
		}
		upd.Status = &status
	}
	if input.Priority != nil {
		priority := models.TaskPriority(*input.Priority)
		if !priority.Valid() {
			return models.Task{}, validationf("invalid priority %q", *input.Priority)
		}
		upd.Priority = &priority
	}
	if input.Tags != nil {
		tags := normalizeTags(*input.Tags)
		upd.Tags = &tags
	}

	task, err := s.tasks.Update(ctx, id, owner.ID, upd)
	if err != nil {
		return models.Task{}, err
	}

	s.invalidateStats(ctx, owner.ID)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, owner models.User, id string) error {
	if err := s.tasks.Delete(ctx, id, owner.ID); err != nil {
		return err
	}
	s.invalidateStats(ctx, owner.ID)
	return nil
}

func (s *TaskService) invalidateStats(ctx context.Context, ownerID string) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Invalidate(ctx, ownerID); err != nil {
		s.log.Warn().Err(err).Str("user_id", ownerID).Msg("stats cache invalidation failed")
	}
}

// normalizeTags trims whitespace and drops empty entries, preserving order.
func normalizeTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}
