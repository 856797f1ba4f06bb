package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"taskforge/api/internal/repository"
)

var (
	usersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taskforge_users_total",
		Help: "Registered user accounts.",
	})
	tasksTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "taskforge_tasks_total",
		Help: "Tasks across all users.",
	})
)

// Scheduler periodically refreshes the entity-total gauges so dashboards see
// growth without a scrape-time database query.
type Scheduler struct {
	cron     *cron.Cron
	users    *repository.UserRepository
	tasks    *repository.TaskRepository
	interval time.Duration
	log      zerolog.Logger
}

func NewScheduler(users *repository.UserRepository, tasks *repository.TaskRepository, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		users:    users,
		tasks:    tasks,
		interval: interval,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.refreshGauges); err != nil {
		return err
	}

	s.cron.Start()
	s.refreshGauges()
	return nil
}

// Stop waits for a running refresh to finish, up to a short grace period.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) refreshGauges() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if count, err := s.users.CountAll(ctx); err != nil {
		s.log.Error().Err(err).Msg("count users failed")
	} else {
		usersTotal.Set(float64(count))
	}

	if count, err := s.tasks.CountAll(ctx); err != nil {
		s.log.Error().Err(err).Msg("count tasks failed")
	} else {
		tasksTotal.Set(float64(count))
	}
}
