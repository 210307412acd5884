// Package scheduler submits recurring task templates to the
// orchestrator when their schedule comes due.
package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/quantumnex/nexord/internal/config"
	"github.com/quantumnex/nexord/internal/schedule"
	"github.com/quantumnex/nexord/internal/store"
)

// Submitter is the slice of the orchestrator the scheduler needs.
type Submitter interface {
	SubmitTask(taskType string, requirements []string, input map[string]any, priority int, deadline *time.Time) (string, error)
}

type Scheduler struct {
	store        *store.Store
	submitter    Submitter
	pollInterval time.Duration
	reloadCh     chan struct{}
}

func New(s *store.Store, submitter Submitter, cfg config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		store:        s,
		submitter:    submitter,
		pollInterval: cfg.PollInterval,
		reloadCh:     make(chan struct{}, 1),
	}
}

// UpdateConfig changes the poll interval and signals the run loop to
// reset its ticker.
func (s *Scheduler) UpdateConfig(pollInterval time.Duration) {
	s.pollInterval = pollInterval
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

// Reload pokes the run loop so newly saved or changed recurring tasks
// are picked up without waiting for the next tick.
func (s *Scheduler) Reload() {
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if s.pollInterval == 0 {
		s.pollInterval = 30 * time.Second
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	slog.Info("scheduler started", "poll_interval", s.pollInterval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-s.reloadCh:
			ticker.Reset(s.pollInterval)
			s.poll()
		case <-ticker.C:
			s.poll()
		}
	}
}

func (s *Scheduler) poll() {
	due, err := s.store.GetDueRecurringTasks(time.Now())
	if err != nil {
		slog.Error("failed to get due recurring tasks", "error", err)
		return
	}

	for _, rt := range due {
		s.submit(rt)
	}
}

func (s *Scheduler) submit(rt store.RecurringTask) {
	slog.Info("submitting recurring task", "id", rt.ID, "name", rt.Name, "type", rt.TaskType)

	var requirements []string
	var input map[string]any
	if err := json.Unmarshal([]byte(rt.Requirements), &requirements); err != nil {
		slog.Error("bad recurring task requirements", "id", rt.ID, "error", err)
	}
	if err := json.Unmarshal([]byte(rt.Input), &input); err != nil {
		slog.Error("bad recurring task input", "id", rt.ID, "error", err)
	}

	_, err := s.submitter.SubmitTask(rt.TaskType, requirements, input, rt.Priority, nil)

	var lastStatus, lastError string
	if err != nil {
		lastStatus = "error"
		lastError = err.Error()
		slog.Error("recurring task submission failed", "id", rt.ID, "error", err)
	} else {
		lastStatus = "submitted"
	}

	nextRun := schedule.NextRun(rt.Schedule, time.Now())

	if err := s.store.UpdateRecurringRun(rt.ID, lastStatus, lastError, nextRun); err != nil {
		slog.Error("failed to update recurring task run", "id", rt.ID, "error", err)
	}

	// One-off schedules with no future run are marked completed.
	if nextRun == nil {
		slog.Info("no next run, completing recurring task", "id", rt.ID, "name", rt.Name)
		if err := s.store.UpdateRecurringStatus(rt.ID, "completed"); err != nil {
			slog.Error("failed to complete recurring task", "id", rt.ID, "error", err)
		}
	}
}
