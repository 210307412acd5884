package task

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents a task's position in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
	StatusError     Status = "error"
)

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired, StatusError:
		return true
	}
	return false
}

var (
	// ErrNoRequirements indicates a submission without capability requirements.
	ErrNoRequirements = errors.New("task must have at least one requirement")
	// ErrNoInput indicates a submission without input data.
	ErrNoInput = errors.New("task must have input data")
)

// Task is a unit of work submitted to the orchestrator.
type Task struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Priority      int            `json:"priority"`
	Requirements  []string       `json:"requirements"`
	Input         map[string]any `json:"input"`
	Deadline      *time.Time     `json:"deadline,omitempty"`
	AssignedAgent string         `json:"assigned_agent,omitempty"`
	Status        Status         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// New validates and builds a pending task. Priority is clamped into
// [1,10] regardless of the submitted value.
func New(taskType string, requirements []string, input map[string]any, priority int, deadline *time.Time) (*Task, error) {
	if len(requirements) == 0 {
		return nil, ErrNoRequirements
	}
	if len(input) == 0 {
		return nil, ErrNoInput
	}

	return &Task{
		ID:           "task-" + uuid.New().String()[:8],
		Type:         taskType,
		Priority:     clampPriority(priority),
		Requirements: requirements,
		Input:        input,
		Deadline:     deadline,
		Status:       StatusPending,
		CreatedAt:    time.Now(),
	}, nil
}

func clampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 10 {
		return 10
	}
	return p
}

// Expired reports whether the task has a deadline that already passed.
func (t *Task) Expired(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now)
}
