package store

import (
	"database/sql"
	"fmt"
	"time"
)

// RecurringTask is a task template submitted to the orchestrator on a
// schedule.
type RecurringTask struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	TaskType     string     `json:"task_type"`
	Requirements string     `json:"requirements"` // JSON array
	Input        string     `json:"input"`        // JSON object
	Priority     int        `json:"priority"`
	Schedule     string     `json:"schedule"` // schedule JSON, see internal/schedule
	Status       string     `json:"status"`
	NextRunAt    *time.Time `json:"next_run_at,omitempty"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	LastStatus   string     `json:"last_status,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func scanRecurring(scanner interface {
	Scan(dest ...any) error
}) (*RecurringTask, error) {
	t := &RecurringTask{}
	var lastStatus, lastError *string
	err := scanner.Scan(&t.ID, &t.Name, &t.TaskType, &t.Requirements, &t.Input, &t.Priority,
		&t.Schedule, &t.Status, &t.NextRunAt, &t.LastRunAt, &lastStatus, &lastError, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastStatus != nil {
		t.LastStatus = *lastStatus
	}
	if lastError != nil {
		t.LastError = *lastError
	}
	return t, nil
}

func (s *Store) SaveRecurringTask(t *RecurringTask) error {
	_, err := s.db.Exec(`
		INSERT INTO recurring_tasks (id, name, task_type, requirements, input, priority, schedule, status, next_run_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			task_type = excluded.task_type,
			requirements = excluded.requirements,
			input = excluded.input,
			priority = excluded.priority,
			schedule = excluded.schedule,
			status = excluded.status,
			next_run_at = excluded.next_run_at`,
		t.ID, t.Name, t.TaskType, t.Requirements, t.Input, t.Priority, t.Schedule, t.Status, t.NextRunAt)
	if err != nil {
		return fmt.Errorf("save recurring task: %w", err)
	}
	return nil
}

func (s *Store) GetRecurringTask(id string) (*RecurringTask, error) {
	row := s.db.QueryRow(`
		SELECT id, name, task_type, requirements, input, priority, schedule, status,
		       next_run_at, last_run_at, last_status, last_error, created_at
		FROM recurring_tasks WHERE id = ?`, id)
	t, err := scanRecurring(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recurring task: %w", err)
	}
	return t, nil
}

func (s *Store) ListRecurringTasks() ([]RecurringTask, error) {
	rows, err := s.db.Query(`
		SELECT id, name, task_type, requirements, input, priority, schedule, status,
		       next_run_at, last_run_at, last_status, last_error, created_at
		FROM recurring_tasks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list recurring tasks: %w", err)
	}
	defer rows.Close()

	var tasks []RecurringTask
	for rows.Next() {
		t, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) GetDueRecurringTasks(now time.Time) ([]RecurringTask, error) {
	rows, err := s.db.Query(`
		SELECT id, name, task_type, requirements, input, priority, schedule, status,
		       next_run_at, last_run_at, last_status, last_error, created_at
		FROM recurring_tasks
		WHERE status = 'active' AND next_run_at <= ?
		ORDER BY next_run_at`, now)
	if err != nil {
		return nil, fmt.Errorf("get due recurring tasks: %w", err)
	}
	defer rows.Close()

	var tasks []RecurringTask
	for rows.Next() {
		t, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateRecurringRun(id string, lastStatus string, lastError string, nextRunAt *time.Time) error {
	_, err := s.db.Exec(`
		UPDATE recurring_tasks
		SET last_run_at = CURRENT_TIMESTAMP, last_status = ?, last_error = ?, next_run_at = ?
		WHERE id = ?`, lastStatus, lastError, nextRunAt, id)
	return err
}

func (s *Store) UpdateRecurringStatus(id string, status string) error {
	_, err := s.db.Exec(`UPDATE recurring_tasks SET status = ? WHERE id = ?`, status, id)
	return err
}

func (s *Store) DeleteRecurringTask(id string) error {
	_, err := s.db.Exec(`DELETE FROM recurring_tasks WHERE id = ?`, id)
	return err
}
