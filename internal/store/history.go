package store

import (
	"fmt"
	"time"
)

// TaskHistoryEntry is the durable record of one execution outcome.
type TaskHistoryEntry struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	AgentID   string    `json:"agent_id"`
	TaskType  string    `json:"task_type"`
	Success   bool      `json:"success"`
	Seconds   float64   `json:"seconds"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) AppendTaskHistory(e *TaskHistoryEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO task_history (task_id, agent_id, task_type, success, seconds)
		VALUES (?, ?, ?, ?, ?)`,
		e.TaskID, e.AgentID, e.TaskType, e.Success, e.Seconds)
	if err != nil {
		return fmt.Errorf("append task history: %w", err)
	}
	return nil
}

func (s *Store) ListTaskHistory(agentID string, limit int) ([]TaskHistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, task_id, agent_id, task_type, success, seconds, created_at
		FROM task_history
		WHERE agent_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list task history: %w", err)
	}
	defer rows.Close()

	var out []TaskHistoryEntry
	for rows.Next() {
		var e TaskHistoryEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.AgentID, &e.TaskType, &e.Success, &e.Seconds, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneTaskHistory deletes entries older than the cutoff.
func (s *Store) PruneTaskHistory(cutoff time.Time) error {
	_, err := s.db.Exec(`DELETE FROM task_history WHERE created_at < ?`, cutoff)
	return err
}
