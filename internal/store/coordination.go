package store

import (
	"fmt"
	"time"
)

// CoordinationEntry is the durable record of one coordination outcome.
type CoordinationEntry struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Agents    string    `json:"agents"` // JSON array of agent IDs
	Mode      string    `json:"mode"`
	Value     float64   `json:"value"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) SaveCoordination(e *CoordinationEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO coordination_results (id, task_id, agents, mode, value, success)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.TaskID, e.Agents, e.Mode, e.Value, e.Success)
	if err != nil {
		return fmt.Errorf("save coordination: %w", err)
	}
	return nil
}

func (s *Store) ListCoordinations(limit int) ([]CoordinationEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, task_id, agents, mode, value, success, created_at
		FROM coordination_results
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list coordinations: %w", err)
	}
	defer rows.Close()

	var out []CoordinationEntry
	for rows.Next() {
		var e CoordinationEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Agents, &e.Mode, &e.Value, &e.Success, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan coordination: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneCoordinations deletes entries older than the cutoff.
func (s *Store) PruneCoordinations(cutoff time.Time) error {
	_, err := s.db.Exec(`DELETE FROM coordination_results WHERE created_at < ?`, cutoff)
	return err
}
