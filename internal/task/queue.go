package task

import "sort"

// Queue holds pending tasks ordered by priority (highest first). Tasks
// of equal priority keep submission order: the earlier creation time
// runs first. The queue is not safe for concurrent use on its own; the
// orchestrator serializes access.
type Queue struct {
	tasks []*Task
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push inserts the task at its ordered position.
func (q *Queue) Push(t *Task) {
	idx := sort.Search(len(q.tasks), func(i int) bool {
		if q.tasks[i].Priority != t.Priority {
			return q.tasks[i].Priority < t.Priority
		}
		return q.tasks[i].CreatedAt.After(t.CreatedAt)
	})
	q.tasks = append(q.tasks, nil)
	copy(q.tasks[idx+1:], q.tasks[idx:])
	q.tasks[idx] = t
}

// Head returns up to n tasks from the front without removing them.
func (q *Queue) Head(n int) []*Task {
	if n > len(q.tasks) {
		n = len(q.tasks)
	}
	head := make([]*Task, n)
	copy(head, q.tasks[:n])
	return head
}

// Remove deletes the task with the given ID, preserving order.
func (q *Queue) Remove(id string) bool {
	for i, t := range q.tasks {
		if t.ID == id {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) Len() int {
	return len(q.tasks)
}

// Snapshot returns a copy of the queued tasks in order.
func (q *Queue) Snapshot() []*Task {
	out := make([]*Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}
