package agent

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantumnex/nexord/internal/config"
	"github.com/quantumnex/nexord/internal/task"
	"github.com/quantumnex/nexord/internal/trust"
)

// Registry owns all agent records and the capability index. Every
// mutation of agent state happens under the registry lock so that a
// task can never sit in two local queues and an agent never exceeds
// its concurrency limit.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
	// capability -> agent IDs in registration order. Kept consistent
	// with the union of agent capability sets at all times.
	index  map[string][]string
	limits config.LimitsConfig
	trust  *trust.Ledger
}

func NewRegistry(limits config.LimitsConfig, ledger *trust.Ledger) *Registry {
	return &Registry{
		agents: make(map[string]*Agent),
		index:  make(map[string][]string),
		limits: limits,
		trust:  ledger,
	}
}

// Create registers a new agent of the given type. The agent starts
// Initializing, is seeded with 0.5 trust toward and from every existing
// agent, and becomes Active once registered.
func (r *Registry) Create(agentType string, capabilities []string) (string, error) {
	if len(capabilities) == 0 {
		return "", fmt.Errorf("agent must declare at least one capability")
	}

	id := fmt.Sprintf("%s-%s", agentType, uuid.New().String()[:8])

	a := &Agent{
		ID:            id,
		Type:          agentType,
		Status:        StatusInitializing,
		Capabilities:  append([]string(nil), capabilities...),
		Metrics:       newMetrics(),
		Limits:        r.limits.LimitsFor(agentType),
		LastHeartbeat: time.Now(),
	}

	r.mu.Lock()
	for other := range r.agents {
		r.trust.Seed(id, other)
	}
	r.agents[id] = a
	for _, cap := range capabilities {
		r.index[cap] = append(r.index[cap], id)
	}
	a.Status = StatusActive
	r.mu.Unlock()

	slog.Info("agent created", "id", id, "type", agentType, "capabilities", capabilities)
	return id, nil
}

// Remove deletes the agent, strips it from the capability index and the
// trust ledger, and returns any tasks still in its local queue so the
// caller can resubmit them.
func (r *Registry) Remove(id string) []*task.Task {
	r.mu.Lock()
	a, ok := r.agents[id]
	if !ok {
		r.mu.Unlock()
		return nil
	}

	pending := a.Queue
	a.Queue = nil

	for _, cap := range a.Capabilities {
		ids := r.index[cap]
		for i, aid := range ids {
			if aid == id {
				r.index[cap] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(r.index[cap]) == 0 {
			delete(r.index, cap)
		}
	}

	r.trust.Forget(id)
	delete(r.agents, id)
	r.mu.Unlock()

	slog.Info("agent removed", "id", id, "requeued_tasks", len(pending))
	return pending
}

// Get returns a copy of the agent record, or nil if unknown. The local
// queue is not copied.
func (r *Registry) Get(id string) *Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil
	}
	copied := *a
	copied.Queue = nil
	return &copied
}

// List returns copies of all agent records.
func (r *Registry) List() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		copied := *a
		copied.Queue = nil
		out = append(out, &copied)
	}
	return out
}

// Suitable computes the suitable-agent set for the given requirements:
// the union over each requirement of the capability index, filtered to
// Active agents with queue slack and reliability above the floor. The
// returned order is the capability-index insertion order, which callers
// rely on for deterministic tie-breaks.
func (r *Registry) Suitable(requirements []string, minReliability float64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, req := range requirements {
		for _, id := range r.index[req] {
			if seen[id] {
				continue
			}
			seen[id] = true
			a := r.agents[id]
			if a.Status != StatusActive {
				continue
			}
			if !a.HasCapacity() {
				continue
			}
			if a.Metrics.ReliabilityScore <= minReliability {
				continue
			}
			out = append(out, id)
		}
	}
	return out
}

// Candidate is a point-in-time view of an agent used for selection
// scoring.
type Candidate struct {
	ID           string
	Type         string
	Capabilities []string
	Metrics      Metrics
	Load         int
	MaxLoad      int
}

// Candidates snapshots the given agents in order, skipping unknown IDs.
func (r *Registry) Candidates(ids []string) []Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		a, ok := r.agents[id]
		if !ok {
			continue
		}
		out = append(out, Candidate{
			ID:           a.ID,
			Type:         a.Type,
			Capabilities: append([]string(nil), a.Capabilities...),
			Metrics:      a.Metrics,
			Load:         len(a.Queue),
			MaxLoad:      a.Limits.MaxConcurrentTasks,
		})
	}
	return out
}

// Enqueue places the task in the agent's local queue. It fails if the
// agent is gone, inactive or already at capacity, so a concurrent cycle
// can never push an agent past its limit.
func (r *Registry) Enqueue(id string, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return fmt.Errorf("agent %s not found", id)
	}
	if a.Status != StatusActive {
		return fmt.Errorf("agent %s is %s", id, a.Status)
	}
	if !a.HasCapacity() {
		return fmt.Errorf("agent %s at capacity", id)
	}
	a.Queue = append(a.Queue, t)
	return nil
}

// Dequeue removes the task from the agent's local queue. Safe to call
// on any exit path; it is a no-op if the task is already gone.
func (r *Registry) Dequeue(id, taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return
	}
	for i, t := range a.Queue {
		if t.ID == taskID {
			a.Queue = append(a.Queue[:i], a.Queue[i+1:]...)
			return
		}
	}
}

// QueuedTaskIDs returns the IDs of the tasks in the agent's local
// queue, in arrival order.
func (r *Registry) QueuedTaskIDs(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil
	}
	ids := make([]string, len(a.Queue))
	for i, t := range a.Queue {
		ids[i] = t.ID
	}
	return ids
}

// QueueLen returns the agent's local queue length.
func (r *Registry) QueueLen(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.agents[id]; ok {
		return len(a.Queue)
	}
	return 0
}

// SetStatus transitions the agent to the given status.
func (r *Registry) SetStatus(id string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok {
		a.Status = status
	}
}

// Heartbeat refreshes the agent's liveness timestamp.
func (r *Registry) Heartbeat(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok {
		a.LastHeartbeat = time.Now()
	}
}

// TrackUsage marks a task as active or released on the agent's usage
// snapshot.
func (r *Registry) TrackUsage(id string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok {
		a.Usage.ActiveTasks += delta
		if a.Usage.ActiveTasks < 0 {
			a.Usage.ActiveTasks = 0
		}
	}
}

// RecordUsage overwrites the resource usage snapshot reported by an
// executor.
func (r *Registry) RecordUsage(id string, memoryMB, cpu, networkMBs float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok {
		a.Usage.MemoryMB = memoryMB
		a.Usage.CPU = cpu
		a.Usage.NetworkMBs = networkMBs
	}
}

// Update applies fn to the agent record under the registry lock.
func (r *Registry) Update(id string, fn func(*Agent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.agents[id]; ok {
		fn(a)
	}
}

// Utilization returns each agent's local-queue fill ratio.
func (r *Registry) Utilization() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]float64, len(r.agents))
	for id, a := range r.agents {
		if a.Limits.MaxConcurrentTasks > 0 {
			out[id] = float64(len(a.Queue)) / float64(a.Limits.MaxConcurrentTasks)
		} else {
			out[id] = 0
		}
	}
	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// IDs returns all agent IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.agents))
	for id := range r.agents {
		out = append(out, id)
	}
	return out
}
