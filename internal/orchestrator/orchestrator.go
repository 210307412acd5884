// Package orchestrator implements the task assignment core: a global
// priority queue, per-cycle matching against the capability index, and
// mode-dependent agent selection.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/quantumnex/nexord/internal/agent"
	"github.com/quantumnex/nexord/internal/config"
	"github.com/quantumnex/nexord/internal/executor"
	"github.com/quantumnex/nexord/internal/natsbus"
	"github.com/quantumnex/nexord/internal/store"
	"github.com/quantumnex/nexord/internal/task"
	"github.com/quantumnex/nexord/internal/trust"
)

// Agents below this reliability are excluded from the suitable set.
const minReliability = 0.3

// Orchestrator owns the global task queue and runs assignment cycles.
// All queue mutation is serialized on one mutex; the lock is never held
// across execution, so dispatch is fire-and-forget.
type Orchestrator struct {
	registry *agent.Registry
	trust    *trust.Ledger
	tracker  *Tracker
	exec     executor.Executor
	strategy Strategy
	events   *natsbus.Client // optional
	store    *store.Store    // optional
	cfg      config.OrchestratorConfig

	mu        sync.Mutex
	queue     *task.Queue
	inflight  map[string]struct{}
	completed int
	failed    int
	closed    bool

	startedAt time.Time
}

func New(reg *agent.Registry, ledger *trust.Ledger, exec executor.Executor, st *store.Store, events *natsbus.Client, cfg config.OrchestratorConfig) (*Orchestrator, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	strategy, err := buildStrategy(cfg.Mode, ledger, rng)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		registry:  reg,
		trust:     ledger,
		tracker:   NewTracker(10000),
		exec:      exec,
		strategy:  strategy,
		events:    events,
		store:     st,
		cfg:       cfg,
		queue:     task.NewQueue(),
		inflight:  make(map[string]struct{}),
		startedAt: time.Now(),
	}, nil
}

func buildStrategy(mode string, ledger *trust.Ledger, rng *rand.Rand) (Strategy, error) {
	collaborative := NewCollaborative(ledger)
	competitive := NewCompetitive(rng)
	switch mode {
	case "collaborative":
		return collaborative, nil
	case "competitive":
		return competitive, nil
	case "hybrid":
		return NewHybrid(collaborative, competitive, rng), nil
	default:
		return nil, fmt.Errorf("unknown coordination mode %q", mode)
	}
}

// Tracker exposes the performance tracker, used by tests and status
// reporting.
func (o *Orchestrator) Tracker() *Tracker {
	return o.tracker
}

// SubmitTask validates and enqueues a task, then triggers an
// asynchronous assignment cycle. Priority is clamped into [1,10];
// empty requirements or input are rejected before the task reaches the
// queue.
func (o *Orchestrator) SubmitTask(taskType string, requirements []string, input map[string]any, priority int, deadline *time.Time) (string, error) {
	t, err := task.New(taskType, requirements, input, priority, deadline)
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return "", fmt.Errorf("orchestrator is shut down")
	}
	o.queue.Push(t)
	o.mu.Unlock()

	slog.Info("task submitted", "id", t.ID, "type", taskType, "priority", t.Priority)
	o.publishTaskEvent(t, "task_submitted")

	go o.AssignCycle()

	return t.ID, nil
}

// Resubmit puts tasks reclaimed from a removed agent back on the
// global queue with their original requirements and priority. Tasks
// still executing are skipped: their goroutine owns them and reports
// the outcome itself, so requeueing would run them twice.
func (o *Orchestrator) Resubmit(tasks []*task.Task) {
	if len(tasks) == 0 {
		return
	}

	requeued := 0
	o.mu.Lock()
	for _, t := range tasks {
		if t.Status.IsTerminal() {
			continue
		}
		if _, running := o.inflight[t.ID]; running {
			continue
		}
		t.AssignedAgent = ""
		t.Status = task.StatusPending
		o.queue.Push(t)
		requeued++
	}
	o.mu.Unlock()

	if requeued == 0 {
		return
	}
	slog.Info("tasks resubmitted", "count", requeued)
	go o.AssignCycle()
}

// AssignCycle processes at most min(batch, queue length) head tasks:
// for each pending task it computes the suitable-agent set, applies the
// selection strategy and moves the task into the winner's local queue.
// Tasks with no suitable agent stay pending unless their deadline has
// passed, in which case they expire. Cycles are serialized on the
// orchestrator lock, so a task can never be assigned twice.
func (o *Orchestrator) AssignCycle() {
	now := time.Now()

	o.mu.Lock()
	batch := o.queue.Head(o.cfg.BatchSize)

	var dispatched, expired []*task.Task
	for _, t := range batch {
		if t.Status != task.StatusPending {
			o.queue.Remove(t.ID)
			continue
		}

		suitable := o.registry.Suitable(t.Requirements, minReliability)
		if len(suitable) == 0 {
			if t.Expired(now) {
				t.Status = task.StatusExpired
				o.queue.Remove(t.ID)
				expired = append(expired, t)
			}
			continue
		}

		candidates := o.registry.Candidates(suitable)
		chosen := o.strategy.Select(t, candidates)
		if chosen == "" {
			continue
		}

		if err := o.registry.Enqueue(chosen, t); err != nil {
			// Lost a capacity race; the task stays pending for the
			// next cycle.
			slog.Debug("assignment rejected", "task", t.ID, "agent", chosen, "error", err)
			continue
		}

		t.AssignedAgent = chosen
		t.Status = task.StatusAssigned
		o.inflight[t.ID] = struct{}{}
		o.queue.Remove(t.ID)
		dispatched = append(dispatched, t)
	}
	o.mu.Unlock()

	for _, t := range expired {
		slog.Warn("task expired before assignment", "id", t.ID)
		o.publishTaskEvent(t, "task_expired")
	}
	for _, t := range dispatched {
		slog.Info("task assigned", "id", t.ID, "agent", t.AssignedAgent)
		o.publishTaskEvent(t, "task_assigned")
		go o.runTask(t)
	}
}

// runTask executes an assigned task and feeds the outcome back into
// the performance tracker and the trust ledger. Status transitions
// after dispatch happen under the orchestrator lock, matching the
// assignment cycle's reads. Local-queue membership and the active-task
// counter are released on every exit path.
func (o *Orchestrator) runTask(t *task.Task) {
	agentID := t.AssignedAgent

	o.registry.TrackUsage(agentID, 1)
	defer func() {
		o.registry.TrackUsage(agentID, -1)
		o.registry.Dequeue(agentID, t.ID)
	}()

	o.mu.Lock()
	t.Status = task.StatusRunning
	o.mu.Unlock()

	res, err := o.exec.Execute(context.Background(), agentID, t)
	success := err == nil && res.Success
	seconds := res.ProcessingTime.Seconds()

	if err != nil {
		slog.Error("task execution error", "id", t.ID, "agent", agentID, "error", err)
	}

	o.tracker.Record(o.registry, agentID, t.ID, success, seconds)
	o.trust.Record(agentID, success)
	if res.Usage != (executor.Usage{}) {
		o.registry.RecordUsage(agentID, res.Usage.MemoryMB, res.Usage.CPU, res.Usage.NetworkMBs)
	}

	// Terminal status and the in-flight mark change in one critical
	// section, so a concurrent Remove/Resubmit either sees the task
	// running or sees it terminal; there is no window where it can be
	// requeued mid-execution.
	o.mu.Lock()
	if success {
		t.Status = task.StatusCompleted
		o.completed++
	} else {
		t.Status = task.StatusFailed
		o.failed++
	}
	delete(o.inflight, t.ID)
	o.mu.Unlock()

	if o.store != nil {
		entry := &store.TaskHistoryEntry{
			TaskID:   t.ID,
			AgentID:  agentID,
			TaskType: t.Type,
			Success:  success,
			Seconds:  seconds,
		}
		if err := o.store.AppendTaskHistory(entry); err != nil {
			slog.Error("failed to persist task history", "id", t.ID, "error", err)
		}
	}

	event := "task_completed"
	if !success {
		event = "task_failed"
	}
	slog.Info("task finished", "id", t.ID, "agent", agentID, "success", success, "seconds", seconds)
	o.publishTaskEvent(t, event)
}

// QueueSnapshot returns the queued tasks in assignment order.
func (o *Orchestrator) QueueSnapshot() []*task.Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queue.Snapshot()
}

// QueueLen returns the number of queued tasks.
func (o *Orchestrator) QueueLen() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queue.Len()
}

// AgentSummary is the per-agent slice of a system status snapshot.
type AgentSummary struct {
	ID           string        `json:"id"`
	Type         string        `json:"type"`
	Status       agent.Status  `json:"status"`
	Capabilities []string      `json:"capabilities"`
	Metrics      agent.Metrics `json:"metrics"`
	Load         int           `json:"load"`
	Completed    int           `json:"completed"`
	Failed       int           `json:"failed"`
}

// SystemStatus is a point-in-time snapshot of the whole system.
type SystemStatus struct {
	TotalAgents    int                `json:"total_agents"`
	ActiveAgents   int                `json:"active_agents"`
	QueuedTasks    int                `json:"queued_tasks"`
	TasksCompleted int                `json:"tasks_completed"`
	TasksFailed    int                `json:"tasks_failed"`
	ErrorRate      float64            `json:"error_rate"`
	UptimeSeconds  float64            `json:"uptime_seconds"`
	Running        bool               `json:"running"`
	Utilization    map[string]float64 `json:"utilization"`
	Agents         []AgentSummary     `json:"agents"`
}

// Status builds a system snapshot for the administrative surface.
func (o *Orchestrator) Status() SystemStatus {
	o.mu.Lock()
	completed, failed := o.completed, o.failed
	queued := o.queue.Len()
	closed := o.closed
	o.mu.Unlock()

	agents := o.registry.List()
	util := o.registry.Utilization()

	status := SystemStatus{
		TotalAgents:    len(agents),
		QueuedTasks:    queued,
		TasksCompleted: completed,
		TasksFailed:    failed,
		UptimeSeconds:  time.Since(o.startedAt).Seconds(),
		Running:        !closed,
		Utilization:    util,
	}
	if total := completed + failed; total > 0 {
		status.ErrorRate = float64(failed) / float64(total)
	}

	for _, a := range agents {
		if a.Status == agent.StatusActive {
			status.ActiveAgents++
		}
		status.Agents = append(status.Agents, AgentSummary{
			ID:           a.ID,
			Type:         a.Type,
			Status:       a.Status,
			Capabilities: a.Capabilities,
			Metrics:      a.Metrics,
			Load:         o.registry.QueueLen(a.ID),
			Completed:    a.Completed,
			Failed:       a.Failed,
		})
	}
	return status
}

// Shutdown stops accepting tasks and marks every agent Terminated. The
// health monitor's loop is stopped separately by cancelling its
// context.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	for _, id := range o.registry.IDs() {
		o.registry.SetStatus(id, agent.StatusTerminated)
	}
	slog.Info("orchestrator shut down")
}

func (o *Orchestrator) publishTaskEvent(t *task.Task, eventType string) {
	if o.events == nil {
		return
	}
	event := map[string]any{
		"type":      eventType,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data": map[string]any{
			"id":        t.ID,
			"task_type": t.Type,
			"priority":  t.Priority,
			"status":    t.Status,
			"agent":     t.AssignedAgent,
		},
	}
	if err := o.events.PublishJSON(natsbus.TopicEventsTask(t.ID), event); err != nil {
		slog.Debug("failed to publish task event", "id", t.ID, "error", err)
	}
}
