// Package coordination runs bounded-time multi-agent joint execution:
// contribution calls fan out concurrently and whatever has completed
// when the window closes is combined; late agents contribute zero.
package coordination

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantumnex/nexord/internal/agent"
	"github.com/quantumnex/nexord/internal/natsbus"
	"github.com/quantumnex/nexord/internal/store"
)

// Mode selects how contributions are combined.
type Mode string

const (
	ModeCollaborative Mode = "collaborative"
	ModeCompetitive   Mode = "competitive"
	ModeHybrid        Mode = "hybrid"
)

// Contribution is one agent's answer to a joint task.
type Contribution struct {
	AgentID    string  `json:"agent_id"`
	Value      float64 `json:"contribution"`
	Confidence float64 `json:"confidence"`
	TimedOut   bool    `json:"timed_out,omitempty"`
}

// ContributionProvider produces an agent's contribution for a task.
// A call that outlives the coordination window is recorded as a
// zero-value, zero-confidence entry, not as a provider error.
type ContributionProvider interface {
	GetContribution(ctx context.Context, agentID, taskID string) (Contribution, error)
}

// Result is the outcome of one coordination round.
type Result struct {
	ID            string         `json:"id"`
	TaskID        string         `json:"task_id"`
	Agents        []string       `json:"participating_agents"`
	Contributions []Contribution `json:"contributions,omitempty"`
	CombinedValue float64        `json:"combined_value"`
	Mode          Mode           `json:"mode"`
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Coordinator fans contribution calls out to candidate agents and
// combines the results under a hard deadline. Outcomes are kept in a
// bounded rolling history.
type Coordinator struct {
	registry *agent.Registry
	provider ContributionProvider
	events   *natsbus.Client // optional
	store    *store.Store    // optional

	window     time.Duration
	maxHistory int
	retention  time.Duration

	mu      sync.Mutex
	history []Result
}

func NewCoordinator(reg *agent.Registry, provider ContributionProvider, st *store.Store, events *natsbus.Client, window time.Duration, maxHistory int, retention time.Duration) *Coordinator {
	if window <= 0 {
		window = 10 * time.Second
	}
	if maxHistory <= 0 {
		maxHistory = 1000
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Coordinator{
		registry:   reg,
		provider:   provider,
		events:     events,
		store:      st,
		window:     window,
		maxHistory: maxHistory,
		retention:  retention,
	}
}

// Coordinate runs one coordination round for the task across the given
// candidates. Candidates that are not Active are filtered out; if none
// remain the round is an explicit failure, not an error. The call
// returns once every contribution has arrived or the window elapses,
// whichever is first.
func (c *Coordinator) Coordinate(ctx context.Context, taskID string, candidateIDs []string, mode Mode) Result {
	id := "coord-" + uuid.New().String()[:8]

	var available []string
	for _, aid := range candidateIDs {
		a := c.registry.Get(aid)
		if a != nil && a.Status == agent.StatusActive {
			available = append(available, aid)
		}
	}

	if len(available) == 0 {
		result := Result{
			ID:        id,
			TaskID:    taskID,
			Mode:      mode,
			Success:   false,
			Error:     "no available agents for coordination",
			Timestamp: time.Now(),
		}
		c.record(result)
		return result
	}

	slog.Info("coordinating agents", "id", id, "task", taskID, "agents", available, "mode", mode)

	ctx, cancel := context.WithTimeout(ctx, c.window)
	defer cancel()

	contributions := c.collect(ctx, taskID, available)
	combined := c.combine(contributions, mode)

	result := Result{
		ID:            id,
		TaskID:        taskID,
		Agents:        available,
		Contributions: contributions,
		CombinedValue: combined,
		Mode:          mode,
		Success:       true,
		Timestamp:     time.Now(),
	}
	c.record(result)
	return result
}

// collect issues every contribution call concurrently and waits for
// the context deadline at most. Missing answers become zero entries so
// partial responses still combine.
func (c *Coordinator) collect(ctx context.Context, taskID string, agentIDs []string) []Contribution {
	type indexed struct {
		i int
		c Contribution
	}

	results := make(chan indexed, len(agentIDs))
	for i, aid := range agentIDs {
		go func(i int, aid string) {
			contrib, err := c.provider.GetContribution(ctx, aid, taskID)
			if err != nil {
				results <- indexed{i, Contribution{AgentID: aid, TimedOut: true}}
				return
			}
			contrib.AgentID = aid
			results <- indexed{i, contrib}
		}(i, aid)
	}

	out := make([]Contribution, len(agentIDs))
	received := make([]bool, len(agentIDs))
	pending := len(agentIDs)
	for pending > 0 {
		select {
		case r := <-results:
			out[r.i] = r.c
			received[r.i] = true
			pending--
		case <-ctx.Done():
			for i, ok := range received {
				if !ok {
					out[i] = Contribution{AgentID: agentIDs[i], TimedOut: true}
				}
			}
			slog.Warn("coordination window elapsed", "task", taskID, "missing", pending)
			return out
		}
	}
	return out
}

func (c *Coordinator) combine(contributions []Contribution, mode Mode) float64 {
	switch mode {
	case ModeCollaborative:
		return c.combineCollaborative(contributions)
	case ModeCompetitive:
		return combineCompetitive(contributions)
	default:
		collaborative := c.combineCollaborative(contributions)
		competitive := combineCompetitive(contributions)
		meanConfidence := 0.0
		for _, contrib := range contributions {
			meanConfidence += contrib.Confidence
		}
		if len(contributions) > 0 {
			meanConfidence /= float64(len(contributions))
		}
		return meanConfidence*collaborative + (1-meanConfidence)*competitive
	}
}

// combineCollaborative averages contributions weighted by confidence
// and the contributing agent's reliability, falling back to a plain
// mean when the total weight is zero.
func (c *Coordinator) combineCollaborative(contributions []Contribution) float64 {
	weightedSum := 0.0
	totalWeight := 0.0
	for _, contrib := range contributions {
		reliability := 1.0
		if a := c.registry.Get(contrib.AgentID); a != nil {
			reliability = a.Metrics.ReliabilityScore
		}
		weight := contrib.Confidence * reliability
		weightedSum += contrib.Value * weight
		totalWeight += weight
	}
	if totalWeight > 0 {
		return weightedSum / totalWeight
	}

	if len(contributions) == 0 {
		return 0
	}
	sum := 0.0
	for _, contrib := range contributions {
		sum += contrib.Value
	}
	return sum / float64(len(contributions))
}

// combineCompetitive takes the contribution with the highest
// contribution-times-confidence score.
func combineCompetitive(contributions []Contribution) float64 {
	bestScore := -1.0
	bestValue := 0.0
	for _, contrib := range contributions {
		score := contrib.Value * contrib.Confidence
		if score > bestScore {
			bestScore = score
			bestValue = contrib.Value
		}
	}
	if bestScore < 0 {
		return 0
	}
	return bestValue
}

func (c *Coordinator) record(r Result) {
	c.mu.Lock()
	c.history = append(c.history, r)
	if len(c.history) > c.maxHistory {
		c.history = c.history[len(c.history)-c.maxHistory:]
	}
	c.mu.Unlock()

	if c.store != nil {
		agents, _ := json.Marshal(r.Agents)
		entry := &store.CoordinationEntry{
			ID:      r.ID,
			TaskID:  r.TaskID,
			Agents:  string(agents),
			Mode:    string(r.Mode),
			Value:   r.CombinedValue,
			Success: r.Success,
		}
		if err := c.store.SaveCoordination(entry); err != nil {
			slog.Error("failed to persist coordination result", "id", r.ID, "error", err)
		}
	}

	c.publishEvent(r)
}

// Prune drops history entries outside the retention window. Called
// periodically by the health monitor tick.
func (c *Coordinator) Prune(now time.Time) {
	cutoff := now.Add(-c.retention)

	c.mu.Lock()
	kept := c.history[:0]
	for _, r := range c.history {
		if r.Timestamp.After(cutoff) {
			kept = append(kept, r)
		}
	}
	c.history = kept
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.PruneCoordinations(cutoff); err != nil {
			slog.Error("failed to prune coordination history", "error", err)
		}
	}
}

// Stats summarizes recent coordination outcomes.
type Stats struct {
	TotalEvents       int     `json:"total_events"`
	RecentSuccessRate float64 `json:"recent_success_rate"`
}

// Summary reports the history length and the success rate over the
// last ten rounds.
func (c *Coordinator) Summary() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{TotalEvents: len(c.history)}
	recent := c.history
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	if len(recent) == 0 {
		return stats
	}
	ok := 0
	for _, r := range recent {
		if r.Success {
			ok++
		}
	}
	stats.RecentSuccessRate = float64(ok) / float64(len(recent))
	return stats
}

func (c *Coordinator) publishEvent(r Result) {
	if c.events == nil {
		return
	}
	event := map[string]any{
		"type":      "coordination_completed",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data": map[string]any{
			"id":      r.ID,
			"task_id": r.TaskID,
			"mode":    r.Mode,
			"value":   r.CombinedValue,
			"success": r.Success,
			"agents":  len(r.Agents),
		},
	}
	if err := c.events.PublishJSON(natsbus.TopicEventsCoordination(r.ID), event); err != nil {
		slog.Debug("failed to publish coordination event", "id", r.ID, "error", err)
	}
}
