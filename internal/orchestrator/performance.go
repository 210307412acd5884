package orchestrator

import (
	"sync"
	"time"

	"github.com/quantumnex/nexord/internal/agent"
)

// Learning rates for the metric EMAs. The faster rate applies while an
// agent has little recent history, so new agents converge quickly.
const (
	fastLearningRate = 0.1
	slowLearningRate = 0.05

	recentWindow    = 20
	recentThreshold = 10

	reliabilityFloor = 0.1
	// Processing times above this many seconds count as zero efficiency.
	maxExpectedSeconds = 10.0
)

// HistoryRecord is one completed execution, kept in a bounded rolling
// history that drives the adaptive learning-rate decision.
type HistoryRecord struct {
	TaskID    string
	AgentID   string
	Success   bool
	Seconds   float64
	Timestamp time.Time
}

// Tracker maintains the rolling execution history and applies adaptive
// metric updates to agent records.
type Tracker struct {
	mu      sync.Mutex
	history []HistoryRecord
	max     int
}

func NewTracker(max int) *Tracker {
	if max <= 0 {
		max = 10000
	}
	return &Tracker{max: max}
}

// Record applies the outcome of one execution: it appends to the
// rolling history and EMA-blends the agent's metrics, picking the
// learning rate from how much recent history the agent has.
func (tr *Tracker) Record(reg *agent.Registry, agentID, taskID string, success bool, seconds float64) {
	tr.mu.Lock()
	recent := 0
	start := len(tr.history) - recentWindow
	if start < 0 {
		start = 0
	}
	for _, h := range tr.history[start:] {
		if h.AgentID == agentID {
			recent++
		}
	}

	tr.history = append(tr.history, HistoryRecord{
		TaskID:    taskID,
		AgentID:   agentID,
		Success:   success,
		Seconds:   seconds,
		Timestamp: time.Now(),
	})
	if len(tr.history) > tr.max {
		tr.history = tr.history[len(tr.history)-tr.max:]
	}
	tr.mu.Unlock()

	lr := fastLearningRate
	if recent >= recentThreshold {
		lr = slowLearningRate
	}

	reg.Update(agentID, func(a *agent.Agent) {
		if success {
			a.Completed++
		} else {
			a.Failed++
		}

		m := &a.Metrics

		current := 0.0
		if success {
			current = 1.0
		}
		m.SuccessRate = lr*current + (1-lr)*m.SuccessRate

		if seconds > 0 {
			m.AvgProcessingTime = lr*seconds + (1-lr)*m.AvgProcessingTime
		}

		// Reliability moves asymmetrically: gains shrink as the score
		// approaches 1.0, losses shrink as it approaches the floor.
		if success {
			m.ReliabilityScore += 0.02 * (1 - m.ReliabilityScore)
			if m.ReliabilityScore > 1.0 {
				m.ReliabilityScore = 1.0
			}
		} else {
			m.ReliabilityScore -= 0.05 * m.ReliabilityScore
			if m.ReliabilityScore < reliabilityFloor {
				m.ReliabilityScore = reliabilityFloor
			}
		}

		capped := seconds
		if capped > maxExpectedSeconds {
			capped = maxExpectedSeconds
		}
		efficiency := 1.0 - capped/maxExpectedSeconds
		m.EfficiencyScore = lr*efficiency + (1-lr)*m.EfficiencyScore

		total := a.Completed + a.Failed
		if total > 0 {
			m.Throughput = float64(a.Completed) / float64(total) * 60
		}
	})
}

// Recent returns a copy of the last n history records.
func (tr *Tracker) Recent(n int) []HistoryRecord {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if n > len(tr.history) {
		n = len(tr.history)
	}
	out := make([]HistoryRecord, n)
	copy(out, tr.history[len(tr.history)-n:])
	return out
}

// Len returns the current history length.
func (tr *Tracker) Len() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.history)
}
