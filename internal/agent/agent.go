package agent

import (
	"time"

	"github.com/quantumnex/nexord/internal/config"
	"github.com/quantumnex/nexord/internal/task"
)

// Status represents an agent's lifecycle state.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusActive       Status = "active"
	StatusPaused       Status = "paused"
	StatusError        Status = "error"
	StatusTerminated   Status = "terminated"
)

// Metrics holds an agent's live performance scores. All scores start
// optimistic and are adjusted by the performance tracker.
type Metrics struct {
	SuccessRate       float64 `json:"success_rate"`
	AvgProcessingTime float64 `json:"avg_processing_time"`
	ReliabilityScore  float64 `json:"reliability_score"`
	EfficiencyScore   float64 `json:"efficiency_score"`
	Throughput        float64 `json:"throughput"`
}

// Usage is a snapshot of an agent's resource consumption.
type Usage struct {
	MemoryMB    float64 `json:"memory_mb"`
	CPU         float64 `json:"cpu"`
	ActiveTasks int     `json:"active_tasks"`
	NetworkMBs  float64 `json:"network_mbs"`
}

// Agent is a worker with declared capabilities, a bounded local task
// queue and live performance state. Field mutation goes through the
// Registry, which owns the locking.
type Agent struct {
	ID            string                `json:"id"`
	Type          string                `json:"type"`
	Status        Status                `json:"status"`
	Capabilities  []string              `json:"capabilities"`
	Metrics       Metrics               `json:"metrics"`
	Usage         Usage                 `json:"usage"`
	Limits        config.ResourceLimits `json:"limits"`
	LastHeartbeat time.Time             `json:"last_heartbeat"`
	Queue         []*task.Task          `json:"-"`
	Completed     int                   `json:"completed"`
	Failed        int                   `json:"failed"`
}

func newMetrics() Metrics {
	return Metrics{
		SuccessRate:      1.0,
		ReliabilityScore: 1.0,
		EfficiencyScore:  1.0,
	}
}

// Load returns the current local queue length.
func (a *Agent) Load() int {
	return len(a.Queue)
}

// HasCapacity reports whether the agent can accept another task.
func (a *Agent) HasCapacity() bool {
	return len(a.Queue) < a.Limits.MaxConcurrentTasks
}

// CapabilityMatch counts how many of the requirements the agent offers.
func (a *Agent) CapabilityMatch(requirements []string) int {
	n := 0
	for _, req := range requirements {
		for _, cap := range a.Capabilities {
			if cap == req {
				n++
				break
			}
		}
	}
	return n
}
