// Package executor defines the contract between the orchestrator and
// the domain-specific workers that actually produce task outputs. The
// orchestrator never interprets payloads; it only routes tasks and
// records outcomes.
package executor

import (
	"context"
	"time"

	"github.com/quantumnex/nexord/internal/task"
)

// Usage reports the resources an execution consumed.
type Usage struct {
	MemoryMB   float64 `json:"memory_mb"`
	CPU        float64 `json:"cpu"`
	NetworkMBs float64 `json:"network_mbs"`
}

// Result is the outcome of a single execution. Expected domain
// failures are reported through Success=false, not through an error;
// only infrastructure failures propagate as errors.
type Result struct {
	Success        bool           `json:"success"`
	ProcessingTime time.Duration  `json:"processing_time"`
	Payload        map[string]any `json:"payload,omitempty"`
	Usage          Usage          `json:"usage"`
}

// Executor runs a task on behalf of an agent.
type Executor interface {
	Execute(ctx context.Context, agentID string, t *task.Task) (Result, error)
}
