package executor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/quantumnex/nexord/internal/task"
)

// baseTimes gives the expected processing time per task type. Unknown
// types fall back to one second.
var baseTimes = map[string]time.Duration{
	"strategy_planning":     2 * time.Second,
	"risk_assessment":       1500 * time.Millisecond,
	"opportunity_detection": 500 * time.Millisecond,
	"trade_execution":       200 * time.Millisecond,
	"market_analysis":       time.Second,
	"anomaly_detection":     800 * time.Millisecond,
	"pattern_recognition":   1200 * time.Millisecond,
}

const maxSimulatedWait = 5 * time.Second

// Simulated is an executor that sleeps for a plausible per-type
// duration and succeeds with the given probability. It stands in for
// the real domain executors in the daemon demo and in tests; all
// randomness comes from the injected source so runs are reproducible.
type Simulated struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successProb float64
}

// NewSimulated builds a simulated executor with a fixed success
// probability and a seeded random source.
func NewSimulated(seed int64, successProb float64) *Simulated {
	return &Simulated{
		rng:         rand.New(rand.NewSource(seed)),
		successProb: successProb,
	}
}

func (s *Simulated) Execute(ctx context.Context, agentID string, t *task.Task) (Result, error) {
	base, ok := baseTimes[t.Type]
	if !ok {
		base = time.Second
	}

	s.mu.Lock()
	// ±20% variation around the base time.
	d := time.Duration(float64(base) * (0.8 + 0.4*s.rng.Float64()))
	success := s.rng.Float64() < s.successProb
	cpu := 0.1 + 0.4*s.rng.Float64()
	mem := 10 + 90*s.rng.Float64()
	s.mu.Unlock()

	if d > maxSimulatedWait {
		d = maxSimulatedWait
	}

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case <-time.After(d):
	}

	payload := map[string]any{"status": "completed"}
	if !success {
		payload = map[string]any{"error": "execution failed"}
	}

	return Result{
		Success:        success,
		ProcessingTime: d,
		Payload:        payload,
		Usage: Usage{
			MemoryMB: mem,
			CPU:      cpu,
		},
	}, nil
}
