package coordination

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// SimulatedProvider produces random contributions after a short
// plausible delay. It stands in for real agent computation in the
// daemon demo and in tests; all randomness comes from the injected
// source so runs are reproducible.
type SimulatedProvider struct {
	mu       sync.Mutex
	rng      *rand.Rand
	maxDelay time.Duration
}

func NewSimulatedProvider(seed int64, maxDelay time.Duration) *SimulatedProvider {
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return &SimulatedProvider{
		rng:      rand.New(rand.NewSource(seed)),
		maxDelay: maxDelay,
	}
}

func (p *SimulatedProvider) GetContribution(ctx context.Context, agentID, taskID string) (Contribution, error) {
	p.mu.Lock()
	d := time.Duration(p.rng.Float64() * float64(p.maxDelay))
	value := p.rng.Float64()
	confidence := 0.5 + 0.5*p.rng.Float64()
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return Contribution{}, ctx.Err()
	case <-time.After(d):
	}

	return Contribution{
		AgentID:    agentID,
		Value:      value,
		Confidence: confidence,
	}, nil
}
