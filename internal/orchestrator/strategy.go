package orchestrator

import (
	"math/rand"

	"github.com/quantumnex/nexord/internal/agent"
	"github.com/quantumnex/nexord/internal/task"
	"github.com/quantumnex/nexord/internal/trust"
)

// Weights for the collaborative score terms.
const (
	collabPerformanceWeight = 0.35
	collabLoadWeight        = 0.25
	collabCapabilityWeight  = 0.25
	collabTrustWeight       = 0.15

	// Weighted blend of the raw metrics into one performance number.
	perfSuccessWeight     = 0.4
	perfEfficiencyWeight  = 0.3
	perfReliabilityWeight = 0.3
)

// Strategy picks one agent out of a task's suitable-agent set. The
// candidate slice preserves the capability-index insertion order; on a
// tied score the earlier candidate wins, which keeps selection
// deterministic for a fixed registry state.
//
// Strategies are invoked under the orchestrator's assignment lock and
// need no locking of their own.
type Strategy interface {
	Name() string
	Select(t *task.Task, candidates []agent.Candidate) string
}

// Collaborative scores each candidate for overall system efficiency:
// performance, free capacity, capability match and peer trust.
type Collaborative struct {
	trust *trust.Ledger
}

func NewCollaborative(ledger *trust.Ledger) *Collaborative {
	return &Collaborative{trust: ledger}
}

func (c *Collaborative) Name() string { return "collaborative" }

func (c *Collaborative) Select(t *task.Task, candidates []agent.Candidate) string {
	best := ""
	bestScore := -1.0
	for _, cand := range candidates {
		score := c.score(t, cand)
		if score > bestScore {
			best = cand.ID
			bestScore = score
		}
	}
	return best
}

func (c *Collaborative) score(t *task.Task, cand agent.Candidate) float64 {
	m := cand.Metrics
	performance := m.SuccessRate*perfSuccessWeight +
		m.EfficiencyScore*perfEfficiencyWeight +
		m.ReliabilityScore*perfReliabilityWeight

	loadScore := 1.0
	if cand.MaxLoad > 0 {
		loadScore = 1 - float64(cand.Load)/float64(cand.MaxLoad)
	}

	matched := countMatches(t.Requirements, cand.Capabilities)
	capabilityScore := float64(matched) / float64(len(t.Requirements))

	trustScore := c.trust.Average(cand.ID)

	total := performance*collabPerformanceWeight +
		loadScore*collabLoadWeight +
		capabilityScore*collabCapabilityWeight +
		trustScore*collabTrustWeight
	if total < 0 {
		return 0
	}
	if total > 1 {
		return 1
	}
	return total
}

// Competitive runs an auction: each candidate bids its performance
// scaled by capability match, task priority and a jitter drawn from the
// injected random source for exploration.
type Competitive struct {
	rng *rand.Rand
}

func NewCompetitive(rng *rand.Rand) *Competitive {
	return &Competitive{rng: rng}
}

func (c *Competitive) Name() string { return "competitive" }

func (c *Competitive) Select(t *task.Task, candidates []agent.Candidate) string {
	best := ""
	bestBid := -1.0
	for _, cand := range candidates {
		m := cand.Metrics
		matched := countMatches(t.Requirements, cand.Capabilities)
		jitter := 0.9 + 0.2*c.rng.Float64()
		bid := m.SuccessRate * float64(matched) * m.EfficiencyScore * jitter * (float64(t.Priority) / 10.0)
		if bid > bestBid {
			best = cand.ID
			bestBid = bid
		}
	}
	return best
}

// Hybrid routes between the two: collaborative for high-priority or
// complex tasks, competitive for low-priority ones, and a 70/30 draw
// in between.
type Hybrid struct {
	collaborative *Collaborative
	competitive   *Competitive
	rng           *rand.Rand
}

func NewHybrid(collaborative *Collaborative, competitive *Competitive, rng *rand.Rand) *Hybrid {
	return &Hybrid{
		collaborative: collaborative,
		competitive:   competitive,
		rng:           rng,
	}
}

func (h *Hybrid) Name() string { return "hybrid" }

func (h *Hybrid) Select(t *task.Task, candidates []agent.Candidate) string {
	switch {
	case t.Priority >= 8 || len(t.Requirements) > 3:
		return h.collaborative.Select(t, candidates)
	case t.Priority <= 3:
		return h.competitive.Select(t, candidates)
	default:
		if h.rng.Float64() < 0.7 {
			return h.collaborative.Select(t, candidates)
		}
		return h.competitive.Select(t, candidates)
	}
}

func countMatches(requirements, capabilities []string) int {
	n := 0
	for _, req := range requirements {
		for _, cap := range capabilities {
			if cap == req {
				n++
				break
			}
		}
	}
	return n
}
