package orchestrator

import (
	"math/rand"
	"testing"

	"github.com/quantumnex/nexord/internal/agent"
	"github.com/quantumnex/nexord/internal/task"
	"github.com/quantumnex/nexord/internal/trust"
)

func candidate(id string, caps []string, metrics agent.Metrics, load, maxLoad int) agent.Candidate {
	return agent.Candidate{
		ID:           id,
		Capabilities: caps,
		Metrics:      metrics,
		Load:         load,
		MaxLoad:      maxLoad,
	}
}

func perfectMetrics() agent.Metrics {
	return agent.Metrics{SuccessRate: 1.0, ReliabilityScore: 1.0, EfficiencyScore: 1.0}
}

func TestCollaborativePrefersReliableAgent(t *testing.T) {
	s := NewCollaborative(trust.NewLedger())
	tk := &task.Task{Priority: 5, Requirements: []string{"analysis"}}

	weak := perfectMetrics()
	weak.ReliabilityScore = 0.4
	weak.SuccessRate = 0.5

	got := s.Select(tk, []agent.Candidate{
		candidate("weak", []string{"analysis"}, weak, 0, 5),
		candidate("strong", []string{"analysis"}, perfectMetrics(), 0, 5),
	})
	if got != "strong" {
		t.Errorf("expected strong agent, got %s", got)
	}
}

func TestCollaborativePrefersIdleAgent(t *testing.T) {
	s := NewCollaborative(trust.NewLedger())
	tk := &task.Task{Priority: 5, Requirements: []string{"analysis"}}

	got := s.Select(tk, []agent.Candidate{
		candidate("busy", []string{"analysis"}, perfectMetrics(), 4, 5),
		candidate("idle", []string{"analysis"}, perfectMetrics(), 0, 5),
	})
	if got != "idle" {
		t.Errorf("expected idle agent, got %s", got)
	}
}

func TestCollaborativePrefersBetterCapabilityMatch(t *testing.T) {
	s := NewCollaborative(trust.NewLedger())
	tk := &task.Task{Priority: 5, Requirements: []string{"analysis", "risk_assessment"}}

	got := s.Select(tk, []agent.Candidate{
		candidate("partial", []string{"analysis"}, perfectMetrics(), 0, 5),
		candidate("full", []string{"analysis", "risk_assessment"}, perfectMetrics(), 0, 5),
	})
	if got != "full" {
		t.Errorf("expected full-match agent, got %s", got)
	}
}

func TestCollaborativeUsesTrust(t *testing.T) {
	ledger := trust.NewLedger()
	ledger.Seed("trusted", "peer")
	ledger.Seed("distrusted", "peer")
	for i := 0; i < 5; i++ {
		ledger.Record("trusted", true)
		ledger.Record("distrusted", false)
	}

	s := NewCollaborative(ledger)
	tk := &task.Task{Priority: 5, Requirements: []string{"analysis"}}

	got := s.Select(tk, []agent.Candidate{
		candidate("distrusted", []string{"analysis"}, perfectMetrics(), 0, 5),
		candidate("trusted", []string{"analysis"}, perfectMetrics(), 0, 5),
	})
	if got != "trusted" {
		t.Errorf("expected trusted agent, got %s", got)
	}
}

func TestCollaborativeTieGoesToFirstCandidate(t *testing.T) {
	s := NewCollaborative(trust.NewLedger())
	tk := &task.Task{Priority: 5, Requirements: []string{"analysis"}}

	got := s.Select(tk, []agent.Candidate{
		candidate("first", []string{"analysis"}, perfectMetrics(), 0, 5),
		candidate("second", []string{"analysis"}, perfectMetrics(), 0, 5),
	})
	if got != "first" {
		t.Errorf("tied score should keep candidate order, got %s", got)
	}
}

func TestCollaborativeEmptyCandidates(t *testing.T) {
	s := NewCollaborative(trust.NewLedger())
	if got := s.Select(&task.Task{Requirements: []string{"x"}}, nil); got != "" {
		t.Errorf("expected empty selection, got %s", got)
	}
}

func TestCompetitiveRewardsCapabilityMatch(t *testing.T) {
	s := NewCompetitive(rand.New(rand.NewSource(1)))
	tk := &task.Task{Priority: 5, Requirements: []string{"analysis", "risk_assessment", "execution"}}

	// Jitter spans [0.9, 1.1]; a 3x capability edge always dominates it.
	got := s.Select(tk, []agent.Candidate{
		candidate("narrow", []string{"analysis"}, perfectMetrics(), 0, 5),
		candidate("broad", []string{"analysis", "risk_assessment", "execution"}, perfectMetrics(), 0, 5),
	})
	if got != "broad" {
		t.Errorf("expected broad agent, got %s", got)
	}
}

func TestCompetitiveZeroMatchStillSelects(t *testing.T) {
	s := NewCompetitive(rand.New(rand.NewSource(1)))
	tk := &task.Task{Priority: 5, Requirements: []string{"other"}}

	got := s.Select(tk, []agent.Candidate{
		candidate("only", []string{"analysis"}, perfectMetrics(), 0, 5),
	})
	if got != "only" {
		t.Errorf("a zero bid still beats no bid, got %q", got)
	}
}

func TestCompetitiveIsDeterministicForSeed(t *testing.T) {
	tk := &task.Task{Priority: 5, Requirements: []string{"analysis"}}
	candidates := []agent.Candidate{
		candidate("a", []string{"analysis"}, perfectMetrics(), 0, 5),
		candidate("b", []string{"analysis"}, perfectMetrics(), 0, 5),
	}

	first := NewCompetitive(rand.New(rand.NewSource(42))).Select(tk, candidates)
	second := NewCompetitive(rand.New(rand.NewSource(42))).Select(tk, candidates)
	if first != second {
		t.Errorf("same seed must select the same agent: %s vs %s", first, second)
	}
}

func TestHybridRouting(t *testing.T) {
	ledger := trust.NewLedger()
	rng := rand.New(rand.NewSource(1))
	h := NewHybrid(NewCollaborative(ledger), NewCompetitive(rng), rng)

	candidates := []agent.Candidate{
		candidate("a", []string{"analysis"}, perfectMetrics(), 0, 5),
	}

	cases := []struct {
		name string
		task *task.Task
	}{
		{"high priority", &task.Task{Priority: 9, Requirements: []string{"analysis"}}},
		{"complex", &task.Task{Priority: 5, Requirements: []string{"a", "b", "c", "d"}}},
		{"low priority", &task.Task{Priority: 2, Requirements: []string{"analysis"}}},
		{"mid priority", &task.Task{Priority: 5, Requirements: []string{"analysis"}}},
	}
	for _, c := range cases {
		if got := h.Select(c.task, candidates); got != "a" {
			t.Errorf("%s: expected the only candidate, got %q", c.name, got)
		}
	}
}

func TestCountMatches(t *testing.T) {
	if got := countMatches([]string{"a", "b", "c"}, []string{"b", "c", "d"}); got != 2 {
		t.Errorf("expected 2 matches, got %d", got)
	}
	if got := countMatches(nil, []string{"a"}); got != 0 {
		t.Errorf("expected 0 matches, got %d", got)
	}
}
