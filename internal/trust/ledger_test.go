package trust

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSeedCreatesBidirectionalEdges(t *testing.T) {
	l := NewLedger()
	l.Seed("a", "b")

	if got := l.Score("a", "b"); !almostEqual(got, 0.5) {
		t.Errorf("expected seed 0.5, got %f", got)
	}
	if got := l.Score("b", "a"); !almostEqual(got, 0.5) {
		t.Errorf("expected seed 0.5, got %f", got)
	}
	if l.Len() != 2 {
		t.Errorf("expected 2 directed edges, got %d", l.Len())
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	l := NewLedger()
	l.Seed("a", "b")
	l.Record("a", true)
	before := l.Score("a", "b")

	l.Seed("a", "b")
	if got := l.Score("a", "b"); !almostEqual(got, before) {
		t.Errorf("reseeding must not reset score: expected %f, got %f", before, got)
	}
}

func TestSeedSelfIsNoop(t *testing.T) {
	l := NewLedger()
	l.Seed("a", "a")
	if l.Len() != 0 {
		t.Errorf("self edge should not exist, got %d edges", l.Len())
	}
}

func TestRecordShiftsBothDirections(t *testing.T) {
	l := NewLedger()
	l.Seed("a", "b")

	l.Record("a", true)
	if got := l.Score("a", "b"); !almostEqual(got, 0.55) {
		t.Errorf("expected 0.55 after success, got %f", got)
	}
	if got := l.Score("b", "a"); !almostEqual(got, 0.55) {
		t.Errorf("expected reverse edge 0.55, got %f", got)
	}

	l.Record("a", false)
	if got := l.Score("a", "b"); !almostEqual(got, 0.45) {
		t.Errorf("expected 0.45 after failure, got %f", got)
	}
}

func TestScoreClamps(t *testing.T) {
	l := NewLedger()
	l.Seed("a", "b")

	for i := 0; i < 20; i++ {
		l.Record("a", true)
	}
	if got := l.Score("a", "b"); !almostEqual(got, 1.0) {
		t.Errorf("expected clamp at 1.0, got %f", got)
	}

	for i := 0; i < 20; i++ {
		l.Record("a", false)
	}
	if got := l.Score("a", "b"); !almostEqual(got, 0.1) {
		t.Errorf("expected clamp at 0.1, got %f", got)
	}
}

func TestRecordUnknownAgentIsNoop(t *testing.T) {
	l := NewLedger()
	l.Record("ghost", true)
	if l.Len() != 0 {
		t.Errorf("expected no edges, got %d", l.Len())
	}
}

func TestAverage(t *testing.T) {
	l := NewLedger()
	if got := l.Average("lonely"); !almostEqual(got, 0.5) {
		t.Errorf("agent without peers should average the seed, got %f", got)
	}

	l.Seed("a", "b")
	l.Seed("a", "c")
	l.Record("b", true) // a->b becomes 0.55, a->c stays 0.5

	want := (0.55 + 0.5) / 2
	if got := l.Average("a"); !almostEqual(got, want) {
		t.Errorf("expected average %f, got %f", want, got)
	}
}

func TestForget(t *testing.T) {
	l := NewLedger()
	l.Seed("a", "b")
	l.Seed("a", "c")
	l.Seed("b", "c")

	l.Forget("a")

	if got := l.Score("a", "b"); !almostEqual(got, 0.5) {
		t.Errorf("forgotten edge should fall back to the seed, got %f", got)
	}
	if l.Len() != 2 {
		t.Errorf("expected only the b<->c edges, got %d", l.Len())
	}

	// b's peer list must no longer reference a.
	l.Record("b", false)
	if got := l.Score("b", "a"); !almostEqual(got, 0.5) {
		t.Errorf("record after forget must not recreate the edge, got %f", got)
	}
}
