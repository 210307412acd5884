// Package trust tracks pairwise reputation between agents. Scores are
// directed: (A,B) is A's trust in B. Every score stays within
// [0.1, 1.0] after any sequence of updates.
package trust

import "sync"

const (
	seedScore = 0.5
	minScore  = 0.1
	maxScore  = 1.0

	successDelta = 0.05
	failureDelta = -0.1
)

type pair struct {
	from, to string
}

type Ledger struct {
	mu     sync.RWMutex
	scores map[pair]float64
	// peers[a] lists every agent a has an edge with, in seed order, so
	// averages iterate deterministically.
	peers map[string][]string
}

func NewLedger() *Ledger {
	return &Ledger{
		scores: make(map[pair]float64),
		peers:  make(map[string][]string),
	}
}

// Seed creates the bidirectional edges between two agents at the
// neutral score. Existing edges are left untouched.
func (l *Ledger) Seed(a, b string) {
	if a == b {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.scores[pair{a, b}]; !ok {
		l.scores[pair{a, b}] = seedScore
		l.peers[a] = append(l.peers[a], b)
	}
	if _, ok := l.scores[pair{b, a}]; !ok {
		l.scores[pair{b, a}] = seedScore
		l.peers[b] = append(l.peers[b], a)
	}
}

// Record shifts every edge touching the agent, in both directions, by
// +0.05 on success or -0.1 on failure, clamped to [0.1, 1.0].
func (l *Ledger) Record(agent string, success bool) {
	delta := successDelta
	if !success {
		delta = failureDelta
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, other := range l.peers[agent] {
		l.scores[pair{agent, other}] = clamp(l.scores[pair{agent, other}] + delta)
		l.scores[pair{other, agent}] = clamp(l.scores[pair{other, agent}] + delta)
	}
}

// Score returns the directed trust from one agent to another, or the
// neutral seed if no edge exists.
func (l *Ledger) Score(from, to string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if s, ok := l.scores[pair{from, to}]; ok {
		return s
	}
	return seedScore
}

// Average returns the agent's mean outbound trust across all peers.
// An agent with no peers gets the neutral seed.
func (l *Ledger) Average(agent string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	peers := l.peers[agent]
	if len(peers) == 0 {
		return seedScore
	}
	sum := 0.0
	for _, other := range peers {
		sum += l.scores[pair{agent, other}]
	}
	return sum / float64(len(peers))
}

// Forget removes every edge touching the agent.
func (l *Ledger) Forget(agent string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, other := range l.peers[agent] {
		delete(l.scores, pair{agent, other})
		delete(l.scores, pair{other, agent})
		peers := l.peers[other]
		for i, p := range peers {
			if p == agent {
				l.peers[other] = append(peers[:i], peers[i+1:]...)
				break
			}
		}
	}
	delete(l.peers, agent)
}

// Len returns the number of directed edges.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.scores)
}

func clamp(s float64) float64 {
	if s < minScore {
		return minScore
	}
	if s > maxScore {
		return maxScore
	}
	return s
}
