package task

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	input := map[string]any{"symbol": "BTC"}

	if _, err := New("market_analysis", nil, input, 5, nil); !errors.Is(err, ErrNoRequirements) {
		t.Errorf("expected ErrNoRequirements, got %v", err)
	}
	if _, err := New("market_analysis", []string{"analysis"}, nil, 5, nil); !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}

	task, err := New("market_analysis", []string{"analysis"}, input, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != StatusPending {
		t.Errorf("expected pending status, got %s", task.Status)
	}
	if !strings.HasPrefix(task.ID, "task-") {
		t.Errorf("expected task- prefix, got %s", task.ID)
	}
	if task.CreatedAt.IsZero() {
		t.Error("expected creation time to be set")
	}
}

func TestNewClampsPriority(t *testing.T) {
	input := map[string]any{"k": "v"}
	reqs := []string{"analysis"}

	cases := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{7, 7},
		{10, 10},
		{42, 10},
	}
	for _, c := range cases {
		task, err := New("t", reqs, input, c.in, nil)
		if err != nil {
			t.Fatalf("priority %d: %v", c.in, err)
		}
		if task.Priority != c.want {
			t.Errorf("priority %d: expected clamp to %d, got %d", c.in, c.want, task.Priority)
		}
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	if (&Task{}).Expired(now) {
		t.Error("task without deadline must never expire")
	}
	if !(&Task{Deadline: &past}).Expired(now) {
		t.Error("past deadline should be expired")
	}
	if (&Task{Deadline: &future}).Expired(now) {
		t.Error("future deadline should not be expired")
	}
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusExpired, StatusError}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusAssigned, StatusRunning} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
