package executor

import (
	"context"
	"testing"
	"time"

	"github.com/quantumnex/nexord/internal/task"
)

func TestSimulatedExecute(t *testing.T) {
	s := NewSimulated(1, 1.0)
	tk := &task.Task{ID: "t1", Type: "trade_execution"}

	res, err := s.Execute(context.Background(), "a1", tk)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.Success {
		t.Error("probability 1.0 must always succeed")
	}
	// trade_execution runs around 200ms with ±20% variation.
	if res.ProcessingTime < 160*time.Millisecond || res.ProcessingTime > 240*time.Millisecond {
		t.Errorf("processing time out of range: %v", res.ProcessingTime)
	}
	if res.Usage.MemoryMB <= 0 || res.Usage.CPU <= 0 {
		t.Errorf("expected usage sample, got %+v", res.Usage)
	}
}

func TestSimulatedAlwaysFails(t *testing.T) {
	s := NewSimulated(1, 0.0)
	tk := &task.Task{ID: "t1", Type: "trade_execution"}

	res, err := s.Execute(context.Background(), "a1", tk)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Success {
		t.Error("probability 0.0 must always fail")
	}
	if _, ok := res.Payload["error"]; !ok {
		t.Errorf("expected error payload, got %v", res.Payload)
	}
}

func TestSimulatedHonorsContext(t *testing.T) {
	s := NewSimulated(1, 1.0)
	tk := &task.Task{ID: "t1", Type: "strategy_planning"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if _, err := s.Execute(ctx, "a1", tk); err == nil {
		t.Error("expected context error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancelled execution must return promptly")
	}
}

func TestSimulatedUnknownTypeFallsBack(t *testing.T) {
	s := NewSimulated(1, 1.0)
	tk := &task.Task{ID: "t1", Type: "mystery"}

	res, err := s.Execute(context.Background(), "a1", tk)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// Unknown types fall back to a one second base.
	if res.ProcessingTime < 800*time.Millisecond || res.ProcessingTime > 1200*time.Millisecond {
		t.Errorf("processing time out of range: %v", res.ProcessingTime)
	}
}
