package schedule

import (
	"strconv"
	"testing"
	"time"
)

func TestParseCron(t *testing.T) {
	s, err := Parse(`{"kind":"cron","cron_expr":"0 9 * * *"}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if s.Kind != "cron" {
		t.Errorf("expected kind 'cron', got '%s'", s.Kind)
	}
	if s.CronExpr != "0 9 * * *" {
		t.Errorf("expected cron expr '0 9 * * *', got '%s'", s.CronExpr)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestParseInterval(t *testing.T) {
	s, err := Parse(`{"kind":"interval","interval_ms":60000}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if s.IntervalMs != 60000 {
		t.Errorf("expected interval_ms 60000, got %d", s.IntervalMs)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsBadSchedules(t *testing.T) {
	cases := []struct {
		name string
		s    Schedule
	}{
		{"bad cron", Schedule{Kind: "cron", CronExpr: "not a cron"}},
		{"zero interval", Schedule{Kind: "interval"}},
		{"negative interval", Schedule{Kind: "interval", IntervalMs: -5}},
		{"once without time", Schedule{Kind: "once"}},
		{"unknown kind", Schedule{Kind: "hourly"}},
	}
	for _, c := range cases {
		if err := c.s.Validate(); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

func TestNextRunCron(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	next := NextRun(`{"kind":"cron","cron_expr":"0 9 * * *"}`, now)
	if next == nil {
		t.Fatal("expected next run, got nil")
	}
	want := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextRunInterval(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	next := NextRun(`{"kind":"interval","interval_ms":60000}`, now)
	if next == nil {
		t.Fatal("expected next run, got nil")
	}
	if !next.Equal(now.Add(time.Minute)) {
		t.Errorf("expected %v, got %v", now.Add(time.Minute), next)
	}
}

func TestNextRunOnce(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)

	next := NextRun(`{"kind":"once","at_ms":`+formatMs(future)+`}`, now)
	if next == nil {
		t.Fatal("expected next run for a future one-off")
	}
	if next.UnixMilli() != future.UnixMilli() {
		t.Errorf("expected %v, got %v", future, next)
	}

	past := now.Add(-time.Hour)
	if next := NextRun(`{"kind":"once","at_ms":`+formatMs(past)+`}`, now); next != nil {
		t.Errorf("a passed one-off has no next run, got %v", next)
	}
}

func TestNextRunBadInput(t *testing.T) {
	now := time.Now()
	if next := NextRun(`not json`, now); next != nil {
		t.Errorf("expected nil for unparseable schedule, got %v", next)
	}
	if next := NextRun(`{"kind":"mystery"}`, now); next != nil {
		t.Errorf("expected nil for unknown kind, got %v", next)
	}
}

func formatMs(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
