// Package schedule parses recurring-task schedules and computes their
// next run time. A schedule is a small JSON document with a kind of
// "cron", "interval" or "once".
package schedule

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
)

type Schedule struct {
	Kind       string `json:"kind"`        // "cron", "interval", "once"
	CronExpr   string `json:"cron_expr"`   // Cron expression (if kind=cron)
	IntervalMs int64  `json:"interval_ms"` // Interval in ms (if kind=interval)
	AtMs       int64  `json:"at_ms"`       // Unix ms timestamp (if kind=once)
}

func Parse(raw string) (*Schedule, error) {
	var s Schedule
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the schedule is well-formed, including the cron
// expression when present.
func (s *Schedule) Validate() error {
	switch s.Kind {
	case "cron":
		if !gronx.New().IsValid(s.CronExpr) {
			return fmt.Errorf("invalid cron expression %q", s.CronExpr)
		}
	case "interval":
		if s.IntervalMs <= 0 {
			return fmt.Errorf("interval must be positive")
		}
	case "once":
		if s.AtMs <= 0 {
			return fmt.Errorf("once schedule needs a timestamp")
		}
	default:
		return fmt.Errorf("unknown schedule kind %q", s.Kind)
	}
	return nil
}

// NextRun returns the next run time after now, or nil if the schedule
// has no future runs (a passed one-off, or an unparseable schedule).
func NextRun(scheduleJSON string, now time.Time) *time.Time {
	s, err := Parse(scheduleJSON)
	if err != nil {
		return nil
	}

	var next time.Time
	switch s.Kind {
	case "cron":
		nextTime, err := gronx.NextTickAfter(s.CronExpr, now, false)
		if err != nil {
			return nil
		}
		next = nextTime
	case "interval":
		next = now.Add(time.Duration(s.IntervalMs) * time.Millisecond)
	case "once":
		t := time.UnixMilli(s.AtMs)
		if !t.After(now) {
			return nil
		}
		next = t
	default:
		return nil
	}

	return &next
}
