// Package health watches agent liveness: agents that miss the
// heartbeat window go to Error, and Terminated agents are physically
// removed with their queued work resubmitted.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/quantumnex/nexord/internal/agent"
	"github.com/quantumnex/nexord/internal/config"
	"github.com/quantumnex/nexord/internal/natsbus"
	"github.com/quantumnex/nexord/internal/task"
)

// Resubmitter takes the tasks reclaimed from a removed agent back.
type Resubmitter interface {
	Resubmit(tasks []*task.Task)
}

// Pruner is ticked periodically to trim rolling histories.
type Pruner interface {
	Prune(now time.Time)
}

// Monitor runs the liveness loop. The clock is injectable so tests can
// simulate heartbeat windows without real waits.
type Monitor struct {
	registry   *agent.Registry
	resubmit   Resubmitter
	pruner     Pruner          // optional
	events     *natsbus.Client // optional
	interval   time.Duration
	timeout    time.Duration
	selfBeat   bool
	now        func() time.Time
	ticks      int
	pruneEvery int
}

func NewMonitor(reg *agent.Registry, resubmit Resubmitter, cfg config.HealthConfig) *Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	timeout := cfg.HeartbeatTimeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &Monitor{
		registry:   reg,
		resubmit:   resubmit,
		interval:   interval,
		timeout:    timeout,
		selfBeat:   cfg.SelfHeartbeat,
		now:        time.Now,
		pruneEvery: 6,
	}
}

// SetPruner attaches a history pruner invoked on a slower cadence than
// the liveness checks.
func (m *Monitor) SetPruner(p Pruner) {
	m.pruner = p
}

// SetEvents attaches the event bus client.
func (m *Monitor) SetEvents(c *natsbus.Client) {
	m.events = c
}

// SetClock overrides the time source. Test helper.
func (m *Monitor) SetClock(now func() time.Time) {
	m.now = now
}

// Start runs the monitor loop until the context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("health monitor started", "interval", m.interval, "heartbeat_timeout", m.timeout)

	for {
		select {
		case <-ctx.Done():
			slog.Info("health monitor stopped")
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick performs one monitoring pass: unresponsive Active agents go to
// Error, healthy Active agents get a heartbeat refresh when
// self-heartbeat is on, and Terminated agents are removed with their
// queued work resubmitted.
func (m *Monitor) Tick() {
	now := m.now()
	var terminated []string

	for _, a := range m.registry.List() {
		switch a.Status {
		case agent.StatusActive:
			since := now.Sub(a.LastHeartbeat)
			if since > m.timeout {
				slog.Warn("agent unresponsive", "id", a.ID, "since_heartbeat", since)
				m.registry.SetStatus(a.ID, agent.StatusError)
				m.publishAgentEvent(a.ID, "agent_unresponsive")
				continue
			}
			// In production the refresh comes from the NATS heartbeat
			// topic; self-heartbeat keeps demo deployments alive.
			if m.selfBeat {
				m.registry.Heartbeat(a.ID)
			}
		case agent.StatusTerminated:
			terminated = append(terminated, a.ID)
		}
	}

	for _, id := range terminated {
		pending := m.registry.Remove(id)
		m.publishAgentEvent(id, "agent_removed")
		if len(pending) > 0 && m.resubmit != nil {
			m.resubmit.Resubmit(pending)
		}
	}

	m.ticks++
	if m.pruner != nil && m.ticks%m.pruneEvery == 0 {
		m.pruner.Prune(now)
	}
}

// SubscribeHeartbeats wires externally reported liveness: every message
// on agent.*.heartbeat refreshes that agent's timestamp.
func (m *Monitor) SubscribeHeartbeats(client *natsbus.Client) error {
	_, err := client.Subscribe(natsbus.TopicHeartbeatAll, func(msg *nats.Msg) {
		if id := natsbus.AgentIDFromHeartbeat(msg.Subject); id != "" {
			m.registry.Heartbeat(id)
		}
	})
	return err
}

func (m *Monitor) publishAgentEvent(agentID, eventType string) {
	if m.events == nil {
		return
	}
	event := map[string]any{
		"type":      eventType,
		"timestamp": m.now().UTC().Format(time.RFC3339),
		"data":      map[string]any{"id": agentID},
	}
	if err := m.events.PublishJSON(natsbus.TopicEventsAgent(agentID), event); err != nil {
		slog.Debug("failed to publish agent event", "id", agentID, "error", err)
	}
}
