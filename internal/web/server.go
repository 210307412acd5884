// Package web exposes the administrative surface: task submission,
// agent management, coordination and system status over HTTP, plus a
// WebSocket feed of orchestration events.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/quantumnex/nexord/internal/agent"
	"github.com/quantumnex/nexord/internal/config"
	"github.com/quantumnex/nexord/internal/coordination"
	"github.com/quantumnex/nexord/internal/natsbus"
	"github.com/quantumnex/nexord/internal/orchestrator"
	"github.com/quantumnex/nexord/internal/scheduler"
	"github.com/quantumnex/nexord/internal/store"
)

type Server struct {
	store     *store.Store
	nats      *natsbus.Client
	orch      *orchestrator.Orchestrator
	registry  *agent.Registry
	coord     *coordination.Coordinator
	scheduler *scheduler.Scheduler
	hub       *Hub
	cfg       config.WebConfig
	version   string
}

func NewServer(st *store.Store, nc *natsbus.Client, orch *orchestrator.Orchestrator, reg *agent.Registry, coord *coordination.Coordinator, sched *scheduler.Scheduler, cfg config.WebConfig, version string) *Server {
	return &Server{
		store:     st,
		nats:      nc,
		orch:      orch,
		registry:  reg,
		coord:     coord,
		scheduler: sched,
		hub:       NewHub(),
		cfg:       cfg,
		version:   version,
	}
}

func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	s.subscribeEvents()

	mux := http.NewServeMux()
	s.registerAPI(mux)
	mux.HandleFunc("/api/ws", s.handleWebSocket)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

// subscribeEvents forwards every orchestration event on the bus to
// connected WebSocket clients.
func (s *Server) subscribeEvents() {
	if s.nats == nil {
		return
	}
	_, err := s.nats.Subscribe(natsbus.TopicEventsAll, func(msg *nats.Msg) {
		var payload map[string]any
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return
		}
		eventType, _ := payload["type"].(string)
		s.hub.Broadcast(Event{Type: eventType, Payload: payload})
	})
	if err != nil {
		slog.Error("failed to subscribe to events", "error", err)
	}
}

func jsonResponse(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
