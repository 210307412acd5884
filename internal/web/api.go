package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/quantumnex/nexord/internal/coordination"
	"github.com/quantumnex/nexord/internal/schedule"
	"github.com/quantumnex/nexord/internal/store"
)

func (s *Server) registerAPI(mux *http.ServeMux) {
	// Agents
	mux.HandleFunc("GET /api/agents", s.listAgents)
	mux.HandleFunc("POST /api/agents", s.createAgent)
	mux.HandleFunc("GET /api/agents/{id}", s.getAgent)
	mux.HandleFunc("DELETE /api/agents/{id}", s.removeAgent)
	mux.HandleFunc("GET /api/agents/{id}/history", s.getAgentHistory)

	// Tasks
	mux.HandleFunc("GET /api/tasks", s.listTasks)
	mux.HandleFunc("POST /api/tasks", s.createTask)

	// Coordination
	mux.HandleFunc("POST /api/coordinate", s.coordinate)
	mux.HandleFunc("GET /api/coordinations", s.listCoordinations)

	// Recurring tasks
	mux.HandleFunc("GET /api/recurring", s.listRecurring)
	mux.HandleFunc("POST /api/recurring", s.createRecurring)
	mux.HandleFunc("POST /api/recurring/{id}/pause", s.pauseRecurring)
	mux.HandleFunc("POST /api/recurring/{id}/resume", s.resumeRecurring)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.deleteRecurring)

	// System
	mux.HandleFunc("GET /api/status", s.getStatus)
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	agents := s.registry.List()
	out := make([]map[string]any, 0, len(agents))
	for _, a := range agents {
		out = append(out, map[string]any{
			"id":             a.ID,
			"type":           a.Type,
			"status":         a.Status,
			"capabilities":   a.Capabilities,
			"metrics":        a.Metrics,
			"usage":          a.Usage,
			"queue_length":   s.registry.QueueLen(a.ID),
			"completed":      a.Completed,
			"failed":         a.Failed,
			"last_heartbeat": a.LastHeartbeat,
		})
	}
	jsonResponse(w, out)
}

func (s *Server) createAgent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type         string   `json:"type"`
		Capabilities []string `json:"capabilities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := s.registry.Create(req.Type, req.Capabilities)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	jsonResponse(w, map[string]string{"id": id})
}

func (s *Server) getAgent(w http.ResponseWriter, r *http.Request) {
	a := s.registry.Get(r.PathValue("id"))
	if a == nil {
		jsonError(w, "agent not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, a)
}

func (s *Server) removeAgent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.registry.Get(id) == nil {
		jsonError(w, "agent not found", http.StatusNotFound)
		return
	}

	pending := s.registry.Remove(id)
	s.orch.Resubmit(pending)
	jsonResponse(w, map[string]any{"removed": id, "resubmitted_tasks": len(pending)})
}

func (s *Server) getAgentHistory(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.store.ListTaskHistory(r.PathValue("id"), limit)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, entries)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, s.orch.QueueSnapshot())
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type         string         `json:"type"`
		Requirements []string       `json:"requirements"`
		Input        map[string]any `json:"input"`
		Priority     int            `json:"priority"`
		DeadlineMs   *int64         `json:"deadline_ms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var deadline *time.Time
	if req.DeadlineMs != nil {
		d := time.UnixMilli(*req.DeadlineMs)
		deadline = &d
	}

	id, err := s.orch.SubmitTask(req.Type, req.Requirements, req.Input, req.Priority, deadline)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	jsonResponse(w, map[string]string{"id": id})
}

func (s *Server) coordinate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID   string   `json:"task_id"`
		AgentIDs []string `json:"agent_ids"`
		Mode     string   `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	mode := coordination.Mode(req.Mode)
	switch mode {
	case coordination.ModeCollaborative, coordination.ModeCompetitive, coordination.ModeHybrid:
	case "":
		mode = coordination.ModeCollaborative
	default:
		jsonError(w, "unknown coordination mode", http.StatusBadRequest)
		return
	}

	if req.TaskID == "" {
		req.TaskID = "coord-" + uuid.New().String()[:8]
	}
	agentIDs := req.AgentIDs
	if len(agentIDs) == 0 {
		agentIDs = s.registry.IDs()
	}

	result := s.coord.Coordinate(r.Context(), req.TaskID, agentIDs, mode)
	jsonResponse(w, result)
}

func (s *Server) listCoordinations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.store.ListCoordinations(limit)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, entries)
}

func (s *Server) listRecurring(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.ListRecurringTasks()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, tasks)
}

func (s *Server) createRecurring(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string          `json:"name"`
		TaskType     string          `json:"task_type"`
		Requirements []string        `json:"requirements"`
		Input        map[string]any  `json:"input"`
		Priority     int             `json:"priority"`
		Schedule     json.RawMessage `json:"schedule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TaskType == "" {
		jsonError(w, "task_type is required", http.StatusBadRequest)
		return
	}

	sched, err := schedule.Parse(string(req.Schedule))
	if err != nil {
		jsonError(w, "invalid schedule: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sched.Validate(); err != nil {
		jsonError(w, "invalid schedule: "+err.Error(), http.StatusBadRequest)
		return
	}

	reqsJSON, err := json.Marshal(req.Requirements)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	inputJSON, err := json.Marshal(req.Input)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	rt := &store.RecurringTask{
		ID:           "recur-" + uuid.New().String()[:8],
		Name:         req.Name,
		TaskType:     req.TaskType,
		Requirements: string(reqsJSON),
		Input:        string(inputJSON),
		Priority:     req.Priority,
		Schedule:     string(req.Schedule),
		Status:       "active",
		NextRunAt:    schedule.NextRun(string(req.Schedule), now),
		CreatedAt:    now,
	}
	if err := s.store.SaveRecurringTask(rt); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.scheduler.Reload()
	jsonResponse(w, rt)
}

func (s *Server) pauseRecurring(w http.ResponseWriter, r *http.Request) {
	s.setRecurringStatus(w, r.PathValue("id"), "paused")
}

func (s *Server) resumeRecurring(w http.ResponseWriter, r *http.Request) {
	s.setRecurringStatus(w, r.PathValue("id"), "active")
}

func (s *Server) setRecurringStatus(w http.ResponseWriter, id, status string) {
	rt, err := s.store.GetRecurringTask(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rt == nil {
		jsonError(w, "recurring task not found", http.StatusNotFound)
		return
	}

	if err := s.store.UpdateRecurringStatus(id, status); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.scheduler.Reload()
	jsonResponse(w, map[string]string{"id": id, "status": status})
}

func (s *Server) deleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRecurringTask(r.PathValue("id")); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.scheduler.Reload()
	jsonResponse(w, map[string]string{"deleted": r.PathValue("id")})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	status := s.orch.Status()
	jsonResponse(w, map[string]any{
		"version":      s.version,
		"system":       status,
		"coordination": s.coord.Summary(),
		"ws_clients":   s.hub.ClientCount(),
	})
}
