// Package gateway exposes the control API of a running daemon: mode
// introspection and toggles over HTTP, plus the live event stream over
// WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/reflex/internal/behavior"
	"github.com/dohr-michael/reflex/internal/events"
	"github.com/dohr-michael/reflex/internal/gateway/ws"
	"github.com/dohr-michael/reflex/internal/sim"
)

// Controller is the slice of the behavior controller the gateway drives.
type Controller interface {
	Snapshot() []behavior.ModeStatus
	DescribeAll() string
	SetEnabled(name string, enabled bool) error
	Pause(name string) error
	ActiveMode() string
	Ticks() uint64
}

// TaskStarter hands the agent to a named external task.
type TaskStarter interface {
	BeginTask(name string, d time.Duration) error
	CurrentTask() (string, bool)
}

// History reads the outcome journal.
type History interface {
	Recent(ctx context.Context, limit int) ([]behavior.OutcomeRecord, error)
	ByMode(ctx context.Context, mode string, limit int) ([]behavior.OutcomeRecord, error)
}

// ServerConfig holds the collaborators a Server needs.
type ServerConfig struct {
	Bus        *events.Bus
	Controller Controller
	Tasks      TaskStarter // optional
	Journal    History     // optional
	Host       string
	Port       int
}

// Server is the Reflex gateway HTTP server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	ctrl       Controller
	tasks      TaskStarter
	journal    History
	started    time.Time
}

// NewServer creates a new gateway server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Bus == nil {
		return nil, fmt.Errorf("gateway: bus is required")
	}
	if cfg.Controller == nil {
		return nil, fmt.Errorf("gateway: controller is required")
	}

	hub := ws.NewHub(cfg.Bus)

	s := &Server{
		hub:     hub,
		bus:     cfg.Bus,
		ctrl:    cfg.Controller,
		tasks:   cfg.Tasks,
		journal: cfg.Journal,
		started: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ws", hub.ServeWS)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/modes", s.handleModes)
	r.Get("/api/modes/text", s.handleModesText)
	r.Post("/api/modes/{name}/enable", s.handleModeOp(func(name string) error {
		return s.ctrl.SetEnabled(name, true)
	}))
	r.Post("/api/modes/{name}/disable", s.handleModeOp(func(name string) error {
		return s.ctrl.SetEnabled(name, false)
	}))
	r.Post("/api/modes/{name}/pause", s.handleModeOp(func(name string) error {
		return s.ctrl.Pause(name)
	}))
	r.Get("/api/history", s.handleHistory)
	r.Post("/api/task", s.handleTask)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: r,
	}

	return s, nil
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":         "ok",
		"uptime":         time.Since(s.started).Truncate(time.Second).String(),
		"ticks":          s.ctrl.Ticks(),
		"active_mode":    s.ctrl.ActiveMode(),
		"events_dropped": s.bus.Dropped(),
	}
	if s.tasks != nil {
		if name, ok := s.tasks.CurrentTask(); ok {
			body["task"] = name
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleModesText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, s.ctrl.DescribeAll())
}

// handleModeOp adapts a mode operation to HTTP. Unknown mode names are the
// caller's mistake and map to 404.
func (s *Server) handleModeOp(op func(name string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := op(name); err != nil {
			if errors.Is(err, behavior.ErrUnknownMode) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": name})
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "journal not available", http.StatusServiceUnavailable)
		return
	}

	limit := queryLimit(r, 20)
	mode := r.URL.Query().Get("mode")

	var (
		recs []behavior.OutcomeRecord
		err  error
	)
	if mode != "" {
		recs, err = s.journal.ByMode(r.Context(), mode, limit)
	} else {
		recs, err = s.journal.Recent(r.Context(), limit)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type outcomeJSON struct {
		ActionID   string `json:"action_id"`
		Mode       string `json:"mode"`
		Trigger    string `json:"trigger"`
		Status     string `json:"status"`
		Message    string `json:"message,omitempty"`
		StartedAt  string `json:"started_at"`
		FinishedAt string `json:"finished_at"`
		Duration   string `json:"duration"`
	}
	result := make([]outcomeJSON, len(recs))
	for i, rec := range recs {
		result[i] = outcomeJSON{
			ActionID:   rec.ActionID,
			Mode:       rec.Mode,
			Trigger:    rec.Trigger,
			Status:     string(rec.Status),
			Message:    rec.Message,
			StartedAt:  rec.StartedAt.Format(time.RFC3339Nano),
			FinishedAt: rec.FinishedAt.Format(time.RFC3339Nano),
			Duration:   rec.Duration.String(),
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50)
	history := s.bus.History(limit)

	type eventJSON struct {
		ID        string             `json:"id"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}
	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	if s.tasks == nil {
		http.Error(w, "no task target available", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Name     string `json:"name"`
		Duration string `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	d, err := time.ParseDuration(body.Duration)
	if err != nil {
		http.Error(w, "invalid duration: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.tasks.BeginTask(body.Name, d); err != nil {
		if errors.Is(err, sim.ErrTaskRunning) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started", "task": body.Name})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func queryLimit(r *http.Request, def int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	if limit < 1 {
		limit = def
	}
	return limit
}
