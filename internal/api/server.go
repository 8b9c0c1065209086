// Package api is the thin HTTP surface of the maintenance engine: status and
// task inspection, campaign queries, and the chat entrypoints over REST and
// WebSocket.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sales440/ivy-ai-platform/internal/campaign"
	"github.com/sales440/ivy-ai-platform/internal/chat"
	"github.com/sales440/ivy-ai-platform/internal/model"
	"github.com/sales440/ivy-ai-platform/internal/orchestrator"
)

// TaskReader is the orchestrator surface the API exposes.
type TaskReader interface {
	Status() orchestrator.StatusReport
	List() []model.Task
	Get(id string) (model.Task, bool)
}

// HealthChecker is satisfied by *health.Monitor.
type HealthChecker interface {
	Check(ctx context.Context) model.HealthSnapshot
}

// CampaignReader is satisfied by *campaign.WorkflowScheduler.
type CampaignReader interface {
	Status(ctx context.Context, companyID string) (campaign.WorkflowStatus, error)
	MonitorAndRepair(ctx context.Context) (campaign.RepairSummary, error)
}

type Server struct {
	router    chi.Router
	logger    zerolog.Logger
	pool      *pgxpool.Pool
	tasks     TaskReader
	monitor   HealthChecker
	campaigns CampaignReader
	chat      *chat.Router
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, tasks TaskReader, monitor HealthChecker, campaigns CampaignReader, chatRouter *chat.Router) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger,
		pool:      pool,
		tasks:     tasks,
		monitor:   monitor,
		campaigns: campaigns,
		chat:      chatRouter,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(metricsMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
		r.Get("/tasks", s.handleListTasks)
		r.Get("/tasks/{id}", s.handleGetTask)
		r.Get("/campaigns/{companyID}", s.handleCampaignStatus)
		r.Post("/campaigns/repair", s.handleCampaignRepair)
		r.Post("/chat", s.handleChat)
		r.Get("/chat/ws", s.handleChatWS)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"database": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"database": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tasks.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Check(r.Context()))
}

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tasks.List())
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.tasks.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCampaignStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.campaigns.Status(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		s.logger.Error().Err(err).Msg("campaign status failed")
		writeError(w, http.StatusInternalServerError, "campaign status unavailable")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCampaignRepair(w http.ResponseWriter, r *http.Request) {
	summary, err := s.campaigns.MonitorAndRepair(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("campaign repair failed")
		writeError(w, http.StatusInternalServerError, "campaign repair failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	writeJSON(w, http.StatusOK, s.chat.Route(r.Context(), req.Message))
}

// handleChatWS upgrades to WebSocket and answers one routed reply per
// received text message until the client disconnects.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Origin differs from Host when proxied through the admin UI.
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	ctx := r.Context()
	for {
		kind, data, err := ws.Read(ctx)
		if err != nil {
			return
		}
		if kind != websocket.MessageText {
			continue
		}

		reply := s.chat.Route(ctx, string(data))
		payload, err := json.Marshal(reply)
		if err != nil {
			s.logger.Error().Err(err).Msg("marshal chat reply")
			continue
		}
		if err := ws.Write(ctx, websocket.MessageText, payload); err != nil {
			return
		}
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
