// Package http exposes the webhook surface that feeds inbound messages to
// the engine.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendrilhq/tendril/internal/logging"
)

// Engine is the narrow surface the webhook needs from the core.
type Engine interface {
	ProcessMessage(ctx context.Context, userID, contact, text string) error
}

// inboundMessage is the webhook payload for one received message.
type inboundMessage struct {
	UserID  string `json:"user_id"`
	Contact string `json:"contact"`
	Text    string `json:"text"`
}

// Server wires the engine behind HTTP routes.
type Server struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler builds the HTTP handler: POST /v1/messages for inbound events,
// GET /healthz for liveness and GET /metrics for Prometheus scrapes.
func NewHandler(engine Engine, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/v1/messages", s.handleMessage)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// handleMessage accepts an inbound message and runs it through the engine.
// Processing is synchronous; channel providers that need fast ACKs should
// put a queue in front.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg inboundMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg.UserID == "" || msg.Contact == "" {
		http.Error(w, "user_id and contact are required", http.StatusBadRequest)
		return
	}

	if err := s.engine.ProcessMessage(r.Context(), msg.UserID, msg.Contact, msg.Text); err != nil {
		s.logger.Error("message processing failed",
			"user", msg.UserID, "contact", msg.Contact, "err", err)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
