package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/project-kepler/kepler/internal/agent"
	"github.com/project-kepler/kepler/internal/domain"
	"github.com/project-kepler/kepler/internal/logger"
)

// ChatRunner is the orchestrator slice the HTTP layer needs.
type ChatRunner interface {
	RunConversation(ctx context.Context, prompt string) (agent.Answer, error)
}

// Server exposes the agent over HTTP: chat, health, metrics and the
// static artifacts directory.
type Server struct {
	chat         ChatRunner
	artifactsDir string
	staticPrefix string
}

// NewServer creates the HTTP API server. Handlers log through the
// request-scoped logger placed in the context by the middleware chain.
func NewServer(chat ChatRunner, artifactsDir, staticPrefix string) *Server {
	return &Server{
		chat:         chat,
		artifactsDir: artifactsDir,
		staticPrefix: staticPrefix,
	}
}

// Routes registers all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/chat", s.handleChat)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)

	prefix := strings.TrimSuffix(s.staticPrefix, "/")
	r.Handle(prefix+"/*", http.StripPrefix(prefix+"/",
		http.FileServer(http.Dir(s.artifactsDir))))
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Text         string `json:"text,omitempty"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	Error        string `json:"error,omitempty"`
}

// handleChat handles POST /chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Error: "invalid request body"})
		return
	}

	ans, err := s.chat.RunConversation(r.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyPrompt) {
			writeJSON(w, http.StatusBadRequest, chatResponse{Error: domain.ErrEmptyPrompt.Error()})
			return
		}
		logger.FromContext(r.Context()).Error("conversation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, chatResponse{Error: safeErrorMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Text:         ans.Text,
		ArtifactPath: ans.ArtifactPath,
	})
}

// handleHealth handles GET /health. Always ok while the process is up;
// no dependency checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMetrics handles GET /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// safeErrorMessage returns a short sentinel message for the client
// without exposing internals.
func safeErrorMessage(err error) string {
	sentinels := []error{
		domain.ErrNoModelContent,
		domain.ErrSearchUnavailable,
		domain.ErrEmbeddingProvider,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}
