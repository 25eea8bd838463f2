package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/project-kepler/kepler/internal/agent"
	"github.com/project-kepler/kepler/internal/domain"
	"github.com/project-kepler/kepler/internal/logger"
)

type mockChat struct {
	answer  agent.Answer
	err     error
	prompts []string
}

func (m *mockChat) RunConversation(_ context.Context, prompt string) (agent.Answer, error) {
	m.prompts = append(m.prompts, prompt)
	if strings.TrimSpace(prompt) == "" {
		return agent.Answer{}, domain.ErrEmptyPrompt
	}
	return m.answer, m.err
}

func newTestRouter(chat ChatRunner, artifactsDir string) http.Handler {
	s := NewServer(chat, artifactsDir, "/static")
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestChatSuccess(t *testing.T) {
	chat := &mockChat{answer: agent.Answer{Text: "TRAPPIST-1 hosts seven planets."}}
	h := newTestRouter(chat, t.TempDir())

	w := postChat(t, h, `{"prompt":"how many planets around TRAPPIST-1?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Text == "" || resp.Error != "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestChatWithArtifact(t *testing.T) {
	chat := &mockChat{answer: agent.Answer{Text: "Here you go.", ArtifactPath: "/static/a.png"}}
	h := newTestRouter(chat, t.TempDir())

	w := postChat(t, h, `{"prompt":"plot them"}`)

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ArtifactPath != "/static/a.png" {
		t.Errorf("artifact_path = %q", resp.ArtifactPath)
	}
}

func TestChatEmptyPrompt(t *testing.T) {
	h := newTestRouter(&mockChat{}, t.TempDir())

	w := postChat(t, h, `{"prompt":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected error message in response")
	}
}

func TestChatMalformedBody(t *testing.T) {
	h := newTestRouter(&mockChat{}, t.TempDir())

	w := postChat(t, h, `{prompt`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestChatInternalErrorShortMessage(t *testing.T) {
	chat := &mockChat{err: errors.New("dial tcp 10.0.0.1:6379: connect: connection refused")}
	h := newTestRouter(chat, t.TempDir())

	w := postChat(t, h, `{"prompt":"hi"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "internal error" {
		t.Errorf("error = %q, internals must not leak", resp.Error)
	}
}

func TestChatSentinelErrorExposed(t *testing.T) {
	chat := &mockChat{err: domain.ErrNoModelContent}
	h := newTestRouter(chat, t.TempDir())

	w := postChat(t, h, `{"prompt":"hi"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != domain.ErrNoModelContent.Error() {
		t.Errorf("error = %q, want sentinel message", resp.Error)
	}
}

func TestHealthAlwaysOK(t *testing.T) {
	h := newTestRouter(&mockChat{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want ok", resp["status"])
	}
}

func TestStaticServing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := newTestRouter(&mockChat{}, dir)

	req := httptest.NewRequest(http.MethodGet, "/static/a.png", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "png-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestChatFailureLogsThroughRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	chat := &mockChat{err: errors.New("model exploded")}

	s := NewServer(chat, t.TempDir(), "/static")
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := logger.ContextWithLogger(req.Context(), zap.New(core))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	s.Routes(r)

	w := postChat(t, r, `{"prompt":"q"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if logs.FilterMessage("conversation failed").Len() != 1 {
		t.Errorf("conversation failure not logged through the request logger, entries: %d", logs.Len())
	}
}
