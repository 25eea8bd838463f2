package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/project-kepler/kepler/internal/agent"
)

func newChatServer(t *testing.T, handler func(body map[string]any) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(handler(body)))
	}))
}

func newTestChatClient(serverURL string) *ChatClient {
	return NewChatClient(&ChatConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "test-model",
		Logger:  zap.NewNop(),
	})
}

func TestChatClient_CompleteText(t *testing.T) {
	server := newChatServer(t, func(body map[string]any) string {
		if tools, ok := body["tools"].([]any); !ok || len(tools) != 1 {
			t.Errorf("tools not advertised: %v", body["tools"])
		}
		return `{"choices":[{"message":{"role":"assistant","content":"final answer"}}]}`
	})
	defer server.Close()

	reply, err := newTestChatClient(server.URL).Complete(context.Background(),
		[]agent.Message{
			{Role: agent.RoleSystem, Content: "system"},
			{Role: agent.RoleUser, Content: "question"},
		},
		[]agent.ToolSpec{{
			Name:        "search",
			Description: "search the archive",
			Parameters:  json.RawMessage(`{"type":"object"}`),
		}})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply.Content != "final answer" || len(reply.ToolCalls) != 0 {
		t.Errorf("reply = %+v", reply)
	}
}

func TestChatClient_CompleteToolCall(t *testing.T) {
	server := newChatServer(t, func(map[string]any) string {
		return `{"choices":[{"message":{"role":"assistant","tool_calls":[
			{"id":"call_1","type":"function","function":{"name":"search","arguments":"{\"text_query\":\"x\"}"}}
		]}}]}`
	})
	defer server.Close()

	reply, err := newTestChatClient(server.URL).Complete(context.Background(),
		[]agent.Message{{Role: agent.RoleUser, Content: "question"}}, nil)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if len(reply.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(reply.ToolCalls))
	}
	tc := reply.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "search" || tc.Arguments != `{"text_query":"x"}` {
		t.Errorf("tool call = %+v", tc)
	}
}

func TestChatClient_CompleteForwardsToolResults(t *testing.T) {
	server := newChatServer(t, func(body map[string]any) string {
		msgs := body["messages"].([]any)
		last := msgs[len(msgs)-1].(map[string]any)
		if last["role"] != "tool" || last["tool_call_id"] != "call_1" {
			t.Errorf("last message = %v, want tool result for call_1", last)
		}
		return `{"choices":[{"message":{"role":"assistant","content":"done"}}]}`
	})
	defer server.Close()

	_, err := newTestChatClient(server.URL).Complete(context.Background(),
		[]agent.Message{
			{Role: agent.RoleUser, Content: "question"},
			{Role: agent.RoleAssistant, ToolCalls: []agent.ToolCall{
				{ID: "call_1", Name: "search", Arguments: "{}"},
			}},
			{Role: agent.RoleTool, Content: `{"total":0,"results":[]}`, ToolCallID: "call_1", ToolName: "search"},
		}, nil)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
}

func TestChatClient_CompleteNoChoices(t *testing.T) {
	server := newChatServer(t, func(map[string]any) string {
		return `{"choices":[]}`
	})
	defer server.Close()

	_, err := newTestChatClient(server.URL).Complete(context.Background(),
		[]agent.Message{{Role: agent.RoleUser, Content: "q"}}, nil)
	if err == nil {
		t.Error("expected error for empty choices")
	}
}
