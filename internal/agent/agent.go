package agent

import (
	"context"
	"encoding/json"
)

// Message roles in a model conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn in a model conversation.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant turns only
	ToolCallID string     // tool turns only
	ToolName   string     // tool turns only
}

// ToolCall is a model-requested tool invocation with raw JSON arguments.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSpec describes a callable tool to the model: name, purpose and a
// JSON-schema parameter description.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ModelReply is one assistant turn: free text, tool calls, or both.
type ModelReply struct {
	Content   string
	ToolCalls []ToolCall
}

// Model generates the next assistant turn for a conversation.
type Model interface {
	Complete(ctx context.Context, msgs []Message, tools []ToolSpec) (ModelReply, error)
}

// OutcomeKind discriminates what a tool produced.
type OutcomeKind int

const (
	// OutcomeText is an inline payload the model consumes directly.
	OutcomeText OutcomeKind = iota
	// OutcomeArtifact is a generated file; Payload carries the model-facing
	// confirmation and ArtifactPath the public path for the client.
	OutcomeArtifact
)

// Outcome is the typed result of a tool execution.
type Outcome struct {
	Kind         OutcomeKind
	Payload      string
	ArtifactPath string
}

// Tool is a capability the model may invoke during a conversation.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Execute(ctx context.Context, args json.RawMessage) (Outcome, error)
}

// Answer is the final result of a conversation.
type Answer struct {
	Text         string
	ArtifactPath string
}
