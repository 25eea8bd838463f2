package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/project-kepler/kepler/internal/domain"
	"github.com/project-kepler/kepler/internal/metrics"
)

// Orchestrator drives the bounded tool-calling protocol: one user prompt
// is extended into a short conversation in which the model may invoke
// registered tools up to a fixed budget before producing its final answer.
type Orchestrator struct {
	model        Model
	tools        map[string]Tool
	specs        []ToolSpec
	maxToolCalls int
	logger       *zap.Logger
}

// NewOrchestrator wires a model with its tools. maxToolCalls bounds how
// many tool executions one conversation may consume; values below one
// are raised to one.
func NewOrchestrator(model Model, tools []Tool, maxToolCalls int, logger *zap.Logger) *Orchestrator {
	if maxToolCalls < 1 {
		maxToolCalls = 1
	}

	byName := make(map[string]Tool, len(tools))
	specs := make([]ToolSpec, 0, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
		specs = append(specs, ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	return &Orchestrator{
		model:        model,
		tools:        byName,
		specs:        specs,
		maxToolCalls: maxToolCalls,
		logger:       logger,
	}
}

// RunConversation executes one user request end to end. Tool failures and
// protocol violations (unknown tool, budget exceeded) are fed back to the
// model as structured error payloads so it can recover in its next turn;
// only model-level failures terminate the conversation with an error.
func (o *Orchestrator) RunConversation(ctx context.Context, prompt string) (Answer, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Answer{}, domain.ErrEmptyPrompt
	}

	msgs := []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: prompt},
	}

	var (
		toolCallsUsed int
		artifactPath  string
	)

	// Every useful conversation fits in budget+2 model turns: the worst
	// case is budget tool turns, one recovery turn after a rejection, and
	// the final answer.
	maxTurns := o.maxToolCalls + 2

	for turn := 1; turn <= maxTurns; turn++ {
		reply, err := o.model.Complete(ctx, msgs, o.specs)
		if err != nil {
			metrics.ConversationsTotal.WithLabelValues("failed").Inc()
			return Answer{}, fmt.Errorf("model turn %d: %w", turn, err)
		}

		if len(reply.ToolCalls) > 0 {
			msgs = append(msgs, Message{
				Role:      RoleAssistant,
				Content:   reply.Content,
				ToolCalls: reply.ToolCalls,
			})
			for _, tc := range reply.ToolCalls {
				payload, path := o.executeToolCall(ctx, tc, &toolCallsUsed)
				if path != "" {
					artifactPath = path
				}
				msgs = append(msgs, Message{
					Role:       RoleTool,
					Content:    payload,
					ToolCallID: tc.ID,
					ToolName:   tc.Name,
				})
			}
			continue
		}

		if reply.Content != "" {
			metrics.ConversationsTotal.WithLabelValues("answered").Inc()
			metrics.ConversationTurns.Observe(float64(turn))
			return Answer{Text: reply.Content, ArtifactPath: artifactPath}, nil
		}

		// Neither tool calls nor text: nothing to feed back.
		break
	}

	metrics.ConversationsTotal.WithLabelValues("failed").Inc()
	return Answer{}, domain.ErrNoModelContent
}

// executeToolCall resolves and runs one tool call, always producing a
// model-facing payload. The second return value is the artifact path when
// the tool produced one.
func (o *Orchestrator) executeToolCall(ctx context.Context, tc ToolCall, used *int) (string, string) {
	tool, ok := o.tools[tc.Name]
	if !ok {
		o.logger.Warn("model requested unknown tool", zap.String("tool", tc.Name))
		metrics.ToolCallsTotal.WithLabelValues(tc.Name, "rejected").Inc()
		return errorPayload(fmt.Sprintf("%v: %s", domain.ErrUnknownTool, tc.Name)), ""
	}

	if *used >= o.maxToolCalls {
		o.logger.Warn("tool call rejected over budget",
			zap.String("tool", tc.Name),
			zap.Int("budget", o.maxToolCalls))
		metrics.ToolCallsTotal.WithLabelValues(tc.Name, "rejected").Inc()
		return errorPayload(fmt.Sprintf(
			"%v: answer with the information you already have", domain.ErrToolBudgetExceeded)), ""
	}
	*used++

	out, err := tool.Execute(ctx, json.RawMessage(tc.Arguments))
	if err != nil {
		o.logger.Warn("tool execution failed",
			zap.String("tool", tc.Name),
			zap.Error(err))
		metrics.ToolCallsTotal.WithLabelValues(tc.Name, "error").Inc()
		return errorPayload(err.Error()), ""
	}

	metrics.ToolCallsTotal.WithLabelValues(tc.Name, "ok").Inc()
	if out.Kind == OutcomeArtifact {
		return out.Payload, out.ArtifactPath
	}
	return out.Payload, ""
}

// errorPayload wraps an error message in the structured shape tools use,
// so the model sees a uniform tool-result format either way.
func errorPayload(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
