package domain

import "errors"

var (
	// ErrEmptyPrompt signals a chat request without a prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")
	// ErrVectorDimMismatch signals a vector dimension mismatch between the
	// embedding model and the index schema.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrSearchUnavailable signals that the search index could not be reached.
	ErrSearchUnavailable = errors.New("search index unavailable")
	// ErrNoModelContent signals that the model produced no usable content.
	ErrNoModelContent = errors.New("model returned no usable content")
	// ErrUnknownTool signals a tool call naming an unregistered tool.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrToolBudgetExceeded signals a tool call past the per-conversation budget.
	ErrToolBudgetExceeded = errors.New("tool call budget exceeded")
)
