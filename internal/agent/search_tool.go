package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/project-kepler/kepler/internal/domain"
)

// Searcher is the retrieval contract the search tool needs.
type Searcher interface {
	Search(ctx context.Context, q domain.Query) ([]domain.SearchHit, error)
}

// SearchTool exposes hybrid retrieval to the model.
type SearchTool struct {
	retriever Searcher
}

// NewSearchTool wraps a retriever as a model-callable tool.
func NewSearchTool(retriever Searcher) *SearchTool {
	return &SearchTool{retriever: retriever}
}

func (t *SearchTool) Name() string { return "search" }

func (t *SearchTool) Description() string {
	return "Search the exoplanet archive by semantic similarity over discovery-paper abstracts. " +
		"Optionally restrict results to documents where a field exactly equals a value " +
		"(case-insensitive), e.g. keyword_filter_field=hostname, keyword_filter_value=TRAPPIST-1."
}

func (t *SearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"text_query": {
				"type": "string",
				"description": "Natural-language description of what to find"
			},
			"keyword_filter_field": {
				"type": "string",
				"description": "Optional field for an exact-match restriction (pl_name, hostname, arxiv_id)"
			},
			"keyword_filter_value": {
				"type": "string",
				"description": "Optional exact value the field must equal"
			}
		},
		"required": ["text_query"]
	}`)
}

type searchArgs struct {
	TextQuery          string `json:"text_query"`
	KeywordFilterField string `json:"keyword_filter_field"`
	KeywordFilterValue string `json:"keyword_filter_value"`
}

type searchHitPayload struct {
	Score  float64           `json:"score"`
	ID     string            `json:"id"`
	Source map[string]string `json:"source"`
}

// Execute runs one hybrid search and serializes the hits for the model.
// Zero hits are reported truthfully, never padded.
func (t *SearchTool) Execute(ctx context.Context, args json.RawMessage) (Outcome, error) {
	var a searchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Outcome{}, fmt.Errorf("malformed search arguments: %w", err)
	}
	if a.TextQuery == "" {
		return Outcome{}, fmt.Errorf("search requires text_query")
	}

	hits, err := t.retriever.Search(ctx, domain.Query{
		Text:         a.TextQuery,
		KeywordField: a.KeywordFilterField,
		KeywordValue: a.KeywordFilterValue,
	})
	if err != nil {
		return Outcome{}, err
	}

	payload := struct {
		Total   int                `json:"total"`
		Results []searchHitPayload `json:"results"`
	}{
		Total:   len(hits),
		Results: make([]searchHitPayload, 0, len(hits)),
	}
	for _, h := range hits {
		payload.Results = append(payload.Results, searchHitPayload{
			Score:  h.Score,
			ID:     h.ID,
			Source: h.Source,
		})
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("serialize search results: %w", err)
	}

	return Outcome{Kind: OutcomeText, Payload: string(b)}, nil
}
