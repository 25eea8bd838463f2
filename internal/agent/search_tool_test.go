package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/project-kepler/kepler/internal/domain"
)

type fakeRetriever struct {
	hits    []domain.SearchHit
	err     error
	queries []domain.Query
}

func (f *fakeRetriever) Search(_ context.Context, q domain.Query) ([]domain.SearchHit, error) {
	f.queries = append(f.queries, q)
	return f.hits, f.err
}

func TestSearchToolForwardsFilter(t *testing.T) {
	r := &fakeRetriever{hits: []domain.SearchHit{
		{ID: "a_0", Score: 0.8, Source: map[string]string{"pl_name": "TRAPPIST-1 e"}},
	}}
	tool := NewSearchTool(r)

	out, err := tool.Execute(context.Background(), json.RawMessage(
		`{"text_query":"rocky habitable planets","keyword_filter_field":"hostname","keyword_filter_value":"TRAPPIST-1"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(r.queries) != 1 {
		t.Fatalf("retriever called %d times, want 1", len(r.queries))
	}
	q := r.queries[0]
	if q.Text != "rocky habitable planets" || q.KeywordField != "hostname" || q.KeywordValue != "TRAPPIST-1" {
		t.Errorf("query = %+v", q)
	}

	var payload struct {
		Total   int `json:"total"`
		Results []struct {
			Score  float64           `json:"score"`
			ID     string            `json:"id"`
			Source map[string]string `json:"source"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out.Payload), &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload.Total != 1 || payload.Results[0].ID != "a_0" {
		t.Errorf("payload = %+v", payload)
	}
	if out.Kind != OutcomeText {
		t.Errorf("outcome kind = %v, want text", out.Kind)
	}
}

func TestSearchToolEmptyHitsReportedTruthfully(t *testing.T) {
	tool := NewSearchTool(&fakeRetriever{})

	out, err := tool.Execute(context.Background(),
		json.RawMessage(`{"text_query":"anything","keyword_filter_field":"pl_name","keyword_filter_value":"TRAPPIST-1 e"}`))
	if err != nil {
		t.Fatalf("zero hits is not an error: %v", err)
	}

	var payload struct {
		Total   int               `json:"total"`
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal([]byte(out.Payload), &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload.Total != 0 || len(payload.Results) != 0 {
		t.Errorf("payload = %s, want empty result set", out.Payload)
	}
}

func TestSearchToolMissingQuery(t *testing.T) {
	tool := NewSearchTool(&fakeRetriever{})

	if _, err := tool.Execute(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for missing text_query")
	}
}

func TestSearchToolRetrieverError(t *testing.T) {
	retErr := errors.New("connection refused")
	tool := NewSearchTool(&fakeRetriever{err: retErr})

	_, err := tool.Execute(context.Background(), json.RawMessage(`{"text_query":"x"}`))
	if !errors.Is(err, retErr) {
		t.Errorf("expected retriever error, got %v", err)
	}
}
