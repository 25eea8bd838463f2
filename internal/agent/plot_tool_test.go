package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/project-kepler/kepler/internal/domain"
	"github.com/project-kepler/kepler/internal/plot"
)

type fakePlanetFetcher struct {
	hits  []domain.SearchHit
	names []string
}

func (f *fakePlanetFetcher) FetchPlanets(_ context.Context, names []string) ([]domain.SearchHit, error) {
	f.names = names
	return f.hits, nil
}

type fakeRenderer struct {
	points []plot.Point
	path   string
}

func (f *fakeRenderer) Render(points []plot.Point) (string, error) {
	f.points = points
	return f.path, nil
}

func TestPlotToolRendersArtifact(t *testing.T) {
	fetcher := &fakePlanetFetcher{hits: []domain.SearchHit{
		{ID: "a_0", Source: map[string]string{"pl_name": "TRAPPIST-1 e", "pl_rade": "0.92", "pl_masse": "0.69"}},
		{ID: "b_0", Source: map[string]string{"pl_name": "Kepler-22 b", "pl_rade": "2.4", "pl_masse": "36"}},
	}}
	renderer := &fakeRenderer{path: "/static/out.png"}
	tool := NewPlotTool(fetcher, renderer)

	out, err := tool.Execute(context.Background(), json.RawMessage(
		`{"planet_names":["TRAPPIST-1 e","Kepler-22 b"],"x_property":"pl_rade","y_property":"pl_masse"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Kind != OutcomeArtifact || out.ArtifactPath != "/static/out.png" {
		t.Errorf("outcome = %+v, want artifact /static/out.png", out)
	}
	if len(renderer.points) != 2 {
		t.Fatalf("rendered %d points, want 2", len(renderer.points))
	}
	if renderer.points[0].X != 0.92 || renderer.points[0].Y != 0.69 {
		t.Errorf("first point = %+v", renderer.points[0])
	}

	var payload struct {
		PlotPath string   `json:"plot_path"`
		Plotted  []string `json:"plotted"`
	}
	if err := json.Unmarshal([]byte(out.Payload), &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload.PlotPath != "/static/out.png" || len(payload.Plotted) != 2 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestPlotToolSkipsPlanetsMissingProperties(t *testing.T) {
	fetcher := &fakePlanetFetcher{hits: []domain.SearchHit{
		{ID: "a_0", Source: map[string]string{"pl_name": "With both", "pl_rade": "1.1", "pl_masse": "2.2"}},
		{ID: "b_0", Source: map[string]string{"pl_name": "Missing mass", "pl_rade": "1.5"}},
	}}
	renderer := &fakeRenderer{path: "/static/out.png"}
	tool := NewPlotTool(fetcher, renderer)

	out, err := tool.Execute(context.Background(), json.RawMessage(
		`{"planet_names":["With both","Missing mass"],"x_property":"pl_rade","y_property":"pl_masse"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(renderer.points) != 1 {
		t.Errorf("rendered %d points, want 1", len(renderer.points))
	}

	var payload struct {
		Skipped []string `json:"skipped"`
	}
	if err := json.Unmarshal([]byte(out.Payload), &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if len(payload.Skipped) != 1 || payload.Skipped[0] != "Missing mass" {
		t.Errorf("skipped = %v, want [Missing mass]", payload.Skipped)
	}
}

func TestPlotToolNoPlottablePlanets(t *testing.T) {
	fetcher := &fakePlanetFetcher{hits: []domain.SearchHit{
		{ID: "a_0", Source: map[string]string{"pl_name": "No numbers"}},
	}}
	tool := NewPlotTool(fetcher, &fakeRenderer{})

	_, err := tool.Execute(context.Background(), json.RawMessage(
		`{"planet_names":["No numbers"],"x_property":"pl_rade","y_property":"pl_masse"}`))
	if err == nil {
		t.Error("expected error when no planet carries both properties")
	}
}
