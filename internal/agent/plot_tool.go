package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/project-kepler/kepler/internal/domain"
	"github.com/project-kepler/kepler/internal/plot"
)

// PlanetFetcher looks up planet records by exact name.
type PlanetFetcher interface {
	FetchPlanets(ctx context.Context, names []string) ([]domain.SearchHit, error)
}

// PlotRenderer turns points into a stored artifact and returns its public path.
type PlotRenderer interface {
	Render(points []plot.Point) (string, error)
}

// PlotTool renders a comparison scatter plot of named planets over two
// numeric properties.
type PlotTool struct {
	planets  PlanetFetcher
	renderer PlotRenderer
}

// NewPlotTool wires planet lookup and rendering into a model-callable tool.
func NewPlotTool(planets PlanetFetcher, renderer PlotRenderer) *PlotTool {
	return &PlotTool{planets: planets, renderer: renderer}
}

func (t *PlotTool) Name() string { return "plot" }

func (t *PlotTool) Description() string {
	return "Render a scatter plot comparing named planets on two numeric properties " +
		"(pl_rade, pl_masse, pl_orbper, sy_dist, disc_year). Returns a link to the image."
}

func (t *PlotTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"planet_names": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Exact planet names to compare, e.g. [\"TRAPPIST-1 e\", \"Kepler-22 b\"]"
			},
			"x_property": {
				"type": "string",
				"description": "Numeric field for the x axis"
			},
			"y_property": {
				"type": "string",
				"description": "Numeric field for the y axis"
			}
		},
		"required": ["planet_names", "x_property", "y_property"]
	}`)
}

type plotArgs struct {
	PlanetNames []string `json:"planet_names"`
	XProperty   string   `json:"x_property"`
	YProperty   string   `json:"y_property"`
}

// Execute fetches the named planets and renders those that carry both
// properties. Planets missing a value are reported back, not silently
// dropped.
func (t *PlotTool) Execute(ctx context.Context, args json.RawMessage) (Outcome, error) {
	var a plotArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return Outcome{}, fmt.Errorf("malformed plot arguments: %w", err)
	}
	if len(a.PlanetNames) == 0 || a.XProperty == "" || a.YProperty == "" {
		return Outcome{}, fmt.Errorf("plot requires planet_names, x_property and y_property")
	}

	hits, err := t.planets.FetchPlanets(ctx, a.PlanetNames)
	if err != nil {
		return Outcome{}, err
	}
	if len(hits) == 0 {
		return Outcome{}, fmt.Errorf("no planets found matching %v", a.PlanetNames)
	}

	var (
		points  []plot.Point
		plotted []string
		skipped []string
	)
	for _, h := range hits {
		name := h.Source["pl_name"]
		x, okX := numericField(h.Source, a.XProperty)
		y, okY := numericField(h.Source, a.YProperty)
		if !okX || !okY {
			skipped = append(skipped, name)
			continue
		}
		points = append(points, plot.Point{Label: name, X: x, Y: y})
		plotted = append(plotted, name)
	}

	if len(points) == 0 {
		return Outcome{}, fmt.Errorf("none of the planets carry both %s and %s",
			a.XProperty, a.YProperty)
	}

	path, err := t.renderer.Render(points)
	if err != nil {
		return Outcome{}, fmt.Errorf("render plot: %w", err)
	}

	payload := struct {
		PlotPath string   `json:"plot_path"`
		Plotted  []string `json:"plotted"`
		Skipped  []string `json:"skipped,omitempty"`
	}{PlotPath: path, Plotted: plotted, Skipped: skipped}

	b, err := json.Marshal(payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("serialize plot result: %w", err)
	}

	return Outcome{Kind: OutcomeArtifact, Payload: string(b), ArtifactPath: path}, nil
}

func numericField(source map[string]string, field string) (float64, bool) {
	raw, ok := source[field]
	if !ok || raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
