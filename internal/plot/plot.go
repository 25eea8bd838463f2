// Package plot renders planet comparison scatter plots as PNG artifacts.
// Rasterization is deliberately minimal: axes, grid ticks and point
// markers, no text labels.
package plot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	imgWidth  = 800
	imgHeight = 500
	margin    = 50
	gridLines = 5
)

// Point is one planet positioned by two numeric properties.
type Point struct {
	Label string
	X     float64
	Y     float64
}

// Renderer writes plot artifacts into a directory served statically.
type Renderer struct {
	dir          string
	publicPrefix string
}

// NewRenderer creates a renderer writing under dir, announcing paths
// under publicPrefix. The directory is created if missing.
func NewRenderer(dir, publicPrefix string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}
	return &Renderer{dir: dir, publicPrefix: publicPrefix}, nil
}

// Render draws a scatter plot and returns the public path of the PNG.
func (r *Renderer) Render(points []Point) (string, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("nothing to plot")
	}

	img := image.NewRGBA(image.Rect(0, 0, imgWidth, imgHeight))
	fill(img, color.White)

	minX, maxX := bounds(points, func(p Point) float64 { return p.X })
	minY, maxY := bounds(points, func(p Point) float64 { return p.Y })

	drawFrame(img)

	for _, p := range points {
		px := margin + int(scale(p.X, minX, maxX)*float64(imgWidth-2*margin))
		py := imgHeight - margin - int(scale(p.Y, minY, maxY)*float64(imgHeight-2*margin))
		drawMarker(img, px, py)
	}

	name := uuid.New().String() + ".png"
	f, err := os.Create(filepath.Join(r.dir, name))
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}

	return r.publicPrefix + "/" + name, nil
}

func fill(img *image.RGBA, c color.Color) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

var (
	axisColor   = color.RGBA{60, 60, 60, 255}
	gridColor   = color.RGBA{220, 220, 220, 255}
	markerColor = color.RGBA{33, 102, 172, 255}
)

func drawFrame(img *image.RGBA) {
	for i := 1; i < gridLines; i++ {
		gx := margin + i*(imgWidth-2*margin)/gridLines
		gy := margin + i*(imgHeight-2*margin)/gridLines
		for y := margin; y <= imgHeight-margin; y++ {
			img.Set(gx, y, gridColor)
		}
		for x := margin; x <= imgWidth-margin; x++ {
			img.Set(x, gy, gridColor)
		}
	}
	for x := margin; x <= imgWidth-margin; x++ {
		img.Set(x, imgHeight-margin, axisColor)
	}
	for y := margin; y <= imgHeight-margin; y++ {
		img.Set(margin, y, axisColor)
	}
}

func drawMarker(img *image.RGBA, cx, cy int) {
	const radius = 5
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				img.Set(cx+dx, cy+dy, markerColor)
			}
		}
	}
}

func bounds(points []Point, get func(Point) float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		v := get(p)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// scale maps v into [0,1] over [lo,hi]; a degenerate range centers the point.
func scale(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}
