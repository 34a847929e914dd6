package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbitsim/internal/trajectory"
)

// downsample keeps at most n evenly spaced values.
func downsample(data []float64, n int) []float64 {
	if n <= 0 || len(data) <= n {
		return data
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = data[i*len(data)/n]
	}
	return out
}

// RadiusPlot charts a body's distance from the central body in units of
// unit (e.g. one AU).
func RadiusPlot(store *trajectory.Store, body string, unit float64, width, height int) (string, error) {
	r, err := store.Radius(body)
	if err != nil {
		return "", err
	}
	if len(r) == 0 {
		return "", fmt.Errorf("no samples for %s", body)
	}
	for i := range r {
		r[i] /= unit
	}

	return asciigraph.Plot(downsample(r, width),
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s radius", body)),
	), nil
}

// CoordinatePlot charts a body's x and y coordinates on one graph.
func CoordinatePlot(store *trajectory.Store, body string, unit float64, width, height int) (string, error) {
	positions, ok := store.Positions(body)
	if !ok {
		return "", fmt.Errorf("unknown body %q", body)
	}
	if len(positions) == 0 {
		return "", fmt.Errorf("no samples for %s", body)
	}

	xs := make([]float64, len(positions))
	ys := make([]float64, len(positions))
	for i, p := range positions {
		xs[i] = p.X / unit
		ys[i] = p.Y / unit
	}

	return asciigraph.PlotMany([][]float64{downsample(xs, width), downsample(ys, width)},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s x, y", body)),
	), nil
}
