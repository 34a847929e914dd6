package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/orbitsim/internal/trajectory"
)

var palette = []string{"#4fc3f7", "#ffb74d", "#81c784", "#e57373", "#ba68c8", "#fff176"}

const centralColor = "#ffd54f"

// TrajectorySVG draws the XY projection of every body in store, one path
// per body with a marker at its last sample. Both axes share one scale so
// orbits keep their shape.
func TrajectorySVG(store *trajectory.Store, width, height int) string {
	if store == nil || store.Len() == 0 || width <= 0 || height <= 0 {
		return ""
	}

	lo, hi := store.Bounds()
	rangeX := hi.X - lo.X
	rangeY := hi.Y - lo.Y
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	// Add padding
	pad := 0.1 * math.Max(rangeX, rangeY)
	scale := math.Min(float64(width)/(rangeX+2*pad), float64(height)/(rangeY+2*pad))
	cx := (lo.X + hi.X) / 2
	cy := (lo.Y + hi.Y) / 2

	project := func(x, y float64) (float64, float64) {
		return float64(width)/2 + (x-cx)*scale, float64(height)/2 - (y-cy)*scale
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, name := range store.Bodies() {
		positions, _ := store.Positions(name)

		color := palette[i%len(palette)]
		radius := 3.0
		if store.IsCentral(name) {
			color = centralColor
			radius = 6
		}

		sb.WriteString(fmt.Sprintf(`<path id="%s" fill="none" stroke="%s" stroke-width="1.5" d="M`, name, color))
		for j, p := range positions {
			x, y := project(p.X, p.Y)
			if j == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")

		last := positions[len(positions)-1]
		x, y := project(last.X, last.Y)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"><title>%s</title></circle>
`, x, y, radius, color, name))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
