package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/orbitsim/internal/trajectory"
)

// Portrait holds the XY projection of one body's path.
type Portrait struct {
	Body   string
	Points []struct{ X, Y float64 }
}

// NewPortrait projects every recorded sample of body onto the XY plane.
func NewPortrait(store *trajectory.Store, body string) (*Portrait, error) {
	positions, ok := store.Positions(body)
	if !ok {
		return nil, fmt.Errorf("unknown body %q", body)
	}

	portrait := &Portrait{
		Body:   body,
		Points: make([]struct{ X, Y float64 }, 0, len(positions)),
	}
	for _, p := range positions {
		portrait.Points = append(portrait.Points, struct{ X, Y float64 }{X: p.X, Y: p.Y})
	}
	return portrait, nil
}

// PortraitToASCII renders one or more portraits on a shared set of axes.
// The first portrait is drawn with '•', the rest with '∘'.
func PortraitToASCII(portraits []*Portrait, width, height int) string {
	if len(portraits) == 0 || width < 2 || height < 2 {
		return ""
	}

	first := true
	var minX, maxX, minY, maxY float64
	for _, portrait := range portraits {
		for _, p := range portrait.Points {
			if first {
				minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
				first = false
				continue
			}
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if first {
		return ""
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// Axes first so paths draw over them
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			canvas[row][col] = '─'
		}
	}

	for i, portrait := range portraits {
		mark := '∘'
		if i == 0 {
			mark = '•'
		}
		for _, p := range portrait.Points {
			col := int((p.X - minX) / rangeX * float64(width-1))
			row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

			if row >= 0 && row < height && col >= 0 && col < width {
				canvas[row][col] = mark
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// SweptAngle is the unwrapped angle, in radians, that body sweeps around
// the central body between the first and last samples.
func SweptAngle(store *trajectory.Store, body string) (float64, error) {
	central, ok := store.Central()
	if !ok {
		return 0, errors.New("store has no central body")
	}
	positions, ok := store.Positions(body)
	if !ok {
		return 0, fmt.Errorf("unknown body %q", body)
	}
	host, _ := store.Positions(central)

	total := 0.0
	prev := 0.0
	for i := range positions {
		a := math.Atan2(positions[i].Y-host[i].Y, positions[i].X-host[i].X)
		if i > 0 {
			d := a - prev
			for d > math.Pi {
				d -= 2 * math.Pi
			}
			for d < -math.Pi {
				d += 2 * math.Pi
			}
			total += d
		}
		prev = a
	}
	return total, nil
}

// OrbitalPeriod extrapolates the period from the mean angular rate over the
// recorded samples.
func OrbitalPeriod(store *trajectory.Store, body string) (float64, error) {
	if store.Len() < 2 {
		return 0, ErrShortSeries
	}
	swept, err := SweptAngle(store, body)
	if err != nil {
		return 0, err
	}
	if swept == 0 {
		return 0, errors.New("body does not revolve")
	}

	elapsed := store.Time(store.Len()-1) - store.Time(0)
	return 2 * math.Pi * elapsed / math.Abs(swept), nil
}
