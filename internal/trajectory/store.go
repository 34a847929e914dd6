// Package trajectory holds the recorded per-body position history of a
// completed run. A Store is built once and is read-only afterwards.
package trajectory

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Series is the ordered position history of one body.
type Series struct {
	Name      string
	Central   bool
	Positions []dynamo.Vec3
}

// Store keeps one Series per body, aligned by sample index.
type Store struct {
	dt     float64
	series []Series
	index  map[string]int
}

func New(dt float64) *Store {
	return &Store{dt: dt, index: make(map[string]int)}
}

// Add appends a body's history. The positions are copied.
func (s *Store) Add(name string, central bool, positions []dynamo.Vec3) error {
	if _, ok := s.index[name]; ok {
		return fmt.Errorf("trajectory: duplicate body %q", name)
	}
	if len(s.series) > 0 && len(positions) != s.Len() {
		return fmt.Errorf("trajectory: body %q has %d samples, want %d", name, len(positions), s.Len())
	}

	cp := make([]dynamo.Vec3, len(positions))
	copy(cp, positions)

	s.index[name] = len(s.series)
	s.series = append(s.series, Series{Name: name, Central: central, Positions: cp})
	return nil
}

func (s *Store) Dt() float64 { return s.dt }

// Len is the number of samples every body carries.
func (s *Store) Len() int {
	if len(s.series) == 0 {
		return 0
	}
	return len(s.series[0].Positions)
}

// Time is the timestamp of sample i.
func (s *Store) Time(i int) float64 {
	return float64(i) * s.dt
}

// Bodies lists body names in insertion order.
func (s *Store) Bodies() []string {
	names := make([]string, len(s.series))
	for i, ser := range s.series {
		names[i] = ser.Name
	}
	return names
}

// Central returns the name of the central body, if one was recorded.
func (s *Store) Central() (string, bool) {
	for _, ser := range s.series {
		if ser.Central {
			return ser.Name, true
		}
	}
	return "", false
}

func (s *Store) IsCentral(name string) bool {
	i, ok := s.index[name]
	return ok && s.series[i].Central
}

// Positions returns a copy of one body's history.
func (s *Store) Positions(name string) ([]dynamo.Vec3, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	src := s.series[i].Positions
	out := make([]dynamo.Vec3, len(src))
	copy(out, src)
	return out, true
}

func (s *Store) Sample(name string, i int) (dynamo.Vec3, bool) {
	idx, ok := s.index[name]
	if !ok || i < 0 || i >= len(s.series[idx].Positions) {
		return dynamo.Vec3{}, false
	}
	return s.series[idx].Positions[i], true
}

// Radius returns |body - central| for every sample.
func (s *Store) Radius(body string) ([]float64, error) {
	central, ok := s.Central()
	if !ok {
		return nil, fmt.Errorf("trajectory: no central body recorded")
	}
	bi, ok := s.index[body]
	if !ok {
		return nil, fmt.Errorf("trajectory: unknown body %q", body)
	}
	b := s.series[bi].Positions
	c := s.series[s.index[central]].Positions

	out := make([]float64, len(b))
	for i := range b {
		out[i] = dynamo.Distance(b[i], c[i])
	}
	return out, nil
}

// Bounds is the axis-aligned box containing every sample.
func (s *Store) Bounds() (lo, hi dynamo.Vec3) {
	lo = dynamo.Vec3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = dynamo.Vec3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, ser := range s.series {
		for _, p := range ser.Positions {
			lo.X, hi.X = math.Min(lo.X, p.X), math.Max(hi.X, p.X)
			lo.Y, hi.Y = math.Min(lo.Y, p.Y), math.Max(hi.Y, p.Y)
			lo.Z, hi.Z = math.Min(lo.Z, p.Z), math.Max(hi.Z, p.Z)
		}
	}
	return lo, hi
}

// Validate checks that every body has the same number of finite samples.
func (s *Store) Validate() error {
	n := s.Len()
	for _, ser := range s.series {
		if len(ser.Positions) != n {
			return fmt.Errorf("trajectory: body %q has %d samples, want %d", ser.Name, len(ser.Positions), n)
		}
		for i, p := range ser.Positions {
			if !dynamo.IsFinite(p) {
				return fmt.Errorf("trajectory: body %q sample %d: %w", ser.Name, i, dynamo.ErrNumericDegeneracy)
			}
		}
	}
	return nil
}
