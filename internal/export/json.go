package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/orbitsim/internal/trajectory"
)

// Summary describes the run a trajectory came from.
type Summary struct {
	Preset   string
	Dt       float64
	Duration float64
	Metrics  map[string]float64
}

type BodyTrack struct {
	Name      string       `json:"name"`
	Central   bool         `json:"central"`
	Positions [][3]float64 `json:"positions"`
}

type ExportData struct {
	Preset   string             `json:"preset"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Times    []float64          `json:"times"`
	Bodies   []BodyTrack        `json:"bodies"`
	Metrics  map[string]float64 `json:"metrics"`
}

func NewExportData(sum Summary, store *trajectory.Store) ExportData {
	data := ExportData{
		Preset:   sum.Preset,
		Dt:       sum.Dt,
		Duration: sum.Duration,
		Steps:    store.Len(),
		Times:    make([]float64, store.Len()),
		Bodies:   make([]BodyTrack, 0, len(store.Bodies())),
		Metrics:  sum.Metrics,
	}
	if data.Metrics == nil {
		data.Metrics = map[string]float64{}
	}

	for i := range data.Times {
		data.Times[i] = store.Time(i)
	}

	for _, name := range store.Bodies() {
		positions, _ := store.Positions(name)
		track := BodyTrack{
			Name:      name,
			Central:   store.IsCentral(name),
			Positions: make([][3]float64, len(positions)),
		}
		for i, p := range positions {
			track.Positions[i] = [3]float64{p.X, p.Y, p.Z}
		}
		data.Bodies = append(data.Bodies, track)
	}

	return data
}

func WriteJSON(w io.Writer, sum Summary, store *trajectory.Store) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(sum, store))
}
