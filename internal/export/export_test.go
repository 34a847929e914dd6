package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/trajectory"
)

func sampleStore(t *testing.T) *trajectory.Store {
	t.Helper()
	store := trajectory.New(86400)
	if err := store.Add("Earth", false, []dynamo.Vec3{
		{X: 1.5e11, Y: 2.53e9},
		{X: 1.49e11, Y: 5.06e9},
		{X: 1.48e11, Y: 7.59e9, Z: 0.1},
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.Add("Sun", true, []dynamo.Vec3{
		{X: 127.87021451564337, Y: 2.122464200569237},
		{X: 255.7, Y: 6.4},
		{X: 383.6, Y: 12.7},
	}); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestCSVRoundTrip(t *testing.T) {
	store := sampleStore(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, store); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "step,time,body,x,y,z" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if len(lines) != 1+3*2 {
		t.Errorf("expected 7 lines, got %d", len(lines))
	}
	if lines[2] != "0,0,Sun,127.87021451564337,2.122464200569237,0" {
		t.Errorf("unexpected row %q", lines[2])
	}

	loaded, err := ReadCSV(&buf, store.Dt(), "Sun")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if loaded.Len() != store.Len() {
		t.Fatalf("expected %d samples, got %d", store.Len(), loaded.Len())
	}
	if got := loaded.Bodies(); len(got) != 2 || got[0] != "Earth" || got[1] != "Sun" {
		t.Errorf("unexpected bodies %v", got)
	}
	if c, _ := loaded.Central(); c != "Sun" {
		t.Errorf("expected central Sun, got %q", c)
	}
	for _, name := range store.Bodies() {
		for i := 0; i < store.Len(); i++ {
			want, _ := store.Sample(name, i)
			got, _ := loaded.Sample(name, i)
			if got != want {
				t.Errorf("%s[%d] = %v, want %v", name, i, got, want)
			}
		}
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad step", "step,time,body,x,y,z\nx,0,Sun,0,0,0\n"},
		{"bad float", "step,time,body,x,y,z\n0,0,Sun,abc,0,0\n"},
		{"skipped step", "step,time,body,x,y,z\n1,1,Sun,0,0,0\n"},
		{"short row", "step,time,body,x,y,z\n0,0,Sun,0,0\n"},
		{"uneven bodies", "step,time,body,x,y,z\n0,0,Sun,0,0,0\n1,1,Sun,0,0,0\n0,0,Earth,1,0,0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.input), 1, "Sun"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	store := sampleStore(t)

	var buf bytes.Buffer
	sum := Summary{Preset: "earth", Dt: 86400, Duration: 3 * 86400, Metrics: map[string]float64{"energy_drift": 1e-4}}
	if err := WriteJSON(&buf, sum, store); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if data.Steps != 3 || len(data.Times) != 3 {
		t.Errorf("expected 3 steps, got %d (%d times)", data.Steps, len(data.Times))
	}
	if data.Times[2] != 2*86400 {
		t.Errorf("expected times i*dt, got %v", data.Times)
	}
	if len(data.Bodies) != 2 || !data.Bodies[1].Central || data.Bodies[0].Central {
		t.Errorf("unexpected bodies %+v", data.Bodies)
	}
	if data.Bodies[0].Positions[2][2] != 0.1 {
		t.Errorf("z component lost: %v", data.Bodies[0].Positions[2])
	}
	if data.Metrics["energy_drift"] != 1e-4 {
		t.Errorf("metrics lost: %v", data.Metrics)
	}
}

func TestTrajectorySVG(t *testing.T) {
	store := sampleStore(t)

	svg := TrajectorySVG(store, 400, 300)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("not an svg document")
	}
	if n := strings.Count(svg, "<path"); n != 2 {
		t.Errorf("expected one path per body, got %d", n)
	}
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected one marker per body, got %d", n)
	}
	if !strings.Contains(svg, centralColor) {
		t.Error("central body not highlighted")
	}

	if TrajectorySVG(trajectory.New(1), 400, 300) != "" {
		t.Error("empty store should render nothing")
	}
}
