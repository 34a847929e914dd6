package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/trajectory"
)

var csvHeader = []string{"step", "time", "body", "x", "y", "z"}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// WriteCSV writes store in long format, one row per body per sample,
// grouped by step.
func WriteCSV(w io.Writer, store *trajectory.Store) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	bodies := store.Bodies()
	for i := 0; i < store.Len(); i++ {
		step := strconv.Itoa(i)
		t := formatFloat(store.Time(i))

		for _, name := range bodies {
			p, _ := store.Sample(name, i)
			row := []string{step, t, name, formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV rebuilds a store from WriteCSV output. Bodies keep the order of
// their first appearance; central names the body to flag as central.
func ReadCSV(r io.Reader, dt float64, central string) (*trajectory.Store, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: missing header")
	}

	order := make([]string, 0)
	samples := make(map[string][]dynamo.Vec3)

	for line, record := range records[1:] {
		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad step: %w", line+2, err)
		}

		name := record[2]
		var xyz [3]float64
		for k := range xyz {
			xyz[k], err = strconv.ParseFloat(record[3+k], 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: %w", line+2, err)
			}
		}

		if _, ok := samples[name]; !ok {
			order = append(order, name)
		}
		if step != len(samples[name]) {
			return nil, fmt.Errorf("csv line %d: body %s step %d out of order", line+2, name, step)
		}
		samples[name] = append(samples[name], dynamo.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}

	store := trajectory.New(dt)
	for _, name := range order {
		if err := store.Add(name, name == central, samples[name]); err != nil {
			return nil, err
		}
	}
	return store, nil
}
