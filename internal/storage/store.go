package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/orbitsim/internal/export"
	"github.com/san-kum/orbitsim/internal/trajectory"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Integrator string             `json:"integrator"`
	Central    string             `json:"central"`
	Bodies     []string           `json:"bodies"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes meta and the trajectories of a completed run into a new run
// directory and returns its id. ID, Timestamp, Steps, Central and Bodies
// are filled in from the store.
func (s *Store) Save(meta RunMetadata, store *trajectory.Store) (string, error) {
	now := time.Now()
	if meta.Preset == "" {
		meta.Preset = "custom"
	}
	meta.ID = fmt.Sprintf("%s_%d", meta.Preset, now.UnixNano())
	meta.Timestamp = now
	meta.Steps = store.Len()
	meta.Central, _ = store.Central()
	meta.Bodies = store.Bodies()
	if meta.Metrics == nil {
		meta.Metrics = map[string]float64{}
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := export.WriteCSV(csvFile, store); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrajectory rebuilds the trajectory store saved with runID.
func (s *Store) LoadTrajectory(runID string) (*trajectory.Store, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	store, err := export.ReadCSV(file, meta.Dt, meta.Central)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return store, nil
}
