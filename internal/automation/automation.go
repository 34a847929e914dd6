package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/experiment"
	"github.com/san-kum/orbitsim/internal/logger"
	"github.com/san-kum/orbitsim/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run: a preset or config file, with optional
// overrides. Zero values keep the base configuration.
type ScenarioStep struct {
	Preset       string  `yaml:"preset"`
	Config       string  `yaml:"config"`
	DtDays       float64 `yaml:"dt_days"`
	DurationDays float64 `yaml:"duration_days"`
	Parallel     bool    `yaml:"parallel"`
	SaveAs       string  `yaml:"save_as"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Resolve builds the configuration a step describes.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()

	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Config != "" {
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if s.DtDays != 0 {
		cfg.DtDays = s.DtDays
	}
	if s.DurationDays != 0 {
		cfg.DurationDays = s.DurationDays
	}
	if s.Parallel {
		cfg.Parallel = true
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}

	return cfg, cfg.Validate()
}

// StepResult pairs a scenario step with its finished run.
type StepResult struct {
	Step   ScenarioStep
	Config *config.Config
	Result *sim.Result
}

// RunScenario executes all steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))
	log := logger.L()

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		log.Info("scenario.step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "config", cfg.Name)

		exp := experiment.New(cfg.Name, cfg)
		if err := exp.Setup(registry); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Step: step, Config: cfg, Result: result})
	}

	return results, nil
}

// MonteCarloConfig perturbs every body's aphelion velocity by a uniform
// relative amount in [-Perturbation, +Perturbation].
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
	// Bounds on final radius / initial radius for a trial to count as
	// stable.
	MinRatio, MaxRatio float64
}

type MonteCarloResult struct {
	TrialID    int
	Velocities map[string]float64
	Ratios     map[string]float64
	Stable     bool
}

// RunMonteCarlo executes NumTrials perturbed runs one after another.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial")
	}
	minRatio, maxRatio := cfg.MinRatio, cfg.MaxRatio
	if minRatio == 0 {
		minRatio = 0.5
	}
	if maxRatio == 0 {
		maxRatio = 2
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for trial := 0; trial < cfg.NumTrials; trial++ {
		trialCfg := cfg.Base.Clone()
		velocities := make(map[string]float64, len(trialCfg.Bodies))
		for i := range trialCfg.Bodies {
			b := &trialCfg.Bodies[i]
			b.AphelionVelocity *= 1 + (rng.Float64()-0.5)*2*cfg.Perturbation
			velocities[b.Name] = b.AphelionVelocity
		}

		exp := experiment.New(fmt.Sprintf("trial-%d", trial), trialCfg)
		if err := exp.Setup(registry); err != nil {
			return nil, err
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		// stable when every body stays within the radius bounds
		stable := true
		ratios := make(map[string]float64, len(trialCfg.Bodies))
		for _, b := range trialCfg.Bodies {
			r, err := result.Trajectories.Radius(b.Name)
			if err != nil {
				return nil, err
			}
			ratio := r[len(r)-1] / math.Abs(b.DistanceAU*trialCfg.AU)
			ratios[b.Name] = ratio
			if math.IsNaN(ratio) || ratio < minRatio || ratio > maxRatio {
				stable = false
			}
		}

		results = append(results, MonteCarloResult{
			TrialID:    trial,
			Velocities: velocities,
			Ratios:     ratios,
			Stable:     stable,
		})

		if (trial+1)%10 == 0 {
			logger.L().Info("montecarlo.progress", "done", trial+1, "of", cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
