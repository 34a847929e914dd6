package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/sim"
)

// EnergyDrift tracks the largest relative departure of the total
// mechanical energy from its initial value.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(sys sim.System, _ float64) {
	energy := sys.TotalEnergy()

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Current() float64 { return e.currentEnergy }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
