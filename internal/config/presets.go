package config

import "sort"

var Presets = map[string]*Config{
	"earth": DefaultConfig(),
	"inner": {
		Name: "inner", G: DefaultG, AU: DefaultAU, DaySeconds: DefaultDaySeconds,
		DtDays: 1, DurationDays: 687,
		Central: CentralConfig{Name: "Sun", Mass: SunMass},
		Bodies: []BodyConfig{
			{Name: "Mercury", Mass: 3.301e23, DistanceAU: 0.466697, AphelionVelocity: 38860},
			{Name: "Venus", Mass: 4.8675e24, DistanceAU: 0.728213, AphelionVelocity: 34790},
			{Name: "Earth", Mass: EarthMass, DistanceAU: EarthAphelionAU, AphelionVelocity: EarthAphelionVel},
			{Name: "Mars", Mass: 6.4171e23, DistanceAU: 1.666, AphelionVelocity: 21970},
		},
	},
	"jupiter": {
		Name: "jupiter", G: DefaultG, AU: DefaultAU, DaySeconds: DefaultDaySeconds,
		DtDays: 1, DurationDays: 4380,
		Central: CentralConfig{Name: "Sun", Mass: SunMass},
		Bodies: []BodyConfig{
			{Name: "Earth", Mass: EarthMass, DistanceAU: EarthAphelionAU, AphelionVelocity: EarthAphelionVel},
			{Name: "Jupiter", Mass: 1.898e27, DistanceAU: 5.4588, AphelionVelocity: 12440},
		},
	},
	"decade": {
		Name: "decade", G: DefaultG, AU: DefaultAU, DaySeconds: DefaultDaySeconds,
		DtDays: 1, DurationDays: 3650,
		Central: CentralConfig{Name: "Sun", Mass: SunMass},
		Bodies: []BodyConfig{
			{Name: "Earth", Mass: EarthMass, DistanceAU: EarthAphelionAU, AphelionVelocity: EarthAphelionVel},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
