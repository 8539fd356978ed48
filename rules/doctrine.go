package rules

import "math"

// Doctrine is a high-level city posture. Weights are 0.0 to 1.0; the compiler
// maps them to concrete rule thresholds.
type Doctrine struct {
	Name              string  `json:"name" yaml:"name"`
	ResearchPriority  float64 `json:"research_priority" yaml:"research_priority"`
	ExpansionPriority float64 `json:"expansion_priority" yaml:"expansion_priority"`
}

// DefaultDoctrine returns a balanced baseline doctrine.
func DefaultDoctrine() Doctrine {
	return Doctrine{
		Name:              "Balanced",
		ResearchPriority:  0.5,
		ExpansionPriority: 0.5,
	}
}

// Validate clamps all weights to their valid ranges.
func (d *Doctrine) Validate() {
	d.ResearchPriority = clamp(d.ResearchPriority, 0, 1)
	d.ExpansionPriority = clamp(d.ExpansionPriority, 0, 1)
}

// lerp linearly interpolates between min and max by t (0 to 1), returning an int.
func lerp(min, max int, t float64) int {
	return min + int(math.Round(float64(max-min)*t))
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
