package rules

import "fmt"

// CompileDoctrine generates the city rule set from a doctrine's weights.
// Conditions are built with fmt.Sprintf from clamped weights, so the output
// always compiles.
func CompileDoctrine(d Doctrine) []*Rule {
	d.Validate()

	// Research-heavy doctrines start researching earlier before dusk and keep
	// researching closer to the end of the match.
	nightWindow := lerp(1, 5, d.ResearchPriority)
	cutoff := lerp(14, 4, d.ResearchPriority)
	// Expansion shifts how many workers a cluster may hold beyond its tiles.
	slack := lerp(-1, 1, d.ExpansionPriority)

	return []*Rule{
		{
			Name:         "hold-when-capped",
			Priority:     1000,
			Category:     "city",
			Exclusive:    true,
			ConditionSrc: `ResearchedUranium() && UnitCapReached()`,
			Action:       ActionHold,
		},
		{
			Name:         "research-before-night",
			Priority:     900,
			Category:     "city",
			Exclusive:    true,
			ConditionSrc: fmt.Sprintf(`!ResearchedUranium() && TurnsToNight < %d && TurnsLeft() > %d`, nightWindow, cutoff),
			Action:       ActionResearch,
		},
		{
			Name:         "build-worker",
			Priority:     800,
			Category:     "city",
			Exclusive:    true,
			ConditionSrc: fmt.Sprintf(`ResourceInRange() && !UnitCapReached() && !ClusterSaturated(%d)`, slack),
			Action:       ActionBuildWorker,
		},
		{
			Name:         "research",
			Priority:     700,
			Category:     "city",
			Exclusive:    true,
			ConditionSrc: fmt.Sprintf(`!ResearchedUranium() && TurnsLeft() > %d`, cutoff),
			Action:       ActionResearch,
		},
		{
			Name:         "final-workers",
			Priority:     600,
			Category:     "city",
			Exclusive:    true,
			ConditionSrc: `IsLastTurn()`,
			Action:       ActionBuildWorker,
		},
	}
}

// DefaultRules compiles the balanced doctrine.
func DefaultRules() []*Rule {
	return CompileDoctrine(DefaultDoctrine())
}
