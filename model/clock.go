package model

// Constants are the match rules the planner reasons about. They are fixed for
// a match and normally come from the config file.
type Constants struct {
	DayLength       int                  `yaml:"day_length"`
	NightLength     int                  `yaml:"night_length"`
	MaxTurns        int                  `yaml:"max_turns"`
	WorkerCooldown  int                  `yaml:"worker_cooldown"`
	WorkerCapacity  int                  `yaml:"worker_capacity"`
	CityBuildCost   int                  `yaml:"city_build_cost"`
	CoalResearch    int                  `yaml:"coal_research"`
	UraniumResearch int                  `yaml:"uranium_research"`
	FuelRate        map[ResourceType]int `yaml:"fuel_rate"`
	CollectionRate  map[ResourceType]int `yaml:"collection_rate"`
}

// DefaultConstants returns the standard match rules.
func DefaultConstants() Constants {
	return Constants{
		DayLength:       30,
		NightLength:     10,
		MaxTurns:        360,
		WorkerCooldown:  2,
		WorkerCapacity:  100,
		CityBuildCost:   100,
		CoalResearch:    50,
		UraniumResearch: 200,
		FuelRate:        map[ResourceType]int{Wood: 1, Coal: 10, Uranium: 40},
		CollectionRate:  map[ResourceType]int{Wood: 20, Coal: 5, Uranium: 2},
	}
}

// Cycle is the length of one day plus one night.
func (c Constants) Cycle() int { return c.DayLength + c.NightLength }

// Clock derives day/night phase from the turn counter.
type Clock struct {
	Turn      int
	Constants Constants
}

// TurnsToNight counts turns until the next night begins. During the night it
// counts to the night after, so it is never negative.
func (c Clock) TurnsToNight() int {
	return mod(c.Constants.DayLength-c.Turn, c.Constants.Cycle())
}

// TurnsToDawn counts turns until the current cycle ends.
func (c Clock) TurnsToDawn() int {
	cycle := c.Constants.Cycle()
	return cycle - mod(c.Turn, cycle)
}

// IsNight reports whether the current turn falls in the dark sub-window.
func (c Clock) IsNight() bool {
	return mod(c.Turn, c.Constants.Cycle()) >= c.Constants.DayLength
}

// IsDusk reports whether this is the first dark turn of the cycle. A city
// founded now starts its first night with no fuel.
func (c Clock) IsDusk() bool {
	return mod(c.Turn, c.Constants.Cycle()) == c.Constants.DayLength
}

// NightTurnsLeft counts the night turns remaining in the match, including the
// current one.
func (c Clock) NightTurnsLeft() int {
	cycle := c.Constants.Cycle()
	remaining := c.Constants.MaxTurns - c.Turn
	if remaining <= 0 {
		return 0
	}
	full := remaining / cycle * c.Constants.NightLength
	part := remaining % cycle
	if part > c.Constants.NightLength {
		part = c.Constants.NightLength
	}
	return full + part
}

// TurnsLeft counts turns remaining in the match.
func (c Clock) TurnsLeft() int {
	if left := c.Constants.MaxTurns - 1 - c.Turn; left > 0 {
		return left
	}
	return 0
}

// IsLastTurn reports whether no turn follows this one.
func (c Clock) IsLastTurn() bool { return c.TurnsLeft() == 0 }

// FuelShortfall is how much more fuel city needs to stay lit for the nights
// that remain in the match.
func (c Clock) FuelShortfall(city *City) float64 {
	need := city.LightUpkeep*float64(c.NightTurnsLeft()) - city.Fuel
	if need < 0 {
		return 0
	}
	return need
}

func mod(a, m int) int {
	if m <= 0 {
		return 0
	}
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
