package rules

import "github.com/expr-lang/expr/vm"

// ActionFunc issues a city tile's order when a rule's condition is true.
type ActionFunc func(env CityEnv) error

// Rule is the atomic unit of city behavior: a condition → action pair.
// The engine evaluates rules by priority and uses Category + Exclusive
// so a tile never receives two conflicting orders in one turn.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first
	Category     string      // grouping for exclusive semantics
	Exclusive    bool        // if true, blocks lower-priority rules in same category
	ConditionSrc string      // expr source (preserved for logging)
	program      *vm.Program // compiled bytecode
	Action       ActionFunc
}
