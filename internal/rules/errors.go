package rules

import "errors"

// Domain errors for the rules package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, rules.ErrInvalidConfig) {
//	    // keep the previous rule set
//	}
var (
	// ErrInvalidConfig is returned when the rules document cannot be
	// parsed. The engine keeps its previous rule set.
	ErrInvalidConfig = errors.New("rules: invalid config")

	// ErrMissingID is returned when a rule entry has no id.
	ErrMissingID = errors.New("rules: missing rule id")

	// ErrDuplicateID is returned when two rule entries share an id.
	ErrDuplicateID = errors.New("rules: duplicate rule id")

	// ErrRuleNotFound names an unknown rule id. The engine's own queries
	// and mutators report an unknown id with a false result instead.
	ErrRuleNotFound = errors.New("rules: rule not found")
)
