package model

import (
	"fmt"
	"strings"
)

// MissingFeatureError reports a galaxy type missing a required feature.
type MissingFeatureError struct {
	GalType string
	Feature string
}

func (e MissingFeatureError) Error() string {
	return fmt.Sprintf("galaxy type %q is missing required feature %q", e.GalType, e.Feature)
}

// ConsistencyError reports conflicting secondary-haloprop-key declarations.
// GalType is empty when the conflict spans galaxy types.
type ConsistencyError struct {
	GalType string
	Keys    []string
}

func (e ConsistencyError) Error() string {
	if e.GalType != "" {
		return fmt.Sprintf("ambiguous secondary halo property within galaxy type %q: %s",
			e.GalType, strings.Join(e.Keys, ", "))
	}
	return fmt.Sprintf("ambiguous secondary halo property across galaxy types: %s",
		strings.Join(e.Keys, ", "))
}

// DuplicateParameterError reports two components declaring the same
// parameter name.
type DuplicateParameterError struct {
	GalType string
	Feature string
	Key     string
}

func (e DuplicateParameterError) Error() string {
	return fmt.Sprintf("feature %q of galaxy type %q redeclares parameter %q",
		e.Feature, e.GalType, e.Key)
}

// ShapeConsistencyError reports two components declaring the same galaxy
// attribute with incompatible example shapes.
type ShapeConsistencyError struct {
	GalType string
	Feature string
	Key     string
}

func (e ShapeConsistencyError) Error() string {
	return fmt.Sprintf("feature %q of galaxy type %q declares attribute %q with a shape incompatible with an earlier declaration",
		e.Feature, e.GalType, e.Key)
}

// ArgumentConflictError reports a ComponentBehavior call supplying both or
// neither of the explicit haloprop arrays and a mock source.
type ArgumentConflictError struct {
	Both bool
}

func (e ArgumentConflictError) Error() string {
	if e.Both {
		return "pass either haloprop arrays or a mock source, not both"
	}
	return "neither haloprop arrays nor a mock source was passed"
}

// MissingBehaviorError reports a declared galaxy property or dispatched
// feature with no corresponding component function.
type MissingBehaviorError struct {
	GalType string
	Feature string
	Galprop string
}

func (e MissingBehaviorError) Error() string {
	if e.Galprop != "" {
		return fmt.Sprintf("feature %q of galaxy type %q declares galaxy property %q but supplies no Monte Carlo function for it",
			e.Feature, e.GalType, e.Galprop)
	}
	return fmt.Sprintf("galaxy type %q has no behavior registered under feature key %q", e.GalType, e.Feature)
}

// Warning is a non-fatal condition surfaced by Build alongside a valid
// composite model.
type Warning struct {
	Key     string
	Message string
}

func (w Warning) String() string { return w.Message }
