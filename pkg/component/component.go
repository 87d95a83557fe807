// Package component defines the contract satisfied by pluggable galaxy-model
// components. A component always exposes a name and a parameter dictionary;
// everything else is an optional capability expressed as a separate
// interface, detected by type assertion. The composite-model builder in
// pkg/model branches on these capabilities instead of probing attributes.
package component

import (
	"math/rand"

	"halomock/pkg/table"
)

// Params maps parameter names to values. Parameter names must be globally
// unique across every component wired into one composite model.
type Params map[string]float64

// Clone returns an independent copy of the parameter dictionary.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// AttrShape describes the per-galaxy shape of a model-produced attribute.
// nil or empty means scalar; otherwise the entries are the trailing
// dimensions of the attribute array.
type AttrShape []int

// Equal reports whether two shapes describe the same dimensions.
func (s AttrShape) Equal(other AttrShape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// HalopropFunc derives a new halo property column from an existing halo table.
type HalopropFunc func(halos *table.Table) ([]float64, error)

// NamedHalopropFunc pairs a derived column name with its function. Providers
// return ordered slices rather than maps so merge order is deterministic.
type NamedHalopropFunc struct {
	Name string
	Func HalopropFunc
}

// BehaviorFunc is an analytic component behavior evaluated over halo
// property arrays. prim is always supplied; sec is nil unless the composite
// model carries a secondary halo property.
type BehaviorFunc func(prim, sec []float64, params Params) ([]float64, error)

// MonteCarloFunc draws one realization of a galaxy property over every row
// of the supplied galaxy table. Implementations must read parameter values
// from params on every call and draw randomness only from rng.
type MonteCarloFunc func(galaxies *table.Table, params Params, rng *rand.Rand) ([]float64, error)

// Model is the minimal contract every component satisfies.
type Model interface {
	Name() string
	ParamDict() Params
}

// OccupationModel is the capability required of the "occupation_model"
// feature of every galaxy type.
type OccupationModel interface {
	Model
	OccupationBound() float64
}

// SecondaryDependent marks a component whose behavior depends on a secondary
// halo property (assembly bias). All such components wired into one
// composite model must agree on the key.
type SecondaryDependent interface {
	SecHalopropKey() string
}

// HalopropDeriver contributes derived halo-table columns computed before
// population.
type HalopropDeriver interface {
	NewHalopropFuncs() []NamedHalopropFunc
}

// AttrShaper declares example shapes for the galaxy attributes a component
// produces, used for preallocation and cross-component consistency checks.
type AttrShaper interface {
	ExampleAttrs() map[string]AttrShape
}

// GalTypeClassifier assigns a galaxy-type label to every row of a table.
type GalTypeClassifier interface {
	GalTypeFunc(galaxies *table.Table) ([]string, error)
}

// BehaviorProvider exposes named analytic behaviors addressable through the
// composite model's dispatch method.
type BehaviorProvider interface {
	BehaviorFuncs() map[string]BehaviorFunc
}

// MonteCarloProvider exposes Monte Carlo realizations keyed by the galaxy
// property name they produce.
type MonteCarloProvider interface {
	MonteCarloFuncs() map[string]MonteCarloFunc
}

// Publisher lists the publications a component implementation is based on.
type Publisher interface {
	Publications() []string
}
