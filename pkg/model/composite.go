// Package model assembles composite galaxy models from declarative
// blueprints of component models, and exposes the assembled model to the
// mock population pipeline. The builder merges every component's parameter
// dictionary, derived-haloprop functions, attribute shapes and publications
// into one coherent model, enforcing the cross-component consistency
// invariants documented on Build.
package model

import (
	"halomock/pkg/component"
	"halomock/pkg/table"
)

// HaloProfileModel governs the assumed spatial profile of the underlying
// halos. It is the single source of the primary halo property key and seeds
// the derived-haloprop dictionary (profile parameters such as concentration
// are computed as new halo columns before population).
type HaloProfileModel interface {
	PrimHalopropKey() string
	NewHalopropFuncs() []component.NamedHalopropFunc
}

// SelectionFunc masks the populated galaxy table; rows with a false entry
// are removed after every property has been populated.
type SelectionFunc func(galaxies *table.Table) ([]bool, error)

// HalopropSource supplies halo property columns and per-galaxy-type row
// indices to behavior dispatch. A populated mock satisfies it.
type HalopropSource interface {
	HalopropColumn(key string) ([]float64, error)
	GalTypeIndices(galType string) []int
}

// BehaviorArgs carries the inputs of a ComponentBehavior call. Exactly one
// of PrimHaloprop (optionally with SecHaloprop) or Source must be set.
type BehaviorArgs struct {
	PrimHaloprop []float64
	SecHaloprop  []float64
	Source       HalopropSource
}

// Composite is an assembled galaxy model. Everything except the parameter
// dictionary is immutable after Build; the parameter dictionary is live and
// may be mutated between population runs to explore parameter space.
type Composite struct {
	profile   HaloProfileModel
	blueprint Blueprint

	galTypes        []string
	occupationBound map[string]float64
	primKey         string
	secKey          string

	params component.Params

	newHaloprops []component.NamedHalopropFunc
	exampleAttrs map[string]component.AttrShape
	galTypeAttrs map[string]map[string]component.AttrShape
	publications []string

	galprops     []string
	mcFuncs      map[string]component.MonteCarloFunc
	galTypeFuncs map[string]func(*table.Table) ([]string, error)
	behaviors    map[string]map[string]component.BehaviorFunc

	selection SelectionFunc
}

// GalTypes returns the galaxy type names in blueprint order.
func (c *Composite) GalTypes() []string {
	out := make([]string, len(c.galTypes))
	copy(out, c.galTypes)
	return out
}

// OccupationBound returns the occupation bound of a galaxy type.
func (c *Composite) OccupationBound(galType string) (float64, bool) {
	bound, ok := c.occupationBound[galType]
	return bound, ok
}

// PrimHalopropKey returns the primary halo property column name.
func (c *Composite) PrimHalopropKey() string { return c.primKey }

// SecHalopropKey returns the shared secondary halo property column name, or
// the empty string when no component declares assembly bias.
func (c *Composite) SecHalopropKey() string { return c.secKey }

// Params returns the live composite parameter dictionary. Callers mutate it
// between population runs; the mock pipeline re-reads it on every call.
func (c *Composite) Params() component.Params { return c.params }

// Param reads a single parameter value.
func (c *Composite) Param(name string) (float64, bool) {
	v, ok := c.params[name]
	return v, ok
}

// SetParam updates a single parameter value.
func (c *Composite) SetParam(name string, value float64) {
	c.params[name] = value
}

// NewHalopropFuncs returns the merged derived-haloprop functions in
// registration order (profile model first).
func (c *Composite) NewHalopropFuncs() []component.NamedHalopropFunc {
	out := make([]component.NamedHalopropFunc, len(c.newHaloprops))
	copy(out, c.newHaloprops)
	return out
}

// ExampleAttrs returns the merged attribute-shape dictionary.
func (c *Composite) ExampleAttrs() map[string]component.AttrShape {
	out := make(map[string]component.AttrShape, len(c.exampleAttrs))
	for k, v := range c.exampleAttrs {
		out[k] = v
	}
	return out
}

// GalTypeExampleAttrs returns the attribute-shape dictionary contributed by
// the features of one galaxy type.
func (c *Composite) GalTypeExampleAttrs(galType string) map[string]component.AttrShape {
	src := c.galTypeAttrs[galType]
	out := make(map[string]component.AttrShape, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Publications returns the concatenated publication list in blueprint order.
func (c *Composite) Publications() []string {
	out := make([]string, len(c.publications))
	copy(out, c.publications)
	return out
}

// GalpropList returns the declared galaxy property names in blueprint
// order. The order is a contract: properties are populated in this order,
// so later properties may depend on columns written by earlier ones.
func (c *Composite) GalpropList() []string {
	out := make([]string, len(c.galprops))
	copy(out, c.galprops)
	return out
}

// MonteCarloFunc returns the registered realization function for a declared
// galaxy property.
func (c *Composite) MonteCarloFunc(galprop string) (component.MonteCarloFunc, bool) {
	fn, ok := c.mcFuncs[galprop]
	return fn, ok
}

// GalTypeFunc returns the classifier registered for a galaxy property, if
// its component declares one.
func (c *Composite) GalTypeFunc(galprop string) (func(*table.Table) ([]string, error), bool) {
	fn, ok := c.galTypeFuncs[galprop]
	return fn, ok
}

// GalaxySelection returns the optional post-population selection mask.
func (c *Composite) GalaxySelection() SelectionFunc { return c.selection }

// ComponentBehavior dispatches to the behavior a component registered under
// (galType, featureKey), injecting the current parameter dictionary.
// Inputs come either from args.PrimHaloprop/SecHaloprop directly, or are
// gathered from args.Source at the source's precomputed row indices for
// galType; supplying both or neither fails with ArgumentConflictError.
func (c *Composite) ComponentBehavior(galType, featureKey string, args BehaviorArgs) ([]float64, error) {
	hasArrays := args.PrimHaloprop != nil
	hasSource := args.Source != nil
	if hasArrays && hasSource {
		return nil, ArgumentConflictError{Both: true}
	}
	if !hasArrays && !hasSource {
		return nil, ArgumentConflictError{}
	}

	fn, ok := c.behaviors[galType][featureKey]
	if !ok {
		return nil, MissingBehaviorError{GalType: galType, Feature: featureKey}
	}

	prim := args.PrimHaloprop
	sec := args.SecHaloprop
	if hasSource {
		indices := args.Source.GalTypeIndices(galType)
		full, err := args.Source.HalopropColumn(c.primKey)
		if err != nil {
			return nil, err
		}
		prim = gather(full, indices)
		if c.secKey != "" {
			full, err = args.Source.HalopropColumn(c.secKey)
			if err != nil {
				return nil, err
			}
			sec = gather(full, indices)
		}
	}
	return fn(prim, sec, c.params)
}

func gather(values []float64, indices []int) []float64 {
	out := make([]float64, 0, len(indices))
	for _, i := range indices {
		out = append(out, values[i])
	}
	return out
}
