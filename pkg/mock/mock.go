// Package mock populates a halo catalog with a synthetic galaxy population
// driven by an assembled composite model. The subhalo design places exactly
// one galaxy on every halo row; population proceeds in three stages:
// derived halo columns are computed once, halo properties are inherited into
// a fresh galaxy table once, and Monte Carlo realizations fill the galaxy
// property columns on every Populate call.
package mock

import (
	"fmt"
	"math/rand"

	"halomock/pkg/model"
	"halomock/pkg/table"
)

// InheritAll is the sentinel for inheriting every halo-table column into the
// galaxy table. It is expanded to the concrete column list before the
// precompute stage runs.
const InheritAll = "all"

// Option customizes mock construction.
type Option func(*config)

type config struct {
	additional []string
	inheritAll bool
	seed       int64
	populate   bool
}

// WithAdditionalHaloprops names halo-table columns each galaxy inherits
// from its host halo. Unset means "inherit nothing extra".
func WithAdditionalHaloprops(names ...string) Option {
	return func(cfg *config) { cfg.additional = append(cfg.additional, names...) }
}

// InheritAllHaloprops inherits every halo-table column.
func InheritAllHaloprops() Option {
	return func(cfg *config) { cfg.inheritAll = true }
}

// WithSeed fixes the Monte Carlo random seed. Populate reseeds from this
// value on every call, so repeated calls with unchanged parameters yield
// identical realizations.
func WithSeed(seed int64) Option {
	return func(cfg *config) { cfg.seed = seed }
}

// WithoutPopulate performs the preprocessing stages only; the caller invokes
// Populate explicitly.
func WithoutPopulate() Option {
	return func(cfg *config) { cfg.populate = false }
}

// Mock holds a composite model paired with a halo catalog and the galaxy
// table generated from them. It satisfies model.HalopropSource so composite
// behavior dispatch can pull sliced haloprop arrays straight from it.
type Mock struct {
	model *model.Composite
	halos *table.Table

	inherited   []string
	precomputed *table.Table
	galaxies    *table.Table
	galTypeIdx  map[string][]int
	seed        int64
}

// New builds a mock over the supplied halo table. The halo table is copied;
// derived columns from the composite model are attached to the copy. Unless
// WithoutPopulate is given, the galaxy table is populated before New
// returns.
func New(m *model.Composite, halos *table.Table, opts ...Option) (*Mock, error) {
	if m == nil {
		return nil, fmt.Errorf("nil composite model")
	}
	if halos == nil {
		return nil, fmt.Errorf("nil halo table")
	}
	cfg := config{populate: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	mk := &Mock{
		model: m,
		halos: halos.Clone(),
		seed:  cfg.seed,
	}
	if err := mk.preprocessHaloCatalog(); err != nil {
		return nil, err
	}
	if err := mk.resolveInheritance(cfg); err != nil {
		return nil, err
	}
	if err := mk.precomputeGalprops(); err != nil {
		return nil, err
	}
	if cfg.populate {
		if err := mk.Populate(); err != nil {
			return nil, err
		}
	}
	return mk, nil
}

// preprocessHaloCatalog computes every model-declared derived halo column
// and attaches it to the working halo table. Derived columns are always
// inherited by the galaxy table.
func (mk *Mock) preprocessHaloCatalog() error {
	for _, nh := range mk.model.NewHalopropFuncs() {
		col, err := nh.Func(mk.halos)
		if err != nil {
			return fmt.Errorf("derive halo property %q: %w", nh.Name, err)
		}
		if err := mk.halos.SetFloats(nh.Name, col); err != nil {
			return fmt.Errorf("attach halo property %q: %w", nh.Name, err)
		}
		mk.inherited = append(mk.inherited, nh.Name)
	}
	return nil
}

func (mk *Mock) resolveInheritance(cfg config) error {
	if cfg.inheritAll {
		for _, name := range mk.halos.Columns() {
			mk.addInherited(name)
		}
		return nil
	}
	for _, name := range cfg.additional {
		if name == InheritAll {
			for _, col := range mk.halos.Columns() {
				mk.addInherited(col)
			}
			continue
		}
		if !mk.halos.HasColumn(name) {
			return fmt.Errorf("additional haloprop %q is not a halo-table column", name)
		}
		mk.addInherited(name)
	}
	// dispatch through the mock needs the model's haloprop keys regardless
	// of what the caller asked to inherit
	if key := mk.model.PrimHalopropKey(); mk.halos.HasColumn(key) {
		mk.addInherited(key)
	}
	if key := mk.model.SecHalopropKey(); key != "" && mk.halos.HasColumn(key) {
		mk.addInherited(key)
	}
	return nil
}

func (mk *Mock) addInherited(name string) {
	for _, existing := range mk.inherited {
		if existing == name {
			return
		}
	}
	mk.inherited = append(mk.inherited, name)
}

// precomputeGalprops creates the galaxy table at halo granularity: one row
// per halo row, inherited columns copied verbatim, phase space copied from
// the host-halo-prefixed columns, a dense sequential galid, and classifier
// columns for every galaxy property whose component declares one.
func (mk *Mock) precomputeGalprops() error {
	g := table.New(mk.halos.Len())

	for _, name := range mk.inherited {
		if mk.halos.IsStringColumn(name) {
			col, err := mk.halos.Strings(name)
			if err != nil {
				return err
			}
			if err := g.SetStrings(name, col); err != nil {
				return err
			}
			continue
		}
		col, err := mk.halos.Floats(name)
		if err != nil {
			return err
		}
		if err := g.SetFloats(name, col); err != nil {
			return err
		}
	}

	for _, key := range model.PhaseSpaceKeys {
		host := model.HostHalopropPrefix + key
		col, err := mk.halos.Floats(host)
		if err != nil {
			return fmt.Errorf("halo table is missing phase-space column %q: %w", host, err)
		}
		if err := g.SetFloats(key, col); err != nil {
			return err
		}
	}

	galid := make([]float64, g.Len())
	for i := range galid {
		galid[i] = float64(i)
	}
	if err := g.SetFloats("galid", galid); err != nil {
		return err
	}

	for _, galprop := range mk.model.GalpropList() {
		fn, ok := mk.model.GalTypeFunc(galprop)
		if !ok {
			continue
		}
		labels, err := fn(g)
		if err != nil {
			return fmt.Errorf("classify %q: %w", galprop, err)
		}
		if err := g.SetStrings(galprop+model.GalTypeColumnSuffix, labels); err != nil {
			return err
		}
	}

	mk.precomputed = g
	mk.buildGalTypeIndices()
	return nil
}

// buildGalTypeIndices precomputes the row slice of each galaxy type. When a
// classifier column exists, rows belong to the type their label names; with
// no classifier every type spans the full table (the subhalo design
// populates every property over every row).
func (mk *Mock) buildGalTypeIndices() {
	mk.galTypeIdx = make(map[string][]int)
	var labels []string
	for _, galprop := range mk.model.GalpropList() {
		if _, ok := mk.model.GalTypeFunc(galprop); ok {
			labels, _ = mk.precomputed.Strings(galprop + model.GalTypeColumnSuffix)
			break
		}
	}
	all := make([]int, mk.precomputed.Len())
	for i := range all {
		all[i] = i
	}
	for _, galType := range mk.model.GalTypes() {
		if labels == nil {
			mk.galTypeIdx[galType] = all
			continue
		}
		var idx []int
		for i, label := range labels {
			if label == galType {
				idx = append(idx, i)
			}
		}
		mk.galTypeIdx[galType] = idx
	}
}

// Populate fills every declared galaxy property over the whole table in
// declaration order, then applies the composite's selection mask exactly
// once. It re-reads the composite's live parameter dictionary and reseeds
// the Monte Carlo generator, so it can be called repeatedly between
// parameter updates without rebuilding the model.
func (mk *Mock) Populate() error {
	g := mk.precomputed.Clone()
	rng := rand.New(rand.NewSource(mk.seed))

	for _, galprop := range mk.model.GalpropList() {
		fn, ok := mk.model.MonteCarloFunc(galprop)
		if !ok {
			return model.MissingBehaviorError{Feature: model.MonteCarloFeaturePrefix + galprop, Galprop: galprop}
		}
		col, err := fn(g, mk.model.Params(), rng)
		if err != nil {
			return fmt.Errorf("populate %q: %w", galprop, err)
		}
		if len(col) != g.Len() {
			return fmt.Errorf("populate %q: got %d values for %d rows", galprop, len(col), g.Len())
		}
		if err := g.SetFloats(galprop, col); err != nil {
			return err
		}
	}

	if sel := mk.model.GalaxySelection(); sel != nil {
		mask, err := sel(g)
		if err != nil {
			return fmt.Errorf("galaxy selection: %w", err)
		}
		if err := g.Filter(mask); err != nil {
			return fmt.Errorf("galaxy selection: %w", err)
		}
	}

	mk.galaxies = g
	return nil
}

// GalaxyTable returns the current galaxy table. It is replaced wholesale by
// every Populate call; callers must not mutate it.
func (mk *Mock) GalaxyTable() *table.Table { return mk.galaxies }

// HaloTable returns the working halo table, including derived columns.
func (mk *Mock) HaloTable() *table.Table { return mk.halos }

// Seed returns the Monte Carlo seed the mock reseeds from on every Populate.
func (mk *Mock) Seed() int64 { return mk.seed }

// HalopropColumn implements model.HalopropSource over the precomputed
// galaxy table.
func (mk *Mock) HalopropColumn(key string) ([]float64, error) {
	return mk.precomputed.Floats(key)
}

// GalTypeIndices implements model.HalopropSource.
func (mk *Mock) GalTypeIndices(galType string) []int {
	idx := mk.galTypeIdx[galType]
	out := make([]int, len(idx))
	copy(out, idx)
	return out
}
