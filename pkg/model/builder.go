package model

import (
	"fmt"
	"sort"
	"strings"

	"halomock/pkg/component"
	"halomock/pkg/table"
)

// BuildOption customizes composite-model construction.
type BuildOption func(*buildConfig)

type buildConfig struct {
	selection SelectionFunc
}

// WithGalaxySelection installs a post-population selection mask on the
// composite model. The mock pipeline applies it exactly once per populate
// call, after every galaxy property has been filled.
func WithGalaxySelection(fn SelectionFunc) BuildOption {
	return func(cfg *buildConfig) { cfg.selection = fn }
}

// Build assembles a composite model from a halo profile model and a
// blueprint. A construction failure returns a nil composite and leaves no
// partial state; non-fatal conditions (duplicate derived-haloprop names)
// are returned as warnings alongside a valid composite.
//
// Merge policies, per concern:
//   - parameters: union, name collision is a DuplicateParameterError
//   - secondary haloprop keys: must agree within and across galaxy types,
//     conflict is a ConsistencyError
//   - attribute shapes: union, shape mismatch is a ShapeConsistencyError
//   - derived haloprops: profile model first, first registration wins,
//     collision is a warning
//   - publications: concatenated, never deduplicated
func Build(profile HaloProfileModel, bp Blueprint, opts ...BuildOption) (*Composite, []Warning, error) {
	if profile == nil {
		return nil, nil, fmt.Errorf("nil halo profile model")
	}
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Composite{
		profile:         profile,
		blueprint:       bp,
		occupationBound: make(map[string]float64),
		primKey:         profile.PrimHalopropKey(),
		params:          make(component.Params),
		exampleAttrs:    make(map[string]component.AttrShape),
		galTypeAttrs:    make(map[string]map[string]component.AttrShape),
		mcFuncs:         make(map[string]component.MonteCarloFunc),
		galTypeFuncs:    make(map[string]func(*table.Table) ([]string, error)),
		behaviors:       make(map[string]map[string]component.BehaviorFunc),
		selection:       cfg.selection,
	}
	if c.primKey == "" {
		c.primKey = DefaultPrimHalopropKey
	}

	for _, gt := range bp.GalTypes {
		c.galTypes = append(c.galTypes, gt.Name)
	}

	if err := c.resolveOccupationBounds(bp); err != nil {
		return nil, nil, err
	}
	if err := c.resolveSecHalopropKey(bp); err != nil {
		return nil, nil, err
	}
	if err := c.mergeParams(bp); err != nil {
		return nil, nil, err
	}
	if err := c.mergeAttrShapes(bp); err != nil {
		return nil, nil, err
	}
	warnings := c.mergeNewHaloprops(bp)
	c.mergePublications(bp)
	if err := c.registerGalprops(bp); err != nil {
		return nil, nil, err
	}
	c.registerBehaviors(bp)

	return c, warnings, nil
}

func (c *Composite) resolveOccupationBounds(bp Blueprint) error {
	for _, gt := range bp.GalTypes {
		occ, ok := bp.Feature(gt.Name, FeatureOccupationModel)
		if !ok {
			return MissingFeatureError{GalType: gt.Name, Feature: FeatureOccupationModel}
		}
		bound, ok := occ.(component.OccupationModel)
		if !ok {
			return MissingFeatureError{GalType: gt.Name, Feature: FeatureOccupationModel}
		}
		c.occupationBound[gt.Name] = bound.OccupationBound()
	}
	return nil
}

// resolveSecHalopropKey enforces the single-global-secondary-property
// invariant: every assembly-biased behavior of every galaxy type must agree
// on one key, or construction fails. Zero declarations simply disable
// assembly bias.
func (c *Composite) resolveSecHalopropKey(bp Blueprint) error {
	var globalKeys []string
	for _, gt := range bp.GalTypes {
		var typeKeys []string
		for _, f := range gt.Features {
			dep, ok := f.Model.(component.SecondaryDependent)
			if !ok {
				continue
			}
			key := dep.SecHalopropKey()
			if key == "" {
				continue
			}
			typeKeys = appendUnique(typeKeys, key)
		}
		if len(typeKeys) > 1 {
			return ConsistencyError{GalType: gt.Name, Keys: typeKeys}
		}
		if len(typeKeys) == 1 {
			globalKeys = appendUnique(globalKeys, typeKeys[0])
		}
	}
	if len(globalKeys) > 1 {
		return ConsistencyError{Keys: globalKeys}
	}
	if len(globalKeys) == 1 {
		c.secKey = globalKeys[0]
	}
	return nil
}

func (c *Composite) mergeParams(bp Blueprint) error {
	for _, gt := range bp.GalTypes {
		for _, f := range gt.Features {
			for _, name := range sortedParamNames(f.Model.ParamDict()) {
				if _, exists := c.params[name]; exists {
					return DuplicateParameterError{GalType: gt.Name, Feature: f.Name, Key: name}
				}
				c.params[name] = f.Model.ParamDict()[name]
			}
		}
	}
	return nil
}

func (c *Composite) mergeAttrShapes(bp Blueprint) error {
	for _, gt := range bp.GalTypes {
		perType := make(map[string]component.AttrShape)
		for _, f := range gt.Features {
			shaper, ok := f.Model.(component.AttrShaper)
			if !ok {
				continue
			}
			for name, shape := range shaper.ExampleAttrs() {
				if prev, exists := c.exampleAttrs[name]; exists && !prev.Equal(shape) {
					return ShapeConsistencyError{GalType: gt.Name, Feature: f.Name, Key: name}
				}
				c.exampleAttrs[name] = shape
				perType[name] = shape
			}
		}
		if len(perType) > 0 {
			c.galTypeAttrs[gt.Name] = perType
		}
	}
	return nil
}

// mergeNewHaloprops seeds the derived-haloprop list from the profile model,
// then unions in component contributions. Collisions keep the earliest
// registration and surface a warning; this is intentionally lossy.
func (c *Composite) mergeNewHaloprops(bp Blueprint) []Warning {
	var warnings []Warning
	seen := make(map[string]bool)
	for _, nh := range c.profile.NewHalopropFuncs() {
		if seen[nh.Name] {
			continue
		}
		seen[nh.Name] = true
		c.newHaloprops = append(c.newHaloprops, nh)
	}
	for _, gt := range bp.GalTypes {
		for _, f := range gt.Features {
			deriver, ok := f.Model.(component.HalopropDeriver)
			if !ok {
				continue
			}
			for _, nh := range deriver.NewHalopropFuncs() {
				if seen[nh.Name] {
					warnings = append(warnings, Warning{
						Key: nh.Name,
						Message: fmt.Sprintf("derived halo property %q of feature %q (galaxy type %q) duplicates an earlier registration; keeping the first",
							nh.Name, f.Name, gt.Name),
					})
					continue
				}
				seen[nh.Name] = true
				c.newHaloprops = append(c.newHaloprops, nh)
			}
		}
	}
	return warnings
}

func (c *Composite) mergePublications(bp Blueprint) {
	for _, gt := range bp.GalTypes {
		for _, f := range gt.Features {
			if pub, ok := f.Model.(component.Publisher); ok {
				c.publications = append(c.publications, pub.Publications()...)
			}
		}
	}
}

// registerGalprops walks the blueprint for mc_-prefixed features and binds
// each declared galaxy property to its component's Monte Carlo function and
// optional gal-type classifier. Binding happens here so a missing function
// is a construction-time MissingBehaviorError rather than a populate-time
// lookup failure.
func (c *Composite) registerGalprops(bp Blueprint) error {
	for _, gt := range bp.GalTypes {
		for _, f := range gt.Features {
			if !strings.HasPrefix(f.Name, MonteCarloFeaturePrefix) {
				continue
			}
			galprop := strings.TrimPrefix(f.Name, MonteCarloFeaturePrefix)
			if _, exists := c.mcFuncs[galprop]; exists {
				return fmt.Errorf("galaxy property %q declared by more than one blueprint feature", galprop)
			}
			provider, ok := f.Model.(component.MonteCarloProvider)
			if !ok {
				return MissingBehaviorError{GalType: gt.Name, Feature: f.Name, Galprop: galprop}
			}
			fn, ok := provider.MonteCarloFuncs()[galprop]
			if !ok || fn == nil {
				return MissingBehaviorError{GalType: gt.Name, Feature: f.Name, Galprop: galprop}
			}
			c.galprops = append(c.galprops, galprop)
			c.mcFuncs[galprop] = fn
			if classifier, ok := f.Model.(component.GalTypeClassifier); ok {
				c.galTypeFuncs[galprop] = classifier.GalTypeFunc
			}
		}
	}
	return nil
}

func (c *Composite) registerBehaviors(bp Blueprint) {
	for _, gt := range bp.GalTypes {
		for _, f := range gt.Features {
			provider, ok := f.Model.(component.BehaviorProvider)
			if !ok {
				continue
			}
			for key, fn := range provider.BehaviorFuncs() {
				if fn == nil {
					continue
				}
				if c.behaviors[gt.Name] == nil {
					c.behaviors[gt.Name] = make(map[string]component.BehaviorFunc)
				}
				c.behaviors[gt.Name][key] = fn
			}
		}
	}
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

func sortedParamNames(params component.Params) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	// deterministic merge order keeps collision reporting stable
	sort.Strings(names)
	return names
}
