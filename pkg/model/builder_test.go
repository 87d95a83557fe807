package model

import (
	"errors"
	"math/rand"
	"testing"

	"halomock/pkg/component"
	"halomock/pkg/table"
)

type profileStub struct {
	prim  string
	props []component.NamedHalopropFunc
}

func (p profileStub) PrimHalopropKey() string { return p.prim }

func (p profileStub) NewHalopropFuncs() []component.NamedHalopropFunc { return p.props }

type baseStub struct {
	name   string
	params component.Params
}

func (s baseStub) Name() string { return s.name }

func (s baseStub) ParamDict() component.Params { return s.params }

type occStub struct {
	baseStub
	bound float64
}

func (s occStub) OccupationBound() float64 { return s.bound }

type secOccStub struct {
	occStub
	key string
}

func (s secOccStub) SecHalopropKey() string { return s.key }

type mcStub struct {
	baseStub
	funcs map[string]component.MonteCarloFunc
}

func (s mcStub) MonteCarloFuncs() map[string]component.MonteCarloFunc { return s.funcs }

type secMCStub struct {
	mcStub
	key string
}

func (s secMCStub) SecHalopropKey() string { return s.key }

type derivStub struct {
	baseStub
	props []component.NamedHalopropFunc
}

func (s derivStub) NewHalopropFuncs() []component.NamedHalopropFunc { return s.props }

type shapeStub struct {
	baseStub
	attrs map[string]component.AttrShape
}

func (s shapeStub) ExampleAttrs() map[string]component.AttrShape { return s.attrs }

type pubStub struct {
	baseStub
	pubs []string
}

func (s pubStub) Publications() []string { return s.pubs }

type behaviorStub struct {
	baseStub
	funcs map[string]component.BehaviorFunc
}

func (s behaviorStub) BehaviorFuncs() map[string]component.BehaviorFunc { return s.funcs }

func constMC(value float64) component.MonteCarloFunc {
	return func(galaxies *table.Table, params component.Params, rng *rand.Rand) ([]float64, error) {
		out := make([]float64, galaxies.Len())
		for i := range out {
			out[i] = value
		}
		return out, nil
	}
}

func occupation(name string, bound float64, params component.Params) occStub {
	return occStub{baseStub: baseStub{name: name, params: params}, bound: bound}
}

func realization(name, galprop string, params component.Params) mcStub {
	return mcStub{
		baseStub: baseStub{name: name, params: params},
		funcs:    map[string]component.MonteCarloFunc{galprop: constMC(1)},
	}
}

func TestBuildMergesParamsAcrossComponents(t *testing.T) {
	bp := Blueprint{}
	bp.Add("centrals", FeatureOccupationModel, occupation("occ", 1, component.Params{"logMmin": 12.0, "sigma": 0.2}))
	bp.Add("centrals", "mc_stellar_mass", realization("smhm", "stellar_mass", component.Params{"smhm_norm": 0.03}))

	c, warnings, err := Build(profileStub{prim: "halo_mvir"}, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	params := c.Params()
	if len(params) != 3 {
		t.Fatalf("expected union of 3 parameters, got %d", len(params))
	}
	for _, key := range []string{"logMmin", "sigma", "smhm_norm"} {
		if _, ok := params[key]; !ok {
			t.Fatalf("missing merged parameter %q", key)
		}
	}
}

func TestBuildRejectsDuplicateParameter(t *testing.T) {
	bp := Blueprint{}
	bp.Add("centrals", FeatureOccupationModel, occupation("occ", 1, component.Params{"sigma": 0.2}))
	bp.Add("centrals", "mc_stellar_mass", realization("smhm", "stellar_mass", component.Params{"sigma": 0.3}))

	_, _, err := Build(profileStub{prim: "halo_mvir"}, bp)
	var dup DuplicateParameterError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateParameterError, got %v", err)
	}
	if dup.Key != "sigma" {
		t.Fatalf("expected offending key sigma, got %q", dup.Key)
	}
}

func TestBuildCopiesParamsOutOfComponents(t *testing.T) {
	occParams := component.Params{"logMmin": 12.0}
	bp := Blueprint{}
	bp.Add("centrals", FeatureOccupationModel, occupation("occ", 1, occParams))

	c, _, err := Build(profileStub{prim: "halo_mvir"}, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	c.SetParam("logMmin", 13.5)
	if occParams["logMmin"] != 12.0 {
		t.Fatalf("composite mutation leaked into component dict: %v", occParams["logMmin"])
	}
}

func TestBuildRequiresOccupationModel(t *testing.T) {
	bp := Blueprint{}
	bp.Add("satellites", "mc_stellar_mass", realization("smhm", "stellar_mass", nil))

	_, _, err := Build(profileStub{prim: "halo_mvir"}, bp)
	var missing MissingFeatureError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFeatureError, got %v", err)
	}
	if missing.GalType != "satellites" || missing.Feature != FeatureOccupationModel {
		t.Fatalf("unexpected error fields: %+v", missing)
	}
}

func TestBuildOccupationBoundsAndPrimKey(t *testing.T) {
	bp := Blueprint{}
	bp.Add("centrals", FeatureOccupationModel, occupation("occ_c", 1, component.Params{"a": 1}))
	bp.Add("satellites", FeatureOccupationModel, occupation("occ_s", 500, component.Params{"b": 2}))

	c, _, err := Build(profileStub{prim: "halo_m200"}, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	types := c.GalTypes()
	if len(types) != 2 || types[0] != "centrals" || types[1] != "satellites" {
		t.Fatalf("expected blueprint-ordered gal types, got %v", types)
	}
	if bound, _ := c.OccupationBound("satellites"); bound != 500 {
		t.Fatalf("expected satellite bound 500, got %v", bound)
	}
	if c.PrimHalopropKey() != "halo_m200" {
		t.Fatalf("expected prim key from profile model, got %q", c.PrimHalopropKey())
	}
}

func TestSecHalopropKeyResolution(t *testing.T) {
	withSec := func(galprop, key string) secMCStub {
		return secMCStub{mcStub: realization("m_"+galprop, galprop, nil), key: key}
	}

	t.Run("agreement", func(t *testing.T) {
		bp := Blueprint{}
		bp.Add("centrals", FeatureOccupationModel, occupation("occ_c", 1, nil))
		bp.Add("centrals", "mc_quenched", withSec("quenched", "halo_zform"))
		bp.Add("satellites", FeatureOccupationModel, occupation("occ_s", 500, nil))
		bp.Add("satellites", "mc_color", withSec("color", "halo_zform"))

		c, _, err := Build(profileStub{prim: "halo_mvir"}, bp)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if c.SecHalopropKey() != "halo_zform" {
			t.Fatalf("expected shared secondary key, got %q", c.SecHalopropKey())
		}
	})

	t.Run("conflict within a galaxy type", func(t *testing.T) {
		bp := Blueprint{}
		bp.Add("centrals", FeatureOccupationModel, occupation("occ_c", 1, nil))
		bp.Add("centrals", "mc_quenched", withSec("quenched", "halo_zform"))
		bp.Add("centrals", "mc_color", withSec("color", "halo_spin"))

		_, _, err := Build(profileStub{prim: "halo_mvir"}, bp)
		var conflict ConsistencyError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConsistencyError, got %v", err)
		}
		if conflict.GalType != "centrals" {
			t.Fatalf("expected within-type conflict, got %+v", conflict)
		}
	})

	t.Run("conflict across galaxy types", func(t *testing.T) {
		bp := Blueprint{}
		bp.Add("centrals", FeatureOccupationModel, occupation("occ_c", 1, nil))
		bp.Add("centrals", "mc_quenched", withSec("quenched", "halo_zform"))
		bp.Add("satellites", FeatureOccupationModel, occupation("occ_s", 500, nil))
		bp.Add("satellites", "mc_color", withSec("color", "halo_spin"))

		_, _, err := Build(profileStub{prim: "halo_mvir"}, bp)
		var conflict ConsistencyError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConsistencyError, got %v", err)
		}
		if conflict.GalType != "" {
			t.Fatalf("expected cross-type conflict, got %+v", conflict)
		}
	})

	t.Run("no declarations disables assembly bias", func(t *testing.T) {
		bp := Blueprint{}
		bp.Add("centrals", FeatureOccupationModel, occupation("occ_c", 1, nil))

		c, _, err := Build(profileStub{prim: "halo_mvir"}, bp)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if c.SecHalopropKey() != "" {
			t.Fatalf("expected no secondary key, got %q", c.SecHalopropKey())
		}
	})
}

func TestAttrShapeMerge(t *testing.T) {
	shapes := func(name string, attrs map[string]component.AttrShape) shapeStub {
		return shapeStub{baseStub: baseStub{name: name}, attrs: attrs}
	}

	bp := Blueprint{}
	bp.Add("centrals", FeatureOccupationModel, occupation("occ", 1, nil))
	bp.Add("centrals", "profile", shapes("prof", map[string]component.AttrShape{"pos": {3}}))
	bp.Add("centrals", "velocity", shapes("vel", map[string]component.AttrShape{"pos": {3}, "vel": {3}}))

	c, _, err := Build(profileStub{prim: "halo_mvir"}, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	attrs := c.ExampleAttrs()
	if len(attrs) != 2 {
		t.Fatalf("expected 2 merged attrs, got %d", len(attrs))
	}
	perType := c.GalTypeExampleAttrs("centrals")
	if !perType["pos"].Equal(component.AttrShape{3}) {
		t.Fatalf("unexpected per-type shape %v", perType["pos"])
	}

	bp2 := Blueprint{}
	bp2.Add("centrals", FeatureOccupationModel, occupation("occ", 1, nil))
	bp2.Add("centrals", "profile", shapes("prof", map[string]component.AttrShape{"pos": {3}}))
	bp2.Add("centrals", "velocity", shapes("vel", map[string]component.AttrShape{"pos": {2}}))

	_, _, err = Build(profileStub{prim: "halo_mvir"}, bp2)
	var mismatch ShapeConsistencyError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ShapeConsistencyError, got %v", err)
	}
	if mismatch.Key != "pos" || mismatch.Feature != "velocity" {
		t.Fatalf("unexpected error fields: %+v", mismatch)
	}
}

func TestNewHalopropMergeFirstWinsWithWarning(t *testing.T) {
	profileConc := func(halos *table.Table) ([]float64, error) {
		out := make([]float64, halos.Len())
		for i := range out {
			out[i] = 5
		}
		return out, nil
	}
	componentConc := func(halos *table.Table) ([]float64, error) {
		out := make([]float64, halos.Len())
		for i := range out {
			out[i] = 9
		}
		return out, nil
	}

	bp := Blueprint{}
	bp.Add("centrals", FeatureOccupationModel, occupation("occ", 1, nil))
	bp.Add("centrals", "biasing", derivStub{
		baseStub: baseStub{name: "bias"},
		props:    []component.NamedHalopropFunc{{Name: "conc", Func: componentConc}},
	})

	profile := profileStub{
		prim:  "halo_mvir",
		props: []component.NamedHalopropFunc{{Name: "conc", Func: profileConc}},
	}
	c, warnings, err := Build(profile, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Key != "conc" {
		t.Fatalf("expected one duplicate-haloprop warning for conc, got %v", warnings)
	}
	funcs := c.NewHalopropFuncs()
	if len(funcs) != 1 {
		t.Fatalf("expected single conc entry, got %d", len(funcs))
	}
	halos := table.New(2)
	got, err := funcs[0].Func(halos)
	if err != nil {
		t.Fatalf("haloprop func: %v", err)
	}
	if got[0] != 5 {
		t.Fatalf("expected profile model's conc to win, got %v", got[0])
	}
}

func TestPublicationsConcatenateWithoutDeduplication(t *testing.T) {
	pubs := func(name string, entries ...string) pubStub {
		return pubStub{baseStub: baseStub{name: name}, pubs: entries}
	}

	bp := Blueprint{}
	bp.Add("centrals", FeatureOccupationModel, occupation("occ", 1, nil))
	bp.Add("centrals", "a", pubs("a", "arXiv:1103.2077"))
	bp.Add("centrals", "b", pubs("b", "arXiv:1103.2077", "arXiv:0408564"))

	c, _, err := Build(profileStub{prim: "halo_mvir"}, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := c.Publications()
	if len(got) != 3 {
		t.Fatalf("expected 3 publication entries, got %v", got)
	}
}

func TestGalpropRegistryRequiresMonteCarloFunc(t *testing.T) {
	bp := Blueprint{}
	bp.Add("centrals", FeatureOccupationModel, occupation("occ", 1, nil))
	// feature declares stellar_mass but the component exposes no MC funcs
	bp.Add("centrals", "mc_stellar_mass", baseStub{name: "broken"})

	_, _, err := Build(profileStub{prim: "halo_mvir"}, bp)
	var missing MissingBehaviorError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingBehaviorError, got %v", err)
	}
	if missing.Galprop != "stellar_mass" {
		t.Fatalf("unexpected galprop %q", missing.Galprop)
	}
}

func TestGalpropListFollowsBlueprintOrder(t *testing.T) {
	bp := Blueprint{}
	bp.Add("centrals", FeatureOccupationModel, occupation("occ", 1, nil))
	bp.Add("centrals", "mc_stellar_mass", realization("m1", "stellar_mass", nil))
	bp.Add("centrals", "mc_sfr", realization("m2", "sfr", nil))

	c, _, err := Build(profileStub{prim: "halo_mvir"}, bp)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	props := c.GalpropList()
	if len(props) != 2 || props[0] != "stellar_mass" || props[1] != "sfr" {
		t.Fatalf("expected declaration order, got %v", props)
	}
	if _, ok := c.MonteCarloFunc("sfr"); !ok {
		t.Fatalf("expected registered realization for sfr")
	}
}

func TestBuildFailureLeavesNoComposite(t *testing.T) {
	bp := Blueprint{}
	bp.Add("centrals", FeatureOccupationModel, occupation("occ", 1, component.Params{"x": 1}))
	bp.Add("satellites", FeatureOccupationModel, occupation("occ2", 500, component.Params{"x": 2}))

	c, warnings, err := Build(profileStub{prim: "halo_mvir"}, bp)
	if err == nil {
		t.Fatalf("expected duplicate parameter failure")
	}
	if c != nil || warnings != nil {
		t.Fatalf("expected nil composite and warnings on failure")
	}
}
