// Package reference provides a ready-made component set: an erf-style
// central occupation, a power-law stellar-to-halo-mass relation with
// lognormal scatter, a formation-epoch quenching designation with assembly
// bias, and an NFW halo profile with concentration-dependent host-centric
// distances. Together they exercise every component capability.
package reference

import (
	"fmt"
	"math"
	"math/rand"

	"halomock/pkg/component"
	"halomock/pkg/table"
)

// CentralsOccupation models the mean central occupation as an erf of
// log halo mass. Parameter names are prefixed with the galaxy type so two
// instances can coexist in one blueprint.
type CentralsOccupation struct {
	GalType   string
	LogMmin   float64
	SigmaLogM float64
}

// NewCentralsOccupation constructs an occupation component for one galaxy
// type.
func NewCentralsOccupation(galType string, logMmin, sigmaLogM float64) CentralsOccupation {
	return CentralsOccupation{GalType: galType, LogMmin: logMmin, SigmaLogM: sigmaLogM}
}

// Name implements component.Model.
func (c CentralsOccupation) Name() string {
	return c.GalType + "_centrals_occupation"
}

// ParamDict implements component.Model.
func (c CentralsOccupation) ParamDict() component.Params {
	return component.Params{
		c.GalType + "_logMmin":    c.LogMmin,
		c.GalType + "_sigma_logM": c.SigmaLogM,
	}
}

// OccupationBound implements component.OccupationModel; a halo hosts at
// most one central.
func (c CentralsOccupation) OccupationBound() float64 { return 1 }

// BehaviorFuncs exposes the analytic mean occupation for dispatch.
func (c CentralsOccupation) BehaviorFuncs() map[string]component.BehaviorFunc {
	logMminKey := c.GalType + "_logMmin"
	sigmaKey := c.GalType + "_sigma_logM"
	return map[string]component.BehaviorFunc{
		"mean_occupation": func(prim, _ []float64, params component.Params) ([]float64, error) {
			logMmin := params[logMminKey]
			sigma := params[sigmaKey]
			if sigma <= 0 {
				return nil, fmt.Errorf("%s must be positive, got %v", sigmaKey, sigma)
			}
			out := make([]float64, len(prim))
			for i, mass := range prim {
				if mass <= 0 {
					return nil, fmt.Errorf("halo mass must be positive, got %v at row %d", mass, i)
				}
				out[i] = 0.5 * (1 + math.Erf((math.Log10(mass)-logMmin)/sigma))
			}
			return out, nil
		},
	}
}

// ExampleAttrs implements component.AttrShaper; the occupation is scalar.
func (c CentralsOccupation) ExampleAttrs() map[string]component.AttrShape {
	return map[string]component.AttrShape{"mean_occupation": nil}
}

// Publications implements component.Publisher.
func (c CentralsOccupation) Publications() []string {
	return []string{"arXiv:0703457"}
}

// StellarMass draws log10 stellar masses around a power-law median with
// lognormal scatter.
type StellarMass struct {
	LogM0   float64 // median log10 stellar mass at the pivot halo mass
	Slope   float64
	Scatter float64 // dex
}

// NewStellarMass constructs the component with its default parameters.
func NewStellarMass() StellarMass {
	return StellarMass{LogM0: 10.6, Slope: 0.45, Scatter: 0.2}
}

const smhmPivotLogM = 12 // log10 of the pivot halo mass

// Name implements component.Model.
func (s StellarMass) Name() string { return "stellar_mass_powerlaw" }

// ParamDict implements component.Model.
func (s StellarMass) ParamDict() component.Params {
	return component.Params{
		"smhm_logm0":   s.LogM0,
		"smhm_slope":   s.Slope,
		"smhm_scatter": s.Scatter,
	}
}

func medianLogStellarMass(logMvir float64, params component.Params) float64 {
	return params["smhm_logm0"] + params["smhm_slope"]*(logMvir-smhmPivotLogM)
}

// MonteCarloFuncs implements component.MonteCarloProvider.
func (s StellarMass) MonteCarloFuncs() map[string]component.MonteCarloFunc {
	return map[string]component.MonteCarloFunc{
		"stellar_mass": func(galaxies *table.Table, params component.Params, rng *rand.Rand) ([]float64, error) {
			mvir, err := galaxies.Floats("halo_mvir")
			if err != nil {
				return nil, err
			}
			out := make([]float64, len(mvir))
			for i, mass := range mvir {
				if mass <= 0 {
					return nil, fmt.Errorf("halo mass must be positive, got %v at row %d", mass, i)
				}
				median := medianLogStellarMass(math.Log10(mass), params)
				out[i] = median + params["smhm_scatter"]*rng.NormFloat64()
			}
			return out, nil
		},
	}
}

// BehaviorFuncs exposes the scatter-free median relation for dispatch.
func (s StellarMass) BehaviorFuncs() map[string]component.BehaviorFunc {
	return map[string]component.BehaviorFunc{
		"median_stellar_mass": func(prim, _ []float64, params component.Params) ([]float64, error) {
			out := make([]float64, len(prim))
			for i, mass := range prim {
				if mass <= 0 {
					return nil, fmt.Errorf("halo mass must be positive, got %v at row %d", mass, i)
				}
				out[i] = medianLogStellarMass(math.Log10(mass), params)
			}
			return out, nil
		},
	}
}

// ExampleAttrs implements component.AttrShaper.
func (s StellarMass) ExampleAttrs() map[string]component.AttrShape {
	return map[string]component.AttrShape{"stellar_mass": nil}
}

// Publications implements component.Publisher.
func (s StellarMass) Publications() []string {
	return []string{"arXiv:1207.6105"}
}

// Quenching draws a quiescent designation from a logistic probability in
// halo mass, boosted for early-forming halos through the secondary halo
// property. It also classifies rows into the quiescent and star_forming
// galaxy types by formation epoch.
type Quenching struct {
	LogMq      float64 // log halo mass of the quenching transition
	Slope      float64
	Assembly   float64 // assembly-bias boost per unit formation redshift
	ZformPivot float64
}

// NewQuenching constructs the component with its default parameters.
func NewQuenching() Quenching {
	return Quenching{LogMq: 12.2, Slope: 1.5, Assembly: 0.8, ZformPivot: 1.0}
}

// GalTypeQuiescent and GalTypeStarForming are the labels the quenching
// classifier assigns; blueprints built around this component use them as
// galaxy type names.
const (
	GalTypeQuiescent   = "quiescent"
	GalTypeStarForming = "star_forming"
)

// Name implements component.Model.
func (q Quenching) Name() string { return "formation_epoch_quenching" }

// ParamDict implements component.Model.
func (q Quenching) ParamDict() component.Params {
	return component.Params{
		"quenching_logMq":       q.LogMq,
		"quenching_slope":       q.Slope,
		"quenching_assembly":    q.Assembly,
		"quenching_zform_pivot": q.ZformPivot,
	}
}

// SecHalopropKey implements component.SecondaryDependent; the designation
// depends on halo formation redshift.
func (q Quenching) SecHalopropKey() string { return "halo_zform" }

func quiescentProbability(logMvir, zform float64, params component.Params) float64 {
	x := params["quenching_slope"]*(logMvir-params["quenching_logMq"]) +
		params["quenching_assembly"]*(zform-params["quenching_zform_pivot"])
	return 1 / (1 + math.Exp(-x))
}

// MonteCarloFuncs implements component.MonteCarloProvider. The designation
// column holds 1 for quiescent galaxies and 0 otherwise.
func (q Quenching) MonteCarloFuncs() map[string]component.MonteCarloFunc {
	return map[string]component.MonteCarloFunc{
		"quiescent_designation": func(galaxies *table.Table, params component.Params, rng *rand.Rand) ([]float64, error) {
			mvir, err := galaxies.Floats("halo_mvir")
			if err != nil {
				return nil, err
			}
			zform, err := galaxies.Floats("halo_zform")
			if err != nil {
				return nil, err
			}
			out := make([]float64, len(mvir))
			for i := range mvir {
				if mvir[i] <= 0 {
					return nil, fmt.Errorf("halo mass must be positive, got %v at row %d", mvir[i], i)
				}
				p := quiescentProbability(math.Log10(mvir[i]), zform[i], params)
				if rng.Float64() < p {
					out[i] = 1
				}
			}
			return out, nil
		},
	}
}

// GalTypeFunc implements component.GalTypeClassifier. Labels are
// deterministic in the halo columns so repeated populate calls partition
// rows identically; the Monte Carlo designation stays stochastic.
func (q Quenching) GalTypeFunc(galaxies *table.Table) ([]string, error) {
	mvir, err := galaxies.Floats("halo_mvir")
	if err != nil {
		return nil, err
	}
	zform, err := galaxies.Floats("halo_zform")
	if err != nil {
		return nil, err
	}
	params := q.ParamDict()
	out := make([]string, len(mvir))
	for i := range mvir {
		if mvir[i] <= 0 {
			return nil, fmt.Errorf("halo mass must be positive, got %v at row %d", mvir[i], i)
		}
		if quiescentProbability(math.Log10(mvir[i]), zform[i], params) >= 0.5 {
			out[i] = GalTypeQuiescent
		} else {
			out[i] = GalTypeStarForming
		}
	}
	return out, nil
}

// ExampleAttrs implements component.AttrShaper.
func (q Quenching) ExampleAttrs() map[string]component.AttrShape {
	return map[string]component.AttrShape{"quiescent_designation": nil}
}

// Publications implements component.Publisher.
func (q Quenching) Publications() []string {
	return []string{"arXiv:1308.2974"}
}

// NFWProfile is the halo profile model of the reference set. It derives an
// NFW concentration column from halo mass and, as a component, draws
// host-centric distances from the NFW enclosed-mass profile.
type NFWProfile struct {
	Redshift float64
	ConcBias float64 // multiplies the halo concentration when sampling
}

// NewNFWProfile constructs the profile at the given redshift.
func NewNFWProfile(redshift float64) NFWProfile {
	return NFWProfile{Redshift: redshift, ConcBias: 1}
}

// PrimHalopropKey implements model.HaloProfileModel.
func (p NFWProfile) PrimHalopropKey() string { return "halo_mvir" }

// concentration evaluates the power-law concentration-mass relation of
// Dutton & Maccio (2014) at the profile's redshift.
func (p NFWProfile) concentration(mvir float64) float64 {
	a := 0.537 + (1.025-0.537)*math.Exp(-0.718*math.Pow(p.Redshift, 1.08))
	b := -0.097 + 0.024*p.Redshift
	return math.Pow(10, a+b*math.Log10(mvir/1e12))
}

// NewHalopropFuncs implements model.HaloProfileModel; the concentration is
// attached to the halo table before population and inherited by galaxies.
func (p NFWProfile) NewHalopropFuncs() []component.NamedHalopropFunc {
	return []component.NamedHalopropFunc{{
		Name: "nfw_conc",
		Func: func(halos *table.Table) ([]float64, error) {
			mvir, err := halos.Floats("halo_mvir")
			if err != nil {
				return nil, err
			}
			out := make([]float64, len(mvir))
			for i, mass := range mvir {
				if mass <= 0 {
					return nil, fmt.Errorf("halo mass must be positive, got %v at row %d", mass, i)
				}
				out[i] = p.concentration(mass)
			}
			return out, nil
		},
	}}
}

// Name implements component.Model.
func (p NFWProfile) Name() string { return "nfw_profile" }

// ParamDict implements component.Model.
func (p NFWProfile) ParamDict() component.Params {
	return component.Params{"conc_gal_bias": p.ConcBias}
}

// nfwEnclosedMass is the unnormalized NFW mass enclosed within the scaled
// radius x for concentration c.
func nfwEnclosedMass(x, c float64) float64 {
	return math.Log(1+c*x) - c*x/(1+c*x)
}

// sampleScaledRadius inverts the NFW enclosed-mass profile by bisection:
// returns x in (0, 1] such that M(<x)/M(<1) equals u.
func sampleScaledRadius(u, c float64) float64 {
	total := nfwEnclosedMass(1, c)
	lo, hi := 0.0, 1.0
	for i := 0; i < 50; i++ {
		mid := 0.5 * (lo + hi)
		if nfwEnclosedMass(mid, c)/total < u {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}

// MonteCarloFuncs implements component.MonteCarloProvider. Distances are in
// units of the halo virial radius.
func (p NFWProfile) MonteCarloFuncs() map[string]component.MonteCarloFunc {
	return map[string]component.MonteCarloFunc{
		"host_centric_distance": func(galaxies *table.Table, params component.Params, rng *rand.Rand) ([]float64, error) {
			conc, err := galaxies.Floats("nfw_conc")
			if err != nil {
				return nil, err
			}
			bias := params["conc_gal_bias"]
			if bias <= 0 {
				return nil, fmt.Errorf("conc_gal_bias must be positive, got %v", bias)
			}
			out := make([]float64, len(conc))
			for i := range conc {
				out[i] = sampleScaledRadius(rng.Float64(), bias*conc[i])
			}
			return out, nil
		},
	}
}

// ExampleAttrs implements component.AttrShaper.
func (p NFWProfile) ExampleAttrs() map[string]component.AttrShape {
	return map[string]component.AttrShape{"host_centric_distance": nil}
}

// Publications implements component.Publisher.
func (p NFWProfile) Publications() []string {
	return []string{"arXiv:1402.7073"}
}
