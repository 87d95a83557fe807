package model

// FeatureOccupationModel is the feature name every galaxy type must supply;
// its component carries the occupation bound.
const FeatureOccupationModel = "occupation_model"

// MonteCarloFeaturePrefix marks blueprint features that declare a galaxy
// property. A feature named "mc_stellar_mass" declares the property
// "stellar_mass" and binds the component's Monte Carlo function of the same
// key.
const MonteCarloFeaturePrefix = "mc_"

// GalTypeColumnSuffix names the per-property classifier column attached to
// the galaxy table ("<prop>_gal_type").
const GalTypeColumnSuffix = "_gal_type"

// HostHalopropPrefix prefixes host-halo columns in the halo catalog. Galaxy
// phase-space columns are inherited from the prefixed versions at
// population time.
const HostHalopropPrefix = "halo_"

// DefaultPrimHalopropKey is the conventional primary halo property used by
// profile models that do not configure their own.
const DefaultPrimHalopropKey = "halo_mvir"

// PhaseSpaceKeys lists the galaxy-table phase-space columns, inherited from
// their HostHalopropPrefix-ed halo counterparts.
var PhaseSpaceKeys = []string{"x", "y", "z", "vx", "vy", "vz"}
