package model

import "halomock/pkg/component"

// Feature binds a named model feature to the component instance
// implementing it.
type Feature struct {
	Name  string
	Model component.Model
}

// GalType groups the ordered features of one galaxy population.
type GalType struct {
	Name     string
	Features []Feature
}

// Blueprint is the declarative recipe a composite model is assembled from:
// an ordered sequence of galaxy types, each carrying an ordered sequence of
// named features. Order is load-bearing: parameter merges, galaxy-property
// lists and publication lists all follow blueprint order.
type Blueprint struct {
	GalTypes []GalType
}

// Add appends a feature to the named galaxy type, creating the type on
// first use. It returns the blueprint for chaining.
func (b *Blueprint) Add(galType, feature string, m component.Model) *Blueprint {
	for i := range b.GalTypes {
		if b.GalTypes[i].Name == galType {
			b.GalTypes[i].Features = append(b.GalTypes[i].Features, Feature{Name: feature, Model: m})
			return b
		}
	}
	b.GalTypes = append(b.GalTypes, GalType{
		Name:     galType,
		Features: []Feature{{Name: feature, Model: m}},
	})
	return b
}

// Feature returns the component registered under (galType, feature).
func (b *Blueprint) Feature(galType, feature string) (component.Model, bool) {
	for _, gt := range b.GalTypes {
		if gt.Name != galType {
			continue
		}
		for _, f := range gt.Features {
			if f.Name == feature {
				return f.Model, true
			}
		}
	}
	return nil, false
}
