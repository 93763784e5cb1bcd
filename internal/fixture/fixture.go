// Package fixture serves every external data source from a YAML file so the
// pipeline can run offline.
package fixture

import (
	"context"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// File is the on-disk fixture layout. Comparables and listings are keyed by
// subject parcel id.
type File struct {
	Properties  []model.SubjectProperty           `yaml:"properties"`
	Comparables map[string][]model.ComparableSale `yaml:"comparables"`
	Listings    map[string][]model.ComparableSale `yaml:"listings"`
	Markets     []model.RentalMarketStats         `yaml:"markets"`
}

// Provider implements the property, comparable sales and market data
// collaborators over a loaded File. It is read-only and safe for concurrent
// use.
type Provider struct {
	properties  map[string]model.SubjectProperty
	comparables map[string][]model.ComparableSale
	listings    map[string][]model.ComparableSale
	markets     []model.RentalMarketStats
}

// Load reads and parses a fixture file.
func Load(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fixture: read %s", path)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "fixture: load %s", path)
	}
	return p, nil
}

// Parse builds a Provider from YAML.
func Parse(data []byte) (*Provider, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "fixture: parse yaml")
	}
	return New(f)
}

// New indexes f. Duplicate parcel ids are rejected.
func New(f File) (*Provider, error) {
	p := &Provider{
		properties:  make(map[string]model.SubjectProperty, len(f.Properties)),
		comparables: tagSource(f.Comparables, model.SourceAssessor),
		listings:    tagSource(f.Listings, model.SourceListings),
		markets:     f.Markets,
	}
	for _, prop := range f.Properties {
		if prop.ParcelID == "" {
			return nil, eris.New("fixture: property without parcel_id")
		}
		if _, dup := p.properties[prop.ParcelID]; dup {
			return nil, eris.Errorf("fixture: duplicate parcel %s", prop.ParcelID)
		}
		p.properties[prop.ParcelID] = prop
	}
	return p, nil
}

func tagSource(in map[string][]model.ComparableSale, src model.ComparableSource) map[string][]model.ComparableSale {
	out := make(map[string][]model.ComparableSale, len(in))
	for parcel, sales := range in {
		tagged := make([]model.ComparableSale, len(sales))
		for i, s := range sales {
			if s.Source == "" {
				s.Source = src
			}
			tagged[i] = s
		}
		out[parcel] = tagged
	}
	return out
}

// ParcelIDs returns the parcels the fixture knows, sorted.
func (p *Provider) ParcelIDs() []string {
	ids := make([]string, 0, len(p.properties))
	for id := range p.properties {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetProperty returns a copy of the fixture record for parcelID.
func (p *Provider) GetProperty(_ context.Context, parcelID string) (*model.SubjectProperty, error) {
	prop, ok := p.properties[parcelID]
	if !ok {
		return nil, eris.Wrapf(model.ErrPropertyNotFound, "fixture: parcel %s", parcelID)
	}
	prop.SaleHistory = append([]model.Sale(nil), prop.SaleHistory...)
	return &prop, nil
}

// FindComparables returns the assessor comparables recorded for subject.
func (p *Provider) FindComparables(_ context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error) {
	if subject == nil {
		return nil, eris.New("fixture: subject is required")
	}
	return limit(p.comparables[subject.ParcelID], search.Limit), nil
}

// RecentSales returns the listings sales recorded for subject.
func (p *Provider) RecentSales(_ context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error) {
	if subject == nil {
		return nil, eris.New("fixture: subject is required")
	}
	return limit(p.listings[subject.ParcelID], search.Limit), nil
}

func limit(sales []model.ComparableSale, n int) []model.ComparableSale {
	if n > 0 && len(sales) > n {
		sales = sales[:n]
	}
	return append([]model.ComparableSale{}, sales...)
}

// GetRentalMarket matches on zip and bedrooms. An entry with bedrooms 0
// covers every bedroom count in its zip.
func (p *Provider) GetRentalMarket(_ context.Context, zip string, bedrooms int, _ model.PropertyType) (*model.RentalMarketStats, error) {
	var fallback *model.RentalMarketStats
	for i := range p.markets {
		m := p.markets[i]
		if m.Zip != zip {
			continue
		}
		if m.Bedrooms == bedrooms {
			return &m, nil
		}
		if m.Bedrooms == 0 && fallback == nil {
			m.Bedrooms = bedrooms
			fallback = &m
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, eris.Errorf("fixture: no rental market for %s/%dbr", zip, bedrooms)
}
