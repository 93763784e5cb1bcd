package model

import (
	"time"
)

// PropertyType selects the reconciliation weights and income multipliers
// applied to a subject property.
type PropertyType string

const (
	PropertyTypeSingleFamilyOwner  PropertyType = "single_family_owner"
	PropertyTypeSingleFamilyRental PropertyType = "single_family_rental"
	PropertyTypeMultiFamily        PropertyType = "multi_family"
	PropertyTypeNewConstruction    PropertyType = "new_construction"
	PropertyTypeSpecialPurpose     PropertyType = "special_purpose"
	PropertyTypeDefault            PropertyType = "default"
)

// PropertyTypes lists every recognised property type in policy order.
var PropertyTypes = []PropertyType{
	PropertyTypeSingleFamilyOwner,
	PropertyTypeSingleFamilyRental,
	PropertyTypeMultiFamily,
	PropertyTypeNewConstruction,
	PropertyTypeSpecialPurpose,
	PropertyTypeDefault,
}

// Valid reports whether t is one of the recognised property types.
func (t PropertyType) Valid() bool {
	for _, pt := range PropertyTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// ConstructionType is the assessor's structural classification.
type ConstructionType string

const (
	ConstructionMasonry  ConstructionType = "masonry"
	ConstructionFrame    ConstructionType = "frame"
	ConstructionConcrete ConstructionType = "concrete"
	ConstructionSteel    ConstructionType = "steel"
)

// Address is a postal address as reported by a data source.
type Address struct {
	Line1  string `json:"line1" yaml:"line1"`
	City   string `json:"city" yaml:"city"`
	State  string `json:"state" yaml:"state"`
	Zip    string `json:"zip" yaml:"zip"`
	County string `json:"county,omitempty" yaml:"county"`
}

// String renders the address on one line.
func (a Address) String() string {
	s := a.Line1
	if a.City != "" {
		s += ", " + a.City
	}
	if a.State != "" {
		s += ", " + a.State
	}
	if a.Zip != "" {
		s += " " + a.Zip
	}
	return s
}

// Sale is a recorded transfer of a parcel.
type Sale struct {
	Price float64   `json:"price" yaml:"price"`
	Date  time.Time `json:"date" yaml:"date"`
}

// Characteristics are the physical attributes shared by a subject property
// and its comparables.
type Characteristics struct {
	LivingArea         float64          `json:"living_area" yaml:"living_area"` // heated sqft
	LotSize            float64          `json:"lot_size" yaml:"lot_size"`       // sqft
	Bedrooms           int              `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms          float64          `json:"bathrooms" yaml:"bathrooms"`
	YearBuilt          int              `json:"year_built" yaml:"year_built"`
	EffectiveYearBuilt int              `json:"effective_year_built,omitempty" yaml:"effective_year_built"`
	ConstructionType   ConstructionType `json:"construction_type" yaml:"construction_type"`
	Stories            int              `json:"stories,omitempty" yaml:"stories"`
	GarageSpaces       int              `json:"garage_spaces" yaml:"garage_spaces"`
	Pool               bool             `json:"pool" yaml:"pool"`
	Fireplace          bool             `json:"fireplace" yaml:"fireplace"`
	Waterfront         bool             `json:"waterfront" yaml:"waterfront"`
}

// SubjectProperty is the assessor snapshot a run values. It is fetched once
// per run and never mutated afterwards.
type SubjectProperty struct {
	ParcelID  string  `json:"parcel_id" yaml:"parcel_id"`
	Address   Address `json:"address" yaml:"address"`
	Latitude  float64 `json:"latitude,omitempty" yaml:"latitude"`
	Longitude float64 `json:"longitude,omitempty" yaml:"longitude"`

	Characteristics `yaml:",inline"`

	HOAMonthly    float64 `json:"hoa_monthly,omitempty" yaml:"hoa_monthly"`
	JustValue     float64 `json:"just_value" yaml:"just_value"`
	AssessedValue float64 `json:"assessed_value" yaml:"assessed_value"`
	LandValue     float64 `json:"land_value" yaml:"land_value"`
	TaxableValue  float64 `json:"taxable_value" yaml:"taxable_value"`

	SaleHistory []Sale `json:"sale_history,omitempty" yaml:"sale_history"`
}

// MarketValue returns the assessor's just value, falling back to the
// assessed value when just value is missing.
func (p *SubjectProperty) MarketValue() float64 {
	if p.JustValue > 0 {
		return p.JustValue
	}
	return p.AssessedValue
}

// EffectiveAge returns the building age used for depreciation as of year.
// Effective year built wins over actual year built when present.
func (p *SubjectProperty) EffectiveAge(year int) int {
	built := p.YearBuilt
	if p.EffectiveYearBuilt > 0 {
		built = p.EffectiveYearBuilt
	}
	if built <= 0 || built > year {
		return 0
	}
	return year - built
}

// ComparableSource tags where a comparable sale was found.
type ComparableSource string

const (
	SourceAssessor ComparableSource = "assessor"
	SourceListings ComparableSource = "listings"
	SourceFixture  ComparableSource = "fixture"
)

// ComparableSale is a market transaction considered for the sales
// comparison approach.
type ComparableSale struct {
	ParcelID string  `json:"parcel_id,omitempty" yaml:"parcel_id"`
	Address  Address `json:"address" yaml:"address"`

	Characteristics `yaml:",inline"`

	SalePrice  float64          `json:"sale_price" yaml:"sale_price"`
	SaleDate   time.Time        `json:"sale_date" yaml:"sale_date"`
	Source     ComparableSource `json:"source" yaml:"source"`
	DistanceMi float64          `json:"distance_mi,omitempty" yaml:"distance_mi"`
}

// CompSearch bounds a comparable sales search around a subject.
type CompSearch struct {
	RadiusMiles  float64 `json:"radius_miles"`
	MaxAgeMonths int     `json:"max_age_months"`
	Limit        int     `json:"limit"`
}
