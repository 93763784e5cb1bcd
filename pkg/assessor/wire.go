package assessor

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/appraisal-cli/internal/model"
)

const dateLayout = "2006-01-02"

type siteAddress struct {
	Line1  string `json:"line1"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
	County string `json:"county"`
}

func (a siteAddress) model() model.Address {
	return model.Address{
		Line1:  strings.TrimSpace(a.Line1),
		City:   strings.TrimSpace(a.City),
		State:  strings.ToUpper(strings.TrimSpace(a.State)),
		Zip:    strings.TrimSpace(a.Zip),
		County: strings.TrimSpace(a.County),
	}
}

// building is the structure block shared by parcels and sales records.
type building struct {
	LivingSqft   float64 `json:"living_sqft"`
	LotSqft      float64 `json:"lot_sqft"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    float64 `json:"bathrooms"`
	YearBuilt    int     `json:"year_built"`
	EffYearBuilt int     `json:"eff_year_built"`
	Construction string  `json:"construction"`
	Stories      int     `json:"stories"`
	GarageSpaces int     `json:"garage_spaces"`
	Pool         bool    `json:"pool"`
	Fireplace    bool    `json:"fireplace"`
	Waterfront   bool    `json:"waterfront"`
}

func (b building) characteristics() model.Characteristics {
	return model.Characteristics{
		LivingArea:         b.LivingSqft,
		LotSize:            b.LotSqft,
		Bedrooms:           b.Bedrooms,
		Bathrooms:          b.Bathrooms,
		YearBuilt:          b.YearBuilt,
		EffectiveYearBuilt: b.EffYearBuilt,
		ConstructionType:   model.ConstructionType(strings.ToLower(strings.TrimSpace(b.Construction))),
		Stories:            b.Stories,
		GarageSpaces:       b.GarageSpaces,
		Pool:               b.Pool,
		Fireplace:          b.Fireplace,
		Waterfront:         b.Waterfront,
	}
}

type saleRecord struct {
	Price float64 `json:"price"`
	Date  string  `json:"date"`
}

type parcelRecord struct {
	ParcelID string      `json:"parcel_id"`
	Site     siteAddress `json:"site_address"`
	Lat      float64     `json:"lat"`
	Lon      float64     `json:"lon"`
	building
	HOAMonthly    float64      `json:"hoa_monthly"`
	JustValue     float64      `json:"just_value"`
	AssessedValue float64      `json:"assessed_value"`
	LandValue     float64      `json:"land_value"`
	TaxableValue  float64      `json:"taxable_value"`
	Sales         []saleRecord `json:"sales"`
}

type parcelResponse struct {
	Parcel *parcelRecord `json:"parcel"`
}

func (p *parcelRecord) subject() (*model.SubjectProperty, error) {
	s := &model.SubjectProperty{
		ParcelID:        p.ParcelID,
		Address:         p.Site.model(),
		Latitude:        p.Lat,
		Longitude:       p.Lon,
		Characteristics: p.characteristics(),
		HOAMonthly:      p.HOAMonthly,
		JustValue:       p.JustValue,
		AssessedValue:   p.AssessedValue,
		LandValue:       p.LandValue,
		TaxableValue:    p.TaxableValue,
	}
	for _, sr := range p.Sales {
		d, err := parseDate(sr.Date)
		if err != nil {
			return nil, eris.Wrapf(err, "assessor: parcel %s sale date", p.ParcelID)
		}
		s.SaleHistory = append(s.SaleHistory, model.Sale{Price: sr.Price, Date: d})
	}
	return s, nil
}

type comparableRecord struct {
	ParcelID string      `json:"parcel_id"`
	Site     siteAddress `json:"site_address"`
	building
	SalePrice  float64 `json:"sale_price"`
	SaleDate   string  `json:"sale_date"`
	DistanceMi float64 `json:"distance_mi"`
}

type comparablesResponse struct {
	Sales []comparableRecord `json:"sales"`
}

func (c comparableRecord) sale() (model.ComparableSale, error) {
	d, err := parseDate(c.SaleDate)
	if err != nil {
		return model.ComparableSale{}, eris.Wrapf(err, "assessor: comparable %s sale date", c.ParcelID)
	}
	return model.ComparableSale{
		ParcelID:        c.ParcelID,
		Address:         c.Site.model(),
		Characteristics: c.characteristics(),
		SalePrice:       c.SalePrice,
		SaleDate:        d,
		Source:          model.SourceAssessor,
		DistanceMi:      c.DistanceMi,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, eris.Wrapf(err, "parse date %q", s)
}
