// Package listings is an HTTP client for closed sales from a listings feed.
package listings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/resilience"
)

// Client returns recently closed sales around a subject.
type Client interface {
	RecentSales(ctx context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithRetries sets the retry count and wait bounds.
func WithRetries(n int, waitMin, waitMax time.Duration) Option {
	return func(c *httpClient) {
		if n >= 0 {
			c.http.RetryMax = n
		}
		if waitMin > 0 {
			c.http.RetryWaitMin = waitMin
		}
		if waitMax > 0 {
			c.http.RetryWaitMax = waitMax
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.HTTPClient.Timeout = d
		}
	}
}

// WithClock overrides the clock used to compute the sale date window.
func WithClock(now func() time.Time) Option {
	return func(c *httpClient) {
		c.now = now
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *retryablehttp.Client
	now     func() time.Time
}

// NewClient creates a listings feed client rooted at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = zapLogger{zap.L().Sugar().With("service", "listings")}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &httpClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type listing struct {
	MLSID   string `json:"mls_id"`
	Parcel  string `json:"parcel_id"`
	Address struct {
		Street string `json:"street"`
		City   string `json:"city"`
		State  string `json:"state"`
		Postal string `json:"postal_code"`
	} `json:"address"`
	Sqft       float64 `json:"sqft"`
	LotSqft    float64 `json:"lot_sqft"`
	Beds       int     `json:"beds"`
	Baths      float64 `json:"baths"`
	YearBuilt  int     `json:"year_built"`
	Garage     int     `json:"garage_spaces"`
	Pool       bool    `json:"pool"`
	Fireplace  bool    `json:"fireplace"`
	Waterfront bool    `json:"waterfront"`
	Status     string  `json:"status"`
	ClosePrice float64 `json:"close_price"`
	CloseDate  string  `json:"close_date"`
	DistanceMi float64 `json:"distance_mi"`
}

type salesResponse struct {
	Listings []listing `json:"listings"`
}

// RecentSales returns closed listings near subject. Active and pending
// listings and records without a close price are skipped.
func (c *httpClient) RecentSales(ctx context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error) {
	if subject == nil {
		return nil, eris.New("listings: subject is required")
	}

	q := url.Values{}
	q.Set("status", "sold")
	if subject.Address.Zip != "" {
		q.Set("postal_code", subject.Address.Zip)
	}
	if subject.Latitude != 0 || subject.Longitude != 0 {
		q.Set("lat", strconv.FormatFloat(subject.Latitude, 'f', 6, 64))
		q.Set("lon", strconv.FormatFloat(subject.Longitude, 'f', 6, 64))
	}
	if search.RadiusMiles > 0 {
		q.Set("radius_mi", strconv.FormatFloat(search.RadiusMiles, 'f', -1, 64))
	}
	if search.MaxAgeMonths > 0 {
		q.Set("closed_since", c.now().AddDate(0, -search.MaxAgeMonths, 0).Format("2006-01-02"))
	}
	if search.Limit > 0 {
		q.Set("limit", strconv.Itoa(search.Limit))
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sales?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "listings: create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "listings: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckResponse("listings", resp); err != nil {
		return nil, eris.Wrap(err, "listings: recent sales")
	}

	var body salesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "listings: decode response")
	}

	out := make([]model.ComparableSale, 0, len(body.Listings))
	for _, l := range body.Listings {
		if !strings.EqualFold(l.Status, "sold") && !strings.EqualFold(l.Status, "closed") {
			continue
		}
		if l.ClosePrice <= 0 {
			continue
		}
		closed, err := time.Parse("2006-01-02", l.CloseDate)
		if err != nil {
			zap.L().Debug("listings: skipping listing with bad close date",
				zap.String("mls_id", l.MLSID), zap.String("close_date", l.CloseDate))
			continue
		}
		out = append(out, l.comparable(closed))
	}
	return out, nil
}

func (l listing) comparable(closed time.Time) model.ComparableSale {
	return model.ComparableSale{
		ParcelID: l.Parcel,
		Address: model.Address{
			Line1: l.Address.Street,
			City:  l.Address.City,
			State: strings.ToUpper(l.Address.State),
			Zip:   l.Address.Postal,
		},
		Characteristics: model.Characteristics{
			LivingArea:   l.Sqft,
			LotSize:      l.LotSqft,
			Bedrooms:     l.Beds,
			Bathrooms:    l.Baths,
			YearBuilt:    l.YearBuilt,
			GarageSpaces: l.Garage,
			Pool:         l.Pool,
			Fireplace:    l.Fireplace,
			Waterfront:   l.Waterfront,
		},
		SalePrice:  l.ClosePrice,
		SaleDate:   closed,
		Source:     model.SourceListings,
		DistanceMi: l.DistanceMi,
	}
}

// zapLogger adapts a sugared zap logger to retryablehttp.LeveledLogger.
type zapLogger struct {
	l *zap.SugaredLogger
}

func (z zapLogger) Error(msg string, kv ...interface{}) { z.l.Errorw(msg, kv...) }
func (z zapLogger) Warn(msg string, kv ...interface{})  { z.l.Warnw(msg, kv...) }
func (z zapLogger) Info(msg string, kv ...interface{})  { z.l.Debugw(msg, kv...) }
func (z zapLogger) Debug(msg string, kv ...interface{}) { z.l.Debugw(msg, kv...) }
