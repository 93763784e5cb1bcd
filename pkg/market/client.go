// Package market is an HTTP client for rental market statistics.
package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/resilience"
)

// MinReliableSample is the smallest rent sample treated as reliable.
const MinReliableSample = 10

// Client returns rent statistics for a zip code and bedroom count.
type Client interface {
	GetRentalMarket(ctx context.Context, zip string, bedrooms int, pt model.PropertyType) (*model.RentalMarketStats, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second. Zero disables limiting.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		c.limiter = nil
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		}
	}
}

// WithPolicy sets the retry and circuit breaker policy.
func WithPolicy(p *resilience.Policy) Option {
	return func(c *httpClient) {
		c.policy = p
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	policy  *resilience.Policy
}

// NewClient creates a rental market API client rooted at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type rentsResponse struct {
	Zip         string  `json:"zip"`
	Bedrooms    int     `json:"bedrooms"`
	MedianRent  float64 `json:"median_rent"`
	P25Rent     float64 `json:"p25_rent"`
	P75Rent     float64 `json:"p75_rent"`
	TypicalSqft float64 `json:"typical_sqft"`
	VacancyRate float64 `json:"vacancy_rate"`
	SampleSize  int     `json:"sample_size"`
}

func (r rentsResponse) stats() *model.RentalMarketStats {
	return &model.RentalMarketStats{
		Zip:         r.Zip,
		Bedrooms:    r.Bedrooms,
		MedianRent:  r.MedianRent,
		RentLow:     r.P25Rent,
		RentHigh:    r.P75Rent,
		TypicalSqft: r.TypicalSqft,
		VacancyRate: r.VacancyRate,
		SampleSize:  r.SampleSize,
		Reliable:    r.SampleSize >= MinReliableSample && r.MedianRent > 0,
	}
}

func (c *httpClient) GetRentalMarket(ctx context.Context, zip string, bedrooms int, pt model.PropertyType) (*model.RentalMarketStats, error) {
	if zip == "" {
		return nil, eris.New("market: zip is required")
	}

	q := url.Values{}
	q.Set("zip", zip)
	q.Set("bedrooms", strconv.Itoa(bedrooms))
	if pt != "" {
		q.Set("property_type", string(pt))
	}
	u := c.baseURL + "/rents?" + q.Encode()

	body, err := resilience.Call(ctx, c.policy, "market rents", func(ctx context.Context) (*rentsResponse, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "market: rate limit")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, eris.Wrap(err, "market: create request")
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "market: send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if err := resilience.CheckResponse("market", resp); err != nil {
			return nil, err
		}
		var out rentsResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, eris.Wrap(err, "market: decode response")
		}
		return &out, nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "market: rents for %s/%dbr", zip, bedrooms)
	}

	if body.Zip == "" {
		body.Zip = zip
	}
	if body.Bedrooms == 0 {
		body.Bedrooms = bedrooms
	}
	return body.stats(), nil
}
