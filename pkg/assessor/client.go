// Package assessor is an HTTP client for county assessor parcel records.
package assessor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/resilience"
)

const service = "assessor"

// Client performs county assessor lookups.
type Client interface {
	GetProperty(ctx context.Context, parcelID string) (*model.SubjectProperty, error)
	FindComparables(ctx context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error)
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
		if perSec > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
		} else {
			c.limiter = nil
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

// NewClient creates an assessor API client rooted at baseURL.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetProperty returns model.ErrPropertyNotFound when the assessor has no
// record for parcelID.
func (c *httpClient) GetProperty(ctx context.Context, parcelID string) (*model.SubjectProperty, error) {
	if parcelID == "" {
		return nil, eris.New("assessor: parcel id is required")
	}

	var body parcelResponse
	err := c.get(ctx, "/parcels/"+url.PathEscape(parcelID), nil, &body)
	if resilience.StatusCode(err) == http.StatusNotFound {
		return nil, eris.Wrapf(model.ErrPropertyNotFound, "assessor: parcel %s", parcelID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "assessor: get parcel %s", parcelID)
	}
	if body.Parcel == nil {
		return nil, eris.Wrapf(model.ErrPropertyNotFound, "assessor: parcel %s", parcelID)
	}
	if body.Parcel.ParcelID == "" {
		body.Parcel.ParcelID = parcelID
	}
	return body.Parcel.subject()
}

// FindComparables returns recorded sales near subject. A parcel without
// comparables yields an empty slice, not an error.
func (c *httpClient) FindComparables(ctx context.Context, subject *model.SubjectProperty, search model.CompSearch) ([]model.ComparableSale, error) {
	if subject == nil || subject.ParcelID == "" {
		return nil, eris.New("assessor: subject parcel id is required")
	}

	q := url.Values{}
	if search.RadiusMiles > 0 {
		q.Set("radius_mi", strconv.FormatFloat(search.RadiusMiles, 'f', -1, 64))
	}
	if search.MaxAgeMonths > 0 {
		q.Set("max_age_months", strconv.Itoa(search.MaxAgeMonths))
	}
	if search.Limit > 0 {
		q.Set("limit", strconv.Itoa(search.Limit))
	}

	var body comparablesResponse
	err := c.get(ctx, "/parcels/"+url.PathEscape(subject.ParcelID)+"/comparables", q, &body)
	if resilience.StatusCode(err) == http.StatusNotFound {
		return []model.ComparableSale{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "assessor: comparables for %s", subject.ParcelID)
	}

	out := make([]model.ComparableSale, 0, len(body.Sales))
	for _, rec := range body.Sales {
		s, err := rec.sale()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	_, err := resilience.Call(ctx, c.policy, "assessor "+path, func(ctx context.Context) (struct{}, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return struct{}{}, eris.Wrap(err, "assessor: rate limit")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return struct{}{}, eris.Wrap(err, "assessor: create request")
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, eris.Wrap(err, "assessor: send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if err := resilience.CheckResponse(service, resp); err != nil {
			return struct{}{}, err
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, eris.Wrap(err, "assessor: decode response")
		}
		return struct{}{}, nil
	})
	return err
}
