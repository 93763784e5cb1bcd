package listings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/appraisal-cli/internal/model"
	"github.com/sells-group/appraisal-cli/internal/resilience"
)

var fixedNow = func() time.Time { return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC) }

const salesJSON = `{"listings": [
  {"mls_id": "A1", "parcel_id": "C1", "address": {"street": "1 Oak Ave", "city": "Miami", "state": "fl", "postal_code": "33101"},
   "sqft": 1750, "lot_sqft": 7000, "beds": 3, "baths": 2, "year_built": 2004, "garage_spaces": 2,
   "status": "Sold", "close_price": 305000, "close_date": "2026-04-02", "distance_mi": 0.3},
  {"mls_id": "A2", "address": {"street": "2 Oak Ave"}, "status": "active", "close_price": 0},
  {"mls_id": "A3", "address": {"street": "3 Oak Ave"}, "status": "closed", "close_price": 299000, "close_date": "not a date"},
  {"mls_id": "A4", "address": {"street": "4 Oak Ave"}, "status": "closed", "close_price": 0, "close_date": "2026-01-01"},
  {"mls_id": "A5", "address": {"street": "5 Oak Ave", "postal_code": "33101"}, "status": "closed", "close_price": 312000, "close_date": "2026-01-20", "pool": true}
]}`

func testSubject() *model.SubjectProperty {
	return &model.SubjectProperty{
		ParcelID:  "P1",
		Address:   model.Address{Line1: "123 Main St", Zip: "33101"},
		Latitude:  25.77,
		Longitude: -80.19,
	}
}

func TestRecentSales(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sales", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "sold", q.Get("status"))
		assert.Equal(t, "33101", q.Get("postal_code"))
		assert.Equal(t, "25.770000", q.Get("lat"))
		assert.Equal(t, "1", q.Get("radius_mi"))
		assert.Equal(t, "2025-06-15", q.Get("closed_since"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(salesJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", WithClock(fixedNow))
	out, err := c.RecentSales(context.Background(), testSubject(), model.CompSearch{RadiusMiles: 1, MaxAgeMonths: 12, Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "1 Oak Ave", out[0].Address.Line1)
	assert.Equal(t, "FL", out[0].Address.State)
	assert.Equal(t, model.SourceListings, out[0].Source)
	assert.Equal(t, 305000.0, out[0].SalePrice)
	assert.Equal(t, 1750.0, out[0].LivingArea)
	assert.Equal(t, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC), out[0].SaleDate)
	assert.True(t, out[1].Pool)
}

func TestRecentSales_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"listings": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithRetries(3, time.Millisecond, 2*time.Millisecond))
	out, err := c.RecentSales(context.Background(), testSubject(), model.CompSearch{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRecentSales_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithRetries(1, time.Millisecond, time.Millisecond))
	_, err := c.RecentSales(context.Background(), testSubject(), model.CompSearch{})
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resilience.StatusCode(err))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRecentSales_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithRetries(3, time.Millisecond, time.Millisecond))
	_, err := c.RecentSales(context.Background(), testSubject(), model.CompSearch{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRecentSales_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"listings": [`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").RecentSales(context.Background(), testSubject(), model.CompSearch{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestRecentSales_NilSubject(t *testing.T) {
	_, err := NewClient("http://unused", "").RecentSales(context.Background(), nil, model.CompSearch{})
	require.Error(t, err)
}
