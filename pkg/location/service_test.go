package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Pune", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"lat":"18.5213738","lon":"73.8545071","name":"Pune",
			"display_name":"Pune, Maharashtra, India","address":{"country":"India"}}]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithUserAgent("test-agent"))
	place, err := c.Geocode(context.Background(), "Pune")
	require.NoError(t, err)

	assert.Equal(t, "Pune", place.Name)
	assert.Equal(t, "India", place.Country)
	assert.InDelta(t, 18.5213738, place.Coordinates.Lat, 1e-9)
	assert.InDelta(t, 73.8545071, place.Coordinates.Lon, 1e-9)
}

func TestGeocode_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Geocode(context.Background(), "Nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGeocode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"status", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }, "unexpected status"},
		{"body", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{`)) }, "decode nominatim response"},
		{"latitude", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`[{"lat":"north","lon":"1"}]`)) }, "parse latitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(WithBaseURL(srv.URL)).Geocode(context.Background(), "x")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
