// Package location resolves place names to coordinates with Nominatim.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"houseprice/pkg/geo"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "houseprice-geocoder/1.0"
)

var ErrNotFound = errors.New("place not found")

// Place is the best match for a query.
type Place struct {
	Name        string
	DisplayName string
	Country     string
	Coordinates geo.Coordinates
}

// nominatimResponse keeps the fields of a /search result we use.
type nominatimResponse []struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		Country string `json:"country"`
	} `json:"address"`
}

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode looks up a place name and returns the first match.
func (c *Client) Geocode(ctx context.Context, query string) (Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("accept-language", "en")

	u := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Place{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("nominatim: unexpected status %s", resp.Status)
	}

	var result nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Place{}, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(result) == 0 {
		return Place{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}

	first := result[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("parse latitude %q: %w", first.Lat, err)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("parse longitude %q: %w", first.Lon, err)
	}

	return Place{
		Name:        first.Name,
		DisplayName: first.DisplayName,
		Country:     first.Address.Country,
		Coordinates: geo.Coordinates{Lat: lat, Lon: lon},
	}, nil
}
