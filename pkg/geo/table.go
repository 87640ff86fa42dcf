// Package geo resolves supported city names to coordinates used as model
// features. Lookups never fail: unknown names resolve to the table default.
package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mmcloughlin/geohash"
	"golang.org/x/text/unicode/norm"
)

// DefaultLocation is the city used when a request carries no location.
const DefaultLocation = "delhi"

// GeohashPrecision gives cells of roughly 150m.
const GeohashPrecision = 7

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinates) Geohash() string {
	return geohash.EncodeWithPrecision(c.Lat, c.Lon, GeohashPrecision)
}

var indianCities = map[string]Coordinates{
	"delhi":     {Lat: 28.6139, Lon: 77.2090},
	"mumbai":    {Lat: 19.0760, Lon: 72.8777},
	"bangalore": {Lat: 12.9716, Lon: 77.5946},
	"chennai":   {Lat: 13.0827, Lon: 80.2707},
	"kolkata":   {Lat: 22.5726, Lon: 88.3639},
	"pune":      {Lat: 18.5204, Lon: 73.8567},
	"hyderabad": {Lat: 17.3850, Lon: 78.4867},
	"ahmedabad": {Lat: 23.0225, Lon: 72.5714},
	"jaipur":    {Lat: 26.9124, Lon: 75.7873},
	"lucknow":   {Lat: 26.8467, Lon: 80.9462},
}

// Table is an immutable mapping from normalized location key to coordinates.
// It is safe for concurrent use.
type Table struct {
	entries    map[string]Coordinates
	defaultKey string
	fallback   Coordinates
}

// DefaultTable returns the built-in table of supported Indian cities with
// Delhi as the fallback coordinate.
func DefaultTable() *Table {
	t, _ := NewTable(indianCities, DefaultLocation)
	return t
}

// NewTable copies entries into a new table. defaultKey must name one of the
// entries; its coordinates are returned for unknown keys.
func NewTable(entries map[string]Coordinates, defaultKey string) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("location table is empty")
	}
	t := &Table{entries: make(map[string]Coordinates, len(entries))}
	for name, c := range entries {
		key := NormalizeKey(name)
		if key == "" {
			return nil, fmt.Errorf("location table contains an empty name")
		}
		t.entries[key] = c
	}
	t.defaultKey = NormalizeKey(defaultKey)
	fallback, ok := t.entries[t.defaultKey]
	if !ok {
		return nil, fmt.Errorf("default location %q is not in the table", defaultKey)
	}
	t.fallback = fallback
	return t, nil
}

type tableFile struct {
	Default   string                 `json:"default"`
	Locations map[string]Coordinates `json:"locations"`
}

// LoadTable reads a JSON location table:
//
//	{"default": "delhi", "locations": {"delhi": {"lat": 28.6139, "lon": 77.2090}}}
//
// An omitted default means DefaultLocation.
func LoadTable(r io.Reader) (*Table, error) {
	var f tableFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode location table: %w", err)
	}
	if f.Default == "" {
		f.Default = DefaultLocation
	}
	return NewTable(f.Locations, f.Default)
}

// WriteTable encodes the given entries in the format read by LoadTable.
func WriteTable(w io.Writer, defaultKey string, entries map[string]Coordinates) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tableFile{Default: defaultKey, Locations: entries})
}

// CoordinatesFor returns the coordinates for key, or the default coordinate if
// the key is not known.
func (t *Table) CoordinatesFor(key string) Coordinates {
	if c, ok := t.entries[NormalizeKey(key)]; ok {
		return c
	}
	return t.fallback
}

// Has reports whether key names a known location.
func (t *Table) Has(key string) bool {
	_, ok := t.entries[NormalizeKey(key)]
	return ok
}

// Default returns the fallback coordinate.
func (t *Table) Default() Coordinates {
	return t.fallback
}

// DefaultKey returns the key whose coordinates are the fallback.
func (t *Table) DefaultKey() string {
	return t.defaultKey
}

// Entries returns a copy of the table.
func (t *Table) Entries() map[string]Coordinates {
	out := make(map[string]Coordinates, len(t.entries))
	for k, c := range t.entries {
		out[k] = c
	}
	return out
}

// Names returns the known keys in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeKey folds a user supplied location to its table key.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
}
