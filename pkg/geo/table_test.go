package geo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatesFor(t *testing.T) {
	table := DefaultTable()
	delhi := Coordinates{Lat: 28.6139, Lon: 77.2090}

	cases := []struct {
		name  string
		input string
		want  Coordinates
	}{
		{"exact match", "mumbai", Coordinates{Lat: 19.0760, Lon: 72.8777}},
		{"case-insensitive", "BaNgAlOrE", Coordinates{Lat: 12.9716, Lon: 77.5946}},
		{"surrounding spaces", "  pune ", Coordinates{Lat: 18.5204, Lon: 73.8567}},
		{"unknown", "atlantis", delhi},
		{"empty", "", delhi},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, table.CoordinatesFor(tc.input))
		})
	}
}

func TestUnknownMatchesMissing(t *testing.T) {
	table := DefaultTable()
	assert.Equal(t, table.CoordinatesFor(DefaultLocation), table.CoordinatesFor("atlantis"))
	assert.Equal(t, table.Default(), table.CoordinatesFor("atlantis"))
	assert.False(t, table.Has("atlantis"))
	assert.True(t, table.Has("Delhi"))
}

func TestDefaultTableNames(t *testing.T) {
	names := DefaultTable().Names()
	assert.Len(t, names, 10)
	assert.Equal(t, "ahmedabad", names[0])
	assert.Equal(t, "pune", names[len(names)-1])
}

func TestNewTableRejectsMissingDefault(t *testing.T) {
	_, err := NewTable(map[string]Coordinates{"goa": {Lat: 15.2993, Lon: 74.1240}}, "delhi")
	require.Error(t, err)

	_, err = NewTable(nil, "delhi")
	require.Error(t, err)
}

func TestNewTableCopiesEntries(t *testing.T) {
	entries := map[string]Coordinates{"Goa": {Lat: 15.2993, Lon: 74.1240}}
	table, err := NewTable(entries, "goa")
	require.NoError(t, err)

	entries["goa"] = Coordinates{}
	assert.Equal(t, Coordinates{Lat: 15.2993, Lon: 74.1240}, table.CoordinatesFor("goa"))
}

func TestLoadTable(t *testing.T) {
	src := `{"default":"Surat","locations":{"Surat":{"lat":21.1702,"lon":72.8311},"indore":{"lat":22.7196,"lon":75.8577}}}`
	table, err := LoadTable(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, Coordinates{Lat: 22.7196, Lon: 75.8577}, table.CoordinatesFor("INDORE"))
	assert.Equal(t, Coordinates{Lat: 21.1702, Lon: 72.8311}, table.CoordinatesFor("nowhere"))
}

func TestLoadTableDefaultsToDelhi(t *testing.T) {
	_, err := LoadTable(strings.NewReader(`{"locations":{"goa":{"lat":15.2993,"lon":74.1240}}}`))
	require.Error(t, err, "delhi is the implicit default and must be present")

	_, err = LoadTable(strings.NewReader(`not json`))
	require.Error(t, err)
}

func TestWriteTableRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, "delhi", indianCities))

	table, err := LoadTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultTable().Names(), table.Names())
}

func TestEntriesIsACopy(t *testing.T) {
	table, err := LoadTable(strings.NewReader(`{"default":"Surat","locations":{"Surat":{"lat":21.1702,"lon":72.8311}}}`))
	require.NoError(t, err)
	assert.Equal(t, "surat", table.DefaultKey())

	entries := table.Entries()
	entries["surat"] = Coordinates{}
	assert.Equal(t, Coordinates{Lat: 21.1702, Lon: 72.8311}, table.CoordinatesFor("surat"))
}

func TestGeohash(t *testing.T) {
	delhi := DefaultTable().Default()
	gh := delhi.Geohash()
	assert.Len(t, gh, GeohashPrecision)
	assert.Equal(t, "ttnf", gh[:4])
	assert.NotEqual(t, gh, DefaultTable().CoordinatesFor("mumbai").Geohash())
}
