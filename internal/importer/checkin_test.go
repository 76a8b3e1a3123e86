package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const joesDiner = `{
	"venue": {"name": "Joe's Diner"},
	"location": {"lat": 40.0, "lng": -74.0, "address": "1 Main St", "city": "Springfield", "state": "NJ"},
	"createdAt": "2023-05-01T12:00:00-04:00",
	"shout": "best pancakes"
}`

func TestDecodeCheckins_Array(t *testing.T) {
	candidates, err := DecodeCheckins([]byte("[" + joesDiner + "]"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Joe's Diner", c.Name)
	assert.Equal(t, "Joe's Diner", c.LocationName)
	assert.Equal(t, "Imported", c.Category)
	assert.Equal(t, checkinIcon, c.Icon)
	assert.Equal(t, checkinColor, c.Color)
	assert.Equal(t, "best pancakes", c.Note)
	assert.Equal(t, "1 Main St, Springfield, NJ", c.Address)

	require.NotNil(t, c.Geo)
	assert.InDelta(t, 40.0, c.Geo.Lat, 1e-9)
	assert.InDelta(t, -74.0, c.Geo.Lon, 1e-9)
}

func TestDecodeCheckins_OffsetHonored(t *testing.T) {
	// Local noon at -04:00 is 16:00 UTC, regardless of the device zone.
	candidates, err := DecodeCheckins([]byte("[" + joesDiner + "]"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	utc := candidates[0].OccurredAt.UTC()
	assert.Equal(t, time.Date(2023, 5, 1, 16, 0, 0, 0, time.UTC), utc)
}

func TestDecodeCheckins_WrapperObject(t *testing.T) {
	candidates, err := DecodeCheckins([]byte(`{"checkins": [` + joesDiner + `]}`))
	require.NoError(t, err)
	assert.Len(t, candidates, 1)

	candidates, err = DecodeCheckins([]byte(`{"items": [` + joesDiner + `]}`))
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestDecodeCheckins_Malformed(t *testing.T) {
	_, err := DecodeCheckins([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeCheckins([]byte("[{bad]"))
	assert.Error(t, err)
}

func TestDecodeCheckins_MissingVenueName(t *testing.T) {
	candidates, err := DecodeCheckins([]byte(`[{"createdAt": "2023-05-01T12:00:00-04:00"}]`))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Imported Event", candidates[0].Name)
}

func TestDecodeCheckins_BadTimestampDropped(t *testing.T) {
	candidates, err := DecodeCheckins([]byte(`[
		{"venue": {"name": "A"}, "createdAt": "yesterday"},
		` + joesDiner + `
	]`))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Joe's Diner", candidates[0].Name)
}

func TestDecodeCheckins_CoordinatesRequireBoth(t *testing.T) {
	candidates, err := DecodeCheckins([]byte(`[{"venue": {"name": "A"}, "location": {"lat": 40.0}, "createdAt": "2023-05-01T12:00:00-04:00"}]`))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Nil(t, candidates[0].Geo)
}

func TestDecodeCheckins_ZeroZeroKept(t *testing.T) {
	// An explicit 0,0 is a real (if unlikely) coordinate, distinct from
	// absent fields.
	candidates, err := DecodeCheckins([]byte(`[{"venue": {"name": "A"}, "location": {"lat": 0, "lng": 0}, "createdAt": "2023-05-01T12:00:00-04:00"}]`))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].Geo)
	assert.Zero(t, candidates[0].Geo.Lat)
	assert.Zero(t, candidates[0].Geo.Lon)
}
