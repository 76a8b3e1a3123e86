package model

import "time"

// GeoPoint is a latitude/longitude pair. Events carry it as a single
// optional value so one coordinate can never be set without the other.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event is one logged check-in. Name, CategoryName, Icon, and ColorHex are
// a snapshot taken at creation time; they are never back-filled from the
// preset, so history stays displayable after a preset or category is
// deleted.
type Event struct {
	ID           string    `json:"id"`
	OccurredAt   time.Time `json:"occurred_at"`
	Note         string    `json:"note,omitempty"`
	PresetID     string    `json:"preset_id,omitempty"`
	Name         string    `json:"name"`
	CategoryName string    `json:"category_name"`
	Icon         string    `json:"icon"`
	ColorHex     string    `json:"color_hex"`
	Geo          *GeoPoint `json:"geo,omitempty"`
	LocationName string    `json:"location_name,omitempty"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
