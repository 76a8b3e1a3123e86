// Package model defines the domain entities for the event catalog and log.
package model

import "time"

// Category groups presets by area of life (work, health, travel, ...).
// Names are unique under case-insensitive comparison.
type Category struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Color            string    `json:"color"`
	CapturesLocation bool      `json:"captures_location"`
	SortOrder        int       `json:"sort_order"`
	CreatedAt        time.Time `json:"created_at"`
}

// Preset is a reusable event template. CategoryID is empty for presets
// that belong to no category.
type Preset struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Icon       string    `json:"icon"`
	Color      string    `json:"color,omitempty"`
	CategoryID string    `json:"category_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
