// Package store persists the event catalog and log. Two drivers implement
// the Store interface: SQLite (default, local single-user file) and
// PostgreSQL, selected by configuration.
package store

import (
	"context"
	"time"

	"github.com/pocketlog/pocketlog/internal/model"
)

// EventFilter specifies criteria for listing events.
type EventFilter struct {
	Since    time.Time `json:"since,omitempty"`
	Until    time.Time `json:"until,omitempty"`
	Category string    `json:"category,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}

// ImportBatch is the unit of commit for an import run: every newly created
// category and preset plus every accepted event, written in one
// transaction. A failure rolls the whole batch back.
type ImportBatch struct {
	Categories []model.Category
	Presets    []model.Preset
	Events     []model.Event
}

// Empty reports whether the batch would write nothing.
func (b ImportBatch) Empty() bool {
	return len(b.Categories) == 0 && len(b.Presets) == 0 && len(b.Events) == 0
}

// Store defines the persistence interface for the catalog and event log.
type Store interface {
	// Catalog
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListPresets(ctx context.Context) ([]model.Preset, error)
	DeleteCategory(ctx context.Context, id string) error
	// DeletePreset removes a preset. With orphan=false its events are
	// deleted too; with orphan=true the events are kept and their preset
	// link is cleared (their denormalized fields keep them displayable).
	DeletePreset(ctx context.Context, id string, orphan bool) error

	// Events
	ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error)
	CommitImport(ctx context.Context, batch ImportBatch) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
