package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketlog/pocketlog/internal/model"
)

func newTestResolver(categories []model.Category, presets []model.Preset) *Resolver {
	return NewResolver(categories, presets, "#8b5cf6", "circle.fill")
}

func candidate(name, category string) *Candidate {
	return &Candidate{
		OccurredAt: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		Name:       name,
		Category:   category,
	}
}

func TestResolver_CreatesCategoryAndPresetOnce(t *testing.T) {
	r := newTestResolver(nil, nil)

	for range 100 {
		r.Resolve(candidate("Meeting", "Work"))
	}

	cats, presets := r.Created()
	require.Len(t, cats, 1)
	require.Len(t, presets, 1)
	assert.Equal(t, "Work", cats[0].Name)
	assert.Equal(t, "Meeting", presets[0].Name)
	assert.Equal(t, cats[0].ID, presets[0].CategoryID)
}

func TestResolver_CaseInsensitiveCategoryMatch(t *testing.T) {
	r := newTestResolver(nil, nil)

	c1, _ := r.Resolve(candidate("Coffee", "work"))
	c2, _ := r.Resolve(candidate("Coffee", "Work"))
	c3, _ := r.Resolve(candidate("Coffee", "WORK"))

	assert.Same(t, c1, c2)
	assert.Same(t, c1, c3)

	cats, _ := r.Created()
	require.Len(t, cats, 1)
	// First-seen casing wins for new entities.
	assert.Equal(t, "work", cats[0].Name)
}

func TestResolver_ExistingCategoryNeverRenamed(t *testing.T) {
	existing := []model.Category{{ID: "cat-1", Name: "Work", Color: "#111111", SortOrder: 3}}
	r := newTestResolver(existing, nil)

	cat, _ := r.Resolve(candidate("Coffee", "WORK"))
	assert.Equal(t, "cat-1", cat.ID)
	assert.Equal(t, "Work", cat.Name)

	cats, _ := r.Created()
	assert.Empty(t, cats)
}

func TestResolver_ExistingPresetReused(t *testing.T) {
	existing := []model.Category{{ID: "cat-1", Name: "Work"}}
	presets := []model.Preset{{ID: "pre-1", Name: "Coffee", CategoryID: "cat-1"}}
	r := newTestResolver(existing, presets)

	_, p := r.Resolve(candidate("coffee", "work"))
	assert.Equal(t, "pre-1", p.ID)

	_, created := r.Created()
	assert.Empty(t, created)
}

func TestResolver_SamePresetNameDifferentCategory(t *testing.T) {
	r := newTestResolver(nil, nil)

	_, p1 := r.Resolve(candidate("Coffee", "Work"))
	_, p2 := r.Resolve(candidate("Coffee", "Home"))

	assert.NotEqual(t, p1.ID, p2.ID)

	cats, presets := r.Created()
	assert.Len(t, cats, 2)
	assert.Len(t, presets, 2)
}

func TestResolver_SortOrderContinues(t *testing.T) {
	existing := []model.Category{
		{ID: "a", Name: "Work", SortOrder: 0},
		{ID: "b", Name: "Home", SortOrder: 4},
	}
	r := newTestResolver(existing, nil)

	r.Resolve(candidate("Run", "Health"))
	r.Resolve(candidate("Read", "Leisure"))

	cats, _ := r.Created()
	require.Len(t, cats, 2)
	assert.Equal(t, 5, cats[0].SortOrder)
	assert.Equal(t, 6, cats[1].SortOrder)
}

func TestResolver_SortOrderStartsAtZero(t *testing.T) {
	r := newTestResolver(nil, nil)
	r.Resolve(candidate("Run", "Health"))

	cats, _ := r.Created()
	require.Len(t, cats, 1)
	assert.Zero(t, cats[0].SortOrder)
}

func TestResolver_DefaultsApplied(t *testing.T) {
	r := newTestResolver(nil, nil)

	cat, p := r.Resolve(candidate("Run", "Health"))
	assert.Equal(t, "#8b5cf6", cat.Color)
	assert.Equal(t, "circle.fill", p.Icon)
	assert.Empty(t, p.Color)
}

func TestResolver_CandidateIconAndColorUsed(t *testing.T) {
	r := newTestResolver(nil, nil)

	c := candidate("Coffee", "Work")
	c.Icon = "cup.and.saucer.fill"
	c.Color = "#667eea"
	_, p := r.Resolve(c)

	assert.Equal(t, "cup.and.saucer.fill", p.Icon)
	assert.Equal(t, "#667eea", p.Color)
}
