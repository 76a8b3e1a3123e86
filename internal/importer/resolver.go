package importer

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pocketlog/pocketlog/internal/model"
)

// noCategoryKey is the sentinel for presets that belong to no category.
const noCategoryKey = "\x00none"

// Resolver maps candidate category/preset names onto existing or
// newly-created catalog entities. Its caches are scoped to one import run:
// at most one category and one preset is created per distinct name (pair)
// no matter how many candidates reference it. Nothing is written to the
// store until the orchestrator commits.
type Resolver struct {
	categories map[string]*model.Category // lower(name)
	presets    map[string]*model.Preset   // lower(name) + "|" + lower(category name)

	createdCategories []model.Category
	createdPresets    []model.Preset

	categoryNameByID map[string]string
	nextSortOrder    int

	defaultColor string
	defaultIcon  string
	now          func() time.Time
}

// NewResolver builds a resolver over a read-only snapshot of the existing
// catalog.
func NewResolver(categories []model.Category, presets []model.Preset, defaultColor, defaultIcon string) *Resolver {
	r := &Resolver{
		categories:       make(map[string]*model.Category, len(categories)),
		presets:          make(map[string]*model.Preset, len(presets)),
		categoryNameByID: make(map[string]string, len(categories)),
		defaultColor:     defaultColor,
		defaultIcon:      defaultIcon,
		now:              time.Now,
	}

	for i := range categories {
		c := &categories[i]
		r.categories[normalize(c.Name)] = c
		r.categoryNameByID[c.ID] = c.Name
		if c.SortOrder >= r.nextSortOrder {
			r.nextSortOrder = c.SortOrder + 1
		}
	}
	for i := range presets {
		p := &presets[i]
		r.presets[presetKey(p.Name, r.categoryNameByID[p.CategoryID])] = p
	}
	return r
}

// Resolve attaches a category and preset to the candidate, creating either
// lazily on first reference. Matching is case-insensitive; the first-seen
// casing wins for new entities and existing entities are never renamed.
func (r *Resolver) Resolve(c *Candidate) (*model.Category, *model.Preset) {
	cat := r.resolveCategory(c.Category)
	preset := r.resolvePreset(c, cat)
	return cat, preset
}

// Created returns the entities this run created, in creation order; the
// orchestrator hands them to the commit step.
func (r *Resolver) Created() ([]model.Category, []model.Preset) {
	return r.createdCategories, r.createdPresets
}

func (r *Resolver) resolveCategory(name string) *model.Category {
	key := normalize(name)
	if cat, ok := r.categories[key]; ok {
		return cat
	}

	cat := &model.Category{
		ID:        uuid.New().String(),
		Name:      name,
		Color:     r.defaultColor,
		SortOrder: r.nextSortOrder,
		CreatedAt: r.now().UTC(),
	}
	r.nextSortOrder++

	r.categories[key] = cat
	r.categoryNameByID[cat.ID] = cat.Name
	r.createdCategories = append(r.createdCategories, *cat)
	return cat
}

func (r *Resolver) resolvePreset(c *Candidate, cat *model.Category) *model.Preset {
	key := presetKey(c.Name, cat.Name)
	if p, ok := r.presets[key]; ok {
		return p
	}

	icon := c.Icon
	if icon == "" {
		icon = r.defaultIcon
	}

	p := &model.Preset{
		ID:         uuid.New().String(),
		Name:       c.Name,
		Icon:       icon,
		Color:      c.Color,
		CategoryID: cat.ID,
		CreatedAt:  r.now().UTC(),
	}

	r.presets[key] = p
	r.createdPresets = append(r.createdPresets, *p)
	return p
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func presetKey(name, categoryName string) string {
	catKey := noCategoryKey
	if strings.TrimSpace(categoryName) != "" {
		catKey = normalize(categoryName)
	}
	return normalize(name) + "|" + catKey
}
