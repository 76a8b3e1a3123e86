package importer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketlog/pocketlog/internal/config"
	"github.com/pocketlog/pocketlog/internal/model"
	"github.com/pocketlog/pocketlog/internal/store"
)

// memStore is an in-memory Store for orchestrator tests.
type memStore struct {
	categories []model.Category
	presets    []model.Preset
	events     []model.Event

	commits    int
	failCommit bool
}

func (m *memStore) ListCategories(context.Context) ([]model.Category, error) {
	return append([]model.Category(nil), m.categories...), nil
}

func (m *memStore) ListPresets(context.Context) ([]model.Preset, error) {
	return append([]model.Preset(nil), m.presets...), nil
}

func (m *memStore) ListEvents(context.Context, store.EventFilter) ([]model.Event, error) {
	return append([]model.Event(nil), m.events...), nil
}

func (m *memStore) CommitImport(_ context.Context, batch store.ImportBatch) error {
	if m.failCommit {
		return errors.New("disk full")
	}
	m.categories = append(m.categories, batch.Categories...)
	m.presets = append(m.presets, batch.Presets...)
	m.events = append(m.events, batch.Events...)
	m.commits++
	return nil
}

func (m *memStore) DeleteCategory(context.Context, string) error     { return nil }
func (m *memStore) DeletePreset(context.Context, string, bool) error { return nil }
func (m *memStore) Migrate(context.Context) error                    { return nil }
func (m *memStore) Close() error                                     { return nil }

func testImportConfig() config.ImportConfig {
	return config.ImportConfig{
		DefaultCategoryColor: "#8b5cf6",
		DefaultPresetIcon:    "circle.fill",
	}
}

const csvHeader = "Date,Time,Event,Category,Icon,Color,Notes,Latitude,Longitude,Location,Address"

func csvSource(rows ...string) string {
	return csvHeader + "\n" + strings.Join(rows, "\n") + "\n"
}

func runCSV(t *testing.T, st store.Store, source string) (*Summary, error) {
	t.Helper()
	return New(st, testImportConfig()).Run(context.Background(), strings.NewReader(source), FormatCSV)
}

func TestRun_SingleRowImportAndRerun(t *testing.T) {
	st := &memStore{}
	source := csvSource("01/02/2024,9:00 AM,Coffee,Work,cup.and.saucer.fill,#667eea,,,,,")

	summary, err := runCSV(t, st, source)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Zero(t, summary.Skipped)

	require.Len(t, st.categories, 1)
	assert.Equal(t, "Work", st.categories[0].Name)
	require.Len(t, st.presets, 1)
	assert.Equal(t, "Coffee", st.presets[0].Name)
	require.Len(t, st.events, 1)
	assert.Equal(t, "Coffee", st.events[0].Name)
	assert.Equal(t, "cup.and.saucer.fill", st.events[0].Icon)
	assert.Equal(t, "#667eea", st.events[0].ColorHex)

	// Second run on the same text is a no-op.
	summary, err = runCSV(t, st, source)
	require.NoError(t, err)
	assert.Zero(t, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	assert.Len(t, st.events, 1)
}

func TestRun_Idempotence(t *testing.T) {
	st := &memStore{}
	source := csvSource(
		"01/02/2024,9:00 AM,Coffee,Work,,,,,,,",
		"01/02/2024,12:30 PM,Lunch,Food,,,,,,,",
		"01/03/2024,7:00 AM,Run,Health,,,,,,,",
	)

	summary, err := runCSV(t, st, source)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Imported)
	assert.Zero(t, summary.Skipped)

	summary, err = runCSV(t, st, source)
	require.NoError(t, err)
	assert.Zero(t, summary.Imported)
	assert.Equal(t, 3, summary.Skipped)
}

func TestRun_IntraBatchDedup_EarliestWins(t *testing.T) {
	st := &memStore{}
	source := csvSource(
		"01/02/2024,9:00 AM,Coffee,Work,,,first,,,,",
		"01/02/2024,9:00 AM,Coffee,Work,,,second,,,,",
	)

	summary, err := runCSV(t, st, source)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)

	require.Len(t, st.events, 1)
	assert.Equal(t, "first", st.events[0].Note)
}

func TestRun_CatalogReuse(t *testing.T) {
	st := &memStore{}
	base := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	rows := make([]string, 0, 100)
	for i := range 100 {
		ts := base.Add(time.Duration(i) * time.Minute)
		rows = append(rows, "01/02/2024,"+ts.Format("15:04")+",Meeting,Work,,,,,,,")
	}

	summary, err := runCSV(t, st, csvSource(rows...))
	require.NoError(t, err)
	assert.Equal(t, 100, summary.Imported)
	assert.Zero(t, summary.Skipped)

	assert.Len(t, st.categories, 1)
	assert.Len(t, st.presets, 1)
}

func TestRun_CaseInsensitiveCategories(t *testing.T) {
	st := &memStore{}
	source := csvSource(
		"01/02/2024,9:00 AM,Coffee,work,,,,,,,",
		"01/02/2024,9:05 AM,Standup,Work,,,,,,,",
	)

	summary, err := runCSV(t, st, source)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Imported)
	assert.Len(t, st.categories, 1)
}

func TestRun_BadDateRowDropped(t *testing.T) {
	st := &memStore{}
	source := csvSource(
		"garbage,9:00 AM,Coffee,Work,,,,,,,",
		"01/02/2024,9:05 AM,Standup,Work,,,,,,,",
	)

	summary, err := runCSV(t, st, source)
	require.NoError(t, err)
	// The bad row is neither imported nor skipped and does not abort the
	// batch.
	assert.Equal(t, 1, summary.Imported)
	assert.Zero(t, summary.Skipped)
}

func TestRun_ShortRowsAndBlankLinesDropped(t *testing.T) {
	st := &memStore{}
	source := csvHeader + "\n\n  \n01/02/2024,9:00 AM,Coffee\n01/02/2024,9:05 AM,Standup,Work,,,,,,,\n"

	summary, err := runCSV(t, st, source)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Zero(t, summary.Skipped)
}

func TestRun_CRLFSource(t *testing.T) {
	st := &memStore{}
	source := strings.ReplaceAll(csvSource("01/02/2024,9:00 AM,Coffee,Work,,,,,,,"), "\n", "\r\n")

	summary, err := runCSV(t, st, source)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
}

func TestRun_EmptySource(t *testing.T) {
	st := &memStore{}

	_, err := runCSV(t, st, "")
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = runCSV(t, st, csvHeader+"\n")
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = runCSV(t, st, csvHeader+"\n\n\n")
	assert.ErrorIs(t, err, ErrEmptySource)

	assert.Zero(t, st.commits)
}

func TestRun_CommitFailure(t *testing.T) {
	st := &memStore{failCommit: true}

	summary, err := runCSV(t, st, csvSource("01/02/2024,9:00 AM,Coffee,Work,,,,,,,"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.Nil(t, summary)
	assert.Empty(t, st.events)
}

func TestRun_CheckinScenario(t *testing.T) {
	st := &memStore{}
	source := `[{
		"venue": {"name": "Joe's Diner"},
		"location": {"lat": 40.0, "lng": -74.0},
		"createdAt": "2023-05-01T12:00:00-04:00"
	}]`

	summary, err := New(st, testImportConfig()).Run(context.Background(), strings.NewReader(source), FormatCheckin)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)

	require.Len(t, st.events, 1)
	ev := st.events[0]
	assert.Equal(t, "Joe's Diner", ev.Name)
	assert.Equal(t, "Joe's Diner", ev.LocationName)
	assert.Equal(t, "Imported", ev.CategoryName)
	assert.Equal(t, time.Date(2023, 5, 1, 16, 0, 0, 0, time.UTC), ev.OccurredAt.UTC())

	require.Len(t, st.categories, 1)
	assert.Equal(t, "Imported", st.categories[0].Name)
}

func TestRun_CheckinMalformedJSON(t *testing.T) {
	st := &memStore{}

	_, err := New(st, testImportConfig()).Run(context.Background(), strings.NewReader("not json"), FormatCheckin)
	assert.ErrorIs(t, err, ErrSourceUnreadable)
}

func TestRun_CheckinEmpty(t *testing.T) {
	st := &memStore{}

	_, err := New(st, testImportConfig()).Run(context.Background(), strings.NewReader("[]"), FormatCheckin)
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestRun_DedupAgainstExistingStore(t *testing.T) {
	st := &memStore{
		events: []model.Event{{
			Name:       "Coffee",
			OccurredAt: time.Date(2024, 1, 2, 9, 0, 0, 0, time.Local),
		}},
	}

	summary, err := runCSV(t, st, csvSource("01/02/2024,9:00 AM,Coffee,Work,,,,,,,"))
	require.NoError(t, err)
	assert.Zero(t, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRun_DenormalizedFieldsFromDecodedValues(t *testing.T) {
	st := &memStore{}

	_, err := runCSV(t, st, csvSource("01/02/2024,9:00 AM,Coffee,Work,icon.a,#111111,,,,,"))
	require.NoError(t, err)

	// Same preset, different decoded icon/color at a different minute: the
	// event keeps the import-time values, the preset keeps its own.
	_, err = runCSV(t, st, csvSource("01/02/2024,9:30 AM,Coffee,Work,icon.b,#222222,,,,,"))
	require.NoError(t, err)

	require.Len(t, st.presets, 1)
	assert.Equal(t, "icon.a", st.presets[0].Icon)
	require.Len(t, st.events, 2)
	assert.Equal(t, "icon.b", st.events[1].Icon)
	assert.Equal(t, "#222222", st.events[1].ColorHex)
}

func TestRun_StateProgression(t *testing.T) {
	st := &memStore{}
	imp := New(st, testImportConfig())
	assert.Equal(t, StateIdle, imp.State())

	_, err := imp.Run(context.Background(), strings.NewReader(csvSource("01/02/2024,9:00 AM,Coffee,Work,,,,,,,")), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, StateDone, imp.State())

	_, err = imp.Run(context.Background(), strings.NewReader(""), FormatCSV)
	require.Error(t, err)
	assert.Equal(t, StateFailed, imp.State())
}
