package importer

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pocketlog/pocketlog/internal/config"
	"github.com/pocketlog/pocketlog/internal/model"
	"github.com/pocketlog/pocketlog/internal/store"
)

// Format selects the source decoder.
type Format string

const (
	FormatCSV     Format = "csv"     // this app's own tabular export
	FormatCheckin Format = "checkin" // third-party check-in service export
)

// RunState tracks where an import run is in its lifecycle.
type RunState string

const (
	StateIdle        RunState = "idle"
	StateReading     RunState = "reading"
	StateParsing     RunState = "parsing"
	StateReconciling RunState = "reconciling"
	StateCommitting  RunState = "committing"
	StateDone        RunState = "done"
	StateFailed      RunState = "failed"
)

// Failure taxonomy. The CLI matches these with errors.Is to phrase the
// summary dialog.
var (
	ErrSourceUnreadable = eris.New("importer: source unreadable")
	ErrEmptySource      = eris.New("importer: no usable rows in source")
	ErrCommitFailed     = eris.New("importer: commit failed")
)

// Summary is the result of one import run. Dropped rows (unparseable date,
// too few fields) appear in neither count.
type Summary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Importer drives an import run end to end: read, parse, reconcile against
// the catalog, dedup against stored events, commit atomically. One
// Importer value serves one run at a time; callers serialize invocations.
type Importer struct {
	store store.Store
	cfg   config.ImportConfig
	dec   *Decoder
	state RunState
}

// New creates an Importer over the given store.
func New(st store.Store, cfg config.ImportConfig) *Importer {
	return &Importer{
		store: st,
		cfg:   cfg,
		dec:   NewDecoder(cfg.DateLayouts, cfg.TimeLayouts),
		state: StateIdle,
	}
}

// Run imports every record from r. Decisions are made entirely in memory;
// the store is touched only by the read-only snapshot up front and the
// single commit at the end, so a failure never leaves a partial write.
func (imp *Importer) Run(ctx context.Context, r io.Reader, format Format) (*Summary, error) {
	log := zap.L().With(zap.String("format", string(format)))
	start := time.Now()

	imp.setState(log, StateReading)
	text, err := readSource(r)
	if err != nil {
		imp.setState(log, StateFailed)
		return nil, eris.Wrap(joinErr(ErrSourceUnreadable, err), "importer: run")
	}

	imp.setState(log, StateParsing)
	var rows [][]string
	var candidates []*Candidate
	switch format {
	case FormatCheckin:
		candidates, err = DecodeCheckins([]byte(text))
		if err != nil {
			imp.setState(log, StateFailed)
			return nil, eris.Wrap(joinErr(ErrSourceUnreadable, err), "importer: run")
		}
		if len(candidates) == 0 {
			imp.setState(log, StateFailed)
			return nil, eris.Wrap(ErrEmptySource, "importer: run")
		}
	default:
		rows = parseRows(text)
		if len(rows) == 0 {
			imp.setState(log, StateFailed)
			return nil, eris.Wrap(ErrEmptySource, "importer: run")
		}
	}

	imp.setState(log, StateReconciling)
	snap, err := imp.loadSnapshot(ctx)
	if err != nil {
		imp.setState(log, StateFailed)
		return nil, err
	}

	resolver := NewResolver(snap.categories, snap.presets, imp.cfg.DefaultCategoryColor, imp.cfg.DefaultPresetIcon)
	keys := NewKeySet()
	keys.Seed(snap.events)

	var queued []model.Event
	var skipped, dropped int

	accept := func(c *Candidate) {
		cat, preset := resolver.Resolve(c)
		if !keys.Insert(DedupKey(c.OccurredAt, c.Name)) {
			skipped++
			return
		}
		queued = append(queued, buildEvent(c, cat, preset))
	}

	// Rows are processed in file order, so when two rows collide on a
	// dedup key the earliest one wins.
	if format == FormatCheckin {
		for _, c := range candidates {
			accept(c)
		}
	} else {
		for _, fields := range rows {
			c, ok := imp.dec.DecodeRow(fields)
			if !ok {
				dropped++
				continue
			}
			accept(c)
		}
	}

	imp.setState(log, StateCommitting)
	newCategories, newPresets := resolver.Created()
	batch := store.ImportBatch{Categories: newCategories, Presets: newPresets, Events: queued}
	if err := imp.store.CommitImport(ctx, batch); err != nil {
		imp.setState(log, StateFailed)
		return nil, eris.Wrap(joinErr(ErrCommitFailed, err), "importer: run")
	}

	imp.setState(log, StateDone)
	log.Info("importer: run complete",
		zap.Int("imported", len(queued)),
		zap.Int("skipped", skipped),
		zap.Int("dropped", dropped),
		zap.Int("new_categories", len(newCategories)),
		zap.Int("new_presets", len(newPresets)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Summary{Imported: len(queued), Skipped: skipped}, nil
}

// State returns the current run state.
func (imp *Importer) State() RunState {
	return imp.state
}

func (imp *Importer) setState(log *zap.Logger, s RunState) {
	imp.state = s
	log.Debug("importer: state", zap.String("state", string(s)))
}

// parseRows splits the source into field lists: header dropped, blank
// lines dropped, rows under the minimum field count dropped.
func parseRows(text string) [][]string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // header
	}

	var rows [][]string
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := SplitFields(line)
		if len(fields) < minRowFields {
			continue
		}
		rows = append(rows, fields)
	}
	return rows
}

type snapshot struct {
	categories []model.Category
	presets    []model.Preset
	events     []model.Event
}

// loadSnapshot reads the full catalog and event log once, up front. The
// three reads are independent, so they run concurrently.
func (imp *Importer) loadSnapshot(ctx context.Context) (*snapshot, error) {
	var snap snapshot
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cats, err := imp.store.ListCategories(gCtx)
		snap.categories = cats
		return err
	})
	g.Go(func() error {
		presets, err := imp.store.ListPresets(gCtx)
		snap.presets = presets
		return err
	})
	g.Go(func() error {
		events, err := imp.store.ListEvents(gCtx, store.EventFilter{})
		snap.events = events
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "importer: load snapshot")
	}
	return &snap, nil
}

// buildEvent constructs the stored event for an accepted candidate. The
// display fields are denormalized from the decoded values so the exact
// import-time icon and color survive, falling back to the resolved preset
// only where the decoded value is empty.
func buildEvent(c *Candidate, cat *model.Category, preset *model.Preset) model.Event {
	icon := c.Icon
	if icon == "" {
		icon = preset.Icon
	}
	color := c.Color
	if color == "" {
		color = preset.Color
		if color == "" {
			color = cat.Color
		}
	}

	return model.Event{
		ID:           uuid.New().String(),
		OccurredAt:   c.OccurredAt,
		Note:         c.Note,
		PresetID:     preset.ID,
		Name:         c.Name,
		CategoryName: c.Category,
		Icon:         icon,
		ColorHex:     color,
		Geo:          c.Geo,
		LocationName: c.LocationName,
		Address:      c.Address,
		CreatedAt:    time.Now().UTC(),
	}
}

// joinErr keeps the sentinel visible to errors.Is while preserving the
// underlying cause text.
func joinErr(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return eris.Wrap(sentinel, cause.Error())
}
