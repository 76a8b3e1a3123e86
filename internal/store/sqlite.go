package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pocketlog/pocketlog/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// The pragmas below are per-connection; a single connection keeps them
	// in force. The store has exactly one local user anyway.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS categories (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	color             TEXT NOT NULL DEFAULT '',
	captures_location INTEGER NOT NULL DEFAULT 0,
	sort_order        INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name ON categories(lower(name));

CREATE TABLE IF NOT EXISTS presets (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	icon        TEXT NOT NULL DEFAULT '',
	color       TEXT,
	category_id TEXT REFERENCES categories(id) ON DELETE CASCADE,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_presets_category_id ON presets(category_id);

CREATE TABLE IF NOT EXISTS events (
	id            TEXT PRIMARY KEY,
	occurred_at   DATETIME NOT NULL,
	note          TEXT,
	preset_id     TEXT REFERENCES presets(id) ON DELETE CASCADE,
	name          TEXT NOT NULL,
	category_name TEXT NOT NULL DEFAULT '',
	icon          TEXT NOT NULL DEFAULT '',
	color_hex     TEXT NOT NULL DEFAULT '',
	latitude      REAL,
	longitude     REAL,
	location_name TEXT,
	address       TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events(occurred_at);
CREATE INDEX IF NOT EXISTS idx_events_preset_id ON events(preset_id);
CREATE INDEX IF NOT EXISTS idx_events_category_name ON events(category_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, captures_location, sort_order, created_at
		 FROM categories ORDER BY sort_order, created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list categories")
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.CapturesLocation, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan category")
		}
		cats = append(cats, c)
	}
	return cats, eris.Wrap(rows.Err(), "sqlite: list categories iterate")
}

func (s *SQLiteStore) ListPresets(ctx context.Context) ([]model.Preset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, icon, color, category_id, created_at
		 FROM presets ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list presets")
	}
	defer rows.Close()

	var presets []model.Preset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, *p)
	}
	return presets, eris.Wrap(rows.Err(), "sqlite: list presets iterate")
}

func (s *SQLiteStore) ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := `SELECT id, occurred_at, note, preset_id, name, category_name, icon, color_hex,
	          latitude, longitude, location_name, address, created_at
	          FROM events WHERE 1=1`
	var args []any

	if !filter.Since.IsZero() {
		query += ` AND occurred_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		query += ` AND occurred_at < ?`
		args = append(args, filter.Until.UTC())
	}
	if filter.Category != "" {
		query += ` AND lower(category_name) = lower(?)`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY occurred_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list events")
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: list events iterate")
}

// CommitImport writes the whole batch in one transaction.
func (s *SQLiteStore) CommitImport(ctx context.Context, batch ImportBatch) error {
	if batch.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin import tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, c := range batch.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, color, captures_location, sort_order, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Color, c.CapturesLocation, c.SortOrder, c.CreatedAt.UTC(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert category %s", c.Name)
		}
	}

	for _, p := range batch.Presets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO presets (id, name, icon, color, category_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Icon, nullString(p.Color), nullString(p.CategoryID), p.CreatedAt.UTC(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert preset %s", p.Name)
		}
	}

	for _, ev := range batch.Events {
		var lat, lon any
		if ev.Geo != nil {
			lat, lon = ev.Geo.Lat, ev.Geo.Lon
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (id, occurred_at, note, preset_id, name, category_name, icon, color_hex,
			 latitude, longitude, location_name, address, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.OccurredAt.UTC(), nullString(ev.Note), nullString(ev.PresetID),
			ev.Name, ev.CategoryName, ev.Icon, ev.ColorHex,
			lat, lon, nullString(ev.LocationName), nullString(ev.Address), ev.CreatedAt.UTC(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert event %s", ev.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit import tx")
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete category %s", id)
	}
	return checkRowsAffected(res, "category", id)
}

func (s *SQLiteStore) DeletePreset(ctx context.Context, id string, orphan bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete preset tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if orphan {
		// Events keep their denormalized display fields.
		if _, err := tx.ExecContext(ctx, `UPDATE events SET preset_id = NULL WHERE preset_id = ?`, id); err != nil {
			return eris.Wrapf(err, "sqlite: orphan events of preset %s", id)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete preset %s", id)
	}
	if err := checkRowsAffected(res, "preset", id); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit delete preset tx")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPreset(row scannable) (*model.Preset, error) {
	var p model.Preset
	var color, categoryID sql.NullString

	if err := row.Scan(&p.ID, &p.Name, &p.Icon, &color, &categoryID, &p.CreatedAt); err != nil {
		return nil, eris.Wrap(err, "sqlite: scan preset")
	}
	p.Color = color.String
	p.CategoryID = categoryID.String
	return &p, nil
}

func scanEvent(row scannable) (*model.Event, error) {
	var ev model.Event
	var note, presetID, locName, address sql.NullString
	var lat, lon sql.NullFloat64

	err := row.Scan(&ev.ID, &ev.OccurredAt, &note, &presetID, &ev.Name, &ev.CategoryName,
		&ev.Icon, &ev.ColorHex, &lat, &lon, &locName, &address, &ev.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan event")
	}
	ev.Note = note.String
	ev.PresetID = presetID.String
	ev.LocationName = locName.String
	ev.Address = address.String
	if lat.Valid && lon.Valid {
		ev.Geo = &model.GeoPoint{Lat: lat.Float64, Lon: lon.Float64}
	}
	return &ev, nil
}
