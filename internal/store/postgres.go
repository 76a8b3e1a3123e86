package store

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/pocketlog/pocketlog/internal/config"
	"github.com/pocketlog/pocketlog/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it,
// which keeps the PostgresStore unit-testable without a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg config.PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg.MaxConns > 0 {
		maxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		minConns = poolCfg.MinConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS categories (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	color             TEXT NOT NULL DEFAULT '',
	captures_location BOOLEAN NOT NULL DEFAULT FALSE,
	sort_order        INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name ON categories(lower(name));

CREATE TABLE IF NOT EXISTS presets (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	icon        TEXT NOT NULL DEFAULT '',
	color       TEXT,
	category_id TEXT REFERENCES categories(id) ON DELETE CASCADE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_presets_category_id ON presets(category_id);

CREATE TABLE IF NOT EXISTS events (
	id            TEXT PRIMARY KEY,
	occurred_at   TIMESTAMPTZ NOT NULL,
	note          TEXT,
	preset_id     TEXT REFERENCES presets(id) ON DELETE CASCADE,
	name          TEXT NOT NULL,
	category_name TEXT NOT NULL DEFAULT '',
	icon          TEXT NOT NULL DEFAULT '',
	color_hex     TEXT NOT NULL DEFAULT '',
	latitude      DOUBLE PRECISION,
	longitude     DOUBLE PRECISION,
	location_name TEXT,
	address       TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events(occurred_at);
CREATE INDEX IF NOT EXISTS idx_events_preset_id ON events(preset_id);
CREATE INDEX IF NOT EXISTS idx_events_category_name ON events(category_name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, color, captures_location, sort_order, created_at
		 FROM categories ORDER BY sort_order, created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list categories")
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.CapturesLocation, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan category")
		}
		cats = append(cats, c)
	}
	return cats, eris.Wrap(rows.Err(), "postgres: list categories iterate")
}

func (s *PostgresStore) ListPresets(ctx context.Context) ([]model.Preset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, icon, color, category_id, created_at
		 FROM presets ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list presets")
	}
	defer rows.Close()

	var presets []model.Preset
	for rows.Next() {
		var p model.Preset
		var color, categoryID *string
		if err := rows.Scan(&p.ID, &p.Name, &p.Icon, &color, &categoryID, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan preset")
		}
		if color != nil {
			p.Color = *color
		}
		if categoryID != nil {
			p.CategoryID = *categoryID
		}
		presets = append(presets, p)
	}
	return presets, eris.Wrap(rows.Err(), "postgres: list presets iterate")
}

func (s *PostgresStore) ListEvents(ctx context.Context, filter EventFilter) ([]model.Event, error) {
	query := `SELECT id, occurred_at, note, preset_id, name, category_name, icon, color_hex,
	          latitude, longitude, location_name, address, created_at
	          FROM events WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if !filter.Since.IsZero() {
		query += ` AND occurred_at >= ` + arg(filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		query += ` AND occurred_at < ` + arg(filter.Until.UTC())
	}
	if filter.Category != "" {
		query += ` AND lower(category_name) = lower(` + arg(filter.Category) + `)`
	}
	query += ` ORDER BY occurred_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ` + arg(filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list events")
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		ev, err := scanPgEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, eris.Wrap(rows.Err(), "postgres: list events iterate")
}

// CommitImport writes the whole batch in one transaction.
func (s *PostgresStore) CommitImport(ctx context.Context, batch ImportBatch) error {
	if batch.Empty() {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin import tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, c := range batch.Categories {
		if _, err := tx.Exec(ctx,
			`INSERT INTO categories (id, name, color, captures_location, sort_order, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, c.Name, c.Color, c.CapturesLocation, c.SortOrder, c.CreatedAt.UTC(),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert category %s", c.Name)
		}
	}

	for _, p := range batch.Presets {
		if _, err := tx.Exec(ctx,
			`INSERT INTO presets (id, name, icon, color, category_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.Name, p.Icon, nullString(p.Color), nullString(p.CategoryID), p.CreatedAt.UTC(),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert preset %s", p.Name)
		}
	}

	for _, ev := range batch.Events {
		var lat, lon any
		if ev.Geo != nil {
			lat, lon = ev.Geo.Lat, ev.Geo.Lon
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO events (id, occurred_at, note, preset_id, name, category_name, icon, color_hex,
			 latitude, longitude, location_name, address, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			ev.ID, ev.OccurredAt.UTC(), nullString(ev.Note), nullString(ev.PresetID),
			ev.Name, ev.CategoryName, ev.Icon, ev.ColorHex,
			lat, lon, nullString(ev.LocationName), nullString(ev.Address), ev.CreatedAt.UTC(),
		); err != nil {
			return eris.Wrapf(err, "postgres: insert event %s", ev.ID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit import tx")
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete category %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("category not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) DeletePreset(ctx context.Context, id string, orphan bool) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin delete preset tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if orphan {
		if _, err := tx.Exec(ctx, `UPDATE events SET preset_id = NULL WHERE preset_id = $1`, id); err != nil {
			return eris.Wrapf(err, "postgres: orphan events of preset %s", id)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM presets WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete preset %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("preset not found: %s", id)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit delete preset tx")
}

func scanPgEvent(rows pgx.Rows) (*model.Event, error) {
	var ev model.Event
	var note, presetID, locName, address *string
	var lat, lon *float64

	err := rows.Scan(&ev.ID, &ev.OccurredAt, &note, &presetID, &ev.Name, &ev.CategoryName,
		&ev.Icon, &ev.ColorHex, &lat, &lon, &locName, &address, &ev.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan event")
	}
	if note != nil {
		ev.Note = *note
	}
	if presetID != nil {
		ev.PresetID = *presetID
	}
	if locName != nil {
		ev.LocationName = *locName
	}
	if address != nil {
		ev.Address = *address
	}
	if lat != nil && lon != nil {
		ev.Geo = &model.GeoPoint{Lat: *lat, Lon: *lon}
	}
	return &ev, nil
}
