package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cityequip/cityequip/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It has no spatial
// index; coordinates live in plain columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS equipments (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	schedule     TEXT NOT NULL DEFAULT '',
	type         TEXT NOT NULL DEFAULT '',
	is_municipal BOOLEAN NOT NULL DEFAULT 0,
	longitude    REAL NOT NULL,
	latitude     REAL NOT NULL,
	address      TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	district     TEXT NOT NULL DEFAULT '',
	agency_code  TEXT NOT NULL DEFAULT '',
	agency_name  TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equipments_type ON equipments(type);
CREATE INDEX IF NOT EXISTS idx_equipments_name ON equipments(name, id);
`

const insertSQL = `INSERT INTO equipments (id, name, schedule, type, is_municipal, longitude, latitude,
	address, phone, district, agency_code, agency_name, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM equipments`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count equipments")
	}
	return n, nil
}

// InsertMany writes all records in one transaction; any failure rolls the
// whole batch back.
func (s *SQLiteStore) InsertMany(ctx context.Context, records []model.Equipment) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for i := range records {
		stamp(&records[i], now)
		if _, err := stmt.ExecContext(ctx, values(&records[i])...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert equipment %d", i)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert")
	}
	return int64(len(records)), nil
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM equipments`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete equipments")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]model.Equipment, int64, error) {
	filter = filter.Normalize()

	where := ""
	args := []any{}
	if filter.Type != "" {
		where = ` WHERE type = ?`
		args = append(args, filter.Type)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM equipments`+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: count filtered equipments")
	}

	args = append(args, filter.Limit, filter.Offset)
	items, err := s.query(ctx,
		`SELECT `+selectColumns+` FROM equipments`+where+` ORDER BY name, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: list equipments")
	}
	return items, total, nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]model.Equipment, error) {
	items, err := s.query(ctx, `SELECT `+selectColumns+` FROM equipments ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: all equipments")
	}
	return items, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]model.Equipment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	items := []model.Equipment{}
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scan equipment")
		}
		items = append(items, *e)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Equipment, error) {
	e, err := scanEquipment(s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM equipments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get equipment %s", id)
	}
	return e, nil
}

func (s *SQLiteStore) Create(ctx context.Context, e *model.Equipment) error {
	stamp(e, time.Now().UTC())
	_, err := s.db.ExecContext(ctx, insertSQL, values(e)...)
	return eris.Wrap(err, "sqlite: create equipment")
}

func (s *SQLiteStore) Update(ctx context.Context, e *model.Equipment) error {
	e.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE equipments SET name = ?, schedule = ?, type = ?, is_municipal = ?,
			longitude = ?, latitude = ?, address = ?, phone = ?, district = ?,
			agency_code = ?, agency_name = ?, updated_at = ?
		 WHERE id = ?`,
		e.Name, e.Schedule, e.Type, e.IsMunicipal, e.Longitude(), e.Latitude(),
		e.Address, e.Phone, e.District, e.AgencyCode, e.AgencyName, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update equipment %s", e.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	stored, err := s.Get(ctx, e.ID)
	if err != nil {
		return err
	}
	e.CreatedAt = stored.CreatedAt
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM equipments WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete equipment %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
