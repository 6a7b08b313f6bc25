package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cityequip/cityequip/internal/db"
	"github.com/cityequip/cityequip/internal/model"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

const equipmentsTable = "equipments"

// PostgresStore implements Store using pgxpool and PostGIS.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return eris.Wrap(db.Migrate(ctx, s.pool, postgresMigrations, "migrations/postgres"), "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM equipments`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count equipments")
	}
	return n, nil
}

// InsertMany writes all records with a single COPY. The geom column is
// generated from longitude and latitude.
func (s *PostgresStore) InsertMany(ctx context.Context, records []model.Equipment) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([][]any, len(records))
	for i := range records {
		stamp(&records[i], now)
		rows[i] = values(&records[i])
	}
	n, err := db.CopyFrom(ctx, s.pool, equipmentsTable, columns, rows)
	if err != nil {
		return n, eris.Wrap(err, "postgres: insert equipments")
	}
	return n, nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM equipments`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete equipments")
	}
	return tag.RowsAffected(), nil
}

var selectColumns = strings.Join(columns, ", ")

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]model.Equipment, int64, error) {
	filter = filter.Normalize()

	where := ""
	args := []any{}
	if filter.Type != "" {
		where = ` WHERE type = $1`
		args = append(args, filter.Type)
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM equipments`+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "postgres: count filtered equipments")
	}

	n := len(args)
	query := `SELECT ` + selectColumns + ` FROM equipments` + where +
		fmt.Sprintf(` ORDER BY name, id LIMIT $%d OFFSET $%d`, n+1, n+2)
	args = append(args, filter.Limit, filter.Offset)

	items, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "postgres: list equipments")
	}
	return items, total, nil
}

func (s *PostgresStore) All(ctx context.Context) ([]model.Equipment, error) {
	items, err := s.query(ctx, `SELECT `+selectColumns+` FROM equipments ORDER BY name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: all equipments")
	}
	return items, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]model.Equipment, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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

func (s *PostgresStore) Get(ctx context.Context, id string) (*model.Equipment, error) {
	e, err := scanEquipment(s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM equipments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get equipment %s", id)
	}
	return e, nil
}

func (s *PostgresStore) Create(ctx context.Context, e *model.Equipment) error {
	stamp(e, time.Now().UTC())
	_, err := s.pool.Exec(ctx,
		`INSERT INTO equipments (`+selectColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		values(e)...,
	)
	return eris.Wrap(err, "postgres: create equipment")
}

func (s *PostgresStore) Update(ctx context.Context, e *model.Equipment) error {
	e.UpdatedAt = time.Now().UTC()
	err := s.pool.QueryRow(ctx,
		`UPDATE equipments SET name = $2, schedule = $3, type = $4, is_municipal = $5,
			longitude = $6, latitude = $7, address = $8, phone = $9, district = $10,
			agency_code = $11, agency_name = $12, updated_at = $13
		 WHERE id = $1 RETURNING created_at`,
		e.ID, e.Name, e.Schedule, e.Type, e.IsMunicipal, e.Longitude(), e.Latitude(),
		e.Address, e.Phone, e.District, e.AgencyCode, e.AgencyName, e.UpdatedAt,
	).Scan(&e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return eris.Wrapf(err, "postgres: update equipment %s", e.ID)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM equipments WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete equipment %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
