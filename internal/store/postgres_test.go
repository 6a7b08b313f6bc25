package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityequip/cityequip/internal/db"
	"github.com/cityequip/cityequip/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func equipmentRows() *pgxmock.Rows {
	return pgxmock.NewRows(columns)
}

func addEquipmentRow(rows *pgxmock.Rows, id, name string) *pgxmock.Rows {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return rows.AddRow(id, name, "9-21h", "Cultura", true, 2.1, 41.5,
		"Carrer Major 1", "931234567", "Gràcia", "0801", "Ajuntament", ts, ts)
}

func TestPostgresStore_Count(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM equipments`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Count_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM equipments`).
		WillReturnError(errors.New("connection reset"))

	_, err := s.Count(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count equipments")
}

func TestPostgresStore_InsertMany_UsesCopy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"equipments"}, columns).WillReturnResult(2)

	recs := []model.Equipment{
		{Name: "a", Location: model.NewPoint(2.1, 41.5)},
		{Name: "b", Location: model.NewPoint(2.2, 41.6)},
	}
	n, err := s.InsertMany(context.Background(), recs)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NotEmpty(t, recs[0].ID)
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
	assert.False(t, recs[0].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertMany_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	n, err := s.InsertMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertMany_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"equipments"}, columns).
		WillReturnError(errors.New("duplicate key"))

	_, err := s.InsertMany(context.Background(), []model.Equipment{{Location: model.NewPoint(1, 2)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert equipments")
}

func TestPostgresStore_DeleteAll(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM equipments`).
		WillReturnResult(pgxmock.NewResult("DELETE", 12))

	n, err := s.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List_ByType(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM equipments WHERE type = \$1`).
		WithArgs("Cultura").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	rows := addEquipmentRow(equipmentRows(), "id-1", "Ateneu")
	mock.ExpectQuery(`FROM equipments WHERE type = \$1 ORDER BY name, id LIMIT \$2 OFFSET \$3`).
		WithArgs("Cultura", 2, 2).
		WillReturnRows(rows)

	items, total, err := s.List(context.Background(), Filter{Type: "Cultura", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Ateneu", items[0].Name)
	assert.Equal(t, []float64{2.1, 41.5}, items[0].Location.FlatCoords())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM equipments`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`ORDER BY name, id LIMIT \$1 OFFSET \$2`).
		WithArgs(DefaultLimit, 0).
		WillReturnRows(equipmentRows())

	items, total, err := s.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM equipments WHERE id = \$1`).
		WithArgs("id-1").
		WillReturnRows(addEquipmentRow(equipmentRows(), "id-1", "Ateneu"))

	e, err := s.Get(context.Background(), "id-1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", e.ID)
	assert.True(t, e.IsMunicipal)
	assert.Equal(t, "Gràcia", e.District)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM equipments WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Create(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO equipments`).
		WithArgs(pgxmock.AnyArg(), "Casal", "", "Cultura", false, 2.1, 41.5,
			"", "", "", "", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	e := &model.Equipment{Name: "Casal", Type: "Cultura", Location: model.NewPoint(2.1, 41.5)}
	require.NoError(t, s.Create(context.Background(), e))
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Update(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE equipments SET .* WHERE id = \$1 RETURNING created_at`).
		WithArgs("id-1", "Casal", "", "Cultura", false, 2.1, 41.5,
			"", "", "", "", "", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	e := &model.Equipment{ID: "id-1", Name: "Casal", Type: "Cultura", Location: model.NewPoint(2.1, 41.5)}
	require.NoError(t, s.Update(context.Background(), e))
	assert.Equal(t, created, e.CreatedAt)
	assert.False(t, e.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Update_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`UPDATE equipments`).
		WithArgs("missing", "", "", "", false, 1.0, 2.0,
			"", "", "", "", "", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	err := s.Update(context.Background(), &model.Equipment{ID: "missing", Location: model.NewPoint(1, 2)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Delete(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM equipments WHERE id = \$1`).
		WithArgs("id-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM equipments WHERE id = \$1`).
		WithArgs("id-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.Delete(context.Background(), "id-1"))
	assert.ErrorIs(t, s.Delete(context.Background(), "id-1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate_AlreadyApplied(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(db.MigrationLockID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(`SELECT filename FROM schema_migrations`).
		WillReturnRows(pgxmock.NewRows([]string{"filename"}).AddRow("001_equipments.sql"))
	mock.ExpectCommit()

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate_AppliesEquipmentsTable(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(db.MigrationLockID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(`SELECT filename FROM schema_migrations`).
		WillReturnRows(pgxmock.NewRows([]string{"filename"}))
	mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS equipments.*geometry\(Point, 4326\)`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).
		WithArgs("001_equipments.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PingAndClose(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	closed := false
	s.closeFn = func() { closed = true }

	mock.ExpectExec(`SELECT 1`).WillReturnResult(pgxmock.NewResult("SELECT", 1))

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.True(t, closed)
	assert.Equal(t, s.pool, s.Pool())
}

func TestFilter_Normalize(t *testing.T) {
	assert.Equal(t, Filter{Limit: DefaultLimit}, Filter{}.Normalize())
	assert.Equal(t, Filter{Limit: MaxLimit}, Filter{Limit: 10000}.Normalize())
	assert.Equal(t, Filter{Limit: 5}, Filter{Limit: 5, Offset: -3}.Normalize())
}
