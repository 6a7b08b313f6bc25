package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/cityequip/cityequip/internal/model"
)

// ErrNotFound is returned when an equipment id does not exist.
var ErrNotFound = eris.New("equipment not found")

// Default and maximum page sizes for List.
const (
	DefaultLimit = 50
	MaxLimit     = 2000
)

// Filter specifies criteria for listing equipments.
type Filter struct {
	Type   string `json:"type,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Normalize clamps Limit to [1, MaxLimit] and Offset to >= 0.
func (f Filter) Normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Store defines persistence for equipment records.
type Store interface {
	// Bulk pipeline operations
	Count(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, records []model.Equipment) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)

	// CRUD
	List(ctx context.Context, filter Filter) ([]model.Equipment, int64, error)
	All(ctx context.Context) ([]model.Equipment, error)
	Get(ctx context.Context, id string) (*model.Equipment, error)
	Create(ctx context.Context, e *model.Equipment) error
	Update(ctx context.Context, e *model.Equipment) error
	Delete(ctx context.Context, id string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// columns is the persisted column order shared by both backends.
var columns = []string{
	"id", "name", "schedule", "type", "is_municipal", "longitude", "latitude",
	"address", "phone", "district", "agency_code", "agency_name",
	"created_at", "updated_at",
}

// stamp assigns an id when missing and sets both timestamps to now.
func stamp(e *model.Equipment, now time.Time) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = now
	e.UpdatedAt = now
}

func values(e *model.Equipment) []any {
	return []any{
		e.ID, e.Name, e.Schedule, e.Type, e.IsMunicipal, e.Longitude(), e.Latitude(),
		e.Address, e.Phone, e.District, e.AgencyCode, e.AgencyName,
		e.CreatedAt, e.UpdatedAt,
	}
}

// scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEquipment(row scanner) (*model.Equipment, error) {
	var (
		e        model.Equipment
		lon, lat float64
	)
	if err := row.Scan(
		&e.ID, &e.Name, &e.Schedule, &e.Type, &e.IsMunicipal, &lon, &lat,
		&e.Address, &e.Phone, &e.District, &e.AgencyCode, &e.AgencyName,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Location = model.NewPoint(lon, lat)
	return &e, nil
}
