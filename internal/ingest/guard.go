package ingest

import (
	"context"

	"github.com/cityequip/cityequip/internal/model"
)

// Counter reports how many equipment records the store holds.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Inserter writes a batch of equipment records in one call.
type Inserter interface {
	InsertMany(ctx context.Context, records []model.Equipment) (int64, error)
}

// Deleter removes every equipment record.
type Deleter interface {
	DeleteAll(ctx context.Context) (int64, error)
}

// Store is the subset of the equipment store the pipeline consumes.
type Store interface {
	Counter
	Inserter
	Deleter
}

// Decision is the seed guard verdict.
type Decision struct {
	Seed     bool
	Existing int64
}

// ShouldSeed allows a seed only when the store is empty. The check is not
// atomic with the insert that follows; a single writer at startup is assumed.
func ShouldSeed(ctx context.Context, c Counter) (Decision, error) {
	n, err := c.Count(ctx)
	if err != nil {
		return Decision{}, newError(StoreReadError, "seed guard", err)
	}
	return Decision{Seed: n == 0, Existing: n}, nil
}
