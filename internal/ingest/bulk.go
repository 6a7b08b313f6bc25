package ingest

import (
	"context"

	"github.com/cityequip/cityequip/internal/model"
)

// BulkLoad inserts all records in a single store call. An empty batch never
// reaches the store. Failures are not retried and partial writes are not
// rolled back.
func BulkLoad(ctx context.Context, ins Inserter, records []model.Equipment) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	n, err := ins.InsertMany(ctx, records)
	if err != nil {
		return n, newError(StoreWriteError, "bulk load", err)
	}
	return n, nil
}
