// Package ingest loads the municipal equipment extract into the store: it
// decodes the source, splits and tokenizes lines, binds the header, maps rows
// to records and inserts them in one batch.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cityequip/cityequip/internal/model"
)

// Source locates and describes the extract.
type Source struct {
	Path    string
	Charset string
	Columns ColumnMap
}

// Loader runs seed and reset against one store. Calls on the same Loader are
// serialized.
type Loader struct {
	store Store
	src   Source
	mu    sync.Mutex
	log   *zap.Logger
}

// NewLoader creates a Loader for the given store and source.
func NewLoader(store Store, src Source) *Loader {
	if src.Charset == "" {
		src.Charset = DefaultCharset
	}
	src.Columns = src.Columns.WithDefaults()
	return &Loader{
		store: store,
		src:   src,
		log:   zap.L().With(zap.String("component", "ingest.loader")),
	}
}

// Seed loads the extract only if the store is empty. A non-empty store
// returns an outcome with SeedSkipped set and no rows read.
func (l *Loader) Seed(ctx context.Context) (model.LoadOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, err := ShouldSeed(ctx, l.store)
	if err != nil {
		l.log.Error("seed guard failed", zap.Error(err))
		return model.LoadOutcome{}, err
	}
	if !d.Seed {
		out := model.LoadOutcome{SeedSkipped: true, ExistingCount: d.Existing}
		l.log.Info("seed skipped", zap.Int64("existing", d.Existing))
		return out, nil
	}

	return l.load(ctx, "seed")
}

// ResetResult reports a reset-and-reload.
type ResetResult struct {
	Deleted int64             `json:"deleted"`
	Outcome model.LoadOutcome `json:"outcome"`
}

// Summary is the human-readable reset report.
func (r ResetResult) Summary() string {
	return fmt.Sprintf("Reset complete. Deleted: %d. Reloaded: %d.", r.Deleted, r.Outcome.Inserted)
}

// Reset deletes every record and reloads the extract without consulting the
// seed guard. A failed delete aborts before any reload.
func (l *Loader) Reset(ctx context.Context) (ResetResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	deleted, err := l.store.DeleteAll(ctx)
	if err != nil {
		ierr := newError(StoreWriteError, "reset", err)
		l.log.Error("reset delete failed", zap.Error(ierr))
		return ResetResult{}, ierr
	}
	l.log.Info("store cleared", zap.Int64("deleted", deleted))

	out, err := l.load(ctx, "reset")
	return ResetResult{Deleted: deleted, Outcome: out}, err
}

func (l *Loader) load(ctx context.Context, op string) (model.LoadOutcome, error) {
	start := time.Now()
	log := l.log.With(zap.String("op", op), zap.String("path", l.src.Path))

	text, err := ReadSource(l.src.Path, l.src.Charset)
	if err != nil {
		ierr := newError(SourceUnavailable, op, err)
		log.Error("source unavailable", zap.Error(ierr))
		return model.LoadOutcome{}, ierr
	}

	records, out := Parse(text, l.src.Columns)
	for _, s := range out.Skips {
		log.Debug("row skipped",
			zap.Int("line", s.Line),
			zap.String("reason", string(s.Reason)),
			zap.String("detail", s.Detail),
		)
	}

	n, err := BulkLoad(ctx, l.store, records)
	out.Inserted = n
	if err != nil {
		log.Error("bulk load failed", zap.Error(err), zap.Int("mapped", out.Mapped))
		return out, err
	}

	log.Info("load complete",
		zap.Int("rows_read", out.RowsRead),
		zap.Int("mapped", out.Mapped),
		zap.Int("skipped", out.Skipped),
		zap.Int("anomalies", out.Anomalies),
		zap.Int64("inserted", out.Inserted),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
