package ingest

import (
	"context"

	"github.com/cityequip/cityequip/internal/model"
)

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	records     []model.Equipment
	insertCalls int
	countErr    error
	insertErr   error
	deleteErr   error
}

func (f *fakeStore) Count(_ context.Context) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.records)), nil
}

func (f *fakeStore) InsertMany(_ context.Context, records []model.Equipment) (int64, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.records = append(f.records, records...)
	return int64(len(records)), nil
}

func (f *fakeStore) DeleteAll(_ context.Context) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	n := int64(len(f.records))
	f.records = nil
	return n, nil
}
