package api

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/cityequip/cityequip/internal/ingest"
	"github.com/cityequip/cityequip/internal/model"
	"github.com/cityequip/cityequip/internal/store"
)

type memStore struct {
	mu      sync.Mutex
	items   map[string]model.Equipment
	nextID  int
	pingErr error
	listErr error
	filters []store.Filter
}

func newMemStore(items ...model.Equipment) *memStore {
	m := &memStore{items: make(map[string]model.Equipment)}
	for _, e := range items {
		m.items[e.ID] = e
	}
	return m
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) List(_ context.Context, f store.Filter) ([]model.Equipment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var all []model.Equipment
	for _, e := range m.items {
		if f.Type == "" || e.Type == f.Type {
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	all = all[f.Offset:]
	if len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (m *memStore) Get(_ context.Context, id string) (*model.Equipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (m *memStore) Create(_ context.Context, e *model.Equipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = "new-" + string(rune('0'+m.nextID))
	m.items[e.ID] = *e
	return nil
}

func (m *memStore) Update(_ context.Context, e *model.Equipment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[e.ID]; !ok {
		return store.ErrNotFound
	}
	m.items[e.ID] = *e
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type fakeResetter struct {
	res   ingest.ResetResult
	err   error
	calls int
	ctxOK bool
}

func (f *fakeResetter) Reset(ctx context.Context) (ingest.ResetResult, error) {
	f.calls++
	_, f.ctxOK = ctx.Deadline()
	return f.res, f.err
}

var errBoom = errors.New("boom")
