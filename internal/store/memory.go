package store

import (
	"context"
	"sync"
	"time"

	apperrors "agency-dashboard/internal/common/errors"
)

// Memory is an in-process Collection. Ids come from a counter seeded with the
// highest preloaded id and are never reused.
type Memory[T Record] struct {
	name    string
	latency Latency
	now     func() time.Time

	mu      sync.RWMutex
	order   []int
	records map[int]T
	lastID  int
}

func NewMemory[T Record](name string, latency Latency, seed ...T) *Memory[T] {
	m := &Memory[T]{
		name:    name,
		latency: latency,
		now:     func() time.Time { return time.Now().UTC() },
		records: make(map[int]T, len(seed)),
	}
	for _, rec := range seed {
		if rec.RecordID() > m.lastID {
			m.lastID = rec.RecordID()
		}
	}
	for _, rec := range seed {
		c, err := Clone(rec)
		if err != nil {
			continue
		}
		if c.RecordID() <= 0 {
			m.lastID++
			c.AssignID(m.lastID)
		}
		if _, dup := m.records[c.RecordID()]; dup {
			continue
		}
		m.records[c.RecordID()] = c
		m.order = append(m.order, c.RecordID())
	}
	return m
}

func (m *Memory[T]) Name() string { return m.name }

func (m *Memory[T]) GetAll(ctx context.Context) ([]T, error) {
	if err := Wait(ctx, m.latency.Read); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := make([]T, 0, len(m.order))
	for _, id := range m.order {
		recs = append(recs, m.records[id])
	}
	return cloneAll(recs)
}

func (m *Memory[T]) GetByClient(ctx context.Context, clientID int) ([]T, error) {
	if err := Wait(ctx, m.latency.Read); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var recs []T
	for _, id := range m.order {
		if rec := m.records[id]; rec.TenantID() == clientID {
			recs = append(recs, rec)
		}
	}
	return cloneAll(recs)
}

func (m *Memory[T]) GetByID(ctx context.Context, id int) (T, error) {
	var zero T
	if err := Wait(ctx, m.latency.GetByID); err != nil {
		return zero, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return zero, apperrors.NewNotFoundError(m.name, id)
	}
	return Clone(rec)
}

func (m *Memory[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := Wait(ctx, m.latency.Create); err != nil {
		return zero, err
	}
	c, err := Clone(rec)
	if err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	c.AssignID(m.lastID)
	c.StampCreated(m.now())
	m.records[c.RecordID()] = c
	m.order = append(m.order, c.RecordID())
	return Clone(c)
}

func (m *Memory[T]) Update(ctx context.Context, id int, patch Patch) (T, error) {
	var zero T
	if err := Wait(ctx, m.latency.Update); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return zero, apperrors.NewNotFoundError(m.name, id)
	}
	updated, err := ApplyPatch(rec, patch)
	if err != nil {
		return zero, err
	}
	m.records[id] = updated
	return Clone(updated)
}

func (m *Memory[T]) Delete(ctx context.Context, id int) (bool, error) {
	if err := Wait(ctx, m.latency.Delete); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return false, apperrors.NewNotFoundError(m.name, id)
	}
	delete(m.records, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}
