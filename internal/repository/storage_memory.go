package repository

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	updatedAt time.Time
}

type memoryStorage struct {
	mu   sync.RWMutex
	data map[string]map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryStorage() StorageRepository {
	return &memoryStorage{
		data: make(map[string]map[string]memoryEntry),
		now:  time.Now,
	}
}

func (m *memoryStorage) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.data[sessionID][key]
	return entry.value, ok, nil
}

func (m *memoryStorage) Set(_ context.Context, sessionID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.data[sessionID]
	if !ok {
		bucket = make(map[string]memoryEntry)
		m.data[sessionID] = bucket
	}
	bucket[key] = memoryEntry{value: value, updatedAt: m.now()}
	return nil
}

func (m *memoryStorage) Remove(_ context.Context, sessionID string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.data[sessionID]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(bucket, k)
	}
	if len(bucket) == 0 {
		delete(m.data, sessionID)
	}
	return nil
}

func (m *memoryStorage) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, sessionID)
	return nil
}

// PurgeBefore drops sessions whose newest key is older than cutoff.
func (m *memoryStorage) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var purged int64
	for sid, bucket := range m.data {
		var newest time.Time
		for _, e := range bucket {
			if e.updatedAt.After(newest) {
				newest = e.updatedAt
			}
		}
		if newest.Before(cutoff) {
			purged += int64(len(bucket))
			delete(m.data, sid)
		}
	}
	return purged, nil
}

func (m *memoryStorage) Ping(context.Context) error {
	return nil
}
