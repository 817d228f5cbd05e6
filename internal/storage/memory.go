package storage

import (
	"context"
	"sync"

	"github.com/walltab/walltab/internal/domain"
	"go.uber.org/zap"
)

// eventBuffer sizes the change feed. Slow watchers drop events rather
// than block writers.
const eventBuffer = 64

// MemoryProvider is an in-process StorageProvider with a change feed. It
// backs tests and acts as the fallback when no durable store is configured.
type MemoryProvider struct {
	logger *zap.Logger

	mu     sync.RWMutex
	areas  map[domain.StorageArea]map[string]string
	events chan domain.ChangeEvent
	closed bool
}

// NewMemoryProvider creates a provider exposing the given areas. With no
// arguments both the local and sync areas are available.
func NewMemoryProvider(logger *zap.Logger, areas ...domain.StorageArea) *MemoryProvider {
	if len(areas) == 0 {
		areas = []domain.StorageArea{domain.AreaLocal, domain.AreaSync}
	}
	m := &MemoryProvider{
		logger: logger,
		areas:  make(map[domain.StorageArea]map[string]string, len(areas)),
		events: make(chan domain.ChangeEvent, eventBuffer),
	}
	for _, area := range areas {
		m.areas[area] = make(map[string]string)
	}
	return m
}

// Has reports whether the area was configured at construction time
func (m *MemoryProvider) Has(area domain.StorageArea) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.areas[area]
	return ok
}

// Set stores value and emits a change event
func (m *MemoryProvider) Set(ctx context.Context, area domain.StorageArea, key, value string) error {
	m.mu.Lock()
	old, hadOld := m.areas[area][key]
	m.areas[area][key] = value
	m.mu.Unlock()

	m.emit(domain.ChangeEvent{
		Area:     area,
		Key:      key,
		OldValue: old,
		NewValue: value,
		HadOld:   hadOld,
		HasNew:   true,
	})
	return nil
}

// Get retrieves the value stored under key
func (m *MemoryProvider) Get(ctx context.Context, area domain.StorageArea, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, found := m.areas[area][key]
	return value, found, nil
}

// Delete removes key and emits a change event when something was removed
func (m *MemoryProvider) Delete(ctx context.Context, area domain.StorageArea, key string) error {
	m.mu.Lock()
	old, hadOld := m.areas[area][key]
	delete(m.areas[area], key)
	m.mu.Unlock()

	if hadOld {
		m.emit(domain.ChangeEvent{
			Area:     area,
			Key:      key,
			OldValue: old,
			HadOld:   true,
		})
	}
	return nil
}

// Watch returns the change feed
func (m *MemoryProvider) Watch() <-chan domain.ChangeEvent {
	return m.events
}

// Close shuts the change feed down
func (m *MemoryProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}

// emit delivers ev without blocking the writer. A full buffer drops the
// event; contexts converge on the next broadcast-triggered refetch.
func (m *MemoryProvider) emit(ev domain.ChangeEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.events <- ev:
	default:
		m.logger.Warn("Change feed full, dropping event", zap.String("key", ev.Key))
	}
}
