// Package cache provee los backends del caché de agregados.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/shelf-inventory/internal/application/analytics"
)

var _ analytics.CacheBackend = (*Memory)(nil)

// DefaultMaxEntries acota el backend en proceso.
const DefaultMaxEntries = 1000

type item struct {
	value     []byte
	expiresAt time.Time
}

// Memory es un backend en proceso con expiración perezosa. Si está lleno se desaloja la
// entrada más cercana a expirar.
type Memory struct {
	mu         sync.Mutex
	items      map[string]item
	maxEntries int
	now        func() time.Time
}

// NewMemory devuelve un backend vacío con a lo sumo maxEntries claves (0 = por defecto).
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{items: make(map[string]item), maxEntries: maxEntries, now: time.Now}
}

// SetClock reemplaza la fuente de tiempo.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(it.expiresAt) {
		delete(m.items, key)
		return nil, false, nil
	}
	return append([]byte(nil), it.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[key]; !exists && len(m.items) >= m.maxEntries {
		m.evictLocked()
	}
	m.items[key] = item{value: append([]byte(nil), value...), expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Touch(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[key]; ok {
		it.expiresAt = m.now().Add(ttl)
		m.items[key] = it
	}
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

// Len devuelve el número de claves guardadas, incluidas las expiradas.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) evictLocked() {
	var (
		victim string
		soon   time.Time
	)
	for k, it := range m.items {
		if victim == "" || it.expiresAt.Before(soon) {
			victim, soon = k, it.expiresAt
		}
	}
	delete(m.items, victim)
}
