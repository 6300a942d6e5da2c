package storage

import (
	"sync"
	"time"
)

// Memory is an in-process Store. With a TTL it behaves like session storage
// that forgets entries after a period of inactivity.
type Memory struct {
	mu     sync.Mutex
	data   map[string]string
	expiry map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

// NewMemory returns an empty Memory store. A ttl <= 0 keeps entries forever.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		data:   make(map[string]string),
		expiry: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	if exp, has := m.expiry[key]; has && m.now().After(exp) {
		delete(m.data, key)
		delete(m.expiry, key)
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key, refreshing its expiry.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	if m.ttl > 0 {
		m.expiry[key] = m.now().Add(m.ttl)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.expiry, key)
	return nil
}
