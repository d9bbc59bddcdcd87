package security

import (
	"context"
	"sync"
	"time"
)

// MemoryTracker keeps failures in process memory. Counts are not shared
// between instances.
type MemoryTracker struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	policy   Policy
	now      func() time.Time
}

func NewMemoryTracker(policy Policy) *MemoryTracker {
	return &MemoryTracker{
		failures: make(map[string][]time.Time),
		policy:   policy,
		now:      time.Now,
	}
}

// prune drops entries older than the window. Caller holds mu.
func (m *MemoryTracker) prune(key string) []time.Time {
	cutoff := m.now().Add(-m.policy.Window)
	var valid []time.Time
	for _, t := range m.failures[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(m.failures, key)
	} else {
		m.failures[key] = valid
	}
	return valid
}

func (m *MemoryTracker) Locked(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prune(key)) >= m.policy.Threshold, nil
}

func (m *MemoryTracker) RecordFailure(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	valid := append(m.prune(key), m.now())
	m.failures[key] = valid
	return len(valid), nil
}

func (m *MemoryTracker) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failures, key)
	return nil
}
