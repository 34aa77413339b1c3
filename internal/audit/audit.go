package audit

import (
	"context"
	"sync"
	"time"
)

// Event is one audit trail entry. Details carries the action-specific payload
// (query text, chunk counts, document metadata).
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
}

// Logger records pipeline events for compliance review. Implementations must
// tolerate concurrent writers.
type Logger interface {
	LogEvent(ctx context.Context, action string, details map[string]any) error
	Events(ctx context.Context, limit int) ([]Event, error)
	Clear(ctx context.Context) error
}

// MemoryLogger keeps events in memory, newest last. Used in tests and when no
// database path is configured.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) LogEvent(ctx context.Context, action string, details map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Event{
		Timestamp: time.Now().UTC(),
		Action:    action,
		Details:   details,
	})
	return nil
}

// Events returns recorded events newest first.
func (m *MemoryLogger) Events(ctx context.Context, limit int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, 0, n)
	for i := len(m.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}

func (m *MemoryLogger) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	return nil
}
