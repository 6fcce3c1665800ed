package manager

// SystemName identifies the pooling subsystem in emitted events.
const SystemName = "ObjectPooling"

const (
	EventPoolCreated        = "PoolCreated"
	EventPoolConfigured     = "PoolConfigured"
	EventPoolCleanup        = "PoolCleanup"
	EventPoolsCleared       = "PoolsCleared"
	EventPerformanceWarning = "PerformanceWarning"
)

// EventSink receives lifecycle events from the manager. Implementations must
// not call back into the manager.
type EventSink interface {
	CollectEvent(eventType, systemName string, payload map[string]any)
}

type nopSink struct{}

func (nopSink) CollectEvent(string, string, map[string]any) {}

func (m *Manager) emit(eventType string, payload map[string]any) {
	m.events.CollectEvent(eventType, SystemName, payload)
}
