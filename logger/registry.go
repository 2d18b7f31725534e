package logger

import "sync"

var (
	overridesMu sync.RWMutex
	overrides   = map[string]*Logger{}
)

// Register pins the logger returned by Get for one component name.
// Passing nil removes the override.
func Register(component string, l *Logger) {
	overridesMu.Lock()
	defer overridesMu.Unlock()
	if l == nil {
		delete(overrides, component)
		return
	}
	overrides[component] = l
}

// Get returns the logger for a component. Without an override it derives
// one from the current global logger, so loggers fetched after Init pick up
// the configured level and format.
func Get(component string) *Logger {
	overridesMu.RLock()
	l, ok := overrides[component]
	overridesMu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(component)
}
