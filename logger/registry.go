package logger

import "sync"

// named holds loggers registered for SDK components such as "gs2.transport".
var named sync.Map // string -> *Logger

// Register routes the component logger name to l. Registering
// logger.Nop() silences that component.
func Register(name string, l *Logger) {
	named.Store(name, l)
}

// Unregister drops name so Get falls back to the global logger.
func Unregister(name string) {
	named.Delete(name)
}

// Get returns the logger registered for name, or the global logger tagged
// with name as its component.
func Get(name string) *Logger {
	if l, ok := named.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}
