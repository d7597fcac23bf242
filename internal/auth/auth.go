// Package auth implements the static app-name/stream-key authentication
// table publishers are checked against. It replaces the teacher's
// self-issued publish-token flow with a config-loaded, read-only table,
// since spec.md §4.4 treats authentication as a pure function of
// (AuthTable, app, key).
package auth

import "sync"

// Table maps an application name to the single stream key permitted to
// publish under it. It is populated once at startup and never mutated
// again, but keeps a mutex for defensive consistency with the rest of
// the codebase's concurrency style.
type Table struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewTable builds a Table from a static app -> key mapping, typically
// produced by internal/config from JAVELIN_STREAM_KEYS.
func NewTable(keys map[string]string) *Table {
	copied := make(map[string]string, len(keys))
	for app, key := range keys {
		copied[app] = key
	}
	return &Table{keys: copied}
}

// Authenticate reports whether key is the permitted stream key for app.
// An empty key is always rejected, and an app absent from the table is
// always rejected, independent of key.
func (t *Table) Authenticate(app, key string) bool {
	if key == "" {
		return false
	}

	t.mu.RLock()
	want, ok := t.keys[app]
	t.mu.RUnlock()

	return ok && want == key
}

// Has reports whether app appears in the table at all, regardless of
// key. Useful for distinguishing UnknownApplication from
// UnpermittedStreamKey when producing diagnostics.
func (t *Table) Has(app string) bool {
	t.mu.RLock()
	_, ok := t.keys[app]
	t.mu.RUnlock()
	return ok
}
