package core

import "github.com/google/uuid"

// EventKind classifies a change notification
type EventKind int

const (
	EventModified EventKind = iota
	EventGroupAdded
	EventGroupRemoved
	EventGroupMoved
	EventEntryAdded
	EventEntryRemoved
	EventEntryMoved
)

// Event is a synchronous change notification. UUID names the affected
// object; EventModified carries none.
type Event struct {
	Kind EventKind
	UUID uuid.UUID
}

// Subscribe registers a change listener. Listeners run synchronously on
// the mutating goroutine and must not mutate the database re-entrantly.
func (db *Database) Subscribe(fn func(Event)) {
	db.subscribers = append(db.subscribers, fn)
}

// SetEmitModified suppresses or resumes change notification. Bulk
// operations such as load and merge replay suppress, then mark once at
// the end.
func (db *Database) SetEmitModified(v bool) {
	db.emitModified = v
}

// Modified reports whether the database has unsaved changes
func (db *Database) Modified() bool { return db.modified }

// MarkAsModified flags unsaved changes and notifies listeners
func (db *Database) MarkAsModified() {
	db.modified = true
	db.emit(Event{Kind: EventModified})
}

// markModified is the internal change hook: a no-op while notification
// is suppressed
func (db *Database) markModified() {
	if !db.emitModified {
		return
	}
	db.modified = true
	db.emit(Event{Kind: EventModified})
}

func (db *Database) emit(ev Event) {
	if !db.emitModified {
		return
	}
	for _, fn := range db.subscribers {
		fn(ev)
	}
}
