package core

import (
	"github.com/google/uuid"
)

// EntryData holds the value fields of an entry
type EntryData struct {
	Title    string
	Username string
	Password string
	URL      string
	Notes    string
	TimeInfo TimeInfo
}

// Entry is a single credential record. History holds prior versions as
// snapshot entries, oldest first, without nested history.
type Entry struct {
	id             uuid.UUID
	data           EntryData
	history        []*Entry
	group          *Group
	pending        *Entry
	updateTimeInfo bool
}

// NewEntry creates a detached entry with a fresh uuid
func NewEntry() *Entry {
	return &Entry{
		id:             uuid.New(),
		data:           EntryData{TimeInfo: NewTimeInfo()},
		updateTimeInfo: true,
	}
}

func (e *Entry) UUID() uuid.UUID { return e.id }

// SetUUID replaces the entry identity. Used by loaders and merge
// replay; does not stamp modification times.
func (e *Entry) SetUUID(id uuid.UUID) { e.id = id }

// Data returns a copy of the entry's value fields
func (e *Entry) Data() EntryData { return e.data }

func (e *Entry) Title() string    { return e.data.Title }
func (e *Entry) Username() string { return e.data.Username }
func (e *Entry) Password() string { return e.data.Password }
func (e *Entry) URL() string      { return e.data.URL }
func (e *Entry) Notes() string    { return e.data.Notes }

func (e *Entry) SetTitle(title string) {
	if e.data.Title == title {
		return
	}
	e.data.Title = title
	e.touch()
}

func (e *Entry) SetUsername(username string) {
	if e.data.Username == username {
		return
	}
	e.data.Username = username
	e.touch()
}

func (e *Entry) SetPassword(password string) {
	if e.data.Password == password {
		return
	}
	e.data.Password = password
	e.touch()
}

func (e *Entry) SetURL(url string) {
	if e.data.URL == url {
		return
	}
	e.data.URL = url
	e.touch()
}

func (e *Entry) SetNotes(notes string) {
	if e.data.Notes == notes {
		return
	}
	e.data.Notes = notes
	e.touch()
}

func (e *Entry) TimeInfo() TimeInfo { return e.data.TimeInfo }

// SetTimeInfo installs authoritative timestamps without touching them
func (e *Entry) SetTimeInfo(ti TimeInfo) { e.data.TimeInfo = ti }

func (e *Entry) IsExpired() bool { return e.data.TimeInfo.IsExpired() }

// CanUpdateTimeInfo reports whether setters stamp modification times
func (e *Entry) CanUpdateTimeInfo() bool { return e.updateTimeInfo }

// SetUpdateTimeInfo enables or disables timestamp stamping on change.
// Merge replay and loaders disable it so replayed state keeps its
// original times.
func (e *Entry) SetUpdateTimeInfo(v bool) { e.updateTimeInfo = v }

func (e *Entry) Group() *Group { return e.group }

// SetGroup moves the entry to another group. Moving inside one database
// records no tombstone; leaving a database records one there, since the
// entry is gone from that tree. Stamps LocationChanged unless timestamp
// updates are disabled.
func (e *Entry) SetGroup(g *Group) {
	if e.group == g {
		return
	}
	old := e.group
	var oldDB *Database
	if old != nil {
		oldDB = old.db
		old.detachEntry(e)
	}
	if g != nil {
		g.entries = append(g.entries, e)
		e.group = g
		if e.updateTimeInfo {
			e.data.TimeInfo.LocationChanged = Now()
		}
	} else {
		e.group = nil
	}

	newDB := e.database()
	if oldDB != nil && oldDB != newDB {
		oldDB.AddDeletedUUID(e.id)
		oldDB.emit(Event{Kind: EventEntryRemoved, UUID: e.id})
		oldDB.markModified()
	}
	if newDB != nil {
		kind := EventEntryAdded
		if oldDB == newDB {
			kind = EventEntryMoved
		}
		newDB.emit(Event{Kind: kind, UUID: e.id})
		newDB.markModified()
	}
}

func (e *Entry) database() *Database {
	if e.group == nil {
		return nil
	}
	return e.group.db
}

// History returns the prior versions of the entry, oldest first
func (e *Entry) History() []*Entry {
	return append([]*Entry(nil), e.history...)
}

// AddHistoryItem appends a snapshot to the history. The item must be
// detached and carries no history of its own.
func (e *Entry) AddHistoryItem(item *Entry) {
	item.group = nil
	item.history = nil
	e.history = append(e.history, item)
}

// SetHistory replaces the history wholesale. Used by loaders and merge
// replay.
func (e *Entry) SetHistory(items []*Entry) {
	e.history = items
}

// BeginUpdate takes a snapshot of the current state. A following
// EndUpdate pushes it to history if anything changed in between.
func (e *Entry) BeginUpdate() {
	e.pending = e.historySnapshot()
}

// EndUpdate closes a BeginUpdate and reports whether the entry changed
func (e *Entry) EndUpdate() bool {
	if e.pending == nil {
		return false
	}
	snap := e.pending
	e.pending = nil
	if entryDataEquals(e.data, snap.data, CompareOptions{IgnoreTimes: true}) {
		return false
	}
	e.AddHistoryItem(snap)
	return true
}

// historySnapshot clones the current state for the history list:
// identity and times preserved, history and group dropped
func (e *Entry) historySnapshot() *Entry {
	return e.Clone(EntryCloneOptions{})
}

// Clone copies the entry. The zero options preserve identity and
// timestamps and drop history; the clone is always detached.
func (e *Entry) Clone(opts EntryCloneOptions) *Entry {
	clone := &Entry{
		id:             e.id,
		data:           e.data,
		updateTimeInfo: true,
	}
	if opts.NewIdentity {
		clone.id = uuid.New()
	}
	if opts.ResetTimeInfo {
		clone.data.TimeInfo = NewTimeInfo()
	}
	if opts.IncludeHistory {
		for _, h := range e.history {
			clone.history = append(clone.history, h.Clone(EntryCloneOptions{}))
		}
	}
	return clone
}

// Equals compares identity, value fields and, unless ignored,
// timestamps and history
func (e *Entry) Equals(other *Entry, opts CompareOptions) bool {
	if other == nil {
		return false
	}
	if e.id != other.id {
		return false
	}
	if !entryDataEquals(e.data, other.data, opts) {
		return false
	}
	if !opts.IgnoreHistory {
		if len(e.history) != len(other.history) {
			return false
		}
		for i := range e.history {
			if !entryDataEquals(e.history[i].data, other.history[i].data, opts) {
				return false
			}
		}
	}
	return true
}

func (e *Entry) touch() {
	if e.updateTimeInfo {
		now := Now()
		e.data.TimeInfo.LastModified = now
		e.data.TimeInfo.LastAccess = now
	}
	if db := e.database(); db != nil {
		db.markModified()
	}
}

func entryDataEquals(a, b EntryData, opts CompareOptions) bool {
	if a.Title != b.Title || a.Username != b.Username || a.Password != b.Password ||
		a.URL != b.URL || a.Notes != b.Notes {
		return false
	}
	if !opts.IgnoreTimes && !a.TimeInfo.Equals(b.TimeInfo) {
		return false
	}
	return true
}
