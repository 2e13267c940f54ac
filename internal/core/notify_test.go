package core

import "testing"

func kindsWithoutModified(events []Event) []EventKind {
	var kinds []EventKind
	for _, ev := range events {
		if ev.Kind != EventModified {
			kinds = append(kinds, ev.Kind)
		}
	}
	return kinds
}

func TestNotificationsFollowTreeChanges(t *testing.T) {
	db := NewDatabase()
	t.Cleanup(db.Close)
	var events []Event
	db.Subscribe(func(ev Event) { events = append(events, ev) })

	internet := NewGroup("Internet")
	if err := internet.SetParent(db.RootGroup(), -1); err != nil {
		t.Fatalf("Failed to attach group: %v", err)
	}
	banking := NewGroup("Banking")
	if err := banking.SetParent(db.RootGroup(), -1); err != nil {
		t.Fatalf("Failed to attach group: %v", err)
	}

	entry := NewEntry()
	entry.SetTitle("GitHub")
	internet.AddEntry(entry)

	// Moves within one database notify as moves, not remove/add pairs
	entry.SetGroup(banking)
	if err := banking.SetParent(internet, -1); err != nil {
		t.Fatalf("Failed to move group: %v", err)
	}

	banking.RemoveEntry(entry)
	db.RootGroup().RemoveChild(internet)

	want := []EventKind{
		EventGroupAdded,
		EventGroupAdded,
		EventEntryAdded,
		EventEntryMoved,
		EventGroupMoved,
		EventEntryRemoved,
		EventGroupRemoved,
	}
	got := kindsWithoutModified(events)
	if len(got) != len(want) {
		t.Fatalf("Event count mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d mismatch: got %v, want %v", i, got[i], want[i])
		}
	}

	if events[0].UUID != internet.UUID() {
		t.Error("Group added event should name the attached group")
	}

	// Every structural change is also a modification
	modified := 0
	for _, ev := range events {
		if ev.Kind == EventModified {
			modified++
		}
	}
	if modified != len(want) {
		t.Errorf("Modified event count mismatch: got %d, want %d", modified, len(want))
	}
	if !db.Modified() {
		t.Error("Database should have unsaved changes")
	}
}

func TestSetEmitModifiedSuppressesEvents(t *testing.T) {
	db := NewDatabase()
	t.Cleanup(db.Close)
	var events []Event
	db.Subscribe(func(ev Event) { events = append(events, ev) })

	db.SetEmitModified(false)
	g := NewGroup("Quiet")
	if err := g.SetParent(db.RootGroup(), -1); err != nil {
		t.Fatalf("Failed to attach group: %v", err)
	}
	addEntry(g, "Site", "user")

	if len(events) != 0 {
		t.Fatalf("Suppressed mutations should not notify, got %d events", len(events))
	}
	if db.Modified() {
		t.Error("Suppressed mutations should not flag unsaved changes")
	}

	db.SetEmitModified(true)
	db.MarkAsModified()

	if len(events) != 1 || events[0].Kind != EventModified {
		t.Errorf("Expected a single modified event, got %v", events)
	}
	if !db.Modified() {
		t.Error("Database should have unsaved changes")
	}
}

func TestSetRootGroupEmitsNothing(t *testing.T) {
	db := NewDatabase()
	t.Cleanup(db.Close)
	var events []Event
	db.Subscribe(func(ev Event) { events = append(events, ev) })

	db.SetRootGroup(NewGroup("Replacement"))

	if len(events) != 0 {
		t.Errorf("Root replacement should not notify, got %d events", len(events))
	}
}

func TestMergeNotifiesModifiedOnce(t *testing.T) {
	local, remote := mergePair(t, func(root *Group) {
		addEntry(root, "Site", "user")
	})
	re := remote.RootGroup().Entries()[0]
	re.SetTitle("Renamed")
	stampEntry(re, at(10))

	var events []Event
	local.Subscribe(func(ev Event) { events = append(events, ev) })
	runMerge(t, local, remote, ModeDefault)

	// The replay is silent; one modification marks the merged result
	if len(events) != 1 || events[0].Kind != EventModified {
		t.Errorf("Expected a single modified event, got %v", events)
	}
}

func TestQuietMergeNotifiesNothing(t *testing.T) {
	local, remote := mergePair(t, func(root *Group) {
		addEntry(root, "Site", "user")
	})

	var events []Event
	local.Subscribe(func(ev Event) { events = append(events, ev) })
	runMerge(t, local, remote, ModeDefault)

	if len(events) != 0 {
		t.Errorf("Merging identical copies should not notify, got %v", events)
	}
}
