package core

import (
	"testing"
	"time"
)

// backdate rewinds an entry's modification stamps so that a subsequent
// touch is observable without sleeping.
func backdate(e *Entry, d time.Duration) time.Time {
	ti := e.TimeInfo()
	ti.LastModified = ti.LastModified.Add(-d)
	ti.LastAccess = ti.LastAccess.Add(-d)
	e.SetTimeInfo(ti)
	return ti.LastModified
}

func TestNewEntryStampsTimes(t *testing.T) {
	e := NewEntry()
	ti := e.TimeInfo()

	if ti.CreationTime.IsZero() || ti.LastModified.IsZero() || ti.LastAccess.IsZero() {
		t.Error("New entry should carry creation, modification and access times")
	}
	if ti.Expires {
		t.Error("New entry should not expire")
	}
	if ti.CreationTime.Location() != time.UTC {
		t.Error("Timestamps should be UTC")
	}
}

func TestSettersTouchModificationTime(t *testing.T) {
	e := NewEntry()
	old := backdate(e, time.Hour)

	e.SetUsername("alice")

	ti := e.TimeInfo()
	if !ti.LastModified.After(old) {
		t.Error("Setter should advance LastModified")
	}
	if !ti.LastModified.Equal(ti.LastAccess) {
		t.Errorf("Touch should stamp both times together: got %v and %v", ti.LastModified, ti.LastAccess)
	}
}

func TestNoopSetterLeavesTimesAlone(t *testing.T) {
	e := NewEntry()
	e.SetUsername("alice")
	old := backdate(e, time.Hour)

	e.SetUsername("alice")

	if !e.TimeInfo().LastModified.Equal(old) {
		t.Error("Setting the same value should not advance LastModified")
	}
}

func TestEndUpdatePushesHistory(t *testing.T) {
	e := NewEntry()
	e.SetTitle("GitHub")
	e.SetPassword("hunter2")

	e.BeginUpdate()
	e.SetPassword("correct horse")
	if !e.EndUpdate() {
		t.Fatal("EndUpdate should report a change")
	}

	hist := e.History()
	if len(hist) != 1 {
		t.Fatalf("Expected 1 history item, got %d", len(hist))
	}
	if hist[0].Password() != "hunter2" {
		t.Errorf("History should hold the previous value: got %s", hist[0].Password())
	}
	if hist[0].UUID() != e.UUID() {
		t.Error("History items share the entry's uuid")
	}
	if e.Password() != "correct horse" {
		t.Errorf("Password mismatch: got %s", e.Password())
	}
}

func TestEndUpdateWithoutChange(t *testing.T) {
	e := NewEntry()
	e.SetTitle("GitHub")

	e.BeginUpdate()
	if e.EndUpdate() {
		t.Error("EndUpdate without edits should report no change")
	}
	if len(e.History()) != 0 {
		t.Errorf("Expected no history, got %d items", len(e.History()))
	}
}

func TestEndUpdateIgnoresTimestampDrift(t *testing.T) {
	e := NewEntry()
	e.SetTitle("GitHub")

	e.BeginUpdate()
	ti := e.TimeInfo()
	ti.LastAccess = ti.LastAccess.Add(time.Minute)
	e.SetTimeInfo(ti)
	if e.EndUpdate() {
		t.Error("Pure timestamp drift should not count as a change")
	}
}

func TestHistoryItemsAreFlat(t *testing.T) {
	db := NewDatabase()
	defer db.Close()
	e := NewEntry()
	e.SetTitle("GitHub")
	db.RootGroup().AddEntry(e)

	e.BeginUpdate()
	e.SetUsername("one")
	e.EndUpdate()
	e.BeginUpdate()
	e.SetUsername("two")
	e.EndUpdate()

	hist := e.History()
	if len(hist) != 2 {
		t.Fatalf("Expected 2 history items, got %d", len(hist))
	}
	for _, item := range hist {
		if item.Group() != nil {
			t.Error("History items should not reference a group")
		}
		if len(item.History()) != 0 {
			t.Error("History items should not nest history")
		}
	}
}

func TestEntryClone(t *testing.T) {
	e := NewEntry()
	e.SetTitle("GitHub")
	e.SetUsername("octocat")
	e.BeginUpdate()
	e.SetUsername("octodog")
	e.EndUpdate()

	// Zero options preserve identity and timestamps and drop history
	c := e.Clone(EntryCloneOptions{})
	if c.UUID() != e.UUID() {
		t.Error("Plain clone should keep the uuid")
	}
	if !c.TimeInfo().Equals(e.TimeInfo()) {
		t.Error("Plain clone should keep the timestamps")
	}
	if len(c.History()) != 0 {
		t.Error("Plain clone should drop history")
	}
	if c.Group() != nil {
		t.Error("Clone should be detached")
	}

	withHist := e.Clone(EntryCloneOptions{IncludeHistory: true})
	if len(withHist.History()) != 1 {
		t.Errorf("Expected 1 history item on the clone, got %d", len(withHist.History()))
	}

	fresh := e.Clone(EntryCloneOptions{NewIdentity: true})
	if fresh.UUID() == e.UUID() {
		t.Error("NewIdentity clone should carry a fresh uuid")
	}

	old := backdate(e, time.Hour)
	reset := e.Clone(EntryCloneOptions{ResetTimeInfo: true})
	if reset.TimeInfo().LastModified.Equal(old) {
		t.Error("ResetTimeInfo clone should be stamped as created now")
	}
}

func TestEntryEquals(t *testing.T) {
	e := NewEntry()
	e.SetTitle("GitHub")
	e.SetUsername("octocat")

	same := e.Clone(EntryCloneOptions{})
	if !e.Equals(same, CompareOptions{}) {
		t.Error("Clone should equal its source")
	}

	same.SetUsername("other")
	if e.Equals(same, CompareOptions{}) {
		t.Error("Different usernames should compare unequal")
	}

	// Time divergence alone matters unless ignored
	drift := e.Clone(EntryCloneOptions{})
	backdate(drift, time.Hour)
	if e.Equals(drift, CompareOptions{}) {
		t.Error("Timestamp differences should compare unequal by default")
	}
	if !e.Equals(drift, CompareOptions{IgnoreTimes: true}) {
		t.Error("IgnoreTimes should mask timestamp differences")
	}

	// History divergence matters unless ignored
	e.BeginUpdate()
	e.SetURL("https://github.com")
	e.EndUpdate()
	flat := e.Clone(EntryCloneOptions{})
	if e.Equals(flat, CompareOptions{IgnoreTimes: true}) {
		t.Error("History differences should compare unequal by default")
	}
	if !e.Equals(flat, CompareOptions{IgnoreTimes: true, IgnoreHistory: true}) {
		t.Error("IgnoreHistory should mask history differences")
	}
}

func TestEntryExpiry(t *testing.T) {
	e := NewEntry()
	if e.IsExpired() {
		t.Error("New entry should not be expired")
	}

	ti := e.TimeInfo()
	ti.Expires = true
	ti.ExpiryTime = Now().Add(-time.Minute)
	e.SetTimeInfo(ti)
	if !e.IsExpired() {
		t.Error("Past expiry time should mark the entry expired")
	}
}
