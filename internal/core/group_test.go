package core

import (
	"errors"
	"testing"
	"time"
)

// buildVault creates a database with a small tree:
//
//	Root
//	├── Internet
//	│   ├── Work
//	│   └── entry "GitHub"
//	└── Banking
//	    └── entry "Checking"
func buildVault(t *testing.T) *Database {
	t.Helper()
	db := NewDatabase()
	t.Cleanup(db.Close)

	internet := NewGroup("Internet")
	if err := internet.SetParent(db.RootGroup(), -1); err != nil {
		t.Fatalf("Failed to attach group: %v", err)
	}
	work := NewGroup("Work")
	if err := work.SetParent(internet, -1); err != nil {
		t.Fatalf("Failed to attach group: %v", err)
	}
	banking := NewGroup("Banking")
	if err := banking.SetParent(db.RootGroup(), -1); err != nil {
		t.Fatalf("Failed to attach group: %v", err)
	}

	github := NewEntry()
	github.SetTitle("GitHub")
	github.SetUsername("octocat")
	internet.AddEntry(github)

	checking := NewEntry()
	checking.SetTitle("Checking")
	banking.AddEntry(checking)

	return db
}

func TestGroupHierarchyAndPaths(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()

	work := root.FindGroupByPath("Internet/Work")
	if work == nil {
		t.Fatal("Expected to find Internet/Work")
	}
	if work.Path() != "/Internet/Work" {
		t.Errorf("Path mismatch: got %s, want /Internet/Work", work.Path())
	}

	if got := root.Path(); got != "/" {
		t.Errorf("Root path mismatch: got %s, want /", got)
	}

	entry := root.FindEntryByPath("Internet/GitHub")
	if entry == nil {
		t.Fatal("Expected to find Internet/GitHub")
	}
	if EntryPath(entry) != "/Internet/GitHub" {
		t.Errorf("Entry path mismatch: got %s", EntryPath(entry))
	}

	// Lookups are by live tree only
	if root.FindGroupByPath("Internet/Missing") != nil {
		t.Error("Expected no group at Internet/Missing")
	}
	if root.FindEntryByPath("Internet/Work/GitHub") != nil {
		t.Error("Entry lookup should not match the wrong group")
	}
}

func TestFindByUUID(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()

	github := root.FindEntryByPath("Internet/GitHub")
	if found := root.FindEntryByUUID(github.UUID()); found != github {
		t.Error("FindEntryByUUID should return the same entry")
	}

	work := root.FindGroupByPath("Internet/Work")
	if found := root.FindGroupByUUID(work.UUID()); found != work {
		t.Error("FindGroupByUUID should return the same group")
	}
}

func TestSetParentRejectsCycles(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()
	internet := root.FindGroupByPath("Internet")
	work := root.FindGroupByPath("Internet/Work")

	// A group cannot become its own parent
	if err := internet.SetParent(internet, -1); !errors.Is(err, ErrStructuralConflict) {
		t.Errorf("Expected ErrStructuralConflict, got %v", err)
	}

	// A group cannot move below its own subtree
	if err := internet.SetParent(work, -1); !errors.Is(err, ErrStructuralConflict) {
		t.Errorf("Expected ErrStructuralConflict, got %v", err)
	}

	// The tree is untouched after the failed moves
	if work.Parent() != internet {
		t.Error("Work should still be below Internet")
	}
	if internet.Parent() != root {
		t.Error("Internet should still be below the root")
	}
}

func TestSetParentIndex(t *testing.T) {
	db := NewDatabase()
	defer db.Close()
	root := db.RootGroup()

	a := NewGroup("a")
	b := NewGroup("b")
	c := NewGroup("c")
	for _, g := range []*Group{a, b, c} {
		if err := g.SetParent(root, -1); err != nil {
			t.Fatalf("Failed to attach group: %v", err)
		}
	}

	// Move c to the front
	if err := c.SetParent(root, 0); err != nil {
		t.Fatalf("Failed to move group: %v", err)
	}
	names := make([]string, 0, 3)
	for _, g := range root.Children() {
		names = append(names, g.Name())
	}
	want := []string{"c", "a", "b"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Child order mismatch: got %v, want %v", names, want)
		}
	}
}

func TestMoveRecordsNoTombstone(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()
	github := root.FindEntryByPath("Internet/GitHub")
	banking := root.FindGroupByPath("Banking")

	github.SetGroup(banking)

	if len(db.DeletedObjects()) != 0 {
		t.Errorf("Move inside one database should record no tombstone, got %d", len(db.DeletedObjects()))
	}
	if root.FindEntryByPath("Banking/GitHub") == nil {
		t.Error("Entry should live under Banking after the move")
	}
}

func TestRemoveEntryRecordsTombstone(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()
	github := root.FindEntryByPath("Internet/GitHub")
	id := github.UUID()

	if !github.Group().RemoveEntry(github) {
		t.Fatal("RemoveEntry should report success")
	}

	if root.FindEntryByUUID(id) != nil {
		t.Error("Removed entry should be invisible to lookup")
	}
	if !db.ContainsDeletedObject(id) {
		t.Error("Removal should record a tombstone")
	}
	if len(db.DeletedObjects()) != 1 {
		t.Errorf("Expected 1 tombstone, got %d", len(db.DeletedObjects()))
	}
}

func TestRemoveChildTombstonesSubtree(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()
	internet := root.FindGroupByPath("Internet")
	work := root.FindGroupByPath("Internet/Work")
	github := root.FindEntryByPath("Internet/GitHub")

	if !root.RemoveChild(internet) {
		t.Fatal("RemoveChild should report success")
	}

	// One tombstone per removed object: Internet, Work and GitHub
	if len(db.DeletedObjects()) != 3 {
		t.Fatalf("Expected 3 tombstones, got %d", len(db.DeletedObjects()))
	}
	if !db.ContainsDeletedObject(internet.UUID()) ||
		!db.ContainsDeletedObject(work.UUID()) ||
		!db.ContainsDeletedObject(github.UUID()) {
		t.Error("Every removed object should have a tombstone")
	}
}

func TestCrossDatabaseMoveTombstonesSource(t *testing.T) {
	src := buildVault(t)
	dst := NewDatabase()
	defer dst.Close()

	internet := src.RootGroup().FindGroupByPath("Internet")
	github := src.RootGroup().FindEntryByPath("Internet/GitHub")

	if err := internet.SetParent(dst.RootGroup(), -1); err != nil {
		t.Fatalf("Failed to move group across databases: %v", err)
	}

	// The departing subtree is gone from the source and tombstoned there
	if src.RootGroup().FindGroupByUUID(internet.UUID()) != nil {
		t.Error("Source should no longer contain the moved group")
	}
	if !src.ContainsDeletedObject(internet.UUID()) || !src.ContainsDeletedObject(github.UUID()) {
		t.Error("Source should tombstone the departed subtree")
	}

	// The destination holds it live, with no tombstones
	if dst.RootGroup().FindGroupByUUID(internet.UUID()) == nil {
		t.Error("Destination should contain the moved group")
	}
	if len(dst.DeletedObjects()) != 0 {
		t.Errorf("Destination should record no tombstones, got %d", len(dst.DeletedObjects()))
	}
	if internet.Database() != dst {
		t.Error("Moved group should reference the destination database")
	}
}

func TestPolicyInheritance(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()
	internet := root.FindGroupByPath("Internet")
	work := root.FindGroupByPath("Internet/Work")

	// Inherit resolves to enabled at the root
	if !work.ResolveAutoTypeEnabled() || !work.ResolveSearchingEnabled() {
		t.Error("Inherit should resolve to enabled by default")
	}

	// A Disable in the chain wins for everything below it
	internet.SetAutoTypeEnabled(Disable)
	if work.ResolveAutoTypeEnabled() {
		t.Error("Disable on the parent should disable the child")
	}
	if !work.ResolveSearchingEnabled() {
		t.Error("Searching policy should be independent of auto-type")
	}

	// An explicit Enable below an ancestor Disable wins again
	work.SetAutoTypeEnabled(Enable)
	if !work.ResolveAutoTypeEnabled() {
		t.Error("Explicit Enable should override the inherited Disable")
	}
}

func TestEffectiveMergeMode(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()
	internet := root.FindGroupByPath("Internet")
	work := root.FindGroupByPath("Internet/Work")

	// Default resolves through the chain to Synchronize at the root
	if got := work.EffectiveMergeMode(); got != ModeSynchronize {
		t.Errorf("Effective mode mismatch: got %v, want %v", got, ModeSynchronize)
	}

	internet.SetMergeMode(ModeKeepLocal)
	if got := work.EffectiveMergeMode(); got != ModeKeepLocal {
		t.Errorf("Effective mode mismatch: got %v, want %v", got, ModeKeepLocal)
	}
	if got := root.EffectiveMergeMode(); got != ModeSynchronize {
		t.Errorf("Root effective mode mismatch: got %v, want %v", got, ModeSynchronize)
	}
}

func TestEffectiveAutoTypeSequence(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()
	internet := root.FindGroupByPath("Internet")
	work := root.FindGroupByPath("Internet/Work")

	if got := work.EffectiveAutoTypeSequence(); got != RootAutoTypeSequence {
		t.Errorf("Sequence mismatch: got %s, want %s", got, RootAutoTypeSequence)
	}

	internet.SetDefaultAutoTypeSequence("{PASSWORD}{ENTER}")
	if got := work.EffectiveAutoTypeSequence(); got != "{PASSWORD}{ENTER}" {
		t.Errorf("Sequence mismatch: got %s, want {PASSWORD}{ENTER}", got)
	}
}

func TestGroupCustomData(t *testing.T) {
	db := buildVault(t)
	internet := db.RootGroup().FindGroupByPath("Internet")

	internet.SetCustomDataItem("color", "blue")
	if got := internet.CustomData()["color"]; got != "blue" {
		t.Errorf("Custom data mismatch: got %s, want blue", got)
	}

	// The returned map is a copy
	internet.CustomData()["color"] = "red"
	if got := internet.CustomData()["color"]; got != "blue" {
		t.Error("CustomData should return a copy")
	}

	if !internet.RemoveCustomDataItem("color") {
		t.Error("RemoveCustomDataItem should report success")
	}
	if internet.RemoveCustomDataItem("color") {
		t.Error("Removing a missing item should report failure")
	}
}

func TestGroupCloneAndEquals(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()

	clone := root.Clone(EntryCloneOptions{IncludeHistory: true}, CloneOptions{IncludeEntries: true})
	if !root.Equals(clone, CompareOptions{}) {
		t.Error("A full clone should equal its source")
	}
	if clone.Database() != nil || clone.Parent() != nil {
		t.Error("Clone should be detached")
	}

	// Fresh identity clones compare unequal by uuid
	fresh := root.Clone(EntryCloneOptions{NewIdentity: true}, CloneOptions{NewIdentity: true, IncludeEntries: true})
	if root.Equals(fresh, CompareOptions{}) {
		t.Error("A fresh-identity clone should not equal its source")
	}

	// Structure-only clones drop the entries
	bare := root.Clone(EntryCloneOptions{}, CloneOptions{})
	if len(bare.FindGroupByPath("Internet").Entries()) != 0 {
		t.Error("Structure-only clone should carry no entries")
	}
}

func TestEntriesRecursive(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()

	github := root.FindEntryByPath("Internet/GitHub")
	github.BeginUpdate()
	github.SetUsername("changed")
	if !github.EndUpdate() {
		t.Fatal("EndUpdate should report a change")
	}

	live := root.EntriesRecursive(false)
	if len(live) != 2 {
		t.Errorf("Expected 2 live entries, got %d", len(live))
	}
	withHistory := root.EntriesRecursive(true)
	if len(withHistory) != 3 {
		t.Errorf("Expected 3 entries including history, got %d", len(withHistory))
	}
}

func TestLocate(t *testing.T) {
	db := buildVault(t)
	root := db.RootGroup()

	matches := root.Locate("github")
	if len(matches) != 1 || matches[0] != "/Internet/GitHub" {
		t.Errorf("Locate mismatch: got %v", matches)
	}

	if got := root.Locate("banking"); len(got) != 1 {
		t.Errorf("Locate should match group names in the path, got %v", got)
	}
	if got := root.Locate("nothing-here"); len(got) != 0 {
		t.Errorf("Expected no matches, got %v", got)
	}
}

func TestGroupExpiry(t *testing.T) {
	g := NewGroup("temp")
	ti := g.TimeInfo()
	ti.Expires = true
	ti.ExpiryTime = Now().Add(-time.Hour)
	g.SetTimeInfo(ti)

	if !g.IsExpired() {
		t.Error("Group with a past expiry time should be expired")
	}

	ti.ExpiryTime = Now().Add(time.Hour)
	g.SetTimeInfo(ti)
	if g.IsExpired() {
		t.Error("Group with a future expiry time should not be expired")
	}
}
