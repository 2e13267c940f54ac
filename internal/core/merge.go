package core

import (
	"fmt"
	"maps"
	"sort"

	"github.com/google/uuid"
)

// headSide names which side's current state wins an entry conflict
type headSide int

const (
	headNewer headSide = iota
	headLocal
	headRemote
)

// Merger folds the contents of a remote copy of a vault into the local
// one. The local database is mutated in place; the remote is never
// touched. Replay preserves the remote objects' own timestamps:
// stamping and change notification are suspended for the duration, and
// at most one modification event fires at the end.
type Merger struct {
	local  *Database
	remote *Database
	forced MergeMode
	report *Report
}

// NewMerger prepares a merge of remote into local
func NewMerger(local, remote *Database) *Merger {
	return &Merger{local: local, remote: remote, report: &Report{}}
}

// SetForcedMode overrides every group's merge mode for this merge.
// ModeDefault restores per-group resolution.
func (m *Merger) SetForcedMode(mode MergeMode) { m.forced = mode }

// Merge applies the remote database into the local one and reports
// every visible change. Both trees must share a root uuid and be
// structurally sound, otherwise nothing is touched. Deletions are
// applied only when the local root resolves to ModeSynchronize;
// tombstones are unioned regardless, so a later synchronizing merge
// can still act on them.
func (m *Merger) Merge() (*Report, error) {
	if m.local.root.id != m.remote.root.id {
		return nil, fmt.Errorf("%w: vaults do not share a root group", ErrStructuralConflict)
	}
	if err := checkTree(m.local.root); err != nil {
		return nil, err
	}
	if err := checkTree(m.remote.root); err != nil {
		return nil, err
	}

	m.local.SetEmitModified(false)
	setTreeUpdateTimeInfo(m.local.root, false)

	m.mergeGroup(m.local.root, m.remote.root)

	tombstones := unionTombstones(m.local.deleted, m.remote.deleted)
	if m.modeFor(m.local.root) == ModeSynchronize {
		m.applyDeletions(tombstones)
	}
	tombstonesChanged := !tombstonesEqual(m.local.deleted, tombstones)
	if tombstonesChanged {
		m.local.SetDeletedObjects(tombstones)
	}

	setTreeUpdateTimeInfo(m.local.root, true)
	m.local.SetEmitModified(true)
	if tombstonesChanged || !m.report.Empty() {
		m.local.MarkAsModified()
	}
	return m.report, nil
}

func (m *Merger) modeFor(g *Group) MergeMode {
	if m.forced != ModeDefault {
		return m.forced
	}
	return g.EffectiveMergeMode()
}

// mergeGroup reconciles one corresponding pair of groups and recurses
// into the remote children. lp is the local counterpart of rp.
func (m *Merger) mergeGroup(lp, rp *Group) {
	mode := m.modeFor(lp)
	m.resolveGroupData(mode, lp, rp)

	for _, re := range rp.entries {
		le := m.local.ResolveEntry(re.id)
		if le == nil {
			m.copyEntry(lp, re)
			continue
		}
		m.relocateEntry(lp, le, re)
		m.resolveEntryConflict(mode, le, re)
	}

	for _, rc := range rp.children {
		lc := m.local.ResolveGroup(rc.id)
		if lc == nil {
			lc = m.copyGroup(lp, rc)
			if lc == nil {
				continue
			}
		} else {
			m.relocateGroup(lp, lc, rc)
		}
		m.mergeGroup(lc, rc)
	}
}

// copyEntry brings a remote-only entry into the local parent, unless a
// local tombstone at or after the remote modification blocks the
// resurrection
func (m *Merger) copyEntry(lp *Group, re *Entry) {
	if tomb, ok := m.local.deletedObject(re.id); ok && !tomb.DeletionTime.Before(re.data.TimeInfo.LastModified) {
		return
	}
	clone := re.Clone(EntryCloneOptions{IncludeHistory: true})
	clone.updateTimeInfo = false
	lp.AddEntry(clone)
	m.report.add(OpAddEntry, EntryPath(clone), clone.id, "")
}

// copyGroup brings a remote-only group into the local parent as a bare
// copy; its entries and children follow in the recursion, each with
// its own tombstone check. A local tombstone at or after the remote
// modification blocks the whole subtree.
func (m *Merger) copyGroup(lp, rc *Group) *Group {
	if tomb, ok := m.local.deletedObject(rc.id); ok && !tomb.DeletionTime.Before(rc.data.TimeInfo.LastModified) {
		return nil
	}
	bare := &Group{
		id:             rc.id,
		data:           rc.data,
		customData:     make(map[string]string, len(rc.customData)),
		lastTopVisible: rc.lastTopVisible,
	}
	maps.Copy(bare.customData, rc.customData)
	_ = bare.SetParent(lp, -1)
	m.report.add(OpAddGroup, bare.Path(), bare.id, "")
	return bare
}

// relocateEntry moves a local entry under the remote's parent
// counterpart when the remote recorded the later location change
func (m *Merger) relocateEntry(lp *Group, le, re *Entry) {
	if le.group == lp {
		return
	}
	if !re.data.TimeInfo.LocationChanged.After(le.data.TimeInfo.LocationChanged) {
		return
	}
	le.SetGroup(lp)
	le.data.TimeInfo.LocationChanged = re.data.TimeInfo.LocationChanged
	m.report.add(OpMoveEntry, EntryPath(le), le.id, "")
}

// relocateGroup moves a local group under the remote's parent
// counterpart when the remote recorded the later location change. A
// move the tree cannot express, such as one that would create a cycle,
// keeps the local location instead.
func (m *Merger) relocateGroup(lp, lc, rc *Group) {
	if lc.parent == lp || lc == m.local.root {
		return
	}
	if !rc.data.TimeInfo.LocationChanged.After(lc.data.TimeInfo.LocationChanged) {
		return
	}
	if err := lc.SetParent(lp, -1); err != nil {
		return
	}
	lc.data.TimeInfo.LocationChanged = rc.data.TimeInfo.LocationChanged
	m.report.add(OpMoveGroup, lc.Path(), lc.id, "")
}

// resolveGroupData reconciles a group's own fields. KeepLocal and
// KeepRemote pick a side; every other mode lets the newer modification
// win. Groups carry no history, so nothing survives from the losing
// side.
func (m *Merger) resolveGroupData(mode MergeMode, lc, rc *Group) {
	useRemote := false
	switch mode {
	case ModeKeepLocal:
	case ModeKeepRemote:
		useRemote = true
	default:
		useRemote = rc.data.TimeInfo.LastModified.After(lc.data.TimeInfo.LastModified)
	}
	if !useRemote || groupStateEquals(lc, rc) {
		return
	}
	detail := groupChangeDetail(lc.data, rc.data)
	lc.copyDataFrom(rc)
	m.report.add(OpUpdateGroup, lc.Path(), lc.id, detail)
}

// resolveEntryConflict reconciles an entry present on both sides,
// according to the containing group's merge mode
func (m *Merger) resolveEntryConflict(mode MergeMode, le, re *Entry) {
	switch mode {
	case ModeKeepLocal:
		m.mergeEntryState(le, re, headLocal)
	case ModeKeepRemote:
		m.mergeEntryState(le, re, headRemote)
	case ModeDuplicate:
		m.resolveEntryDuplicate(le, re)
	default:
		m.mergeEntryState(le, re, headNewer)
	}
}

// mergeEntryState rebuilds an entry from the union of both sides'
// version timelines. The head named by precedence stays current, and
// every other unique state becomes history ordered by modification
// time, so the losing head survives in the winner's history. Reports
// and returns whether the local entry changed.
func (m *Merger) mergeEntryState(le, re *Entry, precedence headSide) bool {
	timeline := mergedTimeline(le, re)

	winner := le.data
	switch precedence {
	case headRemote:
		winner = re.data
	case headNewer:
		if re.data.TimeInfo.LastModified.After(le.data.TimeInfo.LastModified) {
			winner = re.data
		}
	}

	history := make([]EntryData, 0, len(timeline))
	dropped := false
	for _, state := range timeline {
		if !dropped && entryDataEquals(state, winner, CompareOptions{}) {
			dropped = true
			continue
		}
		history = append(history, state)
	}

	headChanged := !entryDataEquals(le.data, winner, CompareOptions{})
	histChanged := len(history) != len(le.history)
	if !histChanged {
		for i := range history {
			if !entryDataEquals(history[i], le.history[i].data, CompareOptions{}) {
				histChanged = true
				break
			}
		}
	}
	if !headChanged && !histChanged {
		return false
	}

	detail := "history"
	if headChanged {
		detail = entryChangeDetail(le.data, winner)
		le.data = winner
	}
	items := make([]*Entry, 0, len(history))
	for _, state := range history {
		items = append(items, &Entry{id: le.id, data: state, updateTimeInfo: true})
	}
	le.SetHistory(items)

	m.report.add(OpUpdateEntry, EntryPath(le), le.id, detail)
	return true
}

// resolveEntryDuplicate keeps both versions of a truly conflicting
// entry: the newer head stays in place and the older one comes back as
// a sibling under a fresh uuid, history included. A fast-forward,
// where one side's head already sits in the other's timeline, applies
// cleanly without duplicating.
func (m *Merger) resolveEntryDuplicate(le, re *Entry) {
	if entryDataEquals(le.data, re.data, CompareOptions{}) {
		m.mergeEntryState(le, re, headNewer)
		return
	}
	localAhead := timelineContains(le, re.data)
	remoteAhead := timelineContains(re, le.data)
	switch {
	case localAhead && !remoteAhead:
		m.mergeEntryState(le, re, headLocal)
	case remoteAhead && !localAhead:
		m.mergeEntryState(le, re, headRemote)
	default:
		var sibling *Entry
		if re.data.TimeInfo.LastModified.After(le.data.TimeInfo.LastModified) {
			sibling = le.Clone(EntryCloneOptions{NewIdentity: true, IncludeHistory: true})
			m.mergeEntryState(le, re, headRemote)
		} else {
			sibling = re.Clone(EntryCloneOptions{NewIdentity: true, IncludeHistory: true})
			m.mergeEntryState(le, re, headLocal)
		}
		sibling.updateTimeInfo = false
		le.group.AddEntry(sibling)
		m.report.add(OpDuplicateEntry, EntryPath(sibling), sibling.id, "kept both versions")
	}
}

// applyDeletions removes local objects whose newest tombstone is newer
// than their last modification. Entries go first; groups follow bottom
// up and only once nothing lives below them. The root never goes, and
// no new tombstones are recorded: the applied one already covers the
// removal.
func (m *Merger) applyDeletions(tombstones []DeletedObject) {
	newest := make(map[uuid.UUID]DeletedObject, len(tombstones))
	for _, d := range tombstones {
		if cur, ok := newest[d.UUID]; !ok || d.DeletionTime.After(cur.DeletionTime) {
			newest[d.UUID] = d
		}
	}

	for _, e := range m.local.root.EntriesRecursive(false) {
		tomb, ok := newest[e.id]
		if !ok || !e.data.TimeInfo.LastModified.Before(tomb.DeletionTime) {
			continue
		}
		path := EntryPath(e)
		e.group.detachEntry(e)
		m.report.add(OpRemoveEntry, path, e.id, "")
	}

	var walk func(g *Group)
	walk = func(g *Group) {
		for _, child := range g.Children() {
			walk(child)
			tomb, ok := newest[child.id]
			if !ok || !child.data.TimeInfo.LastModified.Before(tomb.DeletionTime) {
				continue
			}
			if len(child.children) > 0 || len(child.entries) > 0 {
				continue
			}
			path := child.Path()
			g.detachChild(child)
			child.setDatabase(nil)
			m.report.add(OpRemoveGroup, path, child.id, "")
		}
	}
	walk(m.local.root)
}

// mergedTimeline collects every unique entry state from both sides,
// heads and history alike, ordered by modification time. Equal stamps
// keep insertion order, local states first.
func mergedTimeline(le, re *Entry) []EntryData {
	var states []EntryData
	add := func(d EntryData) {
		for _, s := range states {
			if entryDataEquals(s, d, CompareOptions{}) {
				return
			}
		}
		states = append(states, d)
	}
	for _, h := range le.history {
		add(h.data)
	}
	add(le.data)
	for _, h := range re.history {
		add(h.data)
	}
	add(re.data)
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].TimeInfo.LastModified.Before(states[j].TimeInfo.LastModified)
	})
	return states
}

// timelineContains reports whether a state appears in an entry's
// timeline, as its head or anywhere in its history
func timelineContains(e *Entry, state EntryData) bool {
	if entryDataEquals(e.data, state, CompareOptions{}) {
		return true
	}
	for _, h := range e.history {
		if entryDataEquals(h.data, state, CompareOptions{}) {
			return true
		}
	}
	return false
}

func groupStateEquals(a, b *Group) bool {
	return groupDataEquals(a.data, b.data, CompareOptions{}) &&
		maps.Equal(a.customData, b.customData) &&
		a.lastTopVisible == b.lastTopVisible
}

// checkTree verifies parent links and uuid uniqueness across a tree
func checkTree(root *Group) error {
	seenGroups := make(map[uuid.UUID]bool)
	seenEntries := make(map[uuid.UUID]bool)
	var walk func(g *Group) error
	walk = func(g *Group) error {
		if seenGroups[g.id] {
			return fmt.Errorf("%w: group %s appears twice", ErrStructuralConflict, g.id)
		}
		seenGroups[g.id] = true
		for _, e := range g.entries {
			if e.group != g {
				return fmt.Errorf("%w: entry %s has a stale group link", ErrStructuralConflict, e.id)
			}
			if seenEntries[e.id] {
				return fmt.Errorf("%w: entry %s appears twice", ErrStructuralConflict, e.id)
			}
			seenEntries[e.id] = true
		}
		for _, child := range g.children {
			if child.parent != g {
				return fmt.Errorf("%w: group %s has a stale parent link", ErrStructuralConflict, child.id)
			}
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

// setTreeUpdateTimeInfo flips timestamp stamping for a whole subtree,
// groups and live entries alike
func setTreeUpdateTimeInfo(g *Group, v bool) {
	g.updateTimeInfo = v
	for _, e := range g.entries {
		e.updateTimeInfo = v
	}
	for _, child := range g.children {
		setTreeUpdateTimeInfo(child, v)
	}
}

// unionTombstones merges both tombstone lists keeping one tombstone
// per uuid, the newest. Order follows first appearance, local side
// first.
func unionTombstones(local, remote []DeletedObject) []DeletedObject {
	newest := make(map[uuid.UUID]DeletedObject, len(local)+len(remote))
	var order []uuid.UUID
	record := func(d DeletedObject) {
		cur, ok := newest[d.UUID]
		if !ok {
			order = append(order, d.UUID)
			newest[d.UUID] = d
		} else if d.DeletionTime.After(cur.DeletionTime) {
			newest[d.UUID] = d
		}
	}
	for _, d := range local {
		record(d)
	}
	for _, d := range remote {
		record(d)
	}
	out := make([]DeletedObject, 0, len(order))
	for _, id := range order {
		out = append(out, newest[id])
	}
	return out
}

func tombstonesEqual(a, b []DeletedObject) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}
