package core

import (
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"
)

// GroupData holds the value fields of a group
type GroupData struct {
	Name                    string
	Notes                   string
	IconNumber              int
	CustomIcon              uuid.UUID
	TimeInfo                TimeInfo
	IsExpanded              bool
	DefaultAutoTypeSequence string
	AutoTypeEnabled         TriState
	SearchingEnabled        TriState
	MergeMode               MergeMode
}

// Group is a node of the vault tree: ordered child groups, ordered
// entries, inheritable policies and a back-reference to the owning
// database. The last-top-visible entry is view state kept as a uuid and
// resolved against the live tree on read.
type Group struct {
	id             uuid.UUID
	data           GroupData
	customData     map[string]string
	lastTopVisible uuid.UUID
	db             *Database
	parent         *Group
	children       []*Group
	entries        []*Entry
	updateTimeInfo bool
}

// NewGroup creates a detached group with a fresh uuid and default icon
func NewGroup(name string) *Group {
	return &Group{
		id: uuid.New(),
		data: GroupData{
			Name:       name,
			IconNumber: DefaultIconNumber,
			TimeInfo:   NewTimeInfo(),
			IsExpanded: true,
		},
		customData:     make(map[string]string),
		updateTimeInfo: true,
	}
}

func (g *Group) UUID() uuid.UUID { return g.id }

// SetUUID replaces the group identity. Used by loaders and merge
// replay; does not stamp modification times.
func (g *Group) SetUUID(id uuid.UUID) { g.id = id }

// Data returns a copy of the group's value fields
func (g *Group) Data() GroupData { return g.data }

func (g *Group) Name() string  { return g.data.Name }
func (g *Group) Notes() string { return g.data.Notes }

func (g *Group) SetName(name string) {
	if g.data.Name == name {
		return
	}
	g.data.Name = name
	g.touch()
}

func (g *Group) SetNotes(notes string) {
	if g.data.Notes == notes {
		return
	}
	g.data.Notes = notes
	g.touch()
}

func (g *Group) IconNumber() int       { return g.data.IconNumber }
func (g *Group) CustomIcon() uuid.UUID { return g.data.CustomIcon }

// SetIcon selects a standard icon and clears any custom icon
func (g *Group) SetIcon(iconNumber int) {
	if g.data.IconNumber == iconNumber && g.data.CustomIcon == uuid.Nil {
		return
	}
	g.data.IconNumber = iconNumber
	g.data.CustomIcon = uuid.Nil
	g.touch()
}

// SetCustomIcon selects a custom icon and resets the standard icon
func (g *Group) SetCustomIcon(id uuid.UUID) {
	if g.data.CustomIcon == id {
		return
	}
	g.data.CustomIcon = id
	g.data.IconNumber = 0
	g.touch()
}

func (g *Group) TimeInfo() TimeInfo { return g.data.TimeInfo }

// SetTimeInfo installs authoritative timestamps without touching them
func (g *Group) SetTimeInfo(ti TimeInfo) { g.data.TimeInfo = ti }

func (g *Group) IsExpired() bool  { return g.data.TimeInfo.IsExpired() }
func (g *Group) IsExpanded() bool { return g.data.IsExpanded }

func (g *Group) SetExpanded(expanded bool) {
	if g.data.IsExpanded == expanded {
		return
	}
	g.data.IsExpanded = expanded
	g.touch()
}

func (g *Group) DefaultAutoTypeSequence() string { return g.data.DefaultAutoTypeSequence }

func (g *Group) SetDefaultAutoTypeSequence(sequence string) {
	if g.data.DefaultAutoTypeSequence == sequence {
		return
	}
	g.data.DefaultAutoTypeSequence = sequence
	g.touch()
}

func (g *Group) AutoTypeEnabled() TriState  { return g.data.AutoTypeEnabled }
func (g *Group) SearchingEnabled() TriState { return g.data.SearchingEnabled }

func (g *Group) SetAutoTypeEnabled(state TriState) {
	if g.data.AutoTypeEnabled == state {
		return
	}
	g.data.AutoTypeEnabled = state
	g.touch()
}

func (g *Group) SetSearchingEnabled(state TriState) {
	if g.data.SearchingEnabled == state {
		return
	}
	g.data.SearchingEnabled = state
	g.touch()
}

func (g *Group) MergeMode() MergeMode { return g.data.MergeMode }

func (g *Group) SetMergeMode(mode MergeMode) {
	if g.data.MergeMode == mode {
		return
	}
	g.data.MergeMode = mode
	g.touch()
}

// ResolveAutoTypeEnabled resolves the inherited auto-type policy,
// defaulting to enabled at the root
func (g *Group) ResolveAutoTypeEnabled() bool {
	switch g.data.AutoTypeEnabled {
	case Enable:
		return true
	case Disable:
		return false
	default:
		if g.parent != nil {
			return g.parent.ResolveAutoTypeEnabled()
		}
		return true
	}
}

// ResolveSearchingEnabled resolves the inherited searching policy,
// defaulting to enabled at the root
func (g *Group) ResolveSearchingEnabled() bool {
	switch g.data.SearchingEnabled {
	case Enable:
		return true
	case Disable:
		return false
	default:
		if g.parent != nil {
			return g.parent.ResolveSearchingEnabled()
		}
		return true
	}
}

// EffectiveMergeMode resolves ModeDefault through the parent chain,
// ending at ModeSynchronize for the root
func (g *Group) EffectiveMergeMode() MergeMode {
	if g.data.MergeMode != ModeDefault {
		return g.data.MergeMode
	}
	if g.parent != nil {
		return g.parent.EffectiveMergeMode()
	}
	return ModeSynchronize
}

// EffectiveAutoTypeSequence resolves an empty sequence through the
// parent chain, ending at RootAutoTypeSequence
func (g *Group) EffectiveAutoTypeSequence() string {
	if g.data.DefaultAutoTypeSequence != "" {
		return g.data.DefaultAutoTypeSequence
	}
	if g.parent != nil {
		return g.parent.EffectiveAutoTypeSequence()
	}
	return RootAutoTypeSequence
}

// CustomData returns a copy of the group's custom key/value data
func (g *Group) CustomData() map[string]string {
	out := make(map[string]string, len(g.customData))
	maps.Copy(out, g.customData)
	return out
}

func (g *Group) SetCustomDataItem(key, value string) {
	if v, ok := g.customData[key]; ok && v == value {
		return
	}
	g.customData[key] = value
	g.touch()
}

func (g *Group) RemoveCustomDataItem(key string) bool {
	if _, ok := g.customData[key]; !ok {
		return false
	}
	delete(g.customData, key)
	g.touch()
	return true
}

// LastTopVisibleEntry resolves the remembered scroll position against
// the live tree; a stale uuid yields nil
func (g *Group) LastTopVisibleEntry() *Entry {
	if g.lastTopVisible == uuid.Nil {
		return nil
	}
	return g.FindEntryByUUID(g.lastTopVisible)
}

func (g *Group) SetLastTopVisibleEntry(e *Entry) {
	id := uuid.Nil
	if e != nil {
		id = e.id
	}
	if g.lastTopVisible == id {
		return
	}
	g.lastTopVisible = id
	g.touch()
}

func (g *Group) Parent() *Group      { return g.parent }
func (g *Group) Database() *Database { return g.db }

// CanUpdateTimeInfo reports whether setters stamp modification times
func (g *Group) CanUpdateTimeInfo() bool { return g.updateTimeInfo }

// SetUpdateTimeInfo enables or disables timestamp stamping on change
// for this group only
func (g *Group) SetUpdateTimeInfo(v bool) { g.updateTimeInfo = v }

// Children returns the ordered child groups
func (g *Group) Children() []*Group {
	return append([]*Group(nil), g.children...)
}

// Entries returns the ordered entries of this group
func (g *Group) Entries() []*Entry {
	return append([]*Entry(nil), g.entries...)
}

// SetParent attaches the group under a new parent at the given index
// (negative appends). Moving a group onto itself or into its own
// subtree fails with ErrStructuralConflict. Moving across databases
// records tombstones for the whole departing subtree in the old
// database. Stamps LocationChanged unless timestamp updates are
// disabled.
func (g *Group) SetParent(parent *Group, index int) error {
	if parent == nil {
		return fmt.Errorf("%w: group needs a parent", ErrStructuralConflict)
	}
	if parent == g || g.isAncestorOf(parent) {
		return fmt.Errorf("%w: move would create a cycle", ErrStructuralConflict)
	}
	if index < 0 || index > len(parent.children) {
		index = len(parent.children)
	}
	if g.parent == parent && parent.childIndex(g) == index {
		return nil
	}

	oldDB := g.db
	if g.parent != nil {
		g.parent.detachChild(g)
	}
	if index > len(parent.children) {
		index = len(parent.children)
	}
	parent.children = append(parent.children, nil)
	copy(parent.children[index+1:], parent.children[index:])
	parent.children[index] = g
	g.parent = parent

	if oldDB != parent.db {
		if oldDB != nil {
			oldDB.addDeletedSubtree(g, Now())
			oldDB.emit(Event{Kind: EventGroupRemoved, UUID: g.id})
			oldDB.markModified()
		}
		g.setDatabase(parent.db)
	}
	if g.updateTimeInfo {
		g.data.TimeInfo.LocationChanged = Now()
	}
	if parent.db != nil {
		kind := EventGroupMoved
		if oldDB != parent.db {
			kind = EventGroupAdded
		}
		parent.db.emit(Event{Kind: kind, UUID: g.id})
		parent.db.markModified()
	}
	return nil
}

// AddEntry attaches a detached entry to this group
func (g *Group) AddEntry(e *Entry) {
	if e.group == g {
		return
	}
	if e.group != nil {
		e.SetGroup(g)
		return
	}
	g.entries = append(g.entries, e)
	e.group = g
	if g.db != nil {
		g.db.emit(Event{Kind: EventEntryAdded, UUID: e.id})
		g.db.markModified()
	}
}

// RemoveEntry deletes an entry from this group for good, recording a
// tombstone in the owning database. Use Entry.SetGroup to move instead.
func (g *Group) RemoveEntry(e *Entry) bool {
	if !g.detachEntry(e) {
		return false
	}
	if g.db != nil {
		g.db.AddDeletedUUID(e.id)
		g.db.emit(Event{Kind: EventEntryRemoved, UUID: e.id})
		g.db.markModified()
	}
	return true
}

// RemoveChild deletes a child group and everything below it, recording
// one tombstone per removed object
func (g *Group) RemoveChild(child *Group) bool {
	if child.parent != g {
		return false
	}
	if g.db != nil {
		g.db.addDeletedSubtree(child, Now())
	}
	g.detachChild(child)
	child.setDatabase(nil)
	if g.db != nil {
		g.db.emit(Event{Kind: EventGroupRemoved, UUID: child.id})
		g.db.markModified()
	}
	return true
}

// FindEntryByUUID searches this group and everything below it
func (g *Group) FindEntryByUUID(id uuid.UUID) *Entry {
	for _, e := range g.entries {
		if e.id == id {
			return e
		}
	}
	for _, child := range g.children {
		if e := child.FindEntryByUUID(id); e != nil {
			return e
		}
	}
	return nil
}

// FindGroupByUUID searches this group and everything below it
func (g *Group) FindGroupByUUID(id uuid.UUID) *Group {
	if g.id == id {
		return g
	}
	for _, child := range g.children {
		if found := child.FindGroupByUUID(id); found != nil {
			return found
		}
	}
	return nil
}

// FindChildByName returns the first direct child with the given name
func (g *Group) FindChildByName(name string) *Group {
	for _, child := range g.children {
		if child.data.Name == name {
			return child
		}
	}
	return nil
}

// FindGroupByPath walks a slash-separated path of group names below
// this group. Empty path or "/" returns the group itself.
func (g *Group) FindGroupByPath(path string) *Group {
	current := g
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		current = current.FindChildByName(segment)
		if current == nil {
			return nil
		}
	}
	return current
}

// FindEntryByPath resolves a slash-separated path whose last segment is
// an entry title
func (g *Group) FindEntryByPath(path string) *Entry {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	segments := strings.Split(trimmed, "/")
	title := segments[len(segments)-1]
	container := g
	if len(segments) > 1 {
		container = g.FindGroupByPath(strings.Join(segments[:len(segments)-1], "/"))
		if container == nil {
			return nil
		}
	}
	for _, e := range container.entries {
		if e.data.Title == title {
			return e
		}
	}
	return nil
}

// EntriesRecursive collects all entries below this group in tree
// order, optionally including history snapshots
func (g *Group) EntriesRecursive(includeHistory bool) []*Entry {
	var out []*Entry
	for _, e := range g.entries {
		out = append(out, e)
		if includeHistory {
			out = append(out, e.history...)
		}
	}
	for _, child := range g.children {
		out = append(out, child.EntriesRecursive(includeHistory)...)
	}
	return out
}

// GroupsRecursive collects this group (optionally) and all groups
// below it in tree order
func (g *Group) GroupsRecursive(includeSelf bool) []*Group {
	var out []*Group
	if includeSelf {
		out = append(out, g)
	}
	for _, child := range g.children {
		out = append(out, child.GroupsRecursive(true)...)
	}
	return out
}

// Hierarchy returns the group names from the root down to this group
func (g *Group) Hierarchy() []string {
	if g.parent == nil {
		return []string{g.data.Name}
	}
	return append(g.parent.Hierarchy(), g.data.Name)
}

// Path returns the slash-joined path below the root; "/" for the root
// itself
func (g *Group) Path() string {
	names := g.Hierarchy()
	return "/" + strings.Join(names[1:], "/")
}

// EntryPath returns the display path of an entry inside this tree
func EntryPath(e *Entry) string {
	if e.group == nil {
		return "/" + e.data.Title
	}
	p := e.group.Path()
	if p == "/" {
		return "/" + e.data.Title
	}
	return p + "/" + e.data.Title
}

// Locate returns the paths of all entries below this group whose path
// contains the term, case-insensitively
func (g *Group) Locate(term string) []string {
	var out []string
	needle := strings.ToLower(term)
	for _, e := range g.EntriesRecursive(false) {
		p := EntryPath(e)
		if strings.Contains(strings.ToLower(p), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Clone deep-copies the group and everything below it. The clone is
// detached from any database; zero options preserve identity and
// timestamps and skip entries.
func (g *Group) Clone(entryOpts EntryCloneOptions, opts CloneOptions) *Group {
	clone := &Group{
		id:             g.id,
		data:           g.data,
		customData:     make(map[string]string, len(g.customData)),
		lastTopVisible: g.lastTopVisible,
		updateTimeInfo: true,
	}
	maps.Copy(clone.customData, g.customData)
	if opts.NewIdentity {
		clone.id = uuid.New()
	}
	if opts.ResetTimeInfo {
		clone.data.TimeInfo = NewTimeInfo()
	}
	if opts.IncludeEntries {
		for _, e := range g.entries {
			ec := e.Clone(entryOpts)
			ec.group = clone
			clone.entries = append(clone.entries, ec)
		}
	}
	for _, child := range g.children {
		cc := child.Clone(entryOpts, opts)
		cc.parent = clone
		clone.children = append(clone.children, cc)
	}
	return clone
}

// Equals compares identity, value fields, custom data and the whole
// subtree below both groups
func (g *Group) Equals(other *Group, opts CompareOptions) bool {
	if other == nil {
		return false
	}
	if g.id != other.id {
		return false
	}
	if !groupDataEquals(g.data, other.data, opts) {
		return false
	}
	if !opts.IgnoreView && g.lastTopVisible != other.lastTopVisible {
		return false
	}
	if !maps.Equal(g.customData, other.customData) {
		return false
	}
	if len(g.entries) != len(other.entries) || len(g.children) != len(other.children) {
		return false
	}
	for i := range g.entries {
		if !g.entries[i].Equals(other.entries[i], opts) {
			return false
		}
	}
	for i := range g.children {
		if !g.children[i].Equals(other.children[i], opts) {
			return false
		}
	}
	return true
}

func (g *Group) touch() {
	if g.updateTimeInfo {
		now := Now()
		g.data.TimeInfo.LastModified = now
		g.data.TimeInfo.LastAccess = now
	}
	if g.db != nil {
		g.db.markModified()
	}
}

// copyDataFrom adopts another group's value fields, timestamps, custom
// data and view state, leaving identity and tree links alone
func (g *Group) copyDataFrom(other *Group) {
	g.data = other.data
	g.customData = make(map[string]string, len(other.customData))
	maps.Copy(g.customData, other.customData)
	g.lastTopVisible = other.lastTopVisible
}

func (g *Group) isAncestorOf(other *Group) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == g {
			return true
		}
	}
	return false
}

func (g *Group) childIndex(child *Group) int {
	for i, c := range g.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (g *Group) detachChild(child *Group) bool {
	i := g.childIndex(child)
	if i < 0 {
		return false
	}
	g.children = append(g.children[:i], g.children[i+1:]...)
	child.parent = nil
	return true
}

func (g *Group) detachEntry(e *Entry) bool {
	for i, cur := range g.entries {
		if cur == e {
			g.entries = append(g.entries[:i], g.entries[i+1:]...)
			e.group = nil
			return true
		}
	}
	return false
}

func (g *Group) setDatabase(db *Database) {
	g.db = db
	for _, child := range g.children {
		child.setDatabase(db)
	}
}

func groupDataEquals(a, b GroupData, opts CompareOptions) bool {
	if a.Name != b.Name || a.Notes != b.Notes ||
		a.IconNumber != b.IconNumber || a.CustomIcon != b.CustomIcon ||
		a.DefaultAutoTypeSequence != b.DefaultAutoTypeSequence ||
		a.AutoTypeEnabled != b.AutoTypeEnabled ||
		a.SearchingEnabled != b.SearchingEnabled ||
		a.MergeMode != b.MergeMode {
		return false
	}
	if !opts.IgnoreView && a.IsExpanded != b.IsExpanded {
		return false
	}
	if !opts.IgnoreTimes && !a.TimeInfo.Equals(b.TimeInfo) {
		return false
	}
	return true
}
