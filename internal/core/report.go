package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeOp classifies one applied merge change
type ChangeOp int

const (
	OpAddGroup ChangeOp = iota
	OpAddEntry
	OpUpdateGroup
	OpUpdateEntry
	OpMoveGroup
	OpMoveEntry
	OpRemoveGroup
	OpRemoveEntry
	OpDuplicateEntry
)

func (op ChangeOp) String() string {
	switch op {
	case OpAddGroup:
		return "add group"
	case OpAddEntry:
		return "add entry"
	case OpUpdateGroup:
		return "update group"
	case OpUpdateEntry:
		return "update entry"
	case OpMoveGroup:
		return "move group"
	case OpMoveEntry:
		return "move entry"
	case OpRemoveGroup:
		return "remove group"
	case OpRemoveEntry:
		return "remove entry"
	case OpDuplicateEntry:
		return "duplicate entry"
	default:
		return fmt.Sprintf("change(%d)", int(op))
	}
}

// Change is one applied merge change. Path names the local object
// after the change; Detail optionally carries a field summary or a
// notes diff.
type Change struct {
	Op     ChangeOp
	Path   string
	UUID   uuid.UUID
	Detail string
}

// Report lists every visible change a merge applied, in application
// order. Tombstone bookkeeping is not listed; the database's modified
// flag covers it.
type Report struct {
	Changes []Change
}

func (r *Report) add(op ChangeOp, path string, id uuid.UUID, detail string) {
	r.Changes = append(r.Changes, Change{Op: op, Path: path, UUID: id, Detail: detail})
}

// Empty reports whether the merge changed anything visible
func (r *Report) Empty() bool { return len(r.Changes) == 0 }

// Summary is a one-line count of the applied changes
func (r *Report) Summary() string {
	switch len(r.Changes) {
	case 0:
		return "no changes"
	case 1:
		return "1 change"
	default:
		return fmt.Sprintf("%d changes", len(r.Changes))
	}
}

// Render lists the changes one per line, detail lines indented below
func (r *Report) Render() string {
	var sb strings.Builder
	for _, c := range r.Changes {
		fmt.Fprintf(&sb, "%-16s %s\n", c.Op, c.Path)
		if c.Detail == "" {
			continue
		}
		for _, line := range strings.Split(c.Detail, "\n") {
			sb.WriteString("    " + line + "\n")
		}
	}
	return sb.String()
}

// entryChangeDetail names the fields that differ between two entry
// states. Password values are never printed; a notes change appends a
// line diff.
func entryChangeDetail(prev, next EntryData) string {
	var fields []string
	if prev.Title != next.Title {
		fields = append(fields, "title")
	}
	if prev.Username != next.Username {
		fields = append(fields, "username")
	}
	if prev.Password != next.Password {
		fields = append(fields, "password")
	}
	if prev.URL != next.URL {
		fields = append(fields, "url")
	}
	if prev.Notes != next.Notes {
		fields = append(fields, "notes")
	}
	if len(fields) == 0 {
		return ""
	}
	detail := strings.Join(fields, ", ")
	if prev.Notes != next.Notes {
		if d := NotesDiff(prev.Notes, next.Notes); d != "" {
			detail += "\n" + d
		}
	}
	return detail
}

// groupChangeDetail names the fields that differ between two group
// states
func groupChangeDetail(prev, next GroupData) string {
	var fields []string
	if prev.Name != next.Name {
		fields = append(fields, "name")
	}
	if prev.Notes != next.Notes {
		fields = append(fields, "notes")
	}
	if prev.IconNumber != next.IconNumber || prev.CustomIcon != next.CustomIcon {
		fields = append(fields, "icon")
	}
	if prev.DefaultAutoTypeSequence != next.DefaultAutoTypeSequence ||
		prev.AutoTypeEnabled != next.AutoTypeEnabled {
		fields = append(fields, "auto-type")
	}
	if prev.SearchingEnabled != next.SearchingEnabled {
		fields = append(fields, "searching")
	}
	if prev.MergeMode != next.MergeMode {
		fields = append(fields, "merge mode")
	}
	return strings.Join(fields, ", ")
}

// NotesDiff renders a line diff between two notes texts, removals
// prefixed with "-" and additions with "+". Returns the empty string
// when both are equal.
func NotesDiff(prev, next string) string {
	if prev == next {
		return ""
	}
	dmp := diffmatchpatch.New()

	// Line-mode diff (more efficient for multi-line text)
	a, b, lineArray := dmp.DiffLinesToChars(prev, next)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			sb.WriteString(prefix + line + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
