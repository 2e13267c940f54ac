package core

import "fmt"

// TriState is an inheritable boolean policy. Inherit resolves through
// the parent chain, defaulting to enabled at the root.
type TriState int

const (
	Inherit TriState = iota
	Enable
	Disable
)

func (t TriState) String() string {
	switch t {
	case Inherit:
		return "inherit"
	case Enable:
		return "enable"
	case Disable:
		return "disable"
	default:
		return fmt.Sprintf("tristate(%d)", int(t))
	}
}

// MergeMode controls how conflicting objects reconcile when two copies
// of a vault merge. ModeDefault resolves through the parent chain,
// ending at ModeSynchronize for the root.
type MergeMode int

const (
	ModeDefault MergeMode = iota
	// ModeDuplicate keeps both conflicting versions side by side. Lossy
	// with regard to deletions: removed objects come back from the
	// other copy.
	ModeDuplicate
	ModeKeepLocal
	ModeKeepRemote
	ModeKeepNewer
	// ModeSynchronize reconciles fields, history and location, and is
	// the only mode that applies deletions.
	ModeSynchronize
)

func (m MergeMode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeDuplicate:
		return "duplicate"
	case ModeKeepLocal:
		return "keep-local"
	case ModeKeepRemote:
		return "keep-remote"
	case ModeKeepNewer:
		return "keep-newer"
	case ModeSynchronize:
		return "synchronize"
	default:
		return fmt.Sprintf("mergemode(%d)", int(m))
	}
}

// MergeModeFromString parses a merge mode name as printed by String
func MergeModeFromString(s string) (MergeMode, error) {
	switch s {
	case "default":
		return ModeDefault, nil
	case "duplicate":
		return ModeDuplicate, nil
	case "keep-local":
		return ModeKeepLocal, nil
	case "keep-remote":
		return ModeKeepRemote, nil
	case "keep-newer":
		return ModeKeepNewer, nil
	case "synchronize":
		return ModeSynchronize, nil
	default:
		return ModeDefault, fmt.Errorf("unknown merge mode %q", s)
	}
}

// ReferenceType selects which entry field a textual reference matches
type ReferenceType int

const (
	RefTitle ReferenceType = iota
	RefUsername
	RefPassword
	RefURL
	RefNotes
	RefUUID
)

const (
	// DefaultIconNumber is the icon assigned to new groups
	DefaultIconNumber = 48
	// RecycleBinIconNumber marks the recycle bin group
	RecycleBinIconNumber = 43
	// RecycleBinName is the display name of an auto-created recycle bin
	RecycleBinName = "Recycle Bin"
	// RootAutoTypeSequence is the auto-type sequence inherited when no
	// group in the chain overrides it
	RootAutoTypeSequence = "{USERNAME}{TAB}{PASSWORD}{ENTER}"
)

// CloneOptions controls group cloning. The zero value preserves
// identity and timestamps and clones the group structure only.
type CloneOptions struct {
	NewIdentity    bool // fresh uuids for the clone and all nested groups
	ResetTimeInfo  bool // stamp clones as created now
	IncludeEntries bool // clone contained entries as well
}

// EntryCloneOptions controls entry cloning. The zero value preserves
// identity and timestamps and drops history.
type EntryCloneOptions struct {
	NewIdentity    bool
	ResetTimeInfo  bool
	IncludeHistory bool
}

// CompareOptions controls what Equals considers significant
type CompareOptions struct {
	IgnoreTimes   bool // skip TimeInfo comparison
	IgnoreHistory bool // skip entry history comparison
	IgnoreView    bool // skip expansion state and last-top-visible entry
}
