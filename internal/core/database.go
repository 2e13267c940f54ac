package core

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c0ns0le/keepassxc/internal/crypto"
)

var (
	ErrStructuralConflict = errors.New("structural conflict")
	ErrNoContainerWriter  = errors.New("no container writer configured")
	ErrNoFilePath         = errors.New("no file path set")
)

// DeletedObject is a tombstone: which object was removed and when. Two
// tombstones are equal only when both uuid and deletion time match.
type DeletedObject struct {
	UUID         uuid.UUID
	DeletionTime time.Time
}

func (d DeletedObject) Equals(other DeletedObject) bool {
	return d.UUID == other.UUID && d.DeletionTime.Equal(other.DeletionTime)
}

// ContainerWriter serializes a database into its on-disk container.
// The storage package provides the implementation; the seam keeps the
// tree model free of persistence concerns and lets tests fail writes
// deliberately.
type ContainerWriter interface {
	WriteDatabaseFile(path string, db *Database) error
}

// Database is one open vault: the group tree, its deletion tombstones,
// the key envelope and change-notification state. Every database
// registers itself in a process-wide uuid registry until closed.
type Database struct {
	id               uuid.UUID
	root             *Group
	deleted          []DeletedObject
	envelope         *crypto.KeyEnvelope
	filePath         string
	publicCustomData map[string]string
	writer           ContainerWriter
	modified         bool
	emitModified     bool
	subscribers      []func(Event)
}

// NewDatabase creates an empty vault with a fresh envelope and a root
// group, and registers it in the process registry
func NewDatabase() *Database {
	db := &Database{
		id:               uuid.New(),
		envelope:         crypto.NewKeyEnvelope(),
		publicCustomData: make(map[string]string),
		emitModified:     true,
	}
	db.SetRootGroup(NewGroup("Root"))
	registerDatabase(db)
	return db
}

// Close deregisters the database and wipes derived key material
func (db *Database) Close() {
	deregisterDatabase(db.id)
	db.envelope.Clear()
}

// UUID is the process-local instance identity, distinct from the vault
// id stored in the container
func (db *Database) UUID() uuid.UUID { return db.id }

func (db *Database) RootGroup() *Group { return db.root }

// SetRootGroup swaps the tree wholesale. Emits nothing: root
// replacement happens during load and merge setup.
func (db *Database) SetRootGroup(g *Group) {
	if g == nil {
		return
	}
	if db.root != nil {
		db.root.setDatabase(nil)
	}
	g.parent = nil
	g.setDatabase(db)
	db.root = g
}

func (db *Database) FilePath() string        { return db.filePath }
func (db *Database) SetFilePath(path string) { db.filePath = path }

// ResolveEntry finds a live entry by uuid anywhere in the tree
func (db *Database) ResolveEntry(id uuid.UUID) *Entry {
	return db.root.FindEntryByUUID(id)
}

// ResolveGroup finds a live group by uuid anywhere in the tree
func (db *Database) ResolveGroup(id uuid.UUID) *Group {
	return db.root.FindGroupByUUID(id)
}

// ResolveEntryRef finds the first entry in tree order whose referenced
// field matches the text, case-insensitively. RefUUID parses the text
// as a uuid.
func (db *Database) ResolveEntryRef(text string, ref ReferenceType) *Entry {
	var wantID uuid.UUID
	if ref == RefUUID {
		id, err := uuid.Parse(text)
		if err != nil {
			return nil
		}
		wantID = id
	}
	for _, e := range db.root.EntriesRecursive(false) {
		switch ref {
		case RefTitle:
			if strings.EqualFold(e.data.Title, text) {
				return e
			}
		case RefUsername:
			if strings.EqualFold(e.data.Username, text) {
				return e
			}
		case RefPassword:
			if e.data.Password == text {
				return e
			}
		case RefURL:
			if strings.EqualFold(e.data.URL, text) {
				return e
			}
		case RefNotes:
			if strings.EqualFold(e.data.Notes, text) {
				return e
			}
		case RefUUID:
			if e.id == wantID {
				return e
			}
		}
	}
	return nil
}

// DeletedObjects returns a copy of the tombstone list
func (db *Database) DeletedObjects() []DeletedObject {
	return append([]DeletedObject(nil), db.deleted...)
}

// SetDeletedObjects replaces the tombstone list wholesale
func (db *Database) SetDeletedObjects(list []DeletedObject) {
	db.deleted = append([]DeletedObject(nil), list...)
}

func (db *Database) AddDeletedObject(obj DeletedObject) {
	db.deleted = append(db.deleted, obj)
}

// AddDeletedUUID records a tombstone for the object with the current
// time as deletion time
func (db *Database) AddDeletedUUID(id uuid.UUID) {
	db.AddDeletedObject(DeletedObject{UUID: id, DeletionTime: Now()})
}

// ContainsDeletedObject reports whether any tombstone exists for the
// uuid
func (db *Database) ContainsDeletedObject(id uuid.UUID) bool {
	for _, d := range db.deleted {
		if d.UUID == id {
			return true
		}
	}
	return false
}

// deletedObject returns the newest tombstone for a uuid
func (db *Database) deletedObject(id uuid.UUID) (DeletedObject, bool) {
	var newest DeletedObject
	found := false
	for _, d := range db.deleted {
		if d.UUID == id && (!found || d.DeletionTime.After(newest.DeletionTime)) {
			newest = d
			found = true
		}
	}
	return newest, found
}

// addDeletedSubtree records one tombstone per object in the subtree,
// entries and groups alike, all with the same deletion time
func (db *Database) addDeletedSubtree(g *Group, t time.Time) {
	for _, e := range g.entries {
		db.AddDeletedObject(DeletedObject{UUID: e.id, DeletionTime: t})
	}
	for _, child := range g.children {
		db.addDeletedSubtree(child, t)
	}
	db.AddDeletedObject(DeletedObject{UUID: g.id, DeletionTime: t})
}

// RecycleBin returns the recycle bin group, identified by its sentinel
// icon, or nil when none exists
func (db *Database) RecycleBin() *Group {
	for _, g := range db.root.GroupsRecursive(false) {
		if g.data.IconNumber == RecycleBinIconNumber && g.data.CustomIcon == uuid.Nil {
			return g
		}
	}
	return nil
}

func (db *Database) ensureRecycleBin() *Group {
	if bin := db.RecycleBin(); bin != nil {
		return bin
	}
	bin := NewGroup(RecycleBinName)
	bin.SetIcon(RecycleBinIconNumber)
	bin.SetSearchingEnabled(Disable)
	bin.SetAutoTypeEnabled(Disable)
	_ = bin.SetParent(db.root, -1)
	return bin
}

// RecycleEntry moves an entry into the recycle bin, creating the bin on
// demand. A move records no tombstone.
func (db *Database) RecycleEntry(e *Entry) {
	bin := db.ensureRecycleBin()
	e.SetGroup(bin)
}

// RecycleGroup moves a group into the recycle bin, creating the bin on
// demand. Recycling a group into its own subtree fails.
func (db *Database) RecycleGroup(g *Group) error {
	bin := db.ensureRecycleBin()
	return g.SetParent(bin, -1)
}

// EmptyRecycleBin destroys the bin's contents, recording exactly one
// tombstone per removed object. The bin itself stays.
func (db *Database) EmptyRecycleBin() {
	bin := db.RecycleBin()
	if bin == nil {
		return
	}
	now := Now()
	for _, e := range bin.Entries() {
		bin.detachEntry(e)
		db.AddDeletedObject(DeletedObject{UUID: e.id, DeletionTime: now})
		db.emit(Event{Kind: EventEntryRemoved, UUID: e.id})
	}
	for _, child := range bin.Children() {
		db.addDeletedSubtree(child, now)
		bin.detachChild(child)
		child.setDatabase(nil)
		db.emit(Event{Kind: EventGroupRemoved, UUID: child.id})
	}
	db.markModified()
}

// Envelope exposes the key envelope for container and cipher settings
func (db *Database) Envelope() *crypto.KeyEnvelope { return db.envelope }

// SetKey installs a new composite credential. The master seed is
// regenerated, the KDF salt optionally re-randomized; on failure the
// previous key material stays fully usable.
func (db *Database) SetKey(key crypto.DatabaseKey, updateChangedTime, updateTransformSalt bool) error {
	if err := db.envelope.SetKey(key, updateTransformSalt); err != nil {
		return err
	}
	if updateChangedTime {
		db.MarkAsModified()
	}
	return nil
}

// VerifyKey checks a candidate credential against the stored key
// without mutating anything
func (db *Database) VerifyKey(candidate crypto.DatabaseKey) bool {
	return db.envelope.VerifyKey(candidate)
}

// ChangeKdf re-derives the current key under a replacement KDF; both
// KDF and derived key swap atomically or not at all
func (db *Database) ChangeKdf(kdf crypto.Kdf) error {
	if err := db.envelope.ChangeKdf(kdf); err != nil {
		return err
	}
	db.MarkAsModified()
	return nil
}

// PublicCustomData is the plaintext key/value data stored outside the
// encrypted payload
func (db *Database) PublicCustomData() map[string]string {
	out := make(map[string]string, len(db.publicCustomData))
	maps.Copy(out, db.publicCustomData)
	return out
}

// SetPublicCustomData replaces the plaintext custom data wholesale
func (db *Database) SetPublicCustomData(data map[string]string) {
	db.publicCustomData = make(map[string]string, len(data))
	maps.Copy(db.publicCustomData, data)
}

func (db *Database) SetPublicCustomDataItem(key, value string) {
	if v, ok := db.publicCustomData[key]; ok && v == value {
		return
	}
	db.publicCustomData[key] = value
	db.markModified()
}

// SetContainerWriter injects the container serializer used by
// SaveToFile
func (db *Database) SetContainerWriter(w ContainerWriter) { db.writer = w }

// SaveToFile writes the vault to disk. With backup, an existing file is
// copied to path+".old" first. With atomic, the container is written to
// path+".tmp" and renamed into place, so a failed write never disturbs
// the existing file. An empty path falls back to the stored file path.
func (db *Database) SaveToFile(path string, atomic, backup bool) error {
	if db.writer == nil {
		return ErrNoContainerWriter
	}
	if path == "" {
		path = db.filePath
	}
	if path == "" {
		return ErrNoFilePath
	}

	if backup {
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, path+".old"); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
		}
	}

	if atomic {
		tmp := path + ".tmp"
		if err := db.writer.WriteDatabaseFile(tmp, db); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("failed to write container: %w", err)
		}
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("failed to replace %s: %w", path, err)
		}
	} else {
		if err := db.writer.WriteDatabaseFile(path, db); err != nil {
			return fmt.Errorf("failed to write container: %w", err)
		}
	}

	db.filePath = path
	db.modified = false
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
