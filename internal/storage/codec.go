package storage

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/c0ns0le/keepassxc/internal/core"
	"github.com/c0ns0le/keepassxc/internal/crypto"
)

// formatVersion is the version of the serialized vault tree
const formatVersion = 1

type timesDoc struct {
	Creation        time.Time `json:"creation"`
	LastModified    time.Time `json:"lastModified"`
	LastAccess      time.Time `json:"lastAccess"`
	Expires         bool      `json:"expires,omitempty"`
	Expiry          time.Time `json:"expiry"`
	LocationChanged time.Time `json:"locationChanged"`
}

type entryDoc struct {
	ID       string     `json:"id"`
	Title    string     `json:"title,omitempty"`
	Username string     `json:"username,omitempty"`
	Password string     `json:"password,omitempty"`
	URL      string     `json:"url,omitempty"`
	Notes    string     `json:"notes,omitempty"`
	Times    timesDoc   `json:"times"`
	History  []entryDoc `json:"history,omitempty"`
}

type groupDoc struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Notes            string            `json:"notes,omitempty"`
	Icon             int               `json:"icon,omitempty"`
	CustomIcon       string            `json:"customIcon,omitempty"`
	Times            timesDoc          `json:"times"`
	Expanded         bool              `json:"expanded,omitempty"`
	AutoTypeSequence string            `json:"autoTypeSequence,omitempty"`
	AutoType         int               `json:"autoType,omitempty"`
	Searching        int               `json:"searching,omitempty"`
	MergeMode        int               `json:"mergeMode,omitempty"`
	LastTopVisible   string            `json:"lastTopVisible,omitempty"`
	CustomData       map[string]string `json:"customData,omitempty"`
	Entries          []entryDoc        `json:"entries,omitempty"`
	Children         []groupDoc        `json:"children,omitempty"`
}

type deletedDoc struct {
	ID string    `json:"id"`
	At time.Time `json:"at"`
}

type vaultDoc struct {
	Version int          `json:"version"`
	Root    groupDoc     `json:"root"`
	Deleted []deletedDoc `json:"deleted,omitempty"`
}

func encodeTimes(ti core.TimeInfo) timesDoc {
	return timesDoc{
		Creation:        ti.CreationTime,
		LastModified:    ti.LastModified,
		LastAccess:      ti.LastAccess,
		Expires:         ti.Expires,
		Expiry:          ti.ExpiryTime,
		LocationChanged: ti.LocationChanged,
	}
}

func decodeTimes(d timesDoc) core.TimeInfo {
	return core.TimeInfo{
		CreationTime:    d.Creation,
		LastModified:    d.LastModified,
		LastAccess:      d.LastAccess,
		Expires:         d.Expires,
		ExpiryTime:      d.Expiry,
		LocationChanged: d.LocationChanged,
	}
}

func encodeEntry(e *core.Entry, withHistory bool) entryDoc {
	doc := entryDoc{
		ID:       e.UUID().String(),
		Title:    e.Title(),
		Username: e.Username(),
		Password: e.Password(),
		URL:      e.URL(),
		Notes:    e.Notes(),
		Times:    encodeTimes(e.TimeInfo()),
	}
	if withHistory {
		for _, h := range e.History() {
			doc.History = append(doc.History, encodeEntry(h, false))
		}
	}
	return doc
}

func encodeGroup(g *core.Group) groupDoc {
	data := g.Data()
	doc := groupDoc{
		ID:               g.UUID().String(),
		Name:             data.Name,
		Notes:            data.Notes,
		Icon:             data.IconNumber,
		Times:            encodeTimes(data.TimeInfo),
		Expanded:         data.IsExpanded,
		AutoTypeSequence: data.DefaultAutoTypeSequence,
		AutoType:         int(data.AutoTypeEnabled),
		Searching:        int(data.SearchingEnabled),
		MergeMode:        int(data.MergeMode),
	}
	if data.CustomIcon != uuid.Nil {
		doc.CustomIcon = data.CustomIcon.String()
	}
	if top := g.LastTopVisibleEntry(); top != nil {
		doc.LastTopVisible = top.UUID().String()
	}
	if cd := g.CustomData(); len(cd) > 0 {
		doc.CustomData = cd
	}
	for _, e := range g.Entries() {
		doc.Entries = append(doc.Entries, encodeEntry(e, true))
	}
	for _, child := range g.Children() {
		doc.Children = append(doc.Children, encodeGroup(child))
	}
	return doc
}

func encodeDatabase(db *core.Database) vaultDoc {
	doc := vaultDoc{
		Version: formatVersion,
		Root:    encodeGroup(db.RootGroup()),
	}
	for _, d := range db.DeletedObjects() {
		doc.Deleted = append(doc.Deleted, deletedDoc{ID: d.UUID.String(), At: d.DeletionTime})
	}
	return doc
}

// decodeEntry rebuilds an entry with its stored identity and times.
// Timestamp stamping stays disabled; the caller re-enables it once the
// whole tree is assembled.
func decodeEntry(doc entryDoc) (*core.Entry, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid entry id %q: %w", doc.ID, err)
	}
	e := core.NewEntry()
	e.SetUpdateTimeInfo(false)
	e.SetUUID(id)
	e.SetTitle(doc.Title)
	e.SetUsername(doc.Username)
	e.SetPassword(doc.Password)
	e.SetURL(doc.URL)
	e.SetNotes(doc.Notes)
	e.SetTimeInfo(decodeTimes(doc.Times))

	if len(doc.History) > 0 {
		items := make([]*core.Entry, 0, len(doc.History))
		for _, h := range doc.History {
			item, err := decodeEntry(h)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		e.SetHistory(items)
	}
	return e, nil
}

func decodeGroup(doc groupDoc) (*core.Group, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid group id %q: %w", doc.ID, err)
	}
	g := core.NewGroup(doc.Name)
	g.SetUpdateTimeInfo(false)
	g.SetUUID(id)
	g.SetNotes(doc.Notes)
	if doc.CustomIcon != "" {
		ci, err := uuid.Parse(doc.CustomIcon)
		if err != nil {
			return nil, fmt.Errorf("invalid custom icon id %q: %w", doc.CustomIcon, err)
		}
		g.SetCustomIcon(ci)
	} else {
		g.SetIcon(doc.Icon)
	}
	g.SetExpanded(doc.Expanded)
	g.SetDefaultAutoTypeSequence(doc.AutoTypeSequence)
	g.SetAutoTypeEnabled(core.TriState(doc.AutoType))
	g.SetSearchingEnabled(core.TriState(doc.Searching))
	g.SetMergeMode(core.MergeMode(doc.MergeMode))
	for k, v := range doc.CustomData {
		g.SetCustomDataItem(k, v)
	}
	for _, ed := range doc.Entries {
		e, err := decodeEntry(ed)
		if err != nil {
			return nil, err
		}
		g.AddEntry(e)
	}
	for _, cd := range doc.Children {
		child, err := decodeGroup(cd)
		if err != nil {
			return nil, err
		}
		_ = child.SetParent(g, -1)
	}
	g.SetTimeInfo(decodeTimes(doc.Times))

	// Resolved after entries are attached; a stale id is dropped.
	if doc.LastTopVisible != "" {
		topID, err := uuid.Parse(doc.LastTopVisible)
		if err == nil {
			g.SetLastTopVisibleEntry(g.FindEntryByUUID(topID))
		}
	}
	return g, nil
}

// decodeDatabase installs a decoded vault tree and its tombstones into
// the database and re-enables timestamp stamping for the whole tree
func decodeDatabase(doc vaultDoc, db *core.Database) error {
	if doc.Version != formatVersion {
		return fmt.Errorf("unsupported vault tree version %d", doc.Version)
	}
	root, err := decodeGroup(doc.Root)
	if err != nil {
		return err
	}

	deleted := make([]core.DeletedObject, 0, len(doc.Deleted))
	for _, d := range doc.Deleted {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return fmt.Errorf("invalid tombstone id %q: %w", d.ID, err)
		}
		deleted = append(deleted, core.DeletedObject{UUID: id, DeletionTime: d.At})
	}

	db.SetRootGroup(root)
	db.SetDeletedObjects(deleted)

	for _, g := range root.GroupsRecursive(true) {
		g.SetUpdateTimeInfo(true)
	}
	for _, e := range root.EntriesRecursive(false) {
		e.SetUpdateTimeInfo(true)
	}
	return nil
}

// compressPayload applies the configured compression before encryption
func compressPayload(data []byte, algo crypto.CompressionAlgorithm) ([]byte, error) {
	switch algo {
	case crypto.CompressionNone:
		return data, nil
	case crypto.CompressionGZip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to compress payload: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("failed to compress payload: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown compression %s", algo)
	}
}

func decompressPayload(data []byte, algo crypto.CompressionAlgorithm) ([]byte, error) {
	switch algo {
	case crypto.CompressionNone:
		return data, nil
	case crypto.CompressionGZip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decompress payload: %w", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress payload: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression %s", algo)
	}
}
