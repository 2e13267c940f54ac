package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c0ns0le/keepassxc/internal/core"
	"github.com/c0ns0le/keepassxc/internal/crypto"
	"github.com/c0ns0le/keepassxc/internal/keys"
)

func vaultKey(password string) *keys.CompositeKey {
	key := keys.NewCompositeKey()
	key.AddKey(keys.NewPasswordKey([]byte(password)))
	return key
}

// sampleVault builds a vault exercising every stored shape: nested
// groups, policies, custom data, entry history, expiry, a recycle bin
// and a tombstone. The KDF is turned down to keep tests fast.
func sampleVault(t *testing.T) *core.Database {
	t.Helper()
	db := core.NewDatabase()
	t.Cleanup(db.Close)
	db.Envelope().SetKdf(crypto.NewPbkdf2Kdf(1))

	root := db.RootGroup()
	internet := core.NewGroup("Internet")
	if err := internet.SetParent(root, -1); err != nil {
		t.Fatalf("Failed to attach group: %v", err)
	}
	internet.SetNotes("work accounts")
	internet.SetExpanded(false)
	internet.SetMergeMode(core.ModeKeepNewer)
	internet.SetDefaultAutoTypeSequence("{PASSWORD}{ENTER}")
	internet.SetAutoTypeEnabled(core.Disable)
	internet.SetCustomDataItem("color", "blue")

	work := core.NewGroup("Work")
	if err := work.SetParent(internet, -1); err != nil {
		t.Fatalf("Failed to attach group: %v", err)
	}

	github := core.NewEntry()
	github.SetTitle("GitHub")
	github.SetUsername("octocat")
	github.SetPassword("hunter2")
	github.SetURL("https://github.com")
	github.SetNotes("2FA enabled")
	internet.AddEntry(github)
	github.BeginUpdate()
	github.SetPassword("correct horse")
	github.EndUpdate()

	expiring := core.NewEntry()
	expiring.SetTitle("Conference WiFi")
	ti := expiring.TimeInfo()
	ti.Expires = true
	ti.ExpiryTime = core.Now().Add(24 * time.Hour)
	expiring.SetTimeInfo(ti)
	work.AddEntry(expiring)

	trashed := core.NewEntry()
	trashed.SetTitle("Old Router")
	work.AddEntry(trashed)
	db.RecycleEntry(trashed)

	gone := core.NewEntry()
	gone.SetTitle("Deleted Account")
	work.AddEntry(gone)
	work.RemoveEntry(gone)

	db.SetPublicCustomDataItem("origin", "unit-test")
	return db
}

func createVault(t *testing.T, db *core.Database, password string) string {
	t.Helper()
	if err := db.SetKey(vaultKey(password), true, true); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "vault.kpx")
	if err := Create(path, db); err != nil {
		t.Fatalf("Failed to create vault: %v", err)
	}
	return path
}

func TestCreateAndOpenRoundTrip(t *testing.T) {
	db := sampleVault(t)
	path := createVault(t, db, "secret")

	reopened, err := Open(path, vaultKey("secret"))
	if err != nil {
		t.Fatalf("Failed to open vault: %v", err)
	}
	t.Cleanup(reopened.Close)

	if !db.RootGroup().Equals(reopened.RootGroup(), core.CompareOptions{}) {
		t.Error("Reopened tree should equal the source")
	}

	// History came back with the entry
	entry := reopened.RootGroup().FindEntryByPath("Internet/GitHub")
	if entry == nil {
		t.Fatal("Expected to find Internet/GitHub")
	}
	if entry.Password() != "correct horse" {
		t.Errorf("Password mismatch: got %s", entry.Password())
	}
	if len(entry.History()) != 1 || entry.History()[0].Password() != "hunter2" {
		t.Error("Entry history should survive the round trip")
	}

	// The recycle bin and its contents survived
	bin := reopened.RecycleBin()
	if bin == nil {
		t.Fatal("Recycle bin should survive the round trip")
	}
	if bin.FindEntryByPath("Old Router") == nil {
		t.Error("Recycled entry should survive the round trip")
	}

	// The tombstone survived
	tombs := reopened.DeletedObjects()
	if len(tombs) != 1 {
		t.Fatalf("Expected 1 tombstone, got %d", len(tombs))
	}
	want := db.DeletedObjects()[0]
	if !tombs[0].Equals(want) {
		t.Errorf("Tombstone mismatch: got %v, want %v", tombs[0], want)
	}

	if got := reopened.PublicCustomData()["origin"]; got != "unit-test" {
		t.Errorf("Public custom data mismatch: got %s", got)
	}
	if reopened.FilePath() != path {
		t.Errorf("FilePath mismatch: got %s, want %s", reopened.FilePath(), path)
	}
}

func TestOpenedVaultCanSaveAgain(t *testing.T) {
	db := sampleVault(t)
	path := createVault(t, db, "secret")

	reopened, err := Open(path, vaultKey("secret"))
	if err != nil {
		t.Fatalf("Failed to open vault: %v", err)
	}
	t.Cleanup(reopened.Close)

	// Open binds the container writer, so a save needs no extra setup
	e := core.NewEntry()
	e.SetTitle("New Entry")
	reopened.RootGroup().AddEntry(e)
	if err := reopened.SaveToFile(path, true, false); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	again, err := Open(path, vaultKey("secret"))
	if err != nil {
		t.Fatalf("Failed to reopen vault: %v", err)
	}
	t.Cleanup(again.Close)
	if again.RootGroup().FindEntryByPath("New Entry") == nil {
		t.Error("The added entry should survive the save")
	}
}

func TestOpenWrongKey(t *testing.T) {
	db := sampleVault(t)
	path := createVault(t, db, "secret")

	if _, err := Open(path, vaultKey("wrong")); !errors.Is(err, ErrWrongKey) {
		t.Errorf("Expected ErrWrongKey, got %v", err)
	}

	// The failed unlock leaves the file usable
	reopened, err := Open(path, vaultKey("secret"))
	if err != nil {
		t.Fatalf("Failed to open after a wrong key: %v", err)
	}
	reopened.Close()
}

func TestOpenRejectsForeignFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "random.bin")
	if err := os.WriteFile(path, []byte("this is not a vault"), 0600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := Open(path, vaultKey("x")); !errors.Is(err, ErrNotAVault) {
		t.Errorf("Expected ErrNotAVault, got %v", err)
	}

	if _, err := Open(filepath.Join(dir, "missing.kpx"), vaultKey("x")); !errors.Is(err, ErrNotAVault) {
		t.Errorf("Expected ErrNotAVault for a missing file, got %v", err)
	}
}

func TestReadSummaryWithoutKey(t *testing.T) {
	db := sampleVault(t)
	path := createVault(t, db, "secret")

	summary, err := ReadSummary(path)
	if err != nil {
		t.Fatalf("Failed to read summary: %v", err)
	}

	if summary.VaultID != db.RootGroup().UUID().String() {
		t.Errorf("VaultID mismatch: got %s", summary.VaultID)
	}
	if summary.Cipher != "aes256-gcm" {
		t.Errorf("Cipher mismatch: got %s", summary.Cipher)
	}
	if summary.Compression != "gzip" {
		t.Errorf("Compression mismatch: got %s", summary.Compression)
	}
	if summary.Kdf.Name != crypto.KdfPbkdf2 || summary.Kdf.Iterations != 1 {
		t.Errorf("KDF mismatch: got %+v", summary.Kdf)
	}
	if summary.Groups != len(db.RootGroup().GroupsRecursive(true)) {
		t.Errorf("Group count mismatch: got %d", summary.Groups)
	}
	if summary.Entries != len(db.RootGroup().EntriesRecursive(false)) {
		t.Errorf("Entry count mismatch: got %d", summary.Entries)
	}
	if summary.Modified.IsZero() || summary.Created.IsZero() {
		t.Error("Summary should carry timestamps")
	}

	id, err := ReadVaultID(path)
	if err != nil {
		t.Fatalf("Failed to read vault id: %v", err)
	}
	if id != summary.VaultID {
		t.Errorf("Vault id mismatch: got %s, want %s", id, summary.VaultID)
	}
}

func TestCompactPreservesContent(t *testing.T) {
	db := sampleVault(t)
	path := createVault(t, db, "secret")

	if err := Compact(path); err != nil {
		t.Fatalf("Failed to compact: %v", err)
	}

	reopened, err := Open(path, vaultKey("secret"))
	if err != nil {
		t.Fatalf("Failed to open after compact: %v", err)
	}
	t.Cleanup(reopened.Close)
	if !db.RootGroup().Equals(reopened.RootGroup(), core.CompareOptions{}) {
		t.Error("Compacting should not change the content")
	}

	// No working files left behind
	for _, suffix := range []string{".compact", ".backup"} {
		if _, err := os.Stat(path + suffix); !os.IsNotExist(err) {
			t.Errorf("Leftover file %s%s", path, suffix)
		}
	}

	if err := Compact(filepath.Join(t.TempDir(), "missing.kpx")); !errors.Is(err, ErrNotAVault) {
		t.Errorf("Expected ErrNotAVault, got %v", err)
	}
}
