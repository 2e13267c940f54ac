package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/core"
	"github.com/c0ns0le/keepassxc/internal/crypto"
	"github.com/c0ns0le/keepassxc/internal/keyring"
	"github.com/c0ns0le/keepassxc/internal/keys"
	"github.com/c0ns0le/keepassxc/internal/storage"
	"go.uber.org/zap"
)

// PasswordSource tells where an unlock password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// Logger returns the command logger. With KEEPASSXC_DEBUG set it logs
// to stderr in development format, otherwise logging is disabled so it
// never mixes with command output.
func Logger(cfg *config.Config) *zap.SugaredLogger {
	if cfg.Debug {
		if logger, err := zap.NewDevelopment(); err == nil {
			return logger.Sugar()
		}
	}
	return zap.NewNop().Sugar()
}

// GetPassword retrieves the vault password, trying the environment
// first, then the OS keyring keyed by the vault ID, then prompting.
// The caller is responsible for calling crypto.ClearBytes on the
// returned password.
func GetPassword(prompt, vaultID string) ([]byte, PasswordSource, error) {
	// Try environment variable first
	if password := GetPasswordFromEnv(); password != nil {
		return password, SourceEnv, nil
	}

	// Then the OS keyring
	if vaultID != "" {
		if stored, err := keyring.GetPassword(vaultID); err == nil && stored != "" {
			return []byte(stored), SourceKeyring, nil
		}
	}

	// Prompt user
	password, err := ReadPassword(prompt)
	if err != nil {
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// GetPasswordWithRetry retrieves a password and verifies it. When a
// keyring password turns out stale it is removed and the user is
// prompted once more; a wrong password from the environment or the
// prompt fails immediately.
func GetPasswordWithRetry(prompt, vaultID string, verify func(password []byte) error) ([]byte, PasswordSource, error) {
	password, source, err := GetPassword(prompt, vaultID)
	if err != nil {
		return nil, source, err
	}

	err = verify(password)
	if err == nil {
		return password, source, nil
	}
	crypto.ClearBytes(password)

	if source != SourceKeyring || !errors.Is(err, storage.ErrWrongKey) {
		return nil, source, err
	}

	// Stale keyring entry: drop it and fall back to the prompt
	_ = keyring.DeletePassword(vaultID)
	fmt.Fprintf(os.Stderr, "Stored password is no longer valid, removed from keyring\n")

	password, err = ReadPassword(prompt)
	if err != nil {
		return nil, SourcePrompt, err
	}
	if err := verify(password); err != nil {
		crypto.ClearBytes(password)
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// OfferToSavePassword asks whether to remember a manually entered
// password in the OS keyring
func OfferToSavePassword(vaultID string, password []byte) {
	fmt.Print("Save password to keyring? [y/N]: ")
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		return
	}
	if err := keyring.SavePassword(vaultID, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Println("Password saved to keyring")
}

// BuildKey assembles the composite key from a password and an optional
// key file. An empty password with a key file gives a key-file-only
// vault key.
func BuildKey(password []byte, keyFile string) (*keys.CompositeKey, error) {
	key := keys.NewCompositeKey()
	if len(password) > 0 {
		key.AddKey(keys.NewPasswordKey(password))
	}
	if keyFile != "" {
		fileKey, err := keys.NewFileKey(keyFile)
		if err != nil {
			return nil, err
		}
		key.AddKey(fileKey)
	}
	if key.IsEmpty() {
		return nil, fmt.Errorf("no password or key file provided")
	}
	return key, nil
}

// OpenVault unlocks the configured vault, resolving the password from
// the environment, keyring or prompt. The caller owns the returned
// database and must Close it.
func OpenVault(cfg *config.Config) (*core.Database, error) {
	return OpenVaultFile(cfg, cfg.VaultFile)
}

// OpenVaultFile is OpenVault for an explicit container path. Merge and
// diff use it to unlock a second vault with the same password chain.
func OpenVaultFile(cfg *config.Config, path string) (*core.Database, error) {
	// The vault ID is readable without the key and selects the keyring
	// entry. Copies of the same vault share it, so a remote copy
	// unlocks from the same stored password.
	vaultID, err := storage.ReadVaultID(path)
	if err != nil {
		return nil, err
	}

	var db *core.Database
	unlock := func(password []byte) error {
		key, err := BuildKey(password, cfg.KeyFile)
		if err != nil {
			return err
		}
		defer key.Clear()

		opened, err := storage.Open(path, key)
		if err != nil {
			return err
		}
		db = opened
		return nil
	}

	password, source, err := GetPasswordWithRetry(fmt.Sprintf("Enter password for %s: ", path), vaultID, unlock)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password)

	// Offer to remember a password the user had to type in
	if source == SourcePrompt {
		OfferToSavePassword(vaultID, password)
	}

	return db, nil
}

// SaveVault writes a modified database back to its container. The save
// goes through a temp file, and a .old copy is kept unless backups are
// disabled.
func SaveVault(cfg *config.Config, db *core.Database) error {
	return db.SaveToFile(db.FilePath(), true, cfg.Backup)
}

// splitPath separates the parent group path from the final segment
func splitPath(path string) (parent, name string) {
	path = strings.Trim(path, "/")
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// findParentGroup resolves the group a new object lands in, treating an
// empty parent path as the root
func findParentGroup(db *core.Database, parentPath string) *core.Group {
	if parentPath == "" {
		return db.RootGroup()
	}
	return db.RootGroup().FindGroupByPath(parentPath)
}

// HandleError handles common errors consistently
func HandleError(err error) {
	switch {
	case errors.Is(err, storage.ErrNotAVault):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Run 'keepassxc init' to create a vault\n")
	case errors.Is(err, storage.ErrWrongKey):
		fmt.Fprintf(os.Stderr, "Error: wrong password or key file\n")
	case errors.Is(err, core.ErrStructuralConflict):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}
