package cmd

import (
	"fmt"
	"os"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/core"
	"github.com/c0ns0le/keepassxc/internal/crypto"
	"github.com/c0ns0le/keepassxc/internal/storage"
)

// GetPasswordForInit retrieves the password for a new vault
// Checks environment variable first, then prompts with confirmation
func GetPasswordForInit() ([]byte, error) {
	if password := GetPasswordFromEnv(); password != nil {
		return password, nil
	}
	return ReadPasswordConfirm()
}

// Init creates a new vault container
func Init(cfg *config.Config, kdfName string) {
	log := Logger(cfg)

	if _, err := os.Stat(cfg.VaultFile); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists\n", cfg.VaultFile)
		fmt.Fprintf(os.Stderr, "Use 'keepassxc status' to see its state\n")
		os.Exit(1)
	}

	// Read password (env var or prompt with confirmation)
	password, err := GetPasswordForInit()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(password)

	key, err := BuildKey(password, cfg.KeyFile)
	if err != nil {
		HandleError(err)
	}
	defer key.Clear()

	db := core.NewDatabase()
	defer db.Close()

	if kdfName != "" {
		kdf, err := kdfByName(kdfName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		db.Envelope().SetKdf(kdf)
	}

	if err := db.SetKey(key, true, true); err != nil {
		HandleError(err)
	}

	log.Debugw("creating vault", "file", cfg.VaultFile, "kdf", db.Envelope().Kdf().Name())

	if err := storage.Create(cfg.VaultFile, db); err != nil {
		HandleError(err)
	}

	fmt.Printf("✓ Initialized %s\n", cfg.VaultFile)
}
