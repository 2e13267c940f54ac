package cmd

import (
	"fmt"
	"os"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/crypto"
	"github.com/c0ns0le/keepassxc/internal/keyring"
	"github.com/c0ns0le/keepassxc/internal/storage"
)

// Passwd changes the vault password. The old key material is replaced
// only after the new key is fully derived.
func Passwd(cfg *config.Config) {
	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()

	// Get new password
	newPassword, err := ReadPasswordConfirm()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(newPassword)

	newKey, err := BuildKey(newPassword, cfg.KeyFile)
	if err != nil {
		HandleError(err)
	}
	defer newKey.Clear()

	if err := db.SetKey(newKey, true, true); err != nil {
		HandleError(err)
	}
	if err := SaveVault(cfg, db); err != nil {
		HandleError(err)
	}

	// Keep a stored keyring password in sync
	if vaultID, err := storage.ReadVaultID(cfg.VaultFile); err == nil && keyring.HasPassword(vaultID) {
		if err := keyring.SavePassword(vaultID, string(newPassword)); err == nil {
			fmt.Println("Keyring updated with new password")
		}
	}

	fmt.Println("✓ Password changed successfully")
}
