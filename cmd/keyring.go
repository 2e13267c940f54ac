package cmd

import (
	"fmt"
	"os"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/crypto"
	"github.com/c0ns0le/keepassxc/internal/keyring"
	"github.com/c0ns0le/keepassxc/internal/storage"
)

// KeyringSave saves the vault password to the OS keyring
func KeyringSave(cfg *config.Config) {
	vaultID, err := storage.ReadVaultID(cfg.VaultFile)
	if err != nil {
		HandleError(err)
	}

	// Prompt for password
	password, err := ReadPassword("Enter password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(password)

	// Verify the password unlocks the vault before storing it
	key, err := BuildKey(password, cfg.KeyFile)
	if err != nil {
		HandleError(err)
	}
	defer key.Clear()

	db, err := storage.Open(cfg.VaultFile, key)
	if err != nil {
		HandleError(err)
	}
	db.Close()

	if err := keyring.SavePassword(vaultID, string(password)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Password saved to keyring")
}

// KeyringDelete removes the password from the OS keyring
func KeyringDelete(cfg *config.Config) {
	vaultID, err := storage.ReadVaultID(cfg.VaultFile)
	if err != nil {
		fmt.Println("No password stored in keyring")
		return
	}

	if err := keyring.DeletePassword(vaultID); err != nil {
		fmt.Println("No password stored in keyring")
		return
	}

	fmt.Println("Password removed from keyring")
}

// KeyringStatus checks if a password is stored in the keyring
func KeyringStatus(cfg *config.Config) {
	vaultID, err := storage.ReadVaultID(cfg.VaultFile)
	if err != nil {
		fmt.Println("Password: not stored")
		return
	}

	if keyring.HasPassword(vaultID) {
		fmt.Println("Password: stored in keyring")
	} else {
		fmt.Println("Password: not stored")
	}
}
