package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/git"
	"github.com/c0ns0le/keepassxc/internal/keyring"
	"github.com/c0ns0le/keepassxc/internal/storage"
)

// Status shows the vault container state. Does not require a password.
func Status(cfg *config.Config) {
	info, err := os.Stat(cfg.VaultFile)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No vault found at %s\n", cfg.VaultFile)
			fmt.Println("Run 'keepassxc init' to create one")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		return
	}

	summary, err := storage.ReadSummary(cfg.VaultFile)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Vault: %s (%s)\n", cfg.VaultFile, formatSize(info.Size()))
	fmt.Printf("  ID:          %s\n", summary.VaultID)
	fmt.Printf("  Created:     %s\n", summary.Created.Format(time.RFC3339))
	fmt.Printf("  Modified:    %s\n", summary.Modified.Format(time.RFC3339))
	fmt.Printf("  Cipher:      %s (%s)\n", summary.Cipher, summary.Compression)
	fmt.Printf("  KDF:         %s\n", summary.Kdf.Name)
	fmt.Printf("  Groups:      %d\n", summary.Groups)
	fmt.Printf("  Entries:     %d\n", summary.Entries)

	if keyring.HasPassword(summary.VaultID) {
		fmt.Println("  Password:    stored in keyring")
	} else {
		fmt.Println("  Password:    not stored")
	}

	// The vault container is safe to commit, key files are not
	var keyFiles []string
	if cfg.KeyFile != "" {
		keyFiles = append(keyFiles, cfg.KeyFile)
	}
	gitStatus, err := git.CheckVault(".", cfg.VaultFile, keyFiles)
	if err == nil && gitStatus.IsRepo {
		fmt.Print(git.FormatVaultStatus(gitStatus, cfg.VaultFile))
	}
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
