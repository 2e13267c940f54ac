package cmd

import (
	"fmt"
	"os"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/storage"
)

// Compact rewrites the vault container to reclaim unused space. Every
// save rewrites the whole tree, so deleted pages accumulate until the
// container is compacted. Does not require a password.
func Compact(cfg *config.Config) {
	info, err := os.Stat(cfg.VaultFile)
	if err != nil {
		HandleError(err)
	}
	sizeBefore := info.Size()

	if err := storage.Compact(cfg.VaultFile); err != nil {
		HandleError(err)
	}

	info, err = os.Stat(cfg.VaultFile)
	if err != nil {
		HandleError(err)
	}
	sizeAfter := info.Size()

	fmt.Printf("Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
}
