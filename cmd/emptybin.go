package cmd

import (
	"fmt"

	"github.com/c0ns0le/keepassxc/internal/config"
)

// EmptyBin destroys everything in the recycle bin
func EmptyBin(cfg *config.Config) {
	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()

	bin := db.RecycleBin()
	if bin == nil {
		fmt.Println("No recycle bin")
		return
	}
	entries := len(bin.EntriesRecursive(false))
	groups := len(bin.GroupsRecursive(false))
	if entries == 0 && groups == 0 {
		fmt.Println("Recycle bin is already empty")
		return
	}

	db.EmptyRecycleBin()
	if err := SaveVault(cfg, db); err != nil {
		HandleError(err)
	}
	fmt.Printf("✓ Removed %d entries and %d groups\n", entries, groups)
}
