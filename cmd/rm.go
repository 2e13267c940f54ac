package cmd

import (
	"fmt"
	"os"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/core"
)

// Rm removes an entry or group. The object moves to the recycle bin
// unless permanent is set or it already sits in the bin.
func Rm(cfg *config.Config, path string, permanent bool) {
	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()
	root := db.RootGroup()

	if entry := root.FindEntryByPath(path); entry != nil {
		if permanent || inRecycleBin(db, entry.Group()) {
			entry.Group().RemoveEntry(entry)
			fmt.Printf("✓ Removed entry %s\n", path)
		} else {
			db.RecycleEntry(entry)
			fmt.Printf("✓ Moved entry %s to recycle bin\n", path)
		}
		if err := SaveVault(cfg, db); err != nil {
			HandleError(err)
		}
		return
	}

	if group := root.FindGroupByPath(path); group != nil {
		if group == root {
			fmt.Fprintf(os.Stderr, "Error: cannot remove the root group\n")
			os.Exit(1)
		}
		if permanent || inRecycleBin(db, group) {
			group.Parent().RemoveChild(group)
			fmt.Printf("✓ Removed group %s\n", path)
		} else {
			if err := db.RecycleGroup(group); err != nil {
				HandleError(err)
			}
			fmt.Printf("✓ Moved group %s to recycle bin\n", path)
		}
		if err := SaveVault(cfg, db); err != nil {
			HandleError(err)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "Error: no entry or group at %s\n", path)
	os.Exit(1)
}

// inRecycleBin reports whether a group sits in the recycle bin,
// including the bin itself
func inRecycleBin(db *core.Database, g *core.Group) bool {
	bin := db.RecycleBin()
	if bin == nil {
		return false
	}
	for p := g; p != nil; p = p.Parent() {
		if p == bin {
			return true
		}
	}
	return false
}
