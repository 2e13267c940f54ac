package cmd

import (
	"fmt"
	"os"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/core"
)

// MkGroup creates a group under an existing parent path
func MkGroup(cfg *config.Config, path string) {
	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()

	parentPath, name := splitPath(path)
	if name == "" {
		fmt.Fprintf(os.Stderr, "Error: empty group name\n")
		os.Exit(1)
	}

	parent := findParentGroup(db, parentPath)
	if parent == nil {
		fmt.Fprintf(os.Stderr, "Error: parent group not found: %s\n", parentPath)
		os.Exit(1)
	}
	if parent.FindChildByName(name) != nil {
		fmt.Fprintf(os.Stderr, "Error: group already exists: %s\n", path)
		os.Exit(1)
	}

	group := core.NewGroup(name)
	if err := group.SetParent(parent, -1); err != nil {
		HandleError(err)
	}

	if err := SaveVault(cfg, db); err != nil {
		HandleError(err)
	}
	fmt.Printf("✓ Created group %s\n", group.Path())
}
