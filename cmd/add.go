package cmd

import (
	"fmt"
	"os"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/core"
	"github.com/c0ns0le/keepassxc/internal/crypto"
)

// Add creates an entry at the given path. The entry password is read
// from the terminal so it never lands in shell history.
func Add(cfg *config.Config, path, username, url, notes string) {
	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()

	parentPath, title := splitPath(path)
	if title == "" {
		fmt.Fprintf(os.Stderr, "Error: empty entry title\n")
		os.Exit(1)
	}

	parent := findParentGroup(db, parentPath)
	if parent == nil {
		fmt.Fprintf(os.Stderr, "Error: group not found: %s\n", parentPath)
		os.Exit(1)
	}
	for _, e := range parent.Entries() {
		if e.Title() == title {
			fmt.Fprintf(os.Stderr, "Error: entry already exists: %s\n", path)
			os.Exit(1)
		}
	}

	password, err := ReadPassword("Password for entry (empty for none): ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(password)

	entry := core.NewEntry()
	entry.SetTitle(title)
	entry.SetUsername(username)
	entry.SetPassword(string(password))
	entry.SetURL(url)
	entry.SetNotes(notes)
	parent.AddEntry(entry)

	if err := SaveVault(cfg, db); err != nil {
		HandleError(err)
	}
	fmt.Printf("✓ Added entry %s\n", core.EntryPath(entry))
}
