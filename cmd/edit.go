package cmd

import (
	"fmt"
	"os"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/crypto"
)

// EditOptions carries the entry fields to change. Nil pointers leave a
// field untouched.
type EditOptions struct {
	Title    *string
	Username *string
	URL      *string
	Notes    *string
	Password bool // prompt for a new entry password
}

// Edit updates fields of an entry, keeping the previous version in its
// history
func Edit(cfg *config.Config, path string, opts EditOptions) {
	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()

	entry := db.RootGroup().FindEntryByPath(path)
	if entry == nil {
		fmt.Fprintf(os.Stderr, "Error: entry not found: %s\n", path)
		os.Exit(1)
	}

	// Collect all input before touching the entry
	var password []byte
	if opts.Password {
		password, err = ReadPasswordConfirm()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		defer crypto.ClearBytes(password)
	}

	entry.BeginUpdate()
	if opts.Title != nil {
		entry.SetTitle(*opts.Title)
	}
	if opts.Username != nil {
		entry.SetUsername(*opts.Username)
	}
	if opts.URL != nil {
		entry.SetURL(*opts.URL)
	}
	if opts.Notes != nil {
		entry.SetNotes(*opts.Notes)
	}
	if opts.Password {
		entry.SetPassword(string(password))
	}
	if !entry.EndUpdate() {
		fmt.Println("No changes")
		return
	}

	if err := SaveVault(cfg, db); err != nil {
		HandleError(err)
	}
	fmt.Printf("✓ Updated entry %s\n", path)
}
