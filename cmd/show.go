package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/c0ns0le/keepassxc/internal/config"
)

// Show prints a single entry. The password stays hidden unless
// reveal is set.
func Show(cfg *config.Config, entryPath string, reveal bool) {
	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()

	entry := db.RootGroup().FindEntryByPath(entryPath)
	if entry == nil {
		fmt.Fprintf(os.Stderr, "Error: entry not found: %s\n", entryPath)
		os.Exit(1)
	}

	fmt.Printf("Title:    %s\n", entry.Title())
	fmt.Printf("Username: %s\n", entry.Username())
	if reveal {
		fmt.Printf("Password: %s\n", entry.Password())
	} else if entry.Password() != "" {
		fmt.Println("Password: (protected, use -s to reveal)")
	} else {
		fmt.Println("Password: (none)")
	}
	fmt.Printf("URL:      %s\n", entry.URL())
	fmt.Printf("Notes:    %s\n", entry.Notes())

	ti := entry.TimeInfo()
	fmt.Printf("Created:  %s\n", ti.CreationTime.Format(time.RFC3339))
	fmt.Printf("Modified: %s\n", ti.LastModified.Format(time.RFC3339))
	if ti.Expires {
		if entry.IsExpired() {
			fmt.Printf("Expired:  %s\n", ti.ExpiryTime.Format(time.RFC3339))
		} else {
			fmt.Printf("Expires:  %s\n", ti.ExpiryTime.Format(time.RFC3339))
		}
	}
	if n := len(entry.History()); n > 0 {
		fmt.Printf("History:  %d\n", n)
	}
}
