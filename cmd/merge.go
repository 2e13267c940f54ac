package cmd

import (
	"fmt"
	"os"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/core"
)

// Merge folds the changes from another copy of the vault into this
// one. Both copies must descend from the same vault.
func Merge(cfg *config.Config, remotePath, mode string, dryRun bool) {
	log := Logger(cfg)

	forced := core.ModeDefault
	if mode != "" {
		var err error
		forced, err = core.MergeModeFromString(mode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	}

	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()

	remote, err := OpenVaultFile(cfg, remotePath)
	if err != nil {
		HandleError(err)
	}
	defer remote.Close()

	merger := core.NewMerger(db, remote)
	if mode != "" {
		merger.SetForcedMode(forced)
	}

	report, err := merger.Merge()
	if err != nil {
		HandleError(err)
	}
	log.Debugw("merge finished", "remote", remotePath, "changes", len(report.Changes), "modified", db.Modified())

	if !db.Modified() {
		fmt.Println("Already up to date")
		return
	}

	fmt.Print(report.Render())

	if dryRun {
		fmt.Printf("%s (dry run, nothing saved)\n", report.Summary())
		return
	}

	if err := SaveVault(cfg, db); err != nil {
		HandleError(err)
	}
	fmt.Printf("✓ Merged %s: %s\n", remotePath, report.Summary())
}
