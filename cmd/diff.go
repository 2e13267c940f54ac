package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/core"
)

// Diff lists what differs between this vault and another copy, without
// changing either. Objects pair up by uuid, so renames and moves show
// as changes rather than as an add plus a remove.
func Diff(cfg *config.Config, otherPath string) {
	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()

	other, err := OpenVaultFile(cfg, otherPath)
	if err != nil {
		HandleError(err)
	}
	defer other.Close()

	changes := 0
	changes += diffGroups(db, other, cfg.VaultFile, otherPath)
	changes += diffEntries(db, other, cfg.VaultFile, otherPath)

	if changes == 0 {
		fmt.Println("Vaults are identical")
	}
}

func diffGroups(db, other *core.Database, localName, otherName string) int {
	otherGroups := make(map[uuid.UUID]*core.Group)
	for _, g := range other.RootGroup().GroupsRecursive(true) {
		otherGroups[g.UUID()] = g
	}

	changes := 0
	seen := make(map[uuid.UUID]bool)
	for _, g := range db.RootGroup().GroupsRecursive(true) {
		seen[g.UUID()] = true
		og, ok := otherGroups[g.UUID()]
		if !ok {
			fmt.Printf("- %s/ (only in %s)\n", g.Path(), localName)
			changes++
			continue
		}
		if g.Name() != og.Name() {
			fmt.Printf("~ %s/ (named %q in %s)\n", g.Path(), og.Name(), otherName)
			changes++
		} else if g.Path() != og.Path() {
			fmt.Printf("~ %s/ (at %s/ in %s)\n", g.Path(), og.Path(), otherName)
			changes++
		}
	}
	for _, og := range other.RootGroup().GroupsRecursive(true) {
		if !seen[og.UUID()] {
			fmt.Printf("+ %s/ (only in %s)\n", og.Path(), otherName)
			changes++
		}
	}
	return changes
}

func diffEntries(db, other *core.Database, localName, otherName string) int {
	otherEntries := make(map[uuid.UUID]*core.Entry)
	for _, e := range other.RootGroup().EntriesRecursive(false) {
		otherEntries[e.UUID()] = e
	}

	changes := 0
	seen := make(map[uuid.UUID]bool)
	for _, e := range db.RootGroup().EntriesRecursive(false) {
		seen[e.UUID()] = true
		oe, ok := otherEntries[e.UUID()]
		if !ok {
			fmt.Printf("- %s (only in %s)\n", core.EntryPath(e), localName)
			changes++
			continue
		}
		if fields := entryFieldDiff(e, oe); len(fields) > 0 {
			fmt.Printf("~ %s (%s)\n", core.EntryPath(e), strings.Join(fields, ", "))
			if e.Notes() != oe.Notes() {
				for _, line := range strings.Split(core.NotesDiff(e.Notes(), oe.Notes()), "\n") {
					if line != "" {
						fmt.Printf("    %s\n", line)
					}
				}
			}
			changes++
		}
	}
	for _, oe := range other.RootGroup().EntriesRecursive(false) {
		if !seen[oe.UUID()] {
			fmt.Printf("+ %s (only in %s)\n", core.EntryPath(oe), otherName)
			changes++
		}
	}
	return changes
}

// entryFieldDiff names the fields that differ. Password values are
// compared but never printed.
func entryFieldDiff(a, b *core.Entry) []string {
	var fields []string
	if a.Title() != b.Title() {
		fields = append(fields, "title")
	}
	if a.Username() != b.Username() {
		fields = append(fields, "username")
	}
	if a.Password() != b.Password() {
		fields = append(fields, "password")
	}
	if a.URL() != b.URL() {
		fields = append(fields, "url")
	}
	if a.Notes() != b.Notes() {
		fields = append(fields, "notes")
	}
	if core.EntryPath(a) != core.EntryPath(b) {
		fields = append(fields, "location")
	}
	return fields
}
