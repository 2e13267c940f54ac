package cmd

import (
	"fmt"
	"os"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/core"
)

// Ls lists the groups and entries under a group path
func Ls(cfg *config.Config, groupPath string, recursive bool) {
	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()

	group := db.RootGroup()
	if groupPath != "" && groupPath != "/" {
		group = db.RootGroup().FindGroupByPath(groupPath)
		if group == nil {
			fmt.Fprintf(os.Stderr, "Error: group not found: %s\n", groupPath)
			os.Exit(1)
		}
	}

	if len(group.Children()) == 0 && len(group.Entries()) == 0 {
		fmt.Println("(empty)")
		return
	}
	printGroup(group, "", recursive)
}

func printGroup(g *core.Group, indent string, recursive bool) {
	for _, child := range g.Children() {
		fmt.Printf("%s%s/\n", indent, child.Name())
		if recursive {
			printGroup(child, indent+"  ", true)
		}
	}
	for _, e := range g.Entries() {
		fmt.Printf("%s%s\n", indent, e.Title())
	}
}
