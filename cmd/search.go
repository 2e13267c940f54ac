package cmd

import (
	"fmt"

	"github.com/c0ns0le/keepassxc/internal/config"
)

// Search prints the paths of all entries whose path matches a term
func Search(cfg *config.Config, term string) {
	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()

	matches := db.RootGroup().Locate(term)
	if len(matches) == 0 {
		fmt.Println("No matches")
		return
	}
	for _, path := range matches {
		fmt.Println(path)
	}
}
