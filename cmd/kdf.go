package cmd

import (
	"fmt"
	"os"

	"github.com/c0ns0le/keepassxc/internal/config"
	"github.com/c0ns0le/keepassxc/internal/crypto"
	"github.com/c0ns0le/keepassxc/internal/storage"
)

// KdfShow prints the container's derivation parameters. Does not
// require a password.
func KdfShow(cfg *config.Config) {
	summary, err := storage.ReadSummary(cfg.VaultFile)
	if err != nil {
		HandleError(err)
	}

	p := summary.Kdf
	fmt.Printf("KDF: %s\n", p.Name)
	switch p.Name {
	case crypto.KdfArgon2:
		fmt.Printf("  Time:    %d\n", p.Time)
		fmt.Printf("  Memory:  %d KiB\n", p.MemoryKiB)
		fmt.Printf("  Threads: %d\n", p.Threads)
	case crypto.KdfPbkdf2:
		fmt.Printf("  Iterations: %d\n", p.Iterations)
	}
}

// KdfChange re-derives the vault key under new parameters and saves.
// Zero cost values keep the algorithm defaults.
func KdfChange(cfg *config.Config, name string, timeCost, memoryKiB, threads, iterations int) {
	log := Logger(cfg)

	kdf, err := kdfWithCost(name, timeCost, memoryKiB, threads, iterations)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	db, err := OpenVault(cfg)
	if err != nil {
		HandleError(err)
	}
	defer db.Close()

	log.Debugw("changing kdf", "name", kdf.Name())

	if err := db.ChangeKdf(kdf); err != nil {
		HandleError(err)
	}
	if err := SaveVault(cfg, db); err != nil {
		HandleError(err)
	}
	fmt.Printf("✓ KDF changed to %s\n", kdf.Name())
}

// kdfByName builds a KDF with default cost for the given name. Both
// the short aliases and the container names are accepted.
func kdfByName(name string) (crypto.Kdf, error) {
	return kdfWithCost(name, 0, 0, 0, 0)
}

func kdfWithCost(name string, timeCost, memoryKiB, threads, iterations int) (crypto.Kdf, error) {
	switch name {
	case "argon2", crypto.KdfArgon2:
		t := uint32(crypto.Argon2DefaultTime)
		m := uint32(crypto.Argon2DefaultMemory)
		p := uint8(crypto.Argon2DefaultThreads)
		if timeCost > 0 {
			t = uint32(timeCost)
		}
		if memoryKiB > 0 {
			m = uint32(memoryKiB)
		}
		if threads > 0 {
			p = uint8(threads)
		}
		return crypto.NewArgon2KdfWithCost(t, m, p), nil
	case "pbkdf2", crypto.KdfPbkdf2:
		iters := crypto.Pbkdf2DefaultIters
		if iterations > 0 {
			iters = iterations
		}
		return crypto.NewPbkdf2Kdf(iters), nil
	default:
		return nil, fmt.Errorf("unknown kdf %q (argon2 or pbkdf2)", name)
	}
}
