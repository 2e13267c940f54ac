package config

import (
	"os"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	// t.Setenv registers restoration of the original value; the unset
	// afterwards makes the variable truly absent for this test.
	for _, key := range []string{
		"KEEPASSXC_FILE",
		"KEEPASSXC_PASSWORD",
		"KEEPASSXC_KEYFILE",
		"KEEPASSXC_BACKUP",
		"KEEPASSXC_DEBUG",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := NewConfig()

	if cfg.VaultFile != DefaultVaultFile {
		t.Errorf("VaultFile mismatch: got %s, want %s", cfg.VaultFile, DefaultVaultFile)
	}
	if cfg.Password != "" || cfg.KeyFile != "" {
		t.Error("Password and key file should default to empty")
	}
	if !cfg.Backup {
		t.Error("Backup should default to true")
	}
	if cfg.Debug {
		t.Error("Debug should default to false")
	}
}

func TestNewConfigEmptyFileFallsBack(t *testing.T) {
	// Set but empty, as in KEEPASSXC_FILE= keepassxc status
	t.Setenv("KEEPASSXC_FILE", "")

	cfg := NewConfig()

	if cfg.VaultFile != DefaultVaultFile {
		t.Errorf("VaultFile mismatch: got %s, want %s", cfg.VaultFile, DefaultVaultFile)
	}
}

func TestNewConfigFromEnvironment(t *testing.T) {
	t.Setenv("KEEPASSXC_FILE", "team.kpx")
	t.Setenv("KEEPASSXC_PASSWORD", "from-env")
	t.Setenv("KEEPASSXC_KEYFILE", "team.key")
	t.Setenv("KEEPASSXC_BACKUP", "false")
	t.Setenv("KEEPASSXC_DEBUG", "true")

	cfg := NewConfig()

	if cfg.VaultFile != "team.kpx" {
		t.Errorf("VaultFile mismatch: got %s", cfg.VaultFile)
	}
	if cfg.Password != "from-env" {
		t.Errorf("Password mismatch: got %s", cfg.Password)
	}
	if cfg.KeyFile != "team.key" {
		t.Errorf("KeyFile mismatch: got %s", cfg.KeyFile)
	}
	if cfg.Backup {
		t.Error("Backup should be disabled")
	}
	if !cfg.Debug {
		t.Error("Debug should be enabled")
	}
}
