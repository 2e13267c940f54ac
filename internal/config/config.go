package config

import (
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// DefaultVaultFile is the vault path used when nothing else is
// configured
const DefaultVaultFile = "vault.kpx"

// Config carries the environment configuration shared by all commands.
// Values come from the process environment, with a .env file loaded
// first when present; per-command flags override them afterwards.
type Config struct {
	// VaultFile is the vault container to operate on
	VaultFile string `env:"KEEPASSXC_FILE" envDefault:"vault.kpx"`
	// Password unlocks the vault non-interactively. Prefer the OS
	// keyring; this exists for scripts and CI.
	Password string `env:"KEEPASSXC_PASSWORD"`
	// KeyFile is an additional key file factor
	KeyFile string `env:"KEEPASSXC_KEYFILE"`
	// Backup controls the .old copy written before each save
	Backup bool `env:"KEEPASSXC_BACKUP" envDefault:"true"`
	// Debug enables development logging to stderr
	Debug bool `env:"KEEPASSXC_DEBUG"`
}

// NewConfig loads the environment configuration. A missing or broken
// .env file and unparseable variables fall back to defaults.
func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	if cfg.VaultFile == "" {
		cfg.VaultFile = DefaultVaultFile
	}
	return cfg
}
