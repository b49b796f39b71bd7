package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

type Config struct {
	ListenAddress    string    `toml:"ListenAddress"`
	DataDir          string    `toml:"DataDir"`
	DBBackend        string    `toml:"DBBackend"`
	GenesisFile      string    `toml:"GenesisFile"`
	Environment      string    `toml:"Environment"`
	HTTPReadTimeout  int       `toml:"HTTPReadTimeout"`
	HTTPWriteTimeout int       `toml:"HTTPWriteTimeout"`
	HTTPIdleTimeout  int       `toml:"HTTPIdleTimeout"`
	PausedModules    []string  `toml:"PausedModules"`
	Logging          Logging   `toml:"Logging"`
	Telemetry        Telemetry `toml:"Telemetry"`
	Auth             Auth      `toml:"Auth"`
	RateLimit        RateLimit `toml:"RateLimit"`
	Indexer          Indexer   `toml:"Indexer"`
}

// Load loads the configuration from the given path. A default file is
// written when none exists.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := persist(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.PausedModules == nil {
		cfg.PausedModules = []string{}
	}
	if env := strings.TrimSpace(cfg.Auth.JWTSecretEnv); env != "" && cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv(env)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration written for a fresh install.
func Default() *Config {
	return &Config{
		ListenAddress:    ":8080",
		DataDir:          "./nftstaking-data",
		DBBackend:        BackendLevelDB,
		Environment:      "local",
		HTTPReadTimeout:  15,
		HTTPWriteTimeout: 15,
		HTTPIdleTimeout:  60,
		PausedModules:    []string{},
		Logging: Logging{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Telemetry: Telemetry{Endpoint: "localhost:4318", Insecure: true},
		RateLimit: RateLimit{RequestsPerSecond: 20, Burst: 40},
	}
}

// DBPath is the directory of the persistent ledger store.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "ledger")
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
