package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultArchiveExt = ".zip"
	// DefaultDBName is the ledger file created inside the internal root.
	DefaultDBName     = "cache.db"
	defaultLang       = "en"
	defaultEmulator   = "supermodel"
)

// Config describes the application level configuration loaded from json.
type Config struct {
	GamesDir     string         `json:"games_dir"`
	DataDir      string         `json:"data_dir"`
	InternalRoot string         `json:"internal_root"`
	ArchiveExt   string         `json:"archive_ext"`
	CatalogPath  string         `json:"catalog_path"`
	DBPath       string         `json:"db_path"`
	Lang         string         `json:"lang"`
	Emulator     EmulatorConfig `json:"emulator"`
	S3           S3Config       `json:"s3"`
}

// EmulatorConfig names the external emulator binary and extra arguments
// placed before the generated ones.
type EmulatorConfig struct {
	Binary string   `json:"binary"`
	Args   []string `json:"args"`
}

// S3Config holds the options for accessing the object store used as a
// remote games folder. The block is optional.
type S3Config struct {
	Host            string `json:"host"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Prefix          string `json:"prefix"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	SessionToken    string `json:"session_token"`
	ForcePathStyle  bool   `json:"force_path_style"`
}

// Enabled reports whether a remote source is configured.
func (c S3Config) Enabled() bool {
	return c.Host != "" || c.Bucket != ""
}

// DefaultPaths lists the locations searched when no explicit path is given.
func DefaultPaths(explicit string) []string {
	paths := []string{explicit, "./config.json"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "super3", "config.json"))
	}
	return append(paths, "/etc/super3.json")
}

// LoadFirst tries to load configuration from the given paths, returning the
// first successfully decoded configuration. If none of the paths contain a
// readable config, an error is returned.
func LoadFirst(paths ...string) (*Config, error) {
	var lastErr error
	for _, path := range paths {
		if path == "" {
			continue
		}
		cfg, err := Load(path)
		if errors.Is(err, os.ErrNotExist) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("config not found in paths: %v", paths)
	}
	return nil, lastErr
}

// Load reads configuration from a single json file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration as indented json, creating parent dirs.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config dir %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// ApplyDefaults fills unset optional fields. The archive extension is
// lowercased with a leading dot, the form the games folder scan matches.
func (c *Config) ApplyDefaults() {
	c.ArchiveExt = strings.ToLower(strings.TrimSpace(c.ArchiveExt))
	if c.ArchiveExt == "" {
		c.ArchiveExt = defaultArchiveExt
	}
	if !strings.HasPrefix(c.ArchiveExt, ".") {
		c.ArchiveExt = "." + c.ArchiveExt
	}
	if c.DBPath == "" && c.InternalRoot != "" {
		c.DBPath = filepath.Join(c.InternalRoot, DefaultDBName)
	}
	if c.Lang == "" {
		c.Lang = defaultLang
	}
	if c.Emulator.Binary == "" {
		c.Emulator.Binary = defaultEmulator
	}
	if c.S3.Enabled() && c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
}

// Validate performs basic validation of the configuration.
func (c *Config) Validate() error {
	if c.InternalRoot == "" {
		return errors.New("config.internal_root must be set")
	}
	if c.S3.Enabled() {
		if c.S3.Host == "" {
			return errors.New("config.s3.host must be set")
		}
		if c.S3.Bucket == "" {
			return errors.New("config.s3.bucket must be set")
		}
	}
	return nil
}

// SetupComplete reports whether both user folders are chosen.
func (c *Config) SetupComplete() bool {
	return c.GamesDir != "" && c.DataDir != ""
}

// GamesXMLPath is where the emulator's game catalog lives inside the internal root.
func (c *Config) GamesXMLPath() string {
	return filepath.Join(c.InternalRoot, "Config", "Games.xml")
}

// CatalogFile returns the catalog to load: catalog_path when set, else Games.xml.
func (c *Config) CatalogFile() string {
	if c.CatalogPath != "" {
		return c.CatalogPath
	}
	return c.GamesXMLPath()
}

// RomCacheDir is the internal directory archives are copied into before launch.
func (c *Config) RomCacheDir() string {
	return filepath.Join(c.InternalRoot, "romcache")
}
