// Package config handles repository and global configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents repository configuration stored in .stratum/config.json.
type Config struct {
	MaxDepth     int    `json:"max_depth"`            // Recursion depth bound
	MaxCitations int    `json:"max_citations"`        // Foundational citations followed per paper
	OutputDir    string `json:"output_dir"`           // Directory for generated notes, relative to root
	LLMModel     string `json:"llm_model,omitempty"`  // Overrides the global model for this repository
	VaultPath    string `json:"vault_path,omitempty"` // Absolute path to an external vault; empty uses OutputDir
}

const (
	StratumDir = ".stratum"
	ConfigFile = "config.json"
	StateFile  = "state.json"
	CacheDir   = "cache"
	PDFDir     = "pdfs"
	DBFile     = "papers.db"

	DefaultMaxDepth     = 2
	DefaultMaxCitations = 3
	DefaultOutputDir    = "papers"
	DefaultLLMModel     = "gpt-4o"
)

// Default returns a configuration with the standard defaults.
func Default() *Config {
	return &Config{
		MaxDepth:     DefaultMaxDepth,
		MaxCitations: DefaultMaxCitations,
		OutputDir:    DefaultOutputDir,
	}
}

// StratumPath returns the path to the .stratum directory from a root path.
func StratumPath(root string) string {
	return filepath.Join(root, StratumDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, StratumDir, ConfigFile)
}

// StatePath returns the path to the recursion state file from a root path.
func StatePath(root string) string {
	return filepath.Join(root, StratumDir, StateFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, StratumDir, CacheDir)
}

// PDFCachePath returns the path to the PDF cache directory from a root path.
func PDFCachePath(root string) string {
	return filepath.Join(root, StratumDir, CacheDir, PDFDir)
}

// DBPath returns the path to the archive index database from a root path.
func DBPath(root string) string {
	return filepath.Join(root, StratumDir, CacheDir, DBFile)
}

// OutputPath returns the absolute note output directory for a repository.
// A configured vault path wins over the repository-local output directory;
// the repository's vault_path wins over the global one.
func (c *Config) OutputPath(root string) string {
	if c.VaultPath != "" {
		return ExpandPath(c.VaultPath)
	}
	if v := GetVaultPath(); v != "" {
		return v
	}
	dir := c.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// IsRepository checks if the given path contains a stratum repository.
func IsRepository(root string) bool {
	info, err := os.Stat(StratumPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a stratum repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a stratum repository (no .stratum directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root. Missing
// fields fall back to defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("max_depth must be non-negative, got %d", cfg.MaxDepth)
	}
	if cfg.MaxCitations < 0 {
		return nil, fmt.Errorf("max_citations must be non-negative, got %d", cfg.MaxCitations)
	}

	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ValidateVaultPath checks that the vault path exists and is a directory.
func ValidateVaultPath(path string) error {
	if path == "" {
		return nil // Empty is allowed (not yet configured)
	}

	expandedPath := ExpandPath(path)

	info, err := os.Stat(expandedPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", expandedPath)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", expandedPath)
	}

	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
