package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/stratum/config.yml.
type GlobalConfig struct {
	S2APIKey     string `yaml:"s2_api_key,omitempty"`
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`
	LLMModel     string `yaml:"llm_model,omitempty"`
	VaultPath    string `yaml:"vault_path,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "stratum"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/stratum/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.VaultPath != "" {
		cfg.VaultPath = ExpandPath(cfg.VaultPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetS2APIKey returns the Semantic Scholar API key. The environment variable
// S2_API_KEY wins over the global config file.
func GetS2APIKey() string {
	if key := os.Getenv("S2_API_KEY"); key != "" {
		return key
	}
	cfg, _ := LoadGlobalConfig()
	return cfg.S2APIKey
}

// GetOpenAIAPIKey returns the OpenAI API key. The environment variable
// OPENAI_API_KEY wins over the global config file.
func GetOpenAIAPIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	cfg, _ := LoadGlobalConfig()
	return cfg.OpenAIAPIKey
}

// GetLLMModel returns the analysis model name, preferring the repository
// config, then the global config, then the built-in default.
func GetLLMModel(repoCfg *Config) string {
	if repoCfg != nil && repoCfg.LLMModel != "" {
		return repoCfg.LLMModel
	}
	cfg, _ := LoadGlobalConfig()
	if cfg.LLMModel != "" {
		return cfg.LLMModel
	}
	return DefaultLLMModel
}

// GetVaultPath returns the configured vault path from global config.
func GetVaultPath() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.VaultPath
}
