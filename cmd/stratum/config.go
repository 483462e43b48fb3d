package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stratum-lab/stratum/internal/config"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get and set repository configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show repository configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repoRoot := mustFindRepository()
		cfg := mustLoadConfig(repoRoot)

		if humanOutput {
			fmt.Printf("max_depth:     %d\n", cfg.MaxDepth)
			fmt.Printf("max_citations: %d\n", cfg.MaxCitations)
			fmt.Printf("output_dir:    %s\n", cfg.OutputDir)
			if cfg.LLMModel != "" {
				fmt.Printf("llm_model:     %s\n", cfg.LLMModel)
			}
			if cfg.VaultPath != "" {
				fmt.Printf("vault_path:    %s\n", cfg.VaultPath)
			}
			return nil
		}
		return outputJSON(cfg)
	},
}

// UpdateResponse is the response for config set.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a repository configuration value",
	Long: `Set a repository configuration value.

Keys:
  max_depth      recursion depth bound (non-negative integer)
  max_citations  foundational citations followed per paper
  output_dir     note output directory, relative to the repository root
  llm_model      analysis model for this repository
  vault_path     absolute path to an external vault

Examples:
  stratum config set max_depth 3
  stratum config set vault_path ~/obsidian/research`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	key, value := args[0], args[1]

	switch key {
	case "max_depth":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			exitWithError(ExitDataError, "max_depth must be a non-negative integer, got %q", value)
		}
		cfg.MaxDepth = n
	case "max_citations":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			exitWithError(ExitDataError, "max_citations must be a non-negative integer, got %q", value)
		}
		cfg.MaxCitations = n
	case "output_dir":
		cfg.OutputDir = value
	case "llm_model":
		cfg.LLMModel = value
	case "vault_path":
		if err := config.ValidateVaultPath(value); err != nil {
			exitWithError(ExitDataError, "invalid vault_path: %v", err)
		}
		cfg.VaultPath = value
	default:
		exitWithError(ExitDataError, "unknown config key: %s", key)
	}

	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
	return nil
}
