// Package main provides the stratum CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stratum-lab/stratum/internal/config"
	"github.com/stratum-lab/stratum/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stratum",
	Short: "Recursive literature analysis CLI",
	Long: `stratum analyzes scientific papers into structured knowledge tables and
follows their foundational citations recursively.

Core features:
  - Fetch papers by DOI (Semantic Scholar, arXiv fallback)
  - LLM analysis into knowledge tables with classified citations
  - Obsidian-compatible markdown notes with wikilinked citation sections
  - Citation graph extraction from the note corpus
  - Depth-bounded recursion with persistent dedup state

All commands output JSON by default for agent integration.
Use --human for human-readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustFindRepository finds the enclosing repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	repoRoot, err := config.FindRepository(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "not in a stratum repository\n  Hint: run 'stratum init' to create one here")
	}
	return repoRoot
}

// mustLoadConfig loads repository configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenIndex opens the archive index database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenIndex(repoRoot string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.Open(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening archive index: %v", err)
	}
	return db
}
