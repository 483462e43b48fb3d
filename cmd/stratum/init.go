package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stratum-lab/stratum/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a stratum repository",
	Long: `Initialize a stratum repository in the given directory (default: current).

Creates the .stratum directory with a default config, the PDF cache, and
the note output directory.

Examples:
  stratum init
  stratum init ~/papers`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err := filepath.Abs(config.ExpandPath(root))
	if err != nil {
		exitWithError(ExitError, "resolving path: %v", err)
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "already a stratum repository: %s", root)
	}

	for _, dir := range []string{
		config.StratumPath(root),
		config.PDFCachePath(root),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			exitWithError(ExitError, "creating %s: %v", dir, err)
		}
	}

	cfg := config.Default()
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "writing config: %v", err)
	}

	if err := os.MkdirAll(cfg.OutputPath(root), 0755); err != nil {
		exitWithError(ExitError, "creating output directory: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized stratum repository in %s\n", config.StratumPath(root))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: root})
	}
	return nil
}
