package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stratum-lab/stratum/internal/config"
	"github.com/stratum-lab/stratum/internal/recursion"
)

var stateListDepth int

func init() {
	stateListCmd.Flags().IntVar(&stateListDepth, "depth", -1, "Only list papers processed at this depth")
	stateCmd.AddCommand(stateStatsCmd)
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateResetCmd)
	rootCmd.AddCommand(stateCmd)
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and manage recursion state",
}

// openManager loads the recursion state for the enclosing repository.
func openManager() *recursion.Manager {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	return recursion.NewManager(config.StatePath(repoRoot), cfg.MaxDepth)
}

var stateStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show processing statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats := openManager().Stats()

		if humanOutput {
			fmt.Printf("Processed: %d paper(s), depth bound %d\n", stats.TotalProcessed, stats.MaxDepth)
			for depth := 0; depth < stats.MaxDepth; depth++ {
				fmt.Printf("  depth %d: %d\n", depth, stats.ProcessedByDepth[depth])
			}
			return nil
		}
		return outputJSON(stats)
	},
}

// StateListResponse is the JSON response for state list.
type StateListResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List processed paper IDs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := openManager()

		var ids []string
		if stateListDepth >= 0 {
			ids = mgr.IDsAtDepth(stateListDepth)
		} else {
			ids = mgr.ProcessedIDs()
		}
		if ids == nil {
			ids = []string{}
		}

		if humanOutput {
			for _, id := range ids {
				fmt.Println(id)
			}
			fmt.Printf("%d paper(s)\n", len(ids))
			return nil
		}
		return outputJSON(StateListResponse{IDs: ids, Count: len(ids)})
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear processed papers, keeping the depth bound",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := openManager()
		if err := mgr.Reset(); err != nil {
			exitWithError(ExitError, "resetting state: %v", err)
		}

		if humanOutput {
			fmt.Println("Recursion state cleared")
		} else {
			outputJSON(StatusResponse{Status: "reset"})
		}
		return nil
	},
}
