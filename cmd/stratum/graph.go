package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stratum-lab/stratum/internal/graph"
)

var graphOutput string

func init() {
	graphCmd.Flags().StringVarP(&graphOutput, "output", "o", "", "Write the graph JSON to a file instead of stdout")
	rootCmd.AddCommand(graphCmd)
}

var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Build the citation graph from the note corpus",
	Long: `Scan markdown notes and build a citation graph: one node per note,
one edge per wikilink in its citation section.

With no directory argument, the repository's note output directory is
scanned. Nodes carry title, year, and DOI when the notes provide them.

Examples:
  stratum graph
  stratum graph ~/obsidian/research -o graph.json
  stratum graph --human`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func runGraph(cmd *cobra.Command, args []string) error {
	var dir string
	if len(args) == 1 {
		dir = args[0]
	} else {
		repoRoot := mustFindRepository()
		dir = mustLoadConfig(repoRoot).OutputPath(repoRoot)
	}

	g, err := graph.Build(dir)
	if err != nil {
		exitWithError(ExitError, "building graph: %v", err)
	}

	if graphOutput != "" {
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			exitWithError(ExitError, "encoding graph: %v", err)
		}
		if err := os.WriteFile(graphOutput, append(data, '\n'), 0644); err != nil {
			exitWithError(ExitError, "writing %s: %v", graphOutput, err)
		}
		if humanOutput {
			fmt.Printf("Wrote %d nodes and %d edges to %s\n", g.Metadata.NodeCount, g.Metadata.EdgeCount, graphOutput)
		} else {
			outputJSON(StatusResponse{Status: "written", Path: graphOutput})
		}
		return nil
	}

	if humanOutput {
		fmt.Printf("Citation graph of %s\n\n", g.Metadata.SourceDir)
		for _, n := range g.Nodes {
			fmt.Printf("  %s", n.ID)
			if n.Title != nil {
				fmt.Printf(": %s", truncateString(*n.Title, ListTitleMaxLen))
			}
			fmt.Println()
		}
		fmt.Printf("\n%d node(s), %d edge(s)\n", g.Metadata.NodeCount, g.Metadata.EdgeCount)
		return nil
	}
	return outputJSON(g)
}
