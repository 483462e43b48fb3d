package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stratum-lab/stratum/internal/storage"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

// ListResponse is the JSON response for list.
type ListResponse struct {
	Papers []storage.Record `json:"papers"`
	Count  int              `json:"count"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List analyzed papers from the archive index",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	index := mustOpenIndex(repoRoot)
	defer index.Close()

	records, err := index.List()
	if err != nil {
		exitWithError(ExitError, "listing papers: %v", err)
	}
	if records == nil {
		records = []storage.Record{}
	}

	if humanOutput {
		for _, r := range records {
			fmt.Printf("  [%d] %s: %s\n", r.Depth, r.KTID, truncateString(r.Title, ListTitleMaxLen))
			fmt.Printf("      %s (%d)  doi:%s\n", strings.Join(r.Authors, ", "), r.Year, r.DOI)
		}
		fmt.Printf("%d paper(s) analyzed\n", len(records))
		return nil
	}
	return outputJSON(ListResponse{Papers: records, Count: len(records)})
}
