package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/stratum-lab/stratum/internal/config"
	"github.com/stratum-lab/stratum/internal/fetch"
)

var fetchMetadataOnly bool

func init() {
	// Load .env file if present (for S2_API_KEY)
	_ = godotenv.Load()

	fetchCmd.Flags().BoolVar(&fetchMetadataOnly, "metadata-only", false, "Skip the PDF download")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <doi>",
	Short: "Fetch paper metadata and PDF without analyzing",
	Long: `Fetch a paper's metadata from Semantic Scholar (arXiv as fallback for
the PDF) and cache the PDF under .stratum/cache/pdfs.

Examples:
  stratum fetch 10.1038/nature14539
  stratum fetch 10.1038/nature14539 --metadata-only --human`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	doi := fetch.NormalizeDOI(args[0])

	client := fetch.NewClient(
		fetch.WithAPIKey(config.GetS2APIKey()),
		fetch.WithCacheDir(config.PDFCachePath(repoRoot)),
	)

	ctx := context.Background()

	if fetchMetadataOnly {
		paper, err := client.GetPaper(ctx, doi)
		if err != nil {
			exitFetchError(doi, err)
		}
		return outputFetch(&fetch.Result{Paper: paper, Source: "semantic_scholar"})
	}

	result, err := client.FetchPaper(ctx, doi)
	if err != nil {
		exitFetchError(doi, err)
	}
	return outputFetch(result)
}

func outputFetch(result *fetch.Result) error {
	if humanOutput {
		p := result.Paper
		fmt.Printf("%s (%d)\n", p.Title, p.Year)
		fmt.Printf("  %s\n", strings.Join(p.Authors, ", "))
		fmt.Printf("  DOI: %s\n", p.DOI)
		if result.PDFPath != "" {
			fmt.Printf("  PDF: %s (via %s)\n", result.PDFPath, result.Source)
		} else {
			fmt.Println("  PDF: not available")
		}
		return nil
	}
	return outputJSON(result)
}

// exitFetchError maps fetch errors onto the fetch exit codes.
func exitFetchError(doi string, err error) {
	switch {
	case fetch.IsNotFound(err):
		exitWithError(ExitFetchNotFound, "paper not found: %s", doi)
	case fetch.IsRateLimited(err):
		exitWithError(ExitFetchAPI, "rate limited: %v", err)
	default:
		exitWithError(ExitFetchAPI, "%v", err)
	}
}
