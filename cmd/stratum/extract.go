package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stratum-lab/stratum/internal/pdf"
)

var (
	extractDOIOnly bool
	extractPages   int
)

func init() {
	extractCmd.Flags().BoolVar(&extractDOIOnly, "doi", false, "Only extract the paper's DOI")
	extractCmd.Flags().IntVar(&extractPages, "pages", 30, "Maximum number of pages to read")
	rootCmd.AddCommand(extractCmd)
}

// ExtractResponse is the JSON response for extract.
type ExtractResponse struct {
	Path string `json:"path"`
	DOI  string `json:"doi,omitempty"`
	Text string `json:"text,omitempty"`
}

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Extract text or a DOI from a PDF file",
	Long: `Extract text from a local PDF, or just its DOI with --doi.

Examples:
  stratum extract paper.pdf
  stratum extract paper.pdf --doi --human`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]

	if extractDOIOnly {
		doi, err := pdf.ExtractDOI(path)
		if err != nil {
			exitWithError(ExitDataError, "extracting DOI from %s: %v", path, err)
		}
		if humanOutput {
			fmt.Println(doi)
			return nil
		}
		return outputJSON(ExtractResponse{Path: path, DOI: doi})
	}

	text, err := pdf.ExtractText(path, extractPages)
	if err != nil {
		exitWithError(ExitDataError, "extracting text from %s: %v", path, err)
	}
	if humanOutput {
		fmt.Println(text)
		return nil
	}
	return outputJSON(ExtractResponse{Path: path, Text: text})
}
