package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/stratum-lab/stratum/internal/analyst"
	"github.com/stratum-lab/stratum/internal/config"
	"github.com/stratum-lab/stratum/internal/fetch"
	"github.com/stratum-lab/stratum/internal/flow"
	"github.com/stratum-lab/stratum/internal/note"
	"github.com/stratum-lab/stratum/internal/pdf"
	"github.com/stratum-lab/stratum/internal/recursion"
)

var (
	analyzeDepth     int
	analyzeCitations int
	analyzeOutputDir string
	analyzeModel     string
)

func init() {
	// Load .env file if present (for S2_API_KEY, OPENAI_API_KEY)
	_ = godotenv.Load()

	analyzeCmd.Flags().IntVar(&analyzeDepth, "max-depth", -1, "Override the configured recursion depth bound")
	analyzeCmd.Flags().IntVar(&analyzeCitations, "max-citations", -1, "Override the configured citations-per-paper cap")
	analyzeCmd.Flags().StringVar(&analyzeOutputDir, "output-dir", "", "Override the note output directory")
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "", "Override the analysis model")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <doi>",
	Short: "Analyze a paper and recursively follow its foundational citations",
	Long: `Analyze a paper by DOI: fetch it, extract its text, build a knowledge
table, write a markdown note, then follow its foundational citations one
depth level down until the depth bound is reached.

Already-analyzed papers are skipped; state persists across runs in
.stratum/state.json.

Examples:
  stratum analyze 10.1038/nature14539
  stratum analyze 10.1038/nature14539 --max-depth 3 --max-citations 5`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	maxDepth := cfg.MaxDepth
	if analyzeDepth >= 0 {
		maxDepth = analyzeDepth
	}
	maxCitations := cfg.MaxCitations
	if analyzeCitations >= 0 {
		maxCitations = analyzeCitations
	}
	outputDir := cfg.OutputPath(repoRoot)
	if analyzeOutputDir != "" {
		outputDir = config.ExpandPath(analyzeOutputDir)
	}
	model := config.GetLLMModel(cfg)
	if analyzeModel != "" {
		model = analyzeModel
	}

	openAIKey := config.GetOpenAIAPIKey()
	if openAIKey == "" {
		exitWithError(ExitConfigError, "no OpenAI API key\n  Hint: set OPENAI_API_KEY or openai_api_key in %s", config.GlobalConfigPath())
	}

	index := mustOpenIndex(repoRoot)
	defer index.Close()

	pipeline := &flow.Pipeline{
		Fetcher: fetch.NewClient(
			fetch.WithAPIKey(config.GetS2APIKey()),
			fetch.WithCacheDir(config.PDFCachePath(repoRoot)),
		),
		Extractor:    extractor{},
		Analyst:      analyst.New(openAIKey, analyst.WithModel(model)),
		Render:       note.Write,
		Recursion:    recursion.NewManager(config.StatePath(repoRoot), maxDepth),
		Index:        index,
		OutputDir:    outputDir,
		MaxCitations: maxCitations,
	}

	summary, err := pipeline.Run(context.Background(), args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Analyzed %d paper(s), skipped %d, failed %d\n", summary.Analyzed, summary.Skipped, summary.Failed)
		for _, n := range summary.Notes {
			fmt.Printf("  %s\n", n)
		}
		return nil
	}
	return outputJSON(summary)
}

// extractor adapts the pdf package to the pipeline interface.
type extractor struct{}

func (extractor) ExtractText(path string, maxPages int) (string, error) {
	return pdf.ExtractText(path, maxPages)
}
