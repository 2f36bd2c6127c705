package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridoc/veridoc/internal/pipeline"
)

var (
	outJSON       string
	outMD         string
	evalTimeout   time.Duration
	applicationID string
	noCache       bool
	noFooter      bool
	llmProvider   string
	llmModel      string
	narrative     bool
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <dir>",
	Short: "Evaluate one loan application from a local directory",
	Long: `Evaluate runs the full decision flow for one application:
- Authenticate the identity document against the reference corpus
- Extract structured claims from every submitted document
- Cross-check names, income, and validity anchors across documents
- Fuse all findings into a Verified/Flagged/Rejected verdict

The directory holds one subdirectory per document type, each with the
submitted page images ("front"/"back" in a filename marks the side):

  application/
    national_id/front.jpg
    national_id/back.jpg
    salary_slip/slip.png
    tax_declaration/2025.pdf

Example:
  veridoc evaluate ./application
  veridoc evaluate ./application --json report.json --md report.md
  veridoc evaluate ./application --narrative --llm-provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	evaluateCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	evaluateCmd.Flags().DurationVar(&evalTimeout, "timeout", 5*time.Minute, "overall evaluation timeout")
	evaluateCmd.Flags().StringVar(&applicationID, "application-id", "", "application id to stamp on the report (generated if empty)")
	evaluateCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable embedding cache")
	evaluateCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	evaluateCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "vision provider (openai, ollama); overrides config")
	evaluateCmd.Flags().StringVar(&llmModel, "llm-model", "", "vision model name; overrides config")
	evaluateCmd.Flags().BoolVar(&narrative, "narrative", false, "generate an LLM narrative for the verdict")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	dir := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Cache.Enabled = !noCache
	cfg.Output.IncludeFooter = !noFooter
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if narrative {
		cfg.LLM.Narrative = true
	}
	if err := applyLLMEnv(cfg); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Evaluating: %s\n", dir)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n\n", evalTimeout)
	}

	p, cleanup, err := pipeline.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	app, err := pipeline.LoadApplication(dir)
	if err != nil {
		return fmt.Errorf("load application: %w", err)
	}
	app.ID = applicationID

	result, err := p.Evaluate(ctx, app)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	fmt.Println(p.Summary(result.Report))

	if err := p.RenderReport(result.Report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}
