package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dkovalov/papermine/internal/llm"
	"github.com/dkovalov/papermine/internal/model"
	"github.com/dkovalov/papermine/internal/pipeline"
)

var (
	miningTopic   string
	metricList    []string
	extractRetry  int
	taxonomyRetry int
	categorizeR   int
	sampleCap     int

	retentionRatio float64
	minSampleCount int

	analysisRetry int
	guidanceRetry int
	supportRetry  int
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <paper-root> <sentence-root> <output-root>",
	Short: "Screen papers and extract verified metric values",
	Long: `Extract runs the first stage over a corpus:
- screen each paper for topic relevance
- extract the best-performance sentence per metric family
- induce the metric taxonomy from a sample of accepted statements
- categorize every paper's accepted statement under the taxonomy

Every unit persists one artifact file under <output-root>/extract_info;
rerunning the command skips units whose artifact already exists.

Example:
  papermine extract ./papers ./sentences ./out --metrics activity,stability`,
	Args: cobra.ExactArgs(3),
	RunE: runExtract,
}

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter <paper-root> <sentence-root> <output-root>",
	Short: "Select high-performance papers by percentile thresholds",
	Long: `Filter computes, per induced metric category, the percentile threshold
at the retention ratio and intersects the qualifying paper sets across
every combination of categories. No model calls are made.

Outputs under <output-root>/filtering:
  overall_high_performance_papers.json   combination key -> papers
  metric_type_list.json                  combination-key field order
  metric_value_stats.json                per-category value summaries
  to_process_content.json                selected papers for the guidance stage`,
	Args: cobra.ExactArgs(3),
	RunE: runFilter,
}

// guidanceCmd represents the guidance command
var guidanceCmd = &cobra.Command{
	Use:   "guidance <paper-root> <sentence-root> <output-root>",
	Short: "Synthesize design guidance from the filtered papers",
	Long: `Guidance runs the last stage over the filtering output:
- in-depth analysis of every selected paper
- guidance synthesis across the verified findings
- support attribution of each guidance item per paper
- per-guidance support summaries

Artifacts land under <output-root>/guidance.`,
	Args: cobra.ExactArgs(3),
	RunE: runGuidance,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(guidanceCmd)

	extractCmd.Flags().StringVar(&miningTopic, "topic", "", "target research topic (default from config)")
	extractCmd.Flags().StringSliceVar(&metricList, "metrics", nil, "metric families to extract (default from config)")
	extractCmd.Flags().IntVar(&extractRetry, "extract-retries", 0, "retry ceiling for per-paper extraction")
	extractCmd.Flags().IntVar(&taxonomyRetry, "taxonomy-retries", 0, "retry ceiling for taxonomy induction")
	extractCmd.Flags().IntVar(&categorizeR, "categorize-retries", 0, "retry ceiling for per-paper categorization")
	extractCmd.Flags().IntVar(&sampleCap, "sample-cap", 0, "max papers sampled for taxonomy induction")

	filterCmd.Flags().Float64Var(&retentionRatio, "ratio", 0, "retention ratio positioning the percentile cutoff")
	filterCmd.Flags().IntVar(&minSampleCount, "min-count", 0, "minimum reporting papers for a category to survive")

	guidanceCmd.Flags().IntVar(&analysisRetry, "analysis-retries", 0, "retry ceiling for in-depth analysis")
	guidanceCmd.Flags().IntVar(&guidanceRetry, "guidance-retries", 0, "retry ceiling for guidance synthesis")
	guidanceCmd.Flags().IntVar(&supportRetry, "support-retries", 0, "retry ceiling for support attribution")
}

func stagePaths(args []string) pipeline.Paths {
	return pipeline.Paths{
		PaperRoot:    args[0],
		SentenceRoot: args[1],
		OutputRoot:   args[2],
	}
}

// buildPipeline assembles a pipeline with a live provider.
func buildPipeline(cfg model.Config, paths pipeline.Paths) (*pipeline.Pipeline, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("no LLM provider configured")
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Provider: %s, model: %s\n", provider.Name(), cfg.LLM.Model)
	}

	log, err := buildLogger()
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, provider, paths, log)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if miningTopic != "" {
		cfg.Mining.Topic = miningTopic
	}
	if len(metricList) > 0 {
		cfg.Mining.Metrics = metricList
	}
	if extractRetry > 0 {
		cfg.Consensus.ExtractCeiling = extractRetry
	}
	if taxonomyRetry > 0 {
		cfg.Consensus.TaxonomyCeiling = taxonomyRetry
	}
	if categorizeR > 0 {
		cfg.Consensus.CategorizeCeiling = categorizeR
	}
	if sampleCap > 0 {
		cfg.Consensus.TaxonomySampleCap = sampleCap
	}

	p, err := buildPipeline(cfg, stagePaths(args))
	if err != nil {
		return err
	}
	return p.RunExtract(context.Background())
}

func runFilter(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if retentionRatio > 0 {
		cfg.Filter.RetentionRatio = retentionRatio
	}
	if minSampleCount > 0 {
		cfg.Filter.MinSampleCount = minSampleCount
	}

	log, err := buildLogger()
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, nil, stagePaths(args), log)
	if err != nil {
		return err
	}
	return p.RunFilter()
}

func runGuidance(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	if analysisRetry > 0 {
		cfg.Consensus.AnalysisCeiling = analysisRetry
	}
	if guidanceRetry > 0 {
		cfg.Consensus.GuidanceCeiling = guidanceRetry
	}
	if supportRetry > 0 {
		cfg.Consensus.SupportCeiling = supportRetry
	}

	p, err := buildPipeline(cfg, stagePaths(args))
	if err != nil {
		return err
	}
	return p.RunGuidance(context.Background())
}
