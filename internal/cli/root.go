package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dkovalov/papermine/internal/model"
)

var (
	cfgFile string
	verbose bool

	llmProvider string
	llmModel    string
	llmBaseURL  string
	concurrency int
	batchSize   int
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "papermine",
	Short: "Papermine - consensus-driven literature mining",
	Long: `Papermine mines structured performance claims and design guidance out of
scientific papers by repeatedly querying a language model and cross-checking
its output against itself.

Every extraction survives a contrastive verification round before it is
accepted, and every unit of work persists its own artifact file, so an
interrupted run resumes exactly where it stopped.

Stages:
  extract    screen papers, extract metrics, induce the taxonomy, categorize
  filter     compute percentile thresholds and select high performers
  guidance   analyze selected papers in depth and synthesize design guidance`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Papermine.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("papermine v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.papermine/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	rootCmd.PersistentFlags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
	rootCmd.PersistentFlags().StringVar(&llmBaseURL, "llm-base-url", "", "LLM endpoint override")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "max in-flight model calls (0 uses the configured default)")
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0, "units submitted per batch (0 uses the configured default)")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("llm-model"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.papermine")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match PAPERMINE_*
	viper.SetEnvPrefix("PAPERMINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// buildConfig assembles the run configuration from defaults, the config
// file, environment variables and the shared flags.
func buildConfig() (model.Config, error) {
	cfg := model.DefaultConfig()

	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		data, err := os.ReadFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := model.UnmarshalConfig(data, &cfg); err != nil {
			return cfg, err
		}
	}

	// The bound keys resolve flag > env > file > flag default through viper;
	// assigning the flag variables directly would shadow file and env values
	// with the flag defaults.
	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if llmBaseURL != "" {
		cfg.LLM.BaseURL = llmBaseURL
	}
	if concurrency > 0 {
		cfg.Limiter.Concurrency = concurrency
	}
	if batchSize > 0 {
		cfg.Batch.Size = batchSize
	}

	switch cfg.LLM.Provider {
	case "openai":
		// Provider construction fails later if the key is still missing;
		// the filter stage never constructs one.
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && llmBaseURL == "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	return cfg, nil
}

// buildLogger constructs the run logger; verbose switches to debug level.
func buildLogger() (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	if verbose {
		logCfg = zap.NewDevelopmentConfig()
	}
	return logCfg.Build()
}
