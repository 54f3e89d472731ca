package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"challenge-harvester/internal/config"
	"challenge-harvester/internal/llm"
	"challenge-harvester/internal/merger"
	"challenge-harvester/internal/pipeline"
	"challenge-harvester/pkg/logger"
)

var (
	cfgFile string
	verbose bool

	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Collect hackathon challenges and tag them with generated summaries",
	Long: `harvester scrapes the challenge listing, analyzes spreadsheets of challenges
and manual entries, and tags every record with a summary, fields, skills,
workshops, mentors and a category.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logCloser, err = logger.Setup(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "harvester.yaml", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// signalContext is cancelled on interrupt so batches stop between records.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newGenerator(ctx context.Context) (llm.Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := llm.NewGemini(ctx, cfg.GeminiConfig())
	if err != nil {
		return nil, err
	}
	log := logger.For("llm")
	var gen llm.Generator = g
	if cfg.LLM.Retries > 0 {
		gen = llm.WithRetry(gen, cfg.LLM.Retries+1, time.Second, log)
	}
	return llm.Throttled(gen, llm.NewLimiter(cfg.CallDelay(), cfg.Pipeline.Burst)), nil
}

func newPipeline(gen llm.Generator) *pipeline.Pipeline {
	var opts []pipeline.Option
	if cfg.Pipeline.SmartMerge {
		opts = append(opts, pipeline.WithMerger(merger.New(gen, logger.For("merger"))))
	}
	return pipeline.New(gen, logger.For("pipeline"), opts...)
}

func printProgress(done, total int) {
	fmt.Fprintf(os.Stderr, "\rprocessed %d/%d", done, total)
	if done == total {
		fmt.Fprintln(os.Stderr)
	}
}
