package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/perbu/timeline-analyzer/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version is set by build flags
	Version = "dev"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	runLog  logrus.FieldLogger
	cfg     *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "timeline-analyzer",
	Short: "Turn issue and pull request timelines into analysis-ready CSV",
	Long: `timeline-analyzer collects closed issues and pull requests together with
their event timelines, and converts them into one CSV row per item: who
authored and closed it, how many people took part, how long it lived and
whether it ended merged/completed (Green) or not (Red).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}
		runLog = logger.WithField("run_id", uuid.NewString())

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .timeline-analyzer/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(collectCmd)
}
