package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/perbu/timeline-analyzer/gemini"
	"github.com/perbu/timeline-analyzer/output"
	"github.com/perbu/timeline-analyzer/processor"
	"github.com/perbu/timeline-analyzer/report"
	"github.com/spf13/cobra"
)

var (
	analyzeOutput  string
	analyzeWorkers int
	analyzeRejects string
	analyzeSummary string
	analyzeNarrate bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Convert a file or directory of item timelines into CSV records",
	Long: `Reads every item at <path> (a JSON-lines file, a single JSON file, or a
directory of such files, optionally gzipped) and appends one CSV row per
accepted item to the output file. Items that cannot be converted are
skipped and counted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("output") {
			cfg.Analyze.Output = analyzeOutput
		}
		if cmd.Flags().Changed("workers") {
			cfg.Analyze.Workers = analyzeWorkers
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if analyzeNarrate && analyzeSummary == "" {
			return fmt.Errorf("--narrate requires --summary")
		}
		if analyzeNarrate && cfg.Gemini.APIKey == "" {
			return fmt.Errorf("a Gemini API key is required for --narrate: set GEMINI_API_KEY or gemini.api_key")
		}
		return runAnalyze(cmd.Context(), args[0])
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "result.csv", "CSV file to write records to")
	analyzeCmd.Flags().IntVarP(&analyzeWorkers, "workers", "w", 0, "parallel workers (1 keeps input order)")
	analyzeCmd.Flags().StringVar(&analyzeRejects, "rejects", "", "write rejected items as JSON lines to this file")
	analyzeCmd.Flags().StringVar(&analyzeSummary, "summary", "", "write a Markdown summary to this file")
	analyzeCmd.Flags().BoolVar(&analyzeNarrate, "narrate", false, "append a Gemini-written narrative to the summary")
}

func runAnalyze(ctx context.Context, path string) error {
	// Resolve the input before touching the output, so a typo in path
	// leaves an existing CSV alone.
	files, err := processor.InputFiles(path)
	if err != nil {
		return err
	}

	out, err := os.Create(cfg.Analyze.Output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer out.Close()
	records := output.NewCSVWriter(out)

	var rejects processor.RejectWriter
	if analyzeRejects != "" {
		f, err := os.Create(analyzeRejects)
		if err != nil {
			return fmt.Errorf("failed to create rejects file: %w", err)
		}
		defer f.Close()
		rejects = output.NewRejectWriter(f)
	}

	proc := processor.New(runLog, records, rejects, cfg.Analyze.Workers)
	runLog.WithField("path", path).Debug("Input resolved")
	summary, err := proc.ProcessFiles(ctx, files)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	runLog.WithField("output", cfg.Analyze.Output).Infof("Wrote %d records", records.Rows())

	if analyzeSummary != "" {
		if err := writeSummary(ctx, summary, analyzeSummary); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(ctx context.Context, summary *report.Summary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}
	defer f.Close()

	md := summary.Markdown()
	if _, err := io.WriteString(f, md); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if analyzeNarrate {
		client, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, runLog)
		if err != nil {
			return err
		}
		defer client.Close()

		runLog.Info("Asking Gemini for a narrative...")
		narrative, err := client.Narrate(ctx, md)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(f, "\n## Narrative\n\n"+narrative+"\n"); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	runLog.WithField("summary", path).Info("Summary saved")
	return f.Close()
}
