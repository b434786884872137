package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/perbu/timeline-analyzer/downloader"
	"github.com/perbu/timeline-analyzer/github"
	"github.com/spf13/cobra"
)

var (
	collectRepo     string
	collectRandom   int
	collectMaxItems int
	collectSeed     int64
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Download closed issues and pull requests with their timelines",
	Long: `Fetches closed issues and pull requests from the GitHub REST API, attaches
each item's full event timeline as "time_line", and appends the items as JSON
lines under <data_dir>/items/. The output is the input format of "analyze".

Either collect one repository with --repo, or --random N public repositories.
Items and repositories already collected are remembered in <data_dir>/state.db
and skipped on later runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (collectRepo == "") == (collectRandom == 0) {
			return fmt.Errorf("exactly one of --repo or --random is required")
		}
		if cfg.GitHub.Token == "" {
			return fmt.Errorf("a GitHub token is required: set GITHUB_TOKEN or github.token")
		}

		client := github.NewClient(cfg.GitHub.Token, cfg.GitHub.RateLimit)
		client.SetPerPage(cfg.GitHub.PerPage)
		if cfg.GitHub.BaseURL != "" {
			if _, err := client.WithBaseURL(cfg.GitHub.BaseURL); err != nil {
				return err
			}
		}

		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		state, err := downloader.OpenState(filepath.Join(cfg.DataDir, "state.db"))
		if err != nil {
			return err
		}
		defer state.Close()

		seed := collectSeed
		if !cmd.Flags().Changed("seed") {
			seed = time.Now().UnixNano()
		}
		d := downloader.New(client, state, runLog, downloader.Options{
			DataDir:  cfg.DataDir,
			Workers:  cfg.GitHub.Workers,
			MaxItems: collectMaxItems,
			Seed:     seed,
		})

		ctx := cmd.Context()
		if collectRandom > 0 {
			return d.CollectRandom(ctx, collectRandom)
		}

		owner, repo, ok := strings.Cut(collectRepo, "/")
		if !ok || owner == "" || repo == "" {
			return fmt.Errorf("--repo must look like owner/name, got %q", collectRepo)
		}
		if _, err := d.CollectRepo(ctx, owner, repo); err != nil {
			return fmt.Errorf("collection failed: %w", err)
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().StringVar(&collectRepo, "repo", "", "repository to collect, as owner/name")
	collectCmd.Flags().IntVar(&collectRandom, "random", 0, "number of random public repositories to collect")
	collectCmd.Flags().IntVar(&collectMaxItems, "max-items", 0, "maximum new items per repository (0 = all)")
	collectCmd.Flags().Int64Var(&collectSeed, "seed", 0, "random seed for --random (default: time-based)")
}
