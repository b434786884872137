package downloader

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/perbu/timeline-analyzer/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const randomQuery = "is:public"

// Source is the subset of the GitHub client the downloader needs.
type Source interface {
	RandomRepository(ctx context.Context, rng *rand.Rand, query string) (*models.Repository, error)
	ListClosedIssues(ctx context.Context, owner, repo string) ([]*models.Issue, error)
	GetTimeline(ctx context.Context, owner, repo string, number int) ([]json.RawMessage, error)
}

type Options struct {
	DataDir  string
	Workers  int
	MaxItems int // per repository, 0 means no limit
	Seed     int64
}

type Downloader struct {
	source Source
	state  *State
	logger logrus.FieldLogger
	opts   Options
	rng    *rand.Rand
}

func New(source Source, state *State, logger logrus.FieldLogger, opts Options) *Downloader {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Downloader{
		source: source,
		state:  state,
		logger: logger,
		opts:   opts,
		rng:    rand.New(rand.NewSource(opts.Seed)),
	}
}

// CollectRandom keeps picking random public repositories until n of them
// have been collected. Repositories seen in an earlier run are skipped.
func (d *Downloader) CollectRandom(ctx context.Context, n int) error {
	collected := 0
	for attempts := 0; collected < n; attempts++ {
		if attempts >= n*20 {
			return fmt.Errorf("gave up after %d attempts, collected %d of %d repositories", attempts, collected, n)
		}

		repo, err := d.source.RandomRepository(ctx, d.rng, randomQuery)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.WithError(err).Warn("Random repository lookup failed")
			continue
		}
		if repo == nil {
			continue
		}

		checked, err := d.state.RepoChecked(repo.FullName)
		if err != nil {
			return fmt.Errorf("failed to read state: %w", err)
		}
		if checked {
			d.logger.WithField("repo", repo.FullName).Debug("Repository already checked, skipping")
			continue
		}

		d.logger.WithField("repo", repo.FullName).Info("Looking for items")
		if _, err := d.CollectRepo(ctx, repo.Owner, repo.Name); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.WithError(err).WithField("repo", repo.FullName).Warn("Collection failed")
			continue
		}
		collected++
	}
	return nil
}

// CollectRepo appends every closed item of owner/repo that is not yet in the
// state store to the repository's JSON-lines file. It returns the number of
// items written.
func (d *Downloader) CollectRepo(ctx context.Context, owner, repo string) (int, error) {
	fullName := owner + "/" + repo
	log := d.logger.WithField("repo", fullName)

	if err := os.MkdirAll(filepath.Join(d.opts.DataDir, "items"), 0755); err != nil {
		return 0, fmt.Errorf("failed to create items directory: %w", err)
	}

	log.Info("Fetching closed items...")
	issues, err := d.source.ListClosedIssues(ctx, owner, repo)
	if err != nil {
		return 0, fmt.Errorf("failed to list closed items: %w", err)
	}

	pending := make([]*models.Issue, 0, len(issues))
	for _, issue := range issues {
		done, err := d.state.ItemCollected(fullName, issue.Number)
		if err != nil {
			return 0, fmt.Errorf("failed to read state: %w", err)
		}
		if !done {
			pending = append(pending, issue)
		}
	}
	if d.opts.MaxItems > 0 && len(pending) > d.opts.MaxItems {
		pending = pending[:d.opts.MaxItems]
	}
	prs := 0
	for _, issue := range pending {
		if issue.PullRequest {
			prs++
		}
	}
	log.WithFields(logrus.Fields{
		"closed":  len(issues),
		"pending": len(pending),
		"prs":     prs,
	}).Info("Found closed items")

	// Results keep the listing order; failed items stay nil and are skipped.
	results := make([]*models.Issue, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)
	for i, issue := range pending {
		i, issue := i, issue
		g.Go(func() error {
			timeline, err := d.source.GetTimeline(gctx, owner, repo, issue.Number)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.WithError(err).WithField("number", issue.Number).Warn("Error downloading timeline")
				return nil
			}
			issue.TimeLine = timeline
			results[i] = issue
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	written, err := d.appendItems(fullName, results)
	if err != nil {
		return written, err
	}
	if err := d.state.MarkRepo(fullName, written); err != nil {
		return written, fmt.Errorf("failed to save state: %w", err)
	}

	log.WithField("written", written).Info("Collection complete")
	return written, nil
}

func (d *Downloader) appendItems(fullName string, items []*models.Issue) (int, error) {
	path := ItemsPath(d.opts.DataDir, fullName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)

	written := 0
	for _, item := range items {
		if item == nil {
			continue
		}
		// One item per line; the encoder appends the newline.
		if err := enc.Encode(item); err != nil {
			return written, fmt.Errorf("failed to encode item %d: %w", item.Number, err)
		}
		if err := w.Flush(); err != nil {
			return written, fmt.Errorf("failed to write item %d: %w", item.Number, err)
		}
		if err := d.state.MarkItem(fullName, item.Number); err != nil {
			return written, fmt.Errorf("failed to save state: %w", err)
		}
		written++
	}
	return written, nil
}

// ItemsPath is where CollectRepo writes the items of fullName ("owner/repo").
func ItemsPath(dataDir, fullName string) string {
	return filepath.Join(dataDir, "items", strings.ReplaceAll(fullName, "/", "_")+".jsonl")
}
