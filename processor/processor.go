package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/perbu/timeline-analyzer/output"
	"github.com/perbu/timeline-analyzer/record"
	"github.com/perbu/timeline-analyzer/report"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RecordWriter receives accepted records. Only the processor's writer
// goroutine calls it.
type RecordWriter interface {
	Write(rec *record.Record) error
	Flush() error
}

// RejectWriter receives rejected items. May be nil on the Processor.
type RejectWriter interface {
	Write(source string, line int, kind string, cause error, raw []byte) error
}

type Processor struct {
	logger  logrus.FieldLogger
	records RecordWriter
	rejects RejectWriter
	workers int
}

func New(logger logrus.FieldLogger, records RecordWriter, rejects RejectWriter, workers int) *Processor {
	if workers <= 0 {
		workers = 1
	}
	return &Processor{
		logger:  logger,
		records: records,
		rejects: rejects,
		workers: workers,
	}
}

type result struct {
	item item
	rec  *record.Record
	err  error
}

type fileStats struct {
	files  int
	failed int
}

// ProcessPath converts every item found at path, which is either a single
// input file or a directory of input files. Rejected items and unreadable
// files are counted and skipped; only sink failures or cancellation stop the
// batch.
func (p *Processor) ProcessPath(ctx context.Context, path string) (*report.Summary, error) {
	files, err := InputFiles(path)
	if err != nil {
		return nil, err
	}
	return p.ProcessFiles(ctx, files)
}

// ProcessFiles is ProcessPath for an already resolved file list.
func (p *Processor) ProcessFiles(ctx context.Context, files []string) (*report.Summary, error) {
	p.logger.WithFields(logrus.Fields{
		"files":   len(files),
		"workers": p.workers,
	}).Info("Starting timeline processing...")

	g, ctx := errgroup.WithContext(ctx)
	items := make(chan item)
	results := make(chan result)
	var stats fileStats

	g.Go(func() error {
		defer close(items)
		return p.produce(ctx, files, items, &stats)
	})

	var workers sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			for it := range items {
				rec, err := record.Parse(it.raw)
				select {
				case results <- result{item: it, rec: rec, err: err}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		workers.Wait()
		close(results)
	}()

	summary := report.New()
	g.Go(func() error {
		for res := range results {
			if err := p.collect(summary, res); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := p.records.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush records: %w", err)
	}

	summary.Files = stats.files
	summary.FileErrors = stats.failed

	p.logger.WithFields(logrus.Fields{
		"accepted":    summary.Accepted,
		"rejected":    summary.Rejected,
		"file_errors": summary.FileErrors,
	}).Info("Processing complete!")
	return summary, nil
}

func (p *Processor) produce(ctx context.Context, files []string, items chan<- item, stats *fileStats) error {
	for idx, path := range files {
		stats.files++
		p.logger.WithField("file", path).Debugf("Processing file %d/%d", idx+1, len(files))

		fileItems, err := readItems(path)
		if err != nil {
			// A bad file is as independent as a bad item: log it and move on.
			stats.failed++
			p.logger.WithError(err).WithField("file", path).Warn("Skipping unreadable input file")
			continue
		}

		for _, it := range fileItems {
			select {
			case items <- it:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

func (p *Processor) collect(summary *report.Summary, res result) error {
	if res.err == nil {
		summary.Add(res.rec)
		if err := p.records.Write(res.rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		return nil
	}

	kind := record.KindOf(res.err)
	summary.Reject(kind)
	p.logger.WithFields(logrus.Fields{
		"file": res.item.source,
		"line": res.item.line,
		"kind": kind.String(),
	}).Debug("Skipping item")

	if p.rejects != nil {
		if err := p.rejects.Write(res.item.source, res.item.line, kind.String(), res.err, res.item.raw); err != nil {
			return err
		}
	}
	return nil
}

// InputFiles resolves path to the list of files to read. Directory entries
// are taken in name order and subdirectories are not descended into.
func InputFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

var _ RecordWriter = (*output.CSVWriter)(nil)
var _ RejectWriter = (*output.RejectWriter)(nil)
