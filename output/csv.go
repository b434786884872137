package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/perbu/timeline-analyzer/record"
)

// Header is the column layout of every records file.
var Header = []string{
	"record_kind",
	"url",
	"author_role",
	"closer_role",
	"author_is_closer",
	"participants_total",
	"participants_bot",
	"participants_member",
	"participants_contributor",
	"participants_user",
	"create_time",
	"life_time_seconds",
	"first_event_elapsed_seconds",
	"first_comment_elapsed_seconds",
	"commit_count",
	"comment_count",
	"outcome",
}

// CSVWriter writes records as CSV rows. The header goes out with the first
// write, or on Close when nothing was written, so every file gets exactly
// one header. Safe for concurrent use.
type CSVWriter struct {
	mu            sync.Mutex
	w             *csv.Writer
	headerWritten bool
	rows          int
}

func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

func (c *CSVWriter) Write(rec *record.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeHeader(); err != nil {
		return err
	}
	if err := c.w.Write(Row(rec)); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	c.rows++
	return nil
}

// Rows returns the number of records written so far.
func (c *CSVWriter) Rows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows
}

// Flush writes the header if still pending and flushes buffered rows.
func (c *CSVWriter) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeHeader(); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) writeHeader() error {
	if c.headerWritten {
		return nil
	}
	if err := c.w.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	c.headerWritten = true
	return nil
}

// Row renders rec in Header order.
func Row(rec *record.Record) []string {
	return []string{
		rec.Kind.String(),
		rec.URL,
		rec.AuthorRole.String(),
		rec.CloserRole.String(),
		strconv.FormatBool(rec.AuthorIsCloser),
		strconv.Itoa(rec.Participants.Total),
		strconv.Itoa(rec.Participants.Bot),
		strconv.Itoa(rec.Participants.Member),
		strconv.Itoa(rec.Participants.Contributor),
		strconv.Itoa(rec.Participants.User),
		rec.CreateTime,
		strconv.FormatInt(rec.LifeTimeSec, 10),
		strconv.FormatInt(rec.FirstEventSec, 10),
		strconv.FormatInt(rec.FirstCommentSec, 10),
		strconv.FormatUint(rec.CommitCount, 10),
		strconv.FormatUint(rec.CommentCount, 10),
		rec.Outcome.String(),
	}
}
