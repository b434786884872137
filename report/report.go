// Package report aggregates a batch of records into a short summary.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/perbu/timeline-analyzer/record"
)

const secondsPerDay = 60 * 60 * 24

// Summary accumulates accepted records and rejected items. Not safe for
// concurrent use; the processor feeds it from its single writer goroutine.
type Summary struct {
	Accepted int
	Rejected int
	Failures map[record.FailureKind]int
	Files    int

	// FileErrors counts input files that could not be read at all.
	FileErrors int

	kinds map[record.Kind]*group
	roles map[record.Role]*group
	// first comment delay in seconds, only for records that had a comment
	firstComments []int64
}

type group struct {
	count     int
	green     int
	lifetimes []int64
}

func New() *Summary {
	return &Summary{
		Failures: make(map[record.FailureKind]int),
		kinds:    make(map[record.Kind]*group),
		roles:    make(map[record.Role]*group),
	}
}

func (s *Summary) Add(rec *record.Record) {
	s.Accepted++
	addTo(s.kinds, rec.Kind, rec)
	addTo(s.roles, rec.AuthorRole, rec)
	if rec.FirstCommentSec >= 0 {
		s.firstComments = append(s.firstComments, rec.FirstCommentSec)
	}
}

func (s *Summary) Reject(kind record.FailureKind) {
	s.Rejected++
	s.Failures[kind]++
}

func addTo[K comparable](m map[K]*group, key K, rec *record.Record) {
	g, ok := m[key]
	if !ok {
		g = &group{}
		m[key] = g
	}
	g.count++
	if rec.Outcome == record.Green {
		g.green++
	}
	g.lifetimes = append(g.lifetimes, rec.LifeTimeSec)
}

// Row is one line of a breakdown table.
type Row struct {
	Label          string
	Count          int
	Green          int
	GreenRate      float64
	MedianLifeDays float64
}

// ByKind returns Issue then PR, skipping kinds with no records.
func (s *Summary) ByKind() []Row {
	var rows []Row
	for _, k := range []record.Kind{record.KindIssue, record.KindPR} {
		if g, ok := s.kinds[k]; ok {
			rows = append(rows, g.row(k.String()))
		}
	}
	return rows
}

// ByAuthorRole returns one row per author role seen.
func (s *Summary) ByAuthorRole() []Row {
	var rows []Row
	for _, r := range []record.Role{record.RoleBot, record.RoleMember, record.RoleContributor, record.RoleUser} {
		if g, ok := s.roles[r]; ok {
			rows = append(rows, g.row(r.String()))
		}
	}
	return rows
}

// MedianFirstCommentDays is the median time from creation to first comment.
// ok is false when no accepted record had a comment.
func (s *Summary) MedianFirstCommentDays() (float64, bool) {
	if len(s.firstComments) == 0 {
		return 0, false
	}
	return median(s.firstComments) / secondsPerDay, true
}

func (g *group) row(label string) Row {
	return Row{
		Label:          label,
		Count:          g.count,
		Green:          g.green,
		GreenRate:      float64(g.green) / float64(g.count),
		MedianLifeDays: median(g.lifetimes) / secondsPerDay,
	}
}

func median(values []int64) float64 {
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}

// Markdown renders the summary as a small Markdown document.
func (s *Summary) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Timeline analysis summary\n\n")
	sb.WriteString(fmt.Sprintf("- Input files: %d (%d unreadable)\n", s.Files, s.FileErrors))
	sb.WriteString(fmt.Sprintf("- Accepted records: %d\n", s.Accepted))
	sb.WriteString(fmt.Sprintf("- Rejected items: %d\n", s.Rejected))
	if days, ok := s.MedianFirstCommentDays(); ok {
		sb.WriteString(fmt.Sprintf("- Median time to first comment: %.2f days\n", days))
	}

	if s.Rejected > 0 {
		sb.WriteString("\n## Rejections\n\n")
		sb.WriteString("| Reason | Count |\n|---|---|\n")
		for _, k := range record.Kinds() {
			if n := s.Failures[k]; n > 0 {
				sb.WriteString(fmt.Sprintf("| %s | %d |\n", k, n))
			}
		}
	}

	writeTable(&sb, "By record kind", s.ByKind())
	writeTable(&sb, "By author role", s.ByAuthorRole())

	return sb.String()
}

func writeTable(sb *strings.Builder, title string, rows []Row) {
	if len(rows) == 0 {
		return
	}
	sb.WriteString("\n## " + title + "\n\n")
	sb.WriteString("| | Count | Green | Green rate | Median lifetime (days) |\n|---|---|---|---|---|\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.1f%% | %.2f |\n",
			r.Label, r.Count, r.Green, r.GreenRate*100, r.MedianLifeDays))
	}
}
