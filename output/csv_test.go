package output

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/perbu/timeline-analyzer/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *record.Record {
	return &record.Record{
		Kind:            record.KindPR,
		URL:             "https://github.com/acme/widgets/pull/42",
		AuthorRole:      record.RoleContributor,
		CloserRole:      record.RoleMember,
		AuthorIsCloser:  false,
		Participants:    record.ParticipantCounts{Total: 4, Bot: 1, Member: 1, Contributor: 1, User: 1},
		CreateTime:      "2024-01-01 00:00:00 +00:00",
		LifeTimeSec:     86400,
		FirstEventSec:   43200,
		FirstCommentSec: -1,
		CommitCount:     2,
		CommentCount:    5,
		Outcome:         record.Green,
	}
}

func TestRow(t *testing.T) {
	row := Row(sampleRecord())
	require.Len(t, row, len(Header))
	assert.Equal(t, []string{
		"PR", "https://github.com/acme/widgets/pull/42", "Contributor", "Member", "false",
		"4", "1", "1", "1", "1",
		"2024-01-01 00:00:00 +00:00", "86400", "43200", "-1", "2", "5", "Green",
	}, row)
}

func TestCSVWriter_HeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.Write(sampleRecord()))
		}()
	}
	wg.Wait()
	require.NoError(t, w.Flush())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 21)
	assert.Equal(t, Header, rows[0])
	for _, row := range rows[1:] {
		assert.Equal(t, "PR", row[0])
	}
	assert.Equal(t, 20, w.Rows())
}

func TestCSVWriter_EmptyStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.Flush())
	require.NoError(t, w.Flush())

	assert.Equal(t, strings.Join(Header, ",")+"\n", buf.String())
}

func TestRejectWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewRejectWriter(&buf)

	require.NoError(t, w.Write("a.jsonl", 3, "no_closer_resolved", errors.New("no_closer_resolved"), []byte(`{"html_url":"x"}`)))
	require.NoError(t, w.Write("a.jsonl", 4, "malformed_input", errors.New("malformed_input"), []byte(`{"html_url":`)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"source":"a.jsonl","line":3,"kind":"no_closer_resolved","error":"no_closer_resolved","raw":{"html_url":"x"}}`, lines[0])
	assert.JSONEq(t, `{"source":"a.jsonl","line":4,"kind":"malformed_input","error":"malformed_input","text":"{\"html_url\":"}`, lines[1])
}
