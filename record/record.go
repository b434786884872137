// Package record turns one raw issue or pull request activity log into a
// flat, analysis-ready Record.
package record

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind distinguishes issues from pull requests.
type Kind int

const (
	KindIssue Kind = iota
	KindPR
)

func (k Kind) String() string {
	if k == KindPR {
		return "PR"
	}
	return "Issue"
}

// Record is the flat result for one accepted item.
type Record struct {
	Kind            Kind
	URL             string
	AuthorRole      Role
	CloserRole      Role
	AuthorIsCloser  bool
	Participants    ParticipantCounts
	CreateTime      string
	LifeTimeSec     int64
	FirstEventSec   int64
	FirstCommentSec int64
	CommitCount     uint64
	CommentCount    uint64
	Outcome         Outcome
}

var (
	errNotArray = errors.New("field is not an array")
	errNotCount = errors.New("field is not a non-negative integer")
)

// Parse builds a Record from one raw JSON object. Preconditions are checked
// in a fixed order and the first failing one decides the ParseError kind.
func Parse(raw []byte) (*Record, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fail(MalformedInput, "", errors.New("invalid JSON"))
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fail(MalformedInput, "", errors.New("top-level value is not an object"))
	}

	createdAt, err := stringField(doc, "created_at")
	if err != nil {
		return nil, fail(MissingOrInvalidCreateTime, "created_at", err)
	}
	created, err := ParseTimestamp(createdAt)
	if err != nil {
		return nil, fail(MissingOrInvalidCreateTime, "created_at", err)
	}

	closedAt, err := stringField(doc, "closed_at")
	if err != nil {
		return nil, fail(MissingOrInvalidCloseTime, "closed_at", err)
	}
	closed, err := ParseTimestamp(closedAt)
	if err != nil {
		return nil, fail(MissingOrInvalidCloseTime, "closed_at", err)
	}

	timeline := doc.Get("time_line")
	if !timeline.IsArray() {
		if !timeline.Exists() {
			return nil, fail(MissingTimeline, "time_line", errMissing)
		}
		return nil, fail(MissingTimeline, "time_line", errNotArray)
	}

	author := doc.Get("user")
	authorID, err := actorID(author)
	if err != nil {
		return nil, fail(MissingUserID, "user.id", err)
	}
	authorRole := ClassifyRole(author.Get("type").String(), doc.Get("author_association").String())

	nodeID, err := stringField(doc, "node_id")
	if err != nil {
		return nil, fail(MissingField, "node_id", err)
	}
	url, err := stringField(doc, "html_url")
	if err != nil {
		return nil, fail(MissingField, "html_url", err)
	}
	comments, err := countField(doc, "comments")
	if err != nil {
		return nil, fail(MissingField, "comments", err)
	}

	st, err := ReduceTimeline(created, authorID, authorRole, timeline.Array(), doc.Get("state_reason").String())
	if err != nil {
		return nil, err
	}
	if !st.HasCloser {
		return nil, fail(NoCloserResolved, "", nil)
	}

	return &Record{
		Kind:            kindOf(nodeID),
		URL:             url,
		AuthorRole:      authorRole,
		CloserRole:      st.Participants[st.CloserID],
		AuthorIsCloser:  authorID == st.CloserID,
		Participants:    st.Participants.Counts(),
		CreateTime:      FormatCreateTime(created),
		LifeTimeSec:     ElapsedSeconds(created, closed),
		FirstEventSec:   st.FirstEventSec,
		FirstCommentSec: st.FirstCommentSec,
		CommitCount:     st.CommitCount,
		CommentCount:    comments,
		Outcome:         st.Outcome,
	}, nil
}

// kindOf relies on GitHub node ids: pull requests start with "PR_", issues
// with "I_". Legacy base64 node ids always come out as KindIssue.
func kindOf(nodeID string) Kind {
	if strings.HasPrefix(nodeID, "P") {
		return KindPR
	}
	return KindIssue
}

func stringField(doc gjson.Result, path string) (string, error) {
	v := doc.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return "", errMissing
	}
	if v.Type != gjson.String {
		return "", errNotString
	}
	return v.Str, nil
}

func countField(doc gjson.Result, path string) (uint64, error) {
	v := doc.Get(path)
	if !v.Exists() {
		return 0, errMissing
	}
	if v.Type != gjson.Number {
		return 0, errNotCount
	}
	n, err := strconv.ParseUint(v.Raw, 10, 64)
	if err != nil {
		return 0, errNotCount
	}
	return n, nil
}
