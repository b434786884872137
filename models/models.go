package models

import (
	"encoding/json"
	"time"
)

// Issue is one line of analyzer input: the issue (or pull request) as the
// REST API reports it, plus its full timeline under "time_line".
type Issue struct {
	Number            int               `json:"number"`
	Title             string            `json:"title"`
	State             string            `json:"state"`
	StateReason       string            `json:"state_reason,omitempty"`
	HTMLURL           string            `json:"html_url"`
	NodeID            string            `json:"node_id"`
	User              User              `json:"user"`
	AuthorAssociation string            `json:"author_association"`
	Comments          int               `json:"comments"`
	CreatedAt         time.Time         `json:"created_at"`
	ClosedAt          *time.Time        `json:"closed_at,omitempty"`
	PullRequest       bool              `json:"-"`
	TimeLine          []json.RawMessage `json:"time_line"`
}

type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"`
}

type Repository struct {
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	HTMLURL  string `json:"html_url"`
	Language string `json:"language"`
	Stars    int    `json:"stargazers_count"`
}
