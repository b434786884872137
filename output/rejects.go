package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Reject describes one input item that did not become a record.
type Reject struct {
	Source string          `json:"source"`
	Line   int             `json:"line"`
	Kind   string          `json:"kind"`
	Error  string          `json:"error"`
	Raw    json.RawMessage `json:"raw,omitempty"`
	Text   string          `json:"text,omitempty"`
}

// RejectWriter appends rejects as JSON lines. Safe for concurrent use.
type RejectWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewRejectWriter(w io.Writer) *RejectWriter {
	return &RejectWriter{enc: json.NewEncoder(w)}
}

// Write stores raw verbatim when it is valid JSON, otherwise as a string.
func (r *RejectWriter) Write(source string, line int, kind string, cause error, raw []byte) error {
	rej := Reject{
		Source: source,
		Line:   line,
		Kind:   kind,
		Error:  cause.Error(),
	}
	if json.Valid(raw) {
		rej.Raw = json.RawMessage(raw)
	} else {
		rej.Text = string(raw)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(rej); err != nil {
		return fmt.Errorf("failed to write reject: %w", err)
	}
	return nil
}
