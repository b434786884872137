package record

import (
	"fmt"
	"time"
)

// createTimeLayout matches the rendering the first analyzer release wrote
// into result.csv, so old and new outputs can be concatenated.
const createTimeLayout = "2006-01-02 15:04:05.999999999 -07:00"

// ParseTimestamp parses an RFC3339 timestamp. The zone offset is kept.
func ParseTimestamp(text string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid RFC3339 timestamp %q: %w", text, err)
	}
	return t, nil
}

// ElapsedSeconds returns b-a in whole seconds, truncated toward zero.
// The result is negative when b precedes a.
func ElapsedSeconds(a, b time.Time) int64 {
	return int64(b.Sub(a) / time.Second)
}

// FormatCreateTime renders t for the create_time column.
func FormatCreateTime(t time.Time) string {
	return t.Format(createTimeLayout)
}
