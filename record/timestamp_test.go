package record

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := ParseTimestamp(s)
	require.NoError(t, err)
	return ts
}

func TestParseTimestamp(t *testing.T) {
	valid := []string{
		"2024-01-01T00:00:00Z",
		"2024-01-01T00:00:00.123Z",
		"2024-06-30T23:59:59+02:00",
	}
	for _, s := range valid {
		_, err := ParseTimestamp(s)
		assert.NoError(t, err, s)
	}

	invalid := []string{
		"",
		"2024-01-01",
		"2024-01-01 00:00:00Z",
		"2024-01-01T00:00:00",
		"Mon, 01 Jan 2024 00:00:00 GMT",
	}
	for _, s := range invalid {
		_, err := ParseTimestamp(s)
		assert.Error(t, err, s)
	}
}

func TestElapsedSeconds(t *testing.T) {
	a := mustTime(t, "2024-01-01T00:00:00Z")

	assert.Equal(t, int64(86400), ElapsedSeconds(a, mustTime(t, "2024-01-02T00:00:00Z")))
	assert.Equal(t, int64(-60), ElapsedSeconds(a, mustTime(t, "2023-12-31T23:59:00Z")))
	// Offsets are honoured: 01:00+01:00 is midnight UTC.
	assert.Equal(t, int64(0), ElapsedSeconds(a, mustTime(t, "2024-01-01T01:00:00+01:00")))
	// Truncates toward zero.
	assert.Equal(t, int64(1), ElapsedSeconds(a, mustTime(t, "2024-01-01T00:00:01.9Z")))
	assert.Equal(t, int64(-1), ElapsedSeconds(a, mustTime(t, "2023-12-31T23:59:58.1Z")))
}

func TestFormatCreateTime(t *testing.T) {
	assert.Equal(t, "2024-01-01 00:00:00 +00:00", FormatCreateTime(mustTime(t, "2024-01-01T00:00:00Z")))
	assert.Equal(t, "2024-06-30 23:59:59 +02:00", FormatCreateTime(mustTime(t, "2024-06-30T23:59:59+02:00")))
	assert.Equal(t, "2024-01-01 00:00:00.5 +00:00", FormatCreateTime(mustTime(t, "2024-01-01T00:00:00.500Z")))
}
