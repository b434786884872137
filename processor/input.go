package processor

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// item is one raw input object and where it came from. line is 1-based.
type item struct {
	source string
	line   int
	raw    []byte
}

var errNotUTF8 = errors.New("file is not valid UTF-8")

// readItems loads one input file. A file whose whole content is a single
// JSON object is one item, however it is indented; anything else is read
// as JSON lines. Files ending in .gz are decompressed first.
func readItems(path string) ([]item, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, errNotUTF8
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' && gjson.ValidBytes(trimmed) {
		return []item{{source: path, line: 1, raw: trimmed}}, nil
	}

	var items []item
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		items = append(items, item{source: path, line: i + 1, raw: line})
	}
	return items, nil
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
