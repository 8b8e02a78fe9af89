// Package corpus loads the static table of candidate texts.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultTextField is the header name that marks the text column.
const DefaultTextField = "text"

// ErrCorpusNotFound is returned when the corpus file does not exist.
var ErrCorpusNotFound = errors.New("corpus not found")

// Record is one usable row of the corpus.
type Record struct {
	// Row is the 1-based line on which the row starts, for diagnostics.
	Row int

	// Text is the trimmed cell content. It is not yet normalized.
	Text string
}

// Load reads the CSV corpus at path. See Read for the column rules.
func Load(path, field string) ([]Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCorpusNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	records, err := Read(f, field)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return records, nil
}

// Read parses CSV rows from r.
//
// If any cell of the first row equals field (trimmed, case-insensitive) the
// first row is a header and that column holds the text. Otherwise column 0 of
// every row is used. Rows too short for the column, or with an empty cell
// there, are skipped. A leading UTF-8 byte order mark is ignored.
//
// encoding/csv drops blank lines before they become rows, so "first row"
// means the first non-blank line: a file that opens with blank lines still
// has its header detected. Record.Row keeps the physical line number.
func Read(r io.Reader, field string) ([]Record, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	type row struct {
		line  int
		cells []string
	}
	var rows []row
	for {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, row{line: line, cells: cells})
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col, start := 0, 0
	if i := headerColumn(rows[0].cells, field); i >= 0 {
		col, start = i, 1
	}

	var records []Record
	for _, r := range rows[start:] {
		if len(r.cells) <= col || r.cells[col] == "" {
			continue
		}
		records = append(records, Record{Row: r.line, Text: strings.TrimSpace(r.cells[col])})
	}
	return records, nil
}

func headerColumn(cells []string, field string) int {
	want := strings.ToLower(strings.TrimSpace(field))
	for i, cell := range cells {
		if strings.ToLower(strings.TrimSpace(cell)) == want {
			return i
		}
	}
	return -1
}
