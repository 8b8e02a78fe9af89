package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// WriteCorpus writes a CSV corpus with a "text" header to dir/corpus.csv and
// returns its path.
func WriteCorpus(t testing.TB, dir string, texts ...string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.csv")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create corpus: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{{"id", "text"}}
	for i, text := range texts {
		rows = append(rows, []string{string(rune('a' + i%26)), text})
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path
}

// ReadLines returns the lines of path, or nil if it does not exist.
func ReadLines(t testing.TB, path string) []string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var lines []string
	start := 0
	for i, b := range raw {
		if b == '\n' {
			lines = append(lines, string(raw[start:i]))
			start = i + 1
		}
	}
	if start < len(raw) {
		lines = append(lines, string(raw[start:]))
	}
	return lines
}
