package ledger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// File is a ledger backed by a newline-delimited text file of lowercase hex
// fingerprints.
type File struct {
	path string
}

// NewFile returns a file ledger at path. The file is created on first Record.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file location.
func (f *File) Path() string {
	return f.path
}

// Load reads every non-blank line. A missing file is an empty ledger.
func (f *File) Load(ctx context.Context) (Set, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSet(), nil
	}
	if err != nil {
		return Set{}, fmt.Errorf("open ledger: %w", err)
	}
	defer file.Close()

	set := NewSet()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			set.add(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Set{}, fmt.Errorf("read ledger %s: %w", f.path, err)
	}
	return set, nil
}

// Record appends the fingerprint as one line and fsyncs before returning.
func (f *File) Record(ctx context.Context, e Entry) error {
	if e.Fingerprint == "" {
		return fmt.Errorf("record: empty fingerprint")
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}

	if _, err := file.WriteString(e.Fingerprint + "\n"); err != nil {
		file.Close()
		return fmt.Errorf("append ledger: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only held open inside Record.
func (f *File) Close() error {
	return nil
}
