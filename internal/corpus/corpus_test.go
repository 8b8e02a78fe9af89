package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Text
	}
	return out
}

func TestRead(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "header selects column",
			input: "id,Text\n1,first\n2,second\n",
			want:  []string{"first", "second"},
		},
		{
			name:  "header match is trimmed and case-insensitive",
			input: "id, TEXT \n1,first\n",
			want:  []string{"first"},
		},
		{
			name:  "no header uses column zero",
			input: "alpha,x\nbeta,y\n",
			want:  []string{"alpha", "beta"},
		},
		{
			name:  "short and empty rows skipped",
			input: "id,text\n1\n2,\n3,kept\n",
			want:  []string{"kept"},
		},
		{
			name:  "cells trimmed",
			input: "text\n  padded  \n",
			want:  []string{"padded"},
		},
		{
			name:  "quoted multiline cell",
			input: "text\n\"line one\nline two\"\n",
			want:  []string{"line one\nline two"},
		},
		{
			name:  "byte order mark ignored",
			input: "\ufefftext\nhello\n",
			want:  []string{"hello"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Read(strings.NewReader(tt.input), DefaultTextField)
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(records))
		})
	}
}

func TestRead_RowNumbers(t *testing.T) {
	records, err := Read(strings.NewReader("text\na\n\"b\nb\"\nc\n"), DefaultTextField)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 2, records[0].Row)
	assert.Equal(t, 3, records[1].Row)
	assert.Equal(t, 5, records[2].Row)
}

func TestRead_LeadingBlankLines(t *testing.T) {
	records, err := Read(strings.NewReader("\n\ntext\nhello\n\nworld\n"), DefaultTextField)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, texts(records), "header found after blank lines")
	require.Len(t, records, 2)
	assert.Equal(t, 4, records[0].Row)
	assert.Equal(t, 6, records[1].Row)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), DefaultTextField)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorpusNotFound))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	require.NoError(t, os.WriteFile(path, []byte("text\nHello  world\n"), 0644))

	records, err := Load(path, DefaultTextField)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello  world"}, texts(records))
}
