package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"empty", "", "", false},
		{"whitespace only", " \t\n ", "", false},
		{"plain", "  Hello world  ", "Hello world", true},
		{"double space becomes paragraph", "Hello  world", "Hello\n\nworld", true},
		{"three spaces", "a   b", "a\n\nb", true},
		{"four spaces", "a    b", "a\n\n\n\nb", true},
		{"media trailer stripped", "Read this  pic.twitter.com/abc", "Read this", true},
		{"media trailer case-insensitive", "Look PIC.Twitter.COM/x1", "Look", true},
		{"media only", "pic.twitter.com/abc", "", false},
		{"inline link rejected", "see https://example.com for details", "", false},
		{"http link rejected", "old school HTTP://example.com", "", false},
		{"link before media rejected", "x http://a.b pic.twitter.com/c", "", false},
		{"link after media ignored", "caption pic.twitter.com/c https://t.co/x", "caption", true},
		{"nbsp treated as space", "Hello\u00a0\u00a0world", "Hello\n\nworld", true},
		{"lines trimmed", "  one  \n\t two\t\r\n three ", "one\n\n\ntwo\nthree", true},
		{"combining sequence kept", "cafe\u0301", "cafe\u0301", true},
		{"precomposed kept", "caf\u00e9", "caf\u00e9", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Truncates(t *testing.T) {
	raw := strings.Repeat("abcdefghij", 30)

	got, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, MaxLength, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, Ellipsis))
	assert.Equal(t, raw[:277], got[:277])
}

func TestNormalize_TruncatesByCharacter(t *testing.T) {
	raw := strings.Repeat("é", 281)

	got, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, MaxLength, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("é", 277)+Ellipsis, got)
}

func TestNormalize_ExactLimitUntouched(t *testing.T) {
	raw := strings.Repeat("x", MaxLength)

	got, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, raw, got)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Hello  world", "a   b", "  one  \n two ", strings.Repeat("z", 400)}
	for _, in := range inputs {
		first, ok := Normalize(in)
		require.True(t, ok)
		second, ok := Normalize(first)
		require.True(t, ok)
		assert.Equal(t, Fingerprint(first), Fingerprint(second), "input %q", in)
	}
}

func TestNormalize_CombiningSequenceFingerprint(t *testing.T) {
	raw := "Cafe\u0301 society"

	got, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, []byte(raw), []byte(got))

	sum := sha256.Sum256([]byte(raw))
	assert.Equal(t, hex.EncodeToString(sum[:]), Fingerprint(got))
	assert.NotEqual(t, Fingerprint("Caf\u00e9 society"), Fingerprint(got))
}

// TestNormalize_Golden pins the publish form and fingerprint of a fixture
// corpus. Regenerate with: go test ./internal/content -update
func TestNormalize_Golden(t *testing.T) {
	fixtures := []string{
		"Hello  world",
		"Read this  pic.twitter.com/abc",
		"see https://example.com for details",
		"The machine does not isolate man from the great problems of nature.",
		"First line   \n   second line",
		"",
		"cafe\u0301",
	}

	var b strings.Builder
	for i, raw := range fixtures {
		fmt.Fprintf(&b, "## %d %q\n", i, raw)
		text, ok := Normalize(raw)
		if !ok {
			b.WriteString("<rejected>\n\n")
			continue
		}
		fmt.Fprintf(&b, "%s\nfingerprint: %s\n\n", text, Fingerprint(text))
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "normalize", []byte(b.String()))
}
