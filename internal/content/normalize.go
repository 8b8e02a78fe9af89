package content

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxLength is the longest publishable text, in characters.
	MaxLength = 280

	// Ellipsis is appended to texts truncated to MaxLength.
	Ellipsis = "..."

	// mediaMarker starts an inline media link. Everything from it onwards is dropped.
	mediaMarker = "pic.twitter.com"
)

// Normalize converts one raw corpus cell into its publish form.
// The second return value is false when the record must be skipped: empty
// input, text that still carries an http(s) link after the media trailer is
// removed, or text that trims down to nothing.
//
// Characters are never recomposed or otherwise rewritten, so kept text is
// byte-identical to the source and fingerprints match older ledgers.
//
// The double-space rule is a single left-to-right pass: "  " becomes "\n\n"
// and scanning resumes after the replacement, so three spaces yield "\n\n "
// (which line trimming later reduces) and four yield "\n\n\n\n".
func Normalize(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	text := strings.ReplaceAll(raw, "\u00a0", " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if i := indexFold(text, mediaMarker); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}

	if indexFold(text, "http://") >= 0 || indexFold(text, "https://") >= 0 {
		return "", false
	}

	text = strings.ReplaceAll(text, "  ", "\n\n")

	lines := splitLines(text)
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return "", false
	}

	if utf8.RuneCountInString(text) > MaxLength {
		runes := []rune(text)
		text = string(runes[:MaxLength-len(Ellipsis)]) + Ellipsis
	}

	return text, true
}

// splitLines splits on every line boundary a text may carry: \n, \r\n, \r,
// vertical tab, form feed, the ASCII separators, NEL and the Unicode line and
// paragraph separators.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch r {
		case '\r':
			lines = append(lines, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				size = 2
			}
			start = i + size
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			lines = append(lines, s[start:i])
			start = i + size
		}
		i += size
	}
	return append(lines, s[start:])
}

// indexFold returns the byte index of the first ASCII case-insensitive match
// of substr in s, or -1. substr must be ASCII.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if asciiEqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

func asciiEqualFold(a, b string) bool {
	for i := 0; i < len(a); i++ {
		if lower(a[i]) != lower(b[i]) {
			return false
		}
	}
	return true
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
