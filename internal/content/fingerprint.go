package content

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// FingerprintLength is the length of a hex-encoded SHA-256 fingerprint.
const FingerprintLength = sha256.Size * 2

// Fingerprint computes the dedup identity of a normalized text.
// Format: lowercase hex SHA256(hashForm(text)).
//
// Two texts whose hash forms are equal are the same content and must never
// both be published. No domain prefix is mixed in so existing ledgers written
// by earlier releases keep matching.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(hashForm(text)))
	return hex.EncodeToString(sum[:])
}

// hashForm trims the text, right-trims every line and trims the joined result.
func hashForm(text string) string {
	lines := splitLines(strings.TrimSpace(text))
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ValidFingerprint reports whether s is a well-formed fingerprint.
func ValidFingerprint(s string) bool {
	if len(s) != FingerprintLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
