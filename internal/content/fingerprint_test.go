package content

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	text, ok := Normalize("Hello  world")
	assert.True(t, ok)
	assert.Equal(t, Fingerprint(text), Fingerprint(text))
}

func TestFingerprint_IsSHA256OfHashForm(t *testing.T) {
	sum := sha256.Sum256([]byte("Hello\n\nworld"))
	assert.Equal(t, hex.EncodeToString(sum[:]), Fingerprint("Hello\n\nworld"))
}

func TestFingerprint_IgnoresTrailingWhitespace(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"trailing spaces per line", "one  \ntwo\t", "one\ntwo"},
		{"surrounding blank lines", "\n\none\ntwo\n\n", "one\ntwo"},
		{"crlf", "one\r\ntwo", "one\ntwo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Fingerprint(tt.b), Fingerprint(tt.a))
		})
	}
}

func TestFingerprint_DistinguishesContent(t *testing.T) {
	assert.NotEqual(t, Fingerprint("Hello\n\nworld"), Fingerprint("Hello\nworld"))
	assert.NotEqual(t, Fingerprint("a b"), Fingerprint("ab"))
}

func TestFingerprint_Format(t *testing.T) {
	fp := Fingerprint("anything")
	assert.Len(t, fp, FingerprintLength)
	assert.True(t, ValidFingerprint(fp))
}

func TestValidFingerprint(t *testing.T) {
	valid := Fingerprint("x")

	assert.True(t, ValidFingerprint(valid))
	assert.False(t, ValidFingerprint(""))
	assert.False(t, ValidFingerprint(valid[:63]))
	assert.False(t, ValidFingerprint("G"+valid[1:]))
	assert.False(t, ValidFingerprint("A"+valid[1:]))
}
