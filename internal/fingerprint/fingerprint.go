// Package fingerprint derives deterministic identifiers for alpha
// expressions so that already-tested expressions are never
// re-submitted.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/mr-tron/base58"
)

// Normalize canonicalizes an expression for comparison: all
// whitespace is removed and the text is lower-cased. No structural
// canonicalization is attempted — `a+b` and `b+a` stay distinct.
func Normalize(expression string) string {
	var sb strings.Builder
	sb.Grow(len(expression))
	for _, r := range expression {
		if unicode.IsSpace(r) {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// Sum computes the fingerprint of an expression: the SHA-256 of its
// normalized form, hex-encoded (64 characters).
func Sum(expression string) string {
	hash := sha256.Sum256([]byte(Normalize(expression)))
	return hex.EncodeToString(hash[:])
}

// ShortID derives a compact display identifier from a hex
// fingerprint: the first 8 hash bytes, base58-encoded. Used in logs
// and reports where the full 64-character fingerprint is unwieldy.
// Input that is not a hex fingerprint is fingerprinted first, so the
// ID always comes from the leading hash bytes.
func ShortID(fp string) string {
	raw, err := hex.DecodeString(fp)
	if err != nil || len(raw) < 8 {
		raw, _ = hex.DecodeString(Sum(fp))
	}
	return base58.Encode(raw[:8])
}
