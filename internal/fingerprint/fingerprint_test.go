package fingerprint

import (
	"encoding/hex"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "RANK(Close)", "rank(close)"},
		{"strips spaces", "rank( ts_delta(close, 21) )", "rank(ts_delta(close,21))"},
		{"strips tabs and newlines", "rank(\n\tclose\n)", "rank(close)"},
		{"already normal", "rank(close)", "rank(close)"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestSum_Deterministic(t *testing.T) {
	expr := "rank(ts_delta(close, 21))"
	assert.Equal(t, Sum(expr), Sum(expr))
}

func TestSum_WhitespaceAndCaseInsensitive(t *testing.T) {
	base := Sum("rank(ts_delta(close, 21))")

	// Noise-only variants must collide.
	assert.Equal(t, base, Sum("RANK(TS_DELTA(CLOSE, 21))"))
	assert.Equal(t, base, Sum("rank( ts_delta( close , 21 ) )"))
	assert.Equal(t, base, Sum("rank(\n  ts_delta(close,21)\n)"))
}

func TestSum_DistinctExpressionsDiffer(t *testing.T) {
	// Commutativity is intentionally NOT folded.
	assert.NotEqual(t, Sum("a+b"), Sum("b+a"))
	assert.NotEqual(t, Sum("rank(close)"), Sum("rank(open)"))
}

func TestSum_Is64HexChars(t *testing.T) {
	fp := Sum("rank(close)")
	require.Len(t, fp, 64)
	for _, c := range fp {
		assert.Contains(t, "0123456789abcdef", string(c))
	}
}

func TestShortID_StableAndCompact(t *testing.T) {
	fp := Sum("rank(ts_delta(close, 21))")

	id := ShortID(fp)
	require.NotEmpty(t, id)
	assert.Equal(t, id, ShortID(fp))
	assert.Less(t, len(id), len(fp))
}

func TestShortID_DistinctFingerprints(t *testing.T) {
	assert.NotEqual(t, ShortID(Sum("a")), ShortID(Sum("b")))
}

func TestShortID_IsFirstEightHashBytes(t *testing.T) {
	fp := Sum("rank(ts_delta(close, 21))")

	raw, err := hex.DecodeString(fp)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(raw[:8]), ShortID(fp))
}

func TestShortID_HashesNonFingerprintInput(t *testing.T) {
	// Raw expression text must yield the same ID as its fingerprint,
	// never a base58 encoding of the text itself.
	expr := "rank(ts_delta(close, 21))"
	assert.Equal(t, ShortID(Sum(expr)), ShortID(expr))
}
