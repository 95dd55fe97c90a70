package hashfn

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNtlmVector(t *testing.T) {
	expected, err := hex.DecodeString("8846F7EAEE8FB117AD06BDD830B7586C")
	require.NoError(t, err)

	assert.Equal(t, expected, Ntlm.Sum([]byte("password")))
}

func TestMd4Vector(t *testing.T) {
	expected, err := hex.DecodeString("D9130A8164549FE818874806E1C7014B")
	require.NoError(t, err)

	assert.Equal(t, expected, Md4.Sum([]byte("message digest")))
}

func TestParseRoundTrip(t *testing.T) {
	for f := Ntlm; f <= Sha3_512; f++ {
		parsed, err := Parse(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
}

func TestDigestSizeMatchesSum(t *testing.T) {
	for f := Ntlm; f <= Sha3_512; f++ {
		digest := f.Sum([]byte("abc"))
		assert.Len(t, digest, f.DigestSize())
	}
}
