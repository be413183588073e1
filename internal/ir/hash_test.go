package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestDigestDeterminism(t *testing.T) {
	args := []string{"ieee_double=2", "ieee_double=10"}
	d1, err := RequestDigest("pow", "ieee_double", args, []string{"trapping_math"})
	require.NoError(t, err)
	d2, err := RequestDigest("pow", "ieee_double", args, []string{"trapping_math"})
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)
}

func TestRequestDigestChangesWithInput(t *testing.T) {
	base, err := RequestDigest("pow", "ieee_double", []string{"ieee_double=2", "ieee_double=10"}, nil)
	require.NoError(t, err)

	variants := []struct {
		fn, typ string
		args    []string
		flags   []string
	}{
		{"powi", "ieee_double", []string{"ieee_double=2", "ieee_double=10"}, nil},
		{"pow", "ieee_single", []string{"ieee_double=2", "ieee_double=10"}, nil},
		{"pow", "ieee_double", []string{"ieee_double=10", "ieee_double=2"}, nil},
		{"pow", "ieee_double", []string{"ieee_double=2", "ieee_double=10"}, []string{"errno_math"}},
	}
	for _, v := range variants {
		d, err := RequestDigest(v.fn, v.typ, v.args, v.flags)
		require.NoError(t, err)
		assert.NotEqual(t, base, d)
	}
}

func TestFoldRecordID(t *testing.T) {
	digest, err := RequestDigest("popcount", "i32", []string{"u32=7"}, nil)
	require.NoError(t, err)

	id1, err := FoldRecordID("run-1", digest, 1)
	require.NoError(t, err)
	id2, err := FoldRecordID("run-1", digest, 2)
	require.NoError(t, err)
	id3, err := FoldRecordID("run-2", digest, 1)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.NotEqual(t, digest, id1)
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, hashWithDomain(DomainRequest, data), hashWithDomain(DomainFoldRecord, data))
	// The separator keeps "ab"+"c" distinct from "a"+"bc".
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}
