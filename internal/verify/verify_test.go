package verify

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSizeVerifier(t *testing.T) {
	v := NewSizeVerifier(5)
	v.Update([]byte("hel"))
	v.Update([]byte("lo"))
	require.NoError(t, v.Verify())

	v2 := NewSizeVerifier(6)
	v2.Update([]byte("hello"))
	require.Error(t, v2.Verify())
}

func TestDigestVerifier(t *testing.T) {
	data := []byte("the quick brown fox")
	sum := sha256.Sum256(data)
	expected := hex.EncodeToString(sum[:])

	v, err := NewSHA256DigestVerifier(expected)
	require.NoError(t, err)
	v.Update(data)
	require.NoError(t, v.Verify())

	v2, err := NewSHA256DigestVerifier(expected)
	require.NoError(t, err)
	v2.Update([]byte("wrong data"))
	require.Error(t, v2.Verify())

	_, err = NewSHA256DigestVerifier("not-hex")
	require.Error(t, err)
}

// Testable property 8: verifier composition.
func TestTupleComposition(t *testing.T) {
	data := []byte("payload")
	sum := sha256.Sum256(data)
	expected := hex.EncodeToString(sum[:])

	dv, err := NewSHA256DigestVerifier(expected)
	require.NoError(t, err)
	tuple := Tuple{A: NewSizeVerifier(int64(len(data))), B: dv}
	tuple.Update(data)
	require.NoError(t, tuple.Verify())

	dv2, err := NewSHA256DigestVerifier(expected)
	require.NoError(t, err)
	badTuple := Tuple{A: NewSizeVerifier(999), B: dv2}
	badTuple.Update(data)
	require.Error(t, badTuple.Verify())
}

func TestNoopVerifier(t *testing.T) {
	var v NoopVerifier
	v.Update([]byte("anything"))
	require.NoError(t, v.UpdateReader(strings.NewReader("anything")))
	require.NoError(t, v.Verify())
}

func TestUpdateReaderMatchesUpdate(t *testing.T) {
	data := []byte("streamed via reader instead of chunks")
	sum := sha256.Sum256(data)
	expected := hex.EncodeToString(sum[:])

	v, err := NewSHA256DigestVerifier(expected)
	require.NoError(t, err)
	require.NoError(t, v.UpdateReader(bytes.NewReader(data)))
	require.NoError(t, v.Verify())
}
