package pedersen

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takakv/msc-wallet/group"
)

func TestCommit(t *testing.T) {
	ck, err := NewCommitmentKey(group.BLS12381G1(), "test-h")
	require.NoError(t, err)

	v := big.NewInt(42)
	C, r, err := ck.CommitRandom(v, rand.Reader)
	require.NoError(t, err)

	assert.True(t, ck.Open(C, v, r))
	assert.False(t, ck.Open(C, big.NewInt(43), r))
	assert.False(t, ck.Open(C, v, new(big.Int).Add(r, big.NewInt(1))))

	// Commitments are additively homomorphic.
	C2 := ck.Commit(big.NewInt(8), big.NewInt(2))
	sum := group.BLS12381G1().Element().Add(C, C2)
	assert.True(t, ck.Open(sum, big.NewInt(50), new(big.Int).Add(r, big.NewInt(2))))
}

func TestCommitmentKeyJSON(t *testing.T) {
	ck, err := NewCommitmentKey(group.BLS12381G1(), "test-h")
	require.NoError(t, err)

	js, err := json.Marshal(ck)
	require.NoError(t, err)

	var got CommitmentKey
	require.NoError(t, json.Unmarshal(js, &got))
	assert.True(t, ck.G.IsEqual(got.G))
	assert.True(t, ck.H.IsEqual(got.H))
}
