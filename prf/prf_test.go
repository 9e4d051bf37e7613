package prf

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takakv/msc-wallet/group"
)

func TestEval(t *testing.T) {
	GP := group.BLS12381G1()
	sk, err := GenerateSecretKey(GP, rand.Reader)
	require.NoError(t, err)

	g := GP.Generator()
	a, err := sk.Eval(g, 0)
	require.NoError(t, err)
	b, err := sk.Eval(g, 0)
	require.NoError(t, err)
	assert.True(t, a.IsEqual(b), "deterministic")

	seen := map[string]bool{}
	for x := 0; x < 16; x++ {
		id, err := sk.Eval(g, uint8(x))
		require.NoError(t, err)
		assert.False(t, seen[id.String()], "distinct ids")
		seen[id.String()] = true

		// (k+x) . prf(x) == g
		e, err := sk.Exponent(GP.N(), uint8(x))
		require.NoError(t, err)
		kx := new(big.Int).Add(sk.K, big.NewInt(int64(x)))
		assert.True(t, GP.Element().Scale(id, kx).IsEqual(g))
		assert.True(t, GP.Element().BaseScale(e).IsEqual(id))
	}
}

func TestOutOfDomain(t *testing.T) {
	GP := group.BLS12381G1()
	// k = n - 3, so k + 3 = 0 mod n.
	sk := &SecretKey{K: new(big.Int).Sub(GP.N(), big.NewInt(3))}

	_, err := sk.Eval(GP.Generator(), 3)
	assert.Equal(t, ErrOutOfDomain, errors.Cause(err))

	_, err = sk.Eval(GP.Generator(), 4)
	assert.NoError(t, err)
}
