package bulletproofs

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/sigma"
)

/*
Test Inner Product argument where <a,b>=c.
*/
func TestInnerProduct(t *testing.T) {
	GP := group.Ristretto255()
	mod := GP.N()

	a := []*big.Int{big.NewInt(2), new(big.Int).Sub(mod, big.NewInt(1)), big.NewInt(10), big.NewInt(6)}
	b := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(10), big.NewInt(7)}
	c := big.NewInt(142)
	require.Zero(t, c.Cmp(innerProduct(a, b, mod)))

	gens, err := NewGenerators(GP, 4)
	require.NoError(t, err)

	P := vectorExp(gens.Gg, a)
	P.Add(P, vectorExp(gens.Hh, b))
	P.Add(P, GP.Element().Scale(gens.U, c))

	proof, err := proveInnerProduct(sigma.NewRandomOracle("ip"), gens.Gg, gens.Hh, gens.U, a, b)
	require.NoError(t, err)
	assert.Len(t, proof.Ls, 2)
	assert.True(t, proof.verify(sigma.NewRandomOracle("ip"), gens.Gg, gens.Hh, gens.U, P))

	wrong := GP.Element().Add(P, gens.U)
	assert.False(t, proof.verify(sigma.NewRandomOracle("ip"), gens.Gg, gens.Hh, gens.U, wrong))

	_, err = proveInnerProduct(sigma.NewRandomOracle("ip"), gens.Gg[:3], gens.Hh[:3], gens.U, a[:3], b[:3])
	assert.Error(t, err)
}

func TestVectorExp(t *testing.T) {
	GP := group.Ristretto255()
	gens, err := NewGenerators(GP, 2)
	require.NoError(t, err)

	got := vectorExp(gens.Gg, []*big.Int{big.NewInt(4), big.NewInt(9)})
	want := GP.Element().Scale(gens.Gg[0], big.NewInt(4))
	want.Add(want, GP.Element().Scale(gens.Gg[1], big.NewInt(9)))
	assert.True(t, want.IsEqual(got))

	assert.Panics(t, func() { vectorExp(gens.Gg, []*big.Int{big.NewInt(1)}) })
}
