package bulletproofs

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
	"github.com/takakv/msc-wallet/sigma"
	"github.com/takakv/msc-wallet/util"
)

func setup(t *testing.T, GP group.Group) (*Generators, group.Element, group.Element) {
	gens, err := NewGenerators(GP, 32)
	require.NoError(t, err)
	Bt, err := GP.Element().MapToGroup("blinding base")
	require.NoError(t, err)
	return gens, GP.Generator(), Bt
}

func TestRangeProof(t *testing.T) {
	for _, GP := range []group.Group{group.BLS12381G1(), group.Ristretto255()} {
		t.Run(GP.Name(), func(t *testing.T) {
			gens, B, Bt := setup(t, GP)

			tests := []struct {
				name string
				bits int
				v    uint64
			}{
				{"zero", 32, 0},
				{"small", 32, 3},
				{"max", 32, 1<<32 - 1},
				{"narrow", 8, 200},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					gamma, err := group.RandomScalar(GP, rand.Reader)
					require.NoError(t, err)
					V := util.PedersenCommit(util.Uint64(tt.v), gamma, B, Bt)

					proof, err := Prove(sigma.NewRandomOracle("bp"), gens, tt.bits, tt.v, gamma, B, Bt, rand.Reader)
					require.NoError(t, err)
					assert.True(t, proof.Verify(sigma.NewRandomOracle("bp"), gens, tt.bits, V, B, Bt))

					other := GP.Element().Add(V, B)
					assert.False(t, proof.Verify(sigma.NewRandomOracle("bp"), gens, tt.bits, other, B, Bt))
					assert.False(t, proof.Verify(sigma.NewRandomOracle("other"), gens, tt.bits, V, B, Bt))
				})
			}
		})
	}
}

func TestRangeProofOutOfRange(t *testing.T) {
	GP := group.BLS12381G1()
	gens, B, Bt := setup(t, GP)

	_, err := Prove(sigma.NewRandomOracle("bp"), gens, 32, 1<<32, big.NewInt(1), B, Bt, rand.Reader)
	assert.Error(t, err)

	_, err = Prove(sigma.NewRandomOracle("bp"), gens, 12, 1, big.NewInt(1), B, Bt, rand.Reader)
	assert.Error(t, err, "bits must be a power of two")

	_, err = Prove(sigma.NewRandomOracle("bp"), gens, 64, 1, big.NewInt(1), B, Bt, rand.Reader)
	assert.Error(t, err, "not enough generators")
}

func TestRangeProofEncoding(t *testing.T) {
	GP := group.BLS12381G1()
	gens, B, Bt := setup(t, GP)
	gamma := big.NewInt(5)
	V := util.PedersenCommit(big.NewInt(42), gamma, B, Bt)

	proof, err := Prove(sigma.NewRandomOracle("bp"), gens, 32, 42, gamma, B, Bt, rand.Reader)
	require.NoError(t, err)

	b := serial.Encode(proof)
	// 4 elements, 3 scalars, then 5 rounds of L and R plus two scalars.
	assert.Len(t, b, 4*48+3*32+1+10*48+2*32)

	var got RangeProof
	require.NoError(t, serial.Decode(b, &got))
	assert.True(t, got.Verify(sigma.NewRandomOracle("bp"), gens, 32, V, B, Bt))

	var g Generators
	require.NoError(t, serial.Decode(serial.Encode(gens), &g))
	assert.Len(t, g.Gg, 32)
	assert.True(t, g.U.IsEqual(gens.U))
}
