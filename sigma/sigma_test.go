package sigma

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
)

// dlogEquality builds the statement A = x.g, B = x.h, C = x.g + y.h.
func dlogEquality(t *testing.T, GP group.Group, x, y *big.Int) *Statement {
	g := GP.Generator()
	h, err := GP.Element().MapToGroup("h")
	require.NoError(t, err)

	st := &Statement{Witnesses: 2}
	st.Add(GP.Element().Scale(g, x), Term{Base: g, Witness: 0})
	st.Add(GP.Element().Scale(h, x), Term{Base: h, Witness: 0})
	C := GP.Element().Scale(g, x)
	C.Add(C, GP.Element().Scale(h, y))
	st.Add(C, Term{Base: g, Witness: 0}, Term{Base: h, Witness: 1})
	return st
}

func TestProveVerify(t *testing.T) {
	for _, GP := range []group.Group{group.BLS12381G1(), group.Ristretto255()} {
		t.Run(GP.Name(), func(t *testing.T) {
			x, y := big.NewInt(1234), big.NewInt(98765)
			st := dlogEquality(t, GP, x, y)

			proof, err := Prove(NewRandomOracle("test"), st, []*big.Int{x, y}, rand.Reader)
			require.NoError(t, err)
			assert.True(t, Verify(NewRandomOracle("test"), st, proof))

			assert.False(t, Verify(NewRandomOracle("other"), st, proof), "domain")

			bad := &Proof{Challenge: proof.Challenge, Responses: []*big.Int{proof.Responses[0], big.NewInt(1)}}
			assert.False(t, Verify(NewRandomOracle("test"), st, bad), "response")

			other := dlogEquality(t, GP, big.NewInt(1235), y)
			assert.False(t, Verify(NewRandomOracle("test"), other, proof), "statement")
		})
	}
}

func TestMixedGroups(t *testing.T) {
	G1, G2 := group.BLS12381G1(), group.BLS12381G2()
	x := big.NewInt(77)

	st := &Statement{Witnesses: 1}
	st.Add(G1.Element().BaseScale(x), Term{Base: G1.Generator(), Witness: 0})
	st.Add(G2.Element().BaseScale(x), Term{Base: G2.Generator(), Witness: 0})

	proof, err := Prove(NewRandomOracle("mixed"), st, []*big.Int{x}, rand.Reader)
	require.NoError(t, err)
	assert.True(t, Verify(NewRandomOracle("mixed"), st, proof))

	mixed := &Statement{Witnesses: 1}
	mixed.Add(G1.Generator(), Term{Base: group.Ristretto255().Generator(), Witness: 0})
	_, err = Prove(NewRandomOracle("mixed"), mixed, []*big.Int{x}, rand.Reader)
	assert.Equal(t, ErrMalformedStatement, errors.Cause(err))
}

func TestInvalidWitness(t *testing.T) {
	GP := group.BLS12381G1()
	st := dlogEquality(t, GP, big.NewInt(5), big.NewInt(6))

	_, err := Prove(NewRandomOracle("test"), st, []*big.Int{big.NewInt(5), big.NewInt(7)}, rand.Reader)
	assert.Equal(t, ErrInvalidWitness, errors.Cause(err))

	_, err = Prove(NewRandomOracle("test"), st, []*big.Int{big.NewInt(5)}, rand.Reader)
	assert.Equal(t, ErrMalformedStatement, errors.Cause(err))

	st.Add(GP.Generator(), Term{Base: GP.Generator(), Witness: 4})
	_, err = Prove(NewRandomOracle("test"), st, []*big.Int{big.NewInt(5), big.NewInt(6)}, rand.Reader)
	assert.Equal(t, ErrMalformedStatement, errors.Cause(err))
}

func TestProofEncoding(t *testing.T) {
	x, y := big.NewInt(3), big.NewInt(4)
	st := dlogEquality(t, group.BLS12381G1(), x, y)
	proof, err := Prove(NewRandomOracle("enc"), st, []*big.Int{x, y}, rand.Reader)
	require.NoError(t, err)

	b := serial.Encode(proof)
	assert.Len(t, b, 32+4+2*32)

	var got Proof
	require.NoError(t, serial.Decode(b, &got))
	assert.True(t, Verify(NewRandomOracle("enc"), st, &got))
}

func TestOracle(t *testing.T) {
	n := group.BLS12381G1().N()

	a, b := NewRandomOracle("d"), NewRandomOracle("d")
	a.AppendString("x", "ab")
	a.AppendString("y", "c")
	b.AppendString("x", "a")
	b.AppendString("y", "bc")
	assert.NotZero(t, a.Challenge("c", n).Cmp(b.Challenge("c", n)))

	c := NewRandomOracle("d")
	s := c.Split()
	first := c.Challenge("c", n)
	assert.NotZero(t, first.Cmp(c.Challenge("c", n)), "challenges advance the transcript")
	assert.Zero(t, first.Cmp(s.Challenge("c", n)))
}
