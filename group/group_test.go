package group

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

var allGroups = []Group{
	BLS12381G1(),
	BLS12381G2(),
	Ristretto255(),
}

func TestGroup(t *testing.T) {
	const testTimes = 1 << 4
	for _, g := range allGroups {
		n := g.Name()
		t.Run(n+"/Neg", func(tt *testing.T) { testNeg(tt, testTimes, g) })
		t.Run(n+"/Order", func(tt *testing.T) { testOrder(tt, testTimes, g) })
		t.Run(n+"/Set", func(tt *testing.T) { testSet(tt, g) })
		t.Run(n+"/MarshalBinary", func(tt *testing.T) { testMarshalBinary(tt, testTimes, g) })
		t.Run(n+"/MarshalJSON", func(tt *testing.T) { testMarshalJSON(tt, testTimes, g) })
		t.Run(n+"/MapToGroup", func(tt *testing.T) { testMapToGroup(tt, g) })
	}
}

func random(t *testing.T, g Group) Element {
	e, err := g.Random(rand.Reader)
	require.NoError(t, err)
	return e
}

func testNeg(t *testing.T, testTimes int, g Group) {
	Q := g.Element()
	for i := 0; i < testTimes; i++ {
		P := random(t, g)
		Q.Set(P)
		Q.Subtract(Q, P)
		if !Q.IsIdentity() {
			t.Error("testNeg | Got:", Q, "Wanted: identity")
		}
	}
}

func testOrder(t *testing.T, testTimes int, g Group) {
	I := g.Identity()
	Q := g.Element()
	minusOne := big.NewInt(-1)
	for i := 0; i < testTimes; i++ {
		P := random(t, g)

		Q.Scale(P, minusOne)
		got := Q.Add(Q, P)
		if !got.IsEqual(I) {
			t.Error("testOrder | Got:", got, "Wanted:", I)
		}
	}

	// Scaling by the group order lands on the identity.
	require.True(t, g.Element().BaseScale(g.N()).IsIdentity())
}

func testSet(t *testing.T, g Group) {
	P := random(t, g)
	Q := g.Element()
	Q.Set(P)
	require.True(t, Q.IsEqual(P))
	require.Equal(t, g, Q.Group())
}

func testMarshalBinary(t *testing.T, testTimes int, g Group) {
	I := g.Identity()
	got, err := I.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, got, g.ElementLen())

	II := g.Element()
	require.NoError(t, II.UnmarshalBinary(got))
	require.True(t, I.IsEqual(II))

	gotEl := g.Element()
	for i := 0; i < testTimes; i++ {
		x := random(t, g)
		enc, err := x.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, enc, g.ElementLen())

		require.NoError(t, gotEl.UnmarshalBinary(enc))
		if !x.IsEqual(gotEl) {
			t.Error("testMarshalBinary | Got:", gotEl, "Wanted:", x)
		}
	}

	require.Error(t, gotEl.UnmarshalBinary([]byte{1, 2, 3}))
}

func testMarshalJSON(t *testing.T, testTimes int, g Group) {
	gotEl := g.Element()
	for i := 0; i < testTimes; i++ {
		x := random(t, g)
		enc, err := x.MarshalJSON()
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("%q", x.String()), string(enc))

		require.NoError(t, gotEl.UnmarshalJSON(enc))
		if !x.IsEqual(gotEl) {
			t.Error("testMarshalJSON | Got:", gotEl, "Wanted:", x)
		}
	}
}

func testMapToGroup(t *testing.T, g Group) {
	a, err := g.Element().MapToGroup("seed")
	require.NoError(t, err)
	b, err := g.Element().MapToGroup("seed")
	require.NoError(t, err)
	c, err := g.Element().MapToGroup("other seed")
	require.NoError(t, err)

	require.True(t, a.IsEqual(b))
	require.False(t, a.IsEqual(c))
	require.False(t, a.IsIdentity())
}

func TestMath(t *testing.T) {
	for _, g := range allGroups {
		t.Run(g.Name(), func(t *testing.T) {
			a := g.Element().BaseScale(big.NewInt(2))
			b := g.Element().Add(g.Generator(), g.Generator())
			require.True(t, a.IsEqual(b), "doubling error")

			a = g.Element().Add(a, g.Generator())
			b = g.Element().BaseScale(big.NewInt(3))
			require.True(t, a.IsEqual(b), "error in adding or scaling")

			e := g.Identity()
			r1 := random(t, g)
			r2 := random(t, g)
			e.Add(r1, r2)
			e.Subtract(e, r2)
			require.True(t, e.IsEqual(r1), "error in subtracting")
		})
	}
}

func TestMixedGroupsAreNotEqual(t *testing.T) {
	require.False(t, BLS12381G1().Generator().IsEqual(Ristretto255().Generator()))
	require.Panics(t, func() {
		BLS12381G1().Element().Add(BLS12381G1().Generator(), BLS12381G2().Generator())
	})
}

func TestPairingEqual(t *testing.T) {
	a, err := RandomNonZeroScalar(BLS12381G1(), rand.Reader)
	require.NoError(t, err)
	b, err := RandomNonZeroScalar(BLS12381G1(), rand.Reader)
	require.NoError(t, err)

	// e(aP, bQ) == e(abP, Q)
	aP := BLS12381G1().Element().BaseScale(a)
	bQ := BLS12381G2().Element().BaseScale(b)
	abP := BLS12381G1().Element().BaseScale(new(big.Int).Mul(a, b))
	require.True(t, PairingEqual(aP, bQ, abP, BLS12381G2().Generator()))
	require.False(t, PairingEqual(aP, bQ, aP, BLS12381G2().Generator()))

	// Arguments from the wrong groups never pair.
	require.False(t, PairingEqual(bQ, aP, abP, BLS12381G2().Generator()))
}
