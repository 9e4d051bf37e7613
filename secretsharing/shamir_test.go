package secretsharing

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/pedersen"
)

func testKey(t *testing.T) pedersen.CommitmentKey {
	ck, err := pedersen.NewCommitmentKey(group.BLS12381G1(), "shamir-test")
	require.NoError(t, err)
	return ck
}

func TestShareReveal(t *testing.T) {
	ck := testKey(t)
	n := ck.G.GroupOrder()
	secret := big.NewInt(123456789)

	tests := []struct {
		threshold, parties int
	}{
		{1, 1},
		{1, 3},
		{2, 3},
		{3, 3},
		{4, 6},
	}
	for _, tt := range tests {
		s, err := Share(ck, secret, tt.threshold, tt.parties, rand.Reader)
		require.NoError(t, err)
		require.Len(t, s.Commitments, tt.threshold)

		shares := map[uint32]*big.Int{}
		for x := uint32(1); x <= uint32(tt.threshold); x++ {
			shares[x], _ = s.ShareValue(x)
		}
		got, err := Reveal(shares, n)
		require.NoError(t, err)
		assert.Zero(t, secret.Cmp(got), "threshold %d of %d", tt.threshold, tt.parties)

		if tt.threshold > 1 {
			delete(shares, 1)
			got, err = Reveal(shares, n)
			require.NoError(t, err)
			assert.NotZero(t, secret.Cmp(got), "too few shares")
		}
	}
}

func TestShareCommitment(t *testing.T) {
	ck := testKey(t)
	s, err := Share(ck, big.NewInt(7), 3, 4, rand.Reader)
	require.NoError(t, err)

	assert.True(t, ck.Open(s.Commitments[0], big.NewInt(7), s.Randomness[0]))
	for x := uint32(1); x <= 4; x++ {
		v, r := s.ShareValue(x)
		assert.True(t, ck.Open(ShareCommitment(s.Commitments, x), v, r))
	}
}

func TestRevealInExponent(t *testing.T) {
	GP := group.BLS12381G1()
	ck := testKey(t)
	secret := big.NewInt(99)
	s, err := Share(ck, secret, 2, 3, rand.Reader)
	require.NoError(t, err)

	shares := map[uint32]group.Element{}
	for _, x := range []uint32{3, 1} {
		v, _ := s.ShareValue(x)
		shares[x] = GP.Element().BaseScale(v)
	}
	got, err := RevealInExponent(shares)
	require.NoError(t, err)
	assert.True(t, got.IsEqual(GP.Element().BaseScale(secret)))
}

func TestThreshold(t *testing.T) {
	ck := testKey(t)
	for _, tt := range [][2]int{{0, 3}, {4, 3}, {-1, 1}} {
		_, err := Share(ck, big.NewInt(1), tt[0], tt[1], rand.Reader)
		assert.Equal(t, ErrThreshold, errors.Cause(err))
	}

	_, err := LagrangeAtZero([]uint32{1, 2, 1}, ck.G.GroupOrder())
	assert.Equal(t, ErrDuplicateShare, errors.Cause(err))
	_, err = LagrangeAtZero([]uint32{0, 2}, ck.G.GroupOrder())
	assert.Error(t, err)
}
