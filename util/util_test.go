package util

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/takakv/msc-wallet/group"
)

func TestDecompose(t *testing.T) {
	tests := []struct {
		x    int64
		u    int64
		l    int64
		want []int64
	}{
		{x: 0, u: 2, l: 4, want: []int64{0, 0, 0, 0}},
		{x: 11, u: 2, l: 4, want: []int64{1, 1, 0, 1}},
		{x: 255, u: 16, l: 2, want: []int64{15, 15}},
		{x: 300, u: 10, l: 2, want: []int64{0, 0}},
	}
	for _, tt := range tests {
		x := big.NewInt(tt.x)
		assert.Equal(t, tt.want, Decompose(x, tt.u, tt.l))
		assert.Equal(t, tt.x, x.Int64(), "input must not be modified")
	}
}

func TestMultiExp(t *testing.T) {
	GP := group.BLS12381G1()
	g := GP.Generator()
	h, _ := GP.Element().MapToGroup("h")

	got := MultiExp([]group.Element{g, h}, []*big.Int{big.NewInt(3), big.NewInt(5)})
	assert.True(t, got.IsEqual(PedersenCommit(big.NewInt(3), big.NewInt(5), g, h)))

	assert.Panics(t, func() { MultiExp([]group.Element{g}, nil) })
}

func TestModInverse(t *testing.T) {
	n := big.NewInt(13)
	assert.Equal(t, int64(9), ModInverse(big.NewInt(3), n).Int64())
	assert.Nil(t, ModInverse(big.NewInt(26), n))
}
