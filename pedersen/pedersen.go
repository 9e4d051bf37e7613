// Package pedersen implements Pedersen commitments v.G + r.H.
package pedersen

import (
	"io"
	"math/big"

	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
	"github.com/takakv/msc-wallet/util"
)

// CommitmentKey holds two generators with no known discrete log relation.
type CommitmentKey struct {
	G group.Element
	H group.Element
}

// NewCommitmentKey uses the group generator as G and hashes seed to H.
func NewCommitmentKey(GP group.Group, seed string) (CommitmentKey, error) {
	H, err := GP.Element().MapToGroup(seed)
	if err != nil {
		return CommitmentKey{}, err
	}
	return CommitmentKey{G: GP.Generator(), H: H}, nil
}

// Commit returns v.G + r.H.
func (ck CommitmentKey) Commit(v, r *big.Int) group.Element {
	return util.PedersenCommit(v, r, ck.G, ck.H)
}

// CommitRandom commits to v with fresh randomness, which it also returns.
func (ck CommitmentKey) CommitRandom(v *big.Int, rng io.Reader) (group.Element, *big.Int, error) {
	r, err := group.RandomScalar(ck.G.Group(), rng)
	if err != nil {
		return nil, nil, err
	}
	return ck.Commit(v, r), r, nil
}

// Open reports whether C is a commitment to v with randomness r.
func (ck CommitmentKey) Open(C group.Element, v, r *big.Int) bool {
	return ck.Commit(v, r).IsEqual(C)
}

// Compose encodes both generators. Keys decode into BLS12-381 G1.
func (ck *CommitmentKey) Compose(v serial.Visitor) {
	GP := group.BLS12381G1()
	if ck.G != nil {
		GP = ck.G.Group()
	}
	v.Element(GP, &ck.G)
	v.Element(GP, &ck.H)
}

func (ck CommitmentKey) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(&ck)
}

func (ck *CommitmentKey) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, ck)
}
