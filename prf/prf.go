// Package prf implements the Dodis-Yampolskiy pseudorandom function
// x -> 1/(k+x) . g used to derive registration ids.
package prf

import (
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
	"github.com/takakv/msc-wallet/util"
)

// ErrOutOfDomain is returned when k+x is zero modulo the group order, so the
// function is undefined at x.
var ErrOutOfDomain = errors.New("prf input out of domain")

// SecretKey is the PRF key k.
type SecretKey struct {
	K *big.Int
}

// GenerateSecretKey samples a fresh key for GP.
func GenerateSecretKey(GP group.Group, rng io.Reader) (*SecretKey, error) {
	k, err := group.RandomNonZeroScalar(GP, rng)
	if err != nil {
		return nil, errors.Wrap(err, "generating prf key")
	}
	return &SecretKey{K: k}, nil
}

// Exponent returns 1/(k+x) modulo n.
func (sk *SecretKey) Exponent(n *big.Int, x uint8) (*big.Int, error) {
	inv := util.ModInverse(new(big.Int).Add(sk.K, big.NewInt(int64(x))), n)
	if inv == nil {
		return nil, errors.Wrapf(ErrOutOfDomain, "x = %d", x)
	}
	return inv, nil
}

// Eval returns 1/(k+x) . g.
func (sk *SecretKey) Eval(g group.Element, x uint8) (group.Element, error) {
	e, err := sk.Exponent(g.GroupOrder(), x)
	if err != nil {
		return nil, err
	}
	return g.Group().Element().Scale(g, e), nil
}

func (sk *SecretKey) Compose(v serial.Visitor) {
	v.Scalar(&sk.K)
}

func (sk *SecretKey) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(sk)
}

func (sk *SecretKey) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, sk)
}
