// Package pssig implements Pointcheval-Sanders signatures on vectors of
// scalars over BLS12-381, including signing of messages hidden in a
// commitment and the randomisation that makes shown signatures unlinkable.
//
// A signature on (m_1, ..., m_n) is (h, (x + sum(y_i.m_i)).h) for a random
// h in G1. It verifies if e(S1, X~ + sum(m_i.Y~_i)) == e(S2, g~).
package pssig

import (
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
)

// ErrMessageCount is returned when a message vector does not match the key.
var ErrMessageCount = errors.New("message count does not match key")

type SecretKey struct {
	X  *big.Int
	Ys []*big.Int
}

type PublicKey struct {
	G   group.Element   // G1 generator
	Ys  []group.Element // y_i.G
	Gt  group.Element   // G2 generator
	Xt  group.Element   // x.Gt
	Yts []group.Element // y_i.Gt
}

type Signature struct {
	S1 group.Element
	S2 group.Element
}

// GenerateKeys creates a key pair for vectors of n messages.
func GenerateKeys(n int, rng io.Reader) (*SecretKey, *PublicKey, error) {
	G1, G2 := group.BLS12381G1(), group.BLS12381G2()
	x, err := group.RandomNonZeroScalar(G1, rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "generating signing key")
	}
	sk := &SecretKey{X: x, Ys: make([]*big.Int, n)}
	pk := &PublicKey{
		G:   G1.Generator(),
		Ys:  make([]group.Element, n),
		Gt:  G2.Generator(),
		Xt:  G2.Element().BaseScale(x),
		Yts: make([]group.Element, n),
	}
	for i := 0; i < n; i++ {
		if sk.Ys[i], err = group.RandomNonZeroScalar(G1, rng); err != nil {
			return nil, nil, errors.Wrap(err, "generating signing key")
		}
		pk.Ys[i] = G1.Element().BaseScale(sk.Ys[i])
		pk.Yts[i] = G2.Element().BaseScale(sk.Ys[i])
	}
	return sk, pk, nil
}

// Len returns the number of messages the key signs.
func (pk *PublicKey) Len() int {
	return len(pk.Ys)
}

// Sign signs a fully known message vector.
func (sk *SecretKey) Sign(msgs []*big.Int, rng io.Reader) (*Signature, error) {
	if len(msgs) != len(sk.Ys) {
		return nil, errors.Wrapf(ErrMessageCount, "got %d, want %d", len(msgs), len(sk.Ys))
	}
	return sk.SignBlinded(group.BLS12381G1().Identity(), msgs, rng)
}

// SignBlinded signs the messages hidden in C = t.G + sum(m_j.Y_j) together
// with the known messages. msgs has one entry per key message; hidden ones
// are nil. The returned signature is still blinded by t, see Unblind.
func (sk *SecretKey) SignBlinded(C group.Element, msgs []*big.Int, rng io.Reader) (*Signature, error) {
	if len(msgs) != len(sk.Ys) {
		return nil, errors.Wrapf(ErrMessageCount, "got %d, want %d", len(msgs), len(sk.Ys))
	}
	G1 := group.BLS12381G1()
	u, err := group.RandomNonZeroScalar(G1, rng)
	if err != nil {
		return nil, errors.Wrap(err, "sampling signature randomness")
	}
	// e = x + sum(y_i.m_i) over the known messages
	e := new(big.Int).Set(sk.X)
	for i, m := range msgs {
		if m != nil {
			e.Add(e, new(big.Int).Mul(sk.Ys[i], m))
		}
	}
	e.Mod(e, G1.N())

	S2 := G1.Element().BaseScale(e)
	S2.Add(S2, C)
	return &Signature{
		S1: G1.Element().BaseScale(u),
		S2: S2.Scale(S2, u),
	}, nil
}

// Unblind removes the commitment randomness t from a blinded signature.
func (sig *Signature) Unblind(t *big.Int) *Signature {
	G1 := group.BLS12381G1()
	tS1 := G1.Element().Scale(sig.S1, t)
	return &Signature{
		S1: G1.Element().Set(sig.S1),
		S2: G1.Element().Subtract(sig.S2, tS1),
	}
}

// Randomize returns (r.S1, r.(S2 + t.S1)). The result verifies for the same
// messages once t.Gt is added to the aggregate, see VerifyCommitted.
func (sig *Signature) Randomize(r, t *big.Int) *Signature {
	G1 := group.BLS12381G1()
	S2 := G1.Element().Scale(sig.S1, t)
	S2.Add(S2, sig.S2)
	return &Signature{
		S1: G1.Element().Scale(sig.S1, r),
		S2: S2.Scale(S2, r),
	}
}

// Verify checks sig on a fully known message vector.
func (pk *PublicKey) Verify(msgs []*big.Int, sig *Signature) bool {
	if len(msgs) != len(pk.Yts) {
		return false
	}
	return pk.VerifyCommitted(sig, group.BLS12381G2().Identity(), msgs)
}

// VerifyCommitted checks sig against K + sum(m_i.Y~_i) over the non-nil
// messages, where K in G2 commits to the remaining messages and any
// randomisation blinding.
func (pk *PublicKey) VerifyCommitted(sig *Signature, K group.Element, msgs []*big.Int) bool {
	if sig == nil || sig.S1 == nil || sig.S2 == nil || sig.S1.IsIdentity() {
		return false
	}
	if len(msgs) != len(pk.Yts) {
		return false
	}
	G2 := group.BLS12381G2()
	agg := G2.Element().Add(pk.Xt, K)
	for i, m := range msgs {
		if m != nil {
			agg.Add(agg, G2.Element().Scale(pk.Yts[i], m))
		}
	}
	return group.PairingEqual(sig.S1, agg, sig.S2, pk.Gt)
}

func (pk *PublicKey) Compose(v serial.Visitor) {
	G1, G2 := group.BLS12381G1(), group.BLS12381G2()
	v.Element(G1, &pk.G)
	serial.Elements(v, 4, G1, &pk.Ys)
	v.Element(G2, &pk.Gt)
	v.Element(G2, &pk.Xt)
	serial.Elements(v, 4, G2, &pk.Yts)
	if v.Decoding() && len(pk.Ys) != len(pk.Yts) {
		v.Fail(errors.Wrap(ErrMessageCount, "public key halves differ"))
	}
}

func (pk *PublicKey) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(pk)
}

func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, pk)
}

func (sk *SecretKey) Compose(v serial.Visitor) {
	v.Scalar(&sk.X)
	serial.Scalars(v, 4, &sk.Ys)
}

func (sk *SecretKey) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(sk)
}

func (sk *SecretKey) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, sk)
}

func (sig *Signature) Compose(v serial.Visitor) {
	G1 := group.BLS12381G1()
	v.Element(G1, &sig.S1)
	v.Element(G1, &sig.S2)
}

func (sig *Signature) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(sig)
}

func (sig *Signature) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, sig)
}
