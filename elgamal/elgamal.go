// Package elgamal implements ElGamal encryption in the exponent. A message m
// is encrypted as (k.g, m.g + k.pk), which makes ciphertexts additively
// homomorphic in m. Recovering m from m.g requires a discrete logarithm, see
// BabyStepGiantStep.
package elgamal

import (
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
)

// SecretKey is the scalar a with public key a.g.
type SecretKey struct {
	Generator group.Element
	Scalar    *big.Int
}

// PublicKey is the element a.g together with its generator.
type PublicKey struct {
	Generator group.Element
	Key       group.Element
}

// Cipher is an ElGamal ciphertext (k.g, m.g + k.pk).
type Cipher struct {
	C1 group.Element
	C2 group.Element
}

// GenerateSecretKey samples a secret key for generator g.
func GenerateSecretKey(g group.Element, rng io.Reader) (*SecretKey, error) {
	a, err := group.RandomNonZeroScalar(g.Group(), rng)
	if err != nil {
		return nil, errors.Wrap(err, "generating elgamal key")
	}
	return &SecretKey{Generator: g, Scalar: a}, nil
}

// PublicKey returns the public key matching sk.
func (sk *SecretKey) PublicKey() *PublicKey {
	return &PublicKey{
		Generator: sk.Generator,
		Key:       sk.Generator.Group().Element().Scale(sk.Generator, sk.Scalar),
	}
}

// EncryptExponent encrypts m.g with fresh randomness, which is returned
// alongside the ciphertext.
func (pk *PublicKey) EncryptExponent(m *big.Int, rng io.Reader) (*Cipher, *big.Int, error) {
	k, err := group.RandomScalar(pk.Generator.Group(), rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sampling encryption randomness")
	}
	return pk.EncryptExponentWithRandomness(m, k), k, nil
}

// EncryptExponentWithRandomness encrypts m.g using k as the ephemeral scalar.
// With k = 0 the ciphertext is (0, m.g), which anyone knowing m can check.
func (pk *PublicKey) EncryptExponentWithRandomness(m, k *big.Int) *Cipher {
	GP := pk.Generator.Group()
	c2 := GP.Element().Scale(pk.Generator, m)
	return &Cipher{
		C1: GP.Element().Scale(pk.Generator, k),
		C2: c2.Add(c2, GP.Element().Scale(pk.Key, k)),
	}
}

// Encrypt encrypts an arbitrary group element M as (k.g, M + k.pk).
func (pk *PublicKey) Encrypt(M group.Element, rng io.Reader) (*Cipher, *big.Int, error) {
	GP := pk.Generator.Group()
	k, err := group.RandomScalar(GP, rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sampling encryption randomness")
	}
	c2 := GP.Element().Scale(pk.Key, k)
	return &Cipher{
		C1: GP.Element().Scale(pk.Generator, k),
		C2: c2.Add(c2, M),
	}, k, nil
}

// Decrypt returns c2 - a.c1. It cannot fail; a ciphertext for a different key
// decrypts to an unrelated element.
func (sk *SecretKey) Decrypt(c *Cipher) group.Element {
	GP := sk.Generator.Group()
	mask := GP.Element().Scale(c.C1, sk.Scalar)
	return GP.Element().Subtract(c.C2, mask)
}

// DecryptExponent decrypts c and recovers the exponent with table.
func (sk *SecretKey) DecryptExponent(c *Cipher, table *BabyStepGiantStep) uint64 {
	return table.DiscreteLog(sk.Decrypt(c))
}

// Combine returns the component-wise sum of c and d, which encrypts the sum of
// their messages under the same key.
func (c *Cipher) Combine(d *Cipher) *Cipher {
	GP := c.C1.Group()
	return &Cipher{
		C1: GP.Element().Add(c.C1, d.C1),
		C2: GP.Element().Add(c.C2, d.C2),
	}
}

// Scale returns s.c, which encrypts s times the message.
func (c *Cipher) Scale(s *big.Int) *Cipher {
	GP := c.C1.Group()
	return &Cipher{
		C1: GP.Element().Scale(c.C1, s),
		C2: GP.Element().Scale(c.C2, s),
	}
}

// IsEqual reports whether both components match.
func (c *Cipher) IsEqual(d *Cipher) bool {
	return c.C1.IsEqual(d.C1) && c.C2.IsEqual(d.C2)
}

// groupOf returns the group of e, defaulting to BLS12-381 G1 for values being
// decoded.
func groupOf(e group.Element) group.Group {
	if e == nil {
		return group.BLS12381G1()
	}
	return e.Group()
}

func (c *Cipher) Compose(v serial.Visitor) {
	GP := groupOf(c.C1)
	v.Element(GP, &c.C1)
	v.Element(GP, &c.C2)
}

func (c *Cipher) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(c)
}

func (c *Cipher) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, c)
}

func (pk *PublicKey) Compose(v serial.Visitor) {
	GP := groupOf(pk.Generator)
	v.Element(GP, &pk.Generator)
	v.Element(GP, &pk.Key)
}

func (pk *PublicKey) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(pk)
}

func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, pk)
}

func (sk *SecretKey) Compose(v serial.Visitor) {
	v.Element(groupOf(sk.Generator), &sk.Generator)
	v.Scalar(&sk.Scalar)
}

func (sk *SecretKey) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(sk)
}

func (sk *SecretKey) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, sk)
}
