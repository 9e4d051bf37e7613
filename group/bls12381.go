package group

import (
	"encoding/hex"
	"io"
	"math/big"

	"github.com/cloudflare/circl/ecc/bls12381"
	"github.com/pkg/errors"
)

// Compressed encoding lengths and scalar width.
const (
	g1Len     = 48
	g2Len     = 96
	scalarLen = 32
)

// Domain separation tags for hashing to the two source groups.
const (
	dstG1 = "MSC-WALLET-V01-CS01-with-BLS12381G1_XMD:SHA-256_SSWU_RO_"
	dstG2 = "MSC-WALLET-V01-CS01-with-BLS12381G2_XMD:SHA-256_SSWU_RO_"
)

type blsGroup struct {
	curveOrder *big.Int
	name       string
	elemLen    int
}

type g1Group struct{ blsGroup }

type g2Group struct{ blsGroup }

type g1Point struct {
	curve *g1Group
	val   bls12381.G1
}

type g2Point struct {
	curve *g2Group
	val   bls12381.G2
}

var (
	blsOrder, _ = new(big.Int).SetString("73eda753299d7d483339d80809a1d80553bda402fffe5bfeffffffff00000001", 16)

	g1 = &g1Group{blsGroup{curveOrder: blsOrder, name: "BLS12381G1", elemLen: g1Len}}
	g2 = &g2Group{blsGroup{curveOrder: blsOrder, name: "BLS12381G2", elemLen: g2Len}}
)

// BLS12381G1 returns the first source group of the BLS12-381 pairing.
// All wallet protocol objects live in this group.
func BLS12381G1() Group { return g1 }

// BLS12381G2 returns the second source group of the BLS12-381 pairing.
func BLS12381G2() Group { return g2 }

// PairingEqual reports whether e(a1, b1) == e(a2, b2), where the a's are
// elements of G1 and the b's are elements of G2.
func PairingEqual(a1, b1, a2, b2 Element) bool {
	p1, ok1 := a1.(*g1Point)
	q1, ok2 := b1.(*g2Point)
	p2, ok3 := a2.(*g1Point)
	q2, ok4 := b2.(*g2Point)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return bls12381.Pair(&p1.val, &q1.val).IsEqual(bls12381.Pair(&p2.val, &q2.val))
}

func blsScalar(s *big.Int) *bls12381.Scalar {
	buf := make([]byte, scalarLen)
	new(big.Int).Mod(s, blsOrder).FillBytes(buf)
	k := new(bls12381.Scalar)
	k.SetBytes(buf)
	return k
}

func (g *blsGroup) Name() string {
	return g.name
}

func (g *blsGroup) N() *big.Int {
	return g.curveOrder
}

func (g *blsGroup) ElementLen() int {
	return g.elemLen
}

func (g *g1Group) Generator() Element {
	return &g1Point{curve: g, val: *bls12381.G1Generator()}
}

func (g *g1Group) Identity() Element {
	e := &g1Point{curve: g}
	e.val.SetIdentity()
	return e
}

func (g *g1Group) Element() Element {
	return g.Identity()
}

func (g *g1Group) Random(rng io.Reader) (Element, error) {
	r, err := RandomScalar(g, rng)
	if err != nil {
		return nil, err
	}
	return g.Element().BaseScale(r), nil
}

func (e *g1Point) check(a Element) *g1Point {
	ea, ok := a.(*g1Point)
	if !ok {
		panic(ErrIncompatible)
	}
	return ea
}

func (e *g1Point) Add(a Element, b Element) Element {
	ca := e.check(a)
	cb := e.check(b)
	var r bls12381.G1
	r.Add(&ca.val, &cb.val)
	e.val = r
	return e
}

func (e *g1Point) Subtract(a Element, b Element) Element {
	tmp := e.curve.Element().Negate(b)
	return e.Add(a, tmp)
}

func (e *g1Point) Negate(a Element) Element {
	ca := e.check(a)
	e.val = ca.val
	e.val.Neg()
	return e
}

func (e *g1Point) Set(a Element) Element {
	e.val = e.check(a).val
	return e
}

func (e *g1Point) Scale(a Element, s *big.Int) Element {
	ca := e.check(a)
	var r bls12381.G1
	r.ScalarMult(blsScalar(s), &ca.val)
	e.val = r
	return e
}

func (e *g1Point) BaseScale(s *big.Int) Element {
	e.val.ScalarMult(blsScalar(s), bls12381.G1Generator())
	return e
}

func (e *g1Point) MapToGroup(s string) (Element, error) {
	e.val.Hash([]byte(s), []byte(dstG1))
	return e, nil
}

func (e *g1Point) IsEqual(b Element) bool {
	cb, ok := b.(*g1Point)
	return ok && e.val.IsEqual(&cb.val)
}

func (e *g1Point) IsIdentity() bool {
	return e.val.IsIdentity()
}

func (e *g1Point) GroupOrder() *big.Int {
	return e.curve.curveOrder
}

func (e *g1Point) Group() Group {
	return e.curve
}

func (e *g1Point) String() string {
	return hex.EncodeToString(e.val.BytesCompressed())
}

func (e *g1Point) MarshalBinary() ([]byte, error) {
	return e.val.BytesCompressed(), nil
}

func (e *g1Point) UnmarshalBinary(data []byte) error {
	if len(data) != g1Len {
		return errors.Errorf("G1 element must be %d bytes, got %d", g1Len, len(data))
	}
	var p bls12381.G1
	if err := p.SetBytes(data); err != nil {
		return errors.Wrap(err, "decoding G1 element")
	}
	e.val = p
	return nil
}

func (e *g1Point) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(e.MarshalBinary())
}

func (e *g1Point) UnmarshalJSON(data []byte) error {
	b, err := unmarshalHexJSON(data)
	if err != nil {
		return err
	}
	return e.UnmarshalBinary(b)
}

func (g *g2Group) Generator() Element {
	return &g2Point{curve: g, val: *bls12381.G2Generator()}
}

func (g *g2Group) Identity() Element {
	e := &g2Point{curve: g}
	e.val.SetIdentity()
	return e
}

func (g *g2Group) Element() Element {
	return g.Identity()
}

func (g *g2Group) Random(rng io.Reader) (Element, error) {
	r, err := RandomScalar(g, rng)
	if err != nil {
		return nil, err
	}
	return g.Element().BaseScale(r), nil
}

func (e *g2Point) check(a Element) *g2Point {
	ea, ok := a.(*g2Point)
	if !ok {
		panic(ErrIncompatible)
	}
	return ea
}

func (e *g2Point) Add(a Element, b Element) Element {
	ca := e.check(a)
	cb := e.check(b)
	var r bls12381.G2
	r.Add(&ca.val, &cb.val)
	e.val = r
	return e
}

func (e *g2Point) Subtract(a Element, b Element) Element {
	tmp := e.curve.Element().Negate(b)
	return e.Add(a, tmp)
}

func (e *g2Point) Negate(a Element) Element {
	ca := e.check(a)
	e.val = ca.val
	e.val.Neg()
	return e
}

func (e *g2Point) Set(a Element) Element {
	e.val = e.check(a).val
	return e
}

func (e *g2Point) Scale(a Element, s *big.Int) Element {
	ca := e.check(a)
	var r bls12381.G2
	r.ScalarMult(blsScalar(s), &ca.val)
	e.val = r
	return e
}

func (e *g2Point) BaseScale(s *big.Int) Element {
	e.val.ScalarMult(blsScalar(s), bls12381.G2Generator())
	return e
}

func (e *g2Point) MapToGroup(s string) (Element, error) {
	e.val.Hash([]byte(s), []byte(dstG2))
	return e, nil
}

func (e *g2Point) IsEqual(b Element) bool {
	cb, ok := b.(*g2Point)
	return ok && e.val.IsEqual(&cb.val)
}

func (e *g2Point) IsIdentity() bool {
	return e.val.IsIdentity()
}

func (e *g2Point) GroupOrder() *big.Int {
	return e.curve.curveOrder
}

func (e *g2Point) Group() Group {
	return e.curve
}

func (e *g2Point) String() string {
	return hex.EncodeToString(e.val.BytesCompressed())
}

func (e *g2Point) MarshalBinary() ([]byte, error) {
	return e.val.BytesCompressed(), nil
}

func (e *g2Point) UnmarshalBinary(data []byte) error {
	if len(data) != g2Len {
		return errors.Errorf("G2 element must be %d bytes, got %d", g2Len, len(data))
	}
	var p bls12381.G2
	if err := p.SetBytes(data); err != nil {
		return errors.Wrap(err, "decoding G2 element")
	}
	e.val = p
	return nil
}

func (e *g2Point) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(e.MarshalBinary())
}

func (e *g2Point) UnmarshalJSON(data []byte) error {
	b, err := unmarshalHexJSON(data)
	if err != nil {
		return err
	}
	return e.UnmarshalBinary(b)
}
