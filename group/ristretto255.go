package group

import (
	"encoding/hex"
	"io"
	"math/big"

	"github.com/cloudflare/circl/group"
	"github.com/pkg/errors"
)

type r255Group struct {
	curveOrder *big.Int
	name       string
}

type r255Point struct {
	curve *r255Group
	val   group.Element
}

var r255 = func() *r255Group {
	n, _ := new(big.Int).SetString("1000000000000000000000000000000014def9dea2f79cd65812631a5cf5d3ed", 16)
	return &r255Group{curveOrder: n, name: "ristretto255"}
}()

// Ristretto255 returns the prime-order ristretto255 group.
func Ristretto255() Group { return r255 }

func (g *r255Group) Name() string {
	return g.name
}

func (g *r255Group) N() *big.Int {
	return g.curveOrder
}

func (g *r255Group) ElementLen() int {
	return 32
}

func (g *r255Group) Generator() Element {
	return &r255Point{
		curve: g,
		val:   group.Ristretto255.Generator(),
	}
}

func (g *r255Group) Identity() Element {
	return &r255Point{
		curve: g,
		val:   group.Ristretto255.Identity(),
	}
}

func (g *r255Group) Random(rng io.Reader) (Element, error) {
	r, err := RandomScalar(g, rng)
	if err != nil {
		return nil, err
	}
	return g.Element().BaseScale(r), nil
}

func (g *r255Group) Element() Element {
	return g.Identity()
}

func (e *r255Point) check(a Element) *r255Point {
	ey, ok := a.(*r255Point)
	if !ok {
		panic(ErrIncompatible)
	}
	return ey
}

func (e *r255Point) scalar(s *big.Int) group.Scalar {
	return group.Ristretto255.NewScalar().SetBigInt(new(big.Int).Mod(s, e.curve.curveOrder))
}

func (e *r255Point) Add(a Element, b Element) Element {
	ca := e.check(a)
	cb := e.check(b)
	e.val = group.Ristretto255.NewElement().Add(ca.val, cb.val)
	return e
}

func (e *r255Point) Subtract(a Element, b Element) Element {
	tmp := e.curve.Identity()
	tmp.Negate(b)
	e.Add(a, tmp)
	return e
}

func (e *r255Point) Negate(a Element) Element {
	ca := e.check(a)
	e.val = group.Ristretto255.NewElement().Neg(ca.val)
	return e
}

func (e *r255Point) IsEqual(b Element) bool {
	cb, ok := b.(*r255Point)
	return ok && e.val.IsEqual(cb.val)
}

func (e *r255Point) Set(x Element) Element {
	ca := e.check(x)
	e.val = group.Ristretto255.NewElement().Set(ca.val)
	return e
}

func (e *r255Point) Scale(x Element, s *big.Int) Element {
	ex := e.check(x)
	e.val = group.Ristretto255.NewElement().Mul(ex.val, e.scalar(s))
	return e
}

func (e *r255Point) BaseScale(s *big.Int) Element {
	e.val = group.Ristretto255.NewElement().MulGen(e.scalar(s))
	return e
}

func (e *r255Point) GroupOrder() *big.Int {
	return e.curve.curveOrder
}

func (e *r255Point) Group() Group {
	return e.curve
}

func (e *r255Point) MapToGroup(s string) (Element, error) {
	e.val = group.Ristretto255.HashToElement([]byte(s), []byte("MSC-WALLET-V01-ristretto255"))
	return e, nil
}

func (e *r255Point) String() string {
	tmp, _ := e.val.MarshalBinaryCompress()
	return hex.EncodeToString(tmp)
}

func (e *r255Point) IsIdentity() bool {
	return e.val.IsIdentity()
}

func (e *r255Point) MarshalBinary() ([]byte, error) {
	return e.val.MarshalBinaryCompress()
}

func (e *r255Point) UnmarshalBinary(data []byte) error {
	v := group.Ristretto255.NewElement()
	if err := v.UnmarshalBinary(data); err != nil {
		return errors.Wrap(err, "decoding ristretto255 element")
	}
	e.val = v
	return nil
}

func (e *r255Point) MarshalJSON() ([]byte, error) {
	return marshalHexJSON(e.MarshalBinary())
}

func (e *r255Point) UnmarshalJSON(data []byte) error {
	b, err := unmarshalHexJSON(data)
	if err != nil {
		return err
	}
	return e.UnmarshalBinary(b)
}
