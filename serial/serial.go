// Package serial implements the canonical binary encoding shared by every
// on-chain object.
//
// Each type describes its layout once, by implementing Composer. The same
// Compose method drives both encoding and decoding: an Encoder appends the
// visited fields to a buffer and a Decoder fills them from one. Integers are
// fixed-width big-endian, collections carry an explicit length prefix whose
// width is chosen per field, group elements use their compressed encoding and
// scalars are 32 bytes wide.
package serial

import (
	"encoding/hex"
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
)

// ScalarLen is the width of an encoded scalar.
const ScalarLen = 32

var (
	// ErrTrailingBytes is returned by Decode when input remains after the
	// value has been read.
	ErrTrailingBytes = errors.New("trailing bytes after value")
	// ErrShortBuffer is returned when the input ends in the middle of a value.
	ErrShortBuffer = errors.New("unexpected end of input")
)

// Visitor walks the fields of a value in canonical order.
type Visitor interface {
	// Decoding reports whether fields are being filled in rather than read.
	Decoding() bool

	U8(v *uint8)
	U16(v *uint16)
	U32(v *uint32)
	U64(v *uint64)
	Bool(v *bool)
	// Bytes visits a byte string of fixed length n.
	Bytes(b *[]byte, n int)
	// Len visits a collection length, prefixed with width bytes (1, 2, 4 or 8).
	Len(width int, n *int)
	// String visits a string prefixed by its length in width bytes.
	String(width int, s *string)
	// Element visits a group element of g.
	Element(g group.Group, e *group.Element)
	// Scalar visits a scalar.
	Scalar(s **big.Int)
	// Value visits a nested value.
	Value(c Composer)
	// Fail aborts the walk with err. While decoding the error is reported by
	// Decode; while encoding it is a programming error and panics.
	Fail(err error)
}

// Composer is implemented by every type with a canonical encoding.
type Composer interface {
	Compose(v Visitor)
}

// Encode returns the canonical encoding of c.
func Encode(c Composer) []byte {
	e := NewEncoder()
	e.Value(c)
	return e.Encoded()
}

// Decode fills c from its canonical encoding in b. All of b must be consumed.
func Decode(b []byte, c Composer) error {
	d := NewDecoder(b)
	d.Value(c)
	if d.Err() != nil {
		return d.Err()
	}
	if d.Remaining() != 0 {
		return errors.Wrapf(ErrTrailingBytes, "%d bytes", d.Remaining())
	}
	return nil
}

// MarshalHex encodes c as a JSON string holding the hex of its canonical
// encoding.
func MarshalHex(c Composer) ([]byte, error) {
	return json.Marshal(hex.EncodeToString(Encode(c)))
}

// UnmarshalHex is the inverse of MarshalHex.
func UnmarshalHex(data []byte, c Composer) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrap(err, "invalid hex encoding")
	}
	return Decode(b, c)
}

// Slice visits a length-prefixed sequence, calling f for each item.
func Slice[T any](v Visitor, width int, s *[]T, f func(v Visitor, item *T)) {
	n := len(*s)
	v.Len(width, &n)
	if v.Decoding() {
		*s = make([]T, n)
	}
	for i := range *s {
		f(v, &(*s)[i])
	}
}

// Elements visits a length-prefixed sequence of elements of g.
func Elements(v Visitor, width int, g group.Group, s *[]group.Element) {
	Slice(v, width, s, func(v Visitor, e *group.Element) { v.Element(g, e) })
}

// Scalars visits a length-prefixed sequence of scalars.
func Scalars(v Visitor, width int, s *[]*big.Int) {
	Slice(v, width, s, func(v Visitor, x **big.Int) { v.Scalar(x) })
}

func checkWidth(width int) {
	switch width {
	case 1, 2, 4, 8:
	default:
		panic("length prefix width must be 1, 2, 4 or 8")
	}
}
