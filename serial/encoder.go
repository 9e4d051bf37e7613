package serial

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
)

// Encoder appends visited fields to a byte buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Encoded returns the encoded bytes.
func (e *Encoder) Encoded() []byte {
	return e.buf
}

func (e *Encoder) Decoding() bool { return false }

func (e *Encoder) U8(v *uint8) {
	e.buf = append(e.buf, *v)
}

func (e *Encoder) U16(v *uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, *v)
}

func (e *Encoder) U32(v *uint32) {
	e.buf = binary.BigEndian.AppendUint32(e.buf, *v)
}

func (e *Encoder) U64(v *uint64) {
	e.buf = binary.BigEndian.AppendUint64(e.buf, *v)
}

func (e *Encoder) Bool(v *bool) {
	var b uint8
	if *v {
		b = 1
	}
	e.U8(&b)
}

func (e *Encoder) Bytes(b *[]byte, n int) {
	if len(*b) != n {
		panic("fixed-length byte field has wrong length")
	}
	e.buf = append(e.buf, *b...)
}

func (e *Encoder) Len(width int, n *int) {
	checkWidth(width)
	if *n < 0 || (width < 8 && uint64(*n) >= 1<<(8*uint(width))) {
		panic(errors.Errorf("length %d does not fit in %d bytes", *n, width))
	}
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(*n))
	e.buf = append(e.buf, tmp[8-width:]...)
}

func (e *Encoder) String(width int, s *string) {
	n := len(*s)
	e.Len(width, &n)
	e.buf = append(e.buf, *s...)
}

func (e *Encoder) Element(_ group.Group, el *group.Element) {
	b, err := (*el).MarshalBinary()
	if err != nil {
		panic(err)
	}
	e.buf = append(e.buf, b...)
}

func (e *Encoder) Scalar(s **big.Int) {
	var tmp [ScalarLen]byte
	(*s).FillBytes(tmp[:])
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) Value(c Composer) {
	c.Compose(e)
}

func (e *Encoder) Fail(err error) {
	panic(err)
}
