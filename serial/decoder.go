package serial

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
)

// maxLen bounds decoded collection lengths so a malformed prefix cannot
// trigger a huge allocation.
const maxLen = 1 << 24

// Decoder fills visited fields from a byte buffer. The first error stops all
// further reads; callers check Err once decoding is done.
type Decoder struct {
	buf []byte
	off int
	err error
}

// NewDecoder returns a Decoder reading from b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Err returns the first error encountered.
func (d *Decoder) Err() error {
	return d.err
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

// Fail records err unless an earlier error is already pending. Compose
// methods use it to reject semantically invalid input.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) next(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.Remaining() < n {
		d.err = errors.Wrapf(ErrShortBuffer, "need %d bytes at offset %d, have %d", n, d.off, d.Remaining())
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *Decoder) Decoding() bool { return true }

func (d *Decoder) U8(v *uint8) {
	if b := d.next(1); b != nil {
		*v = b[0]
	}
}

func (d *Decoder) U16(v *uint16) {
	if b := d.next(2); b != nil {
		*v = binary.BigEndian.Uint16(b)
	}
}

func (d *Decoder) U32(v *uint32) {
	if b := d.next(4); b != nil {
		*v = binary.BigEndian.Uint32(b)
	}
}

func (d *Decoder) U64(v *uint64) {
	if b := d.next(8); b != nil {
		*v = binary.BigEndian.Uint64(b)
	}
}

func (d *Decoder) Bool(v *bool) {
	var b uint8
	d.U8(&b)
	switch b {
	case 0:
		*v = false
	case 1:
		*v = true
	default:
		d.Fail(errors.Errorf("invalid boolean byte %d", b))
	}
}

func (d *Decoder) Bytes(b *[]byte, n int) {
	if raw := d.next(n); raw != nil {
		*b = append([]byte(nil), raw...)
	}
}

func (d *Decoder) Len(width int, n *int) {
	checkWidth(width)
	raw := d.next(width)
	if raw == nil {
		return
	}
	var tmp [8]byte
	copy(tmp[8-width:], raw)
	v := binary.BigEndian.Uint64(tmp[:])
	if v > maxLen || v > math.MaxInt32 {
		d.Fail(errors.Errorf("length %d exceeds limit", v))
		return
	}
	*n = int(v)
}

func (d *Decoder) String(width int, s *string) {
	var n int
	d.Len(width, &n)
	if raw := d.next(n); raw != nil {
		*s = string(raw)
	}
}

func (d *Decoder) Element(g group.Group, e *group.Element) {
	raw := d.next(g.ElementLen())
	if raw == nil {
		return
	}
	el := g.Element()
	if err := el.UnmarshalBinary(raw); err != nil {
		d.Fail(err)
		return
	}
	*e = el
}

// scalarBound is the BLS12-381 group order. Scalars of the other groups are
// smaller, so one bound keeps every scalar encoding canonical.
var scalarBound = group.BLS12381G1().N()

func (d *Decoder) Scalar(s **big.Int) {
	raw := d.next(ScalarLen)
	if raw == nil {
		return
	}
	v := new(big.Int).SetBytes(raw)
	if v.Cmp(scalarBound) >= 0 {
		d.Fail(errors.New("scalar is not reduced"))
		return
	}
	*s = v
}

func (d *Decoder) Value(c Composer) {
	if d.err != nil {
		return
	}
	c.Compose(d)
}
