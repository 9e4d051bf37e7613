package elgamal

import (
	"bufio"
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
)

// DefaultTableSize is the number of baby steps used by wallets unless
// configured otherwise. With 32-bit amount chunks it bounds decryption to
// 2^16 giant steps.
const DefaultTableSize = 1 << 16

// BabyStepGiantStep recovers small discrete logarithms to a fixed base. It
// maps the encoding of j.base to j for j in [0, m) and keeps -m.base for the
// giant steps. A table is never modified after construction and may be shared
// between goroutines.
type BabyStepGiantStep struct {
	base    group.Element
	m       uint64
	inverse group.Element
	table   map[string]uint64
}

func key(e group.Element) string {
	b, err := e.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return string(b)
}

// NewBabyStepGiantStep builds a table with m baby steps.
func NewBabyStepGiantStep(base group.Element, m uint64) *BabyStepGiantStep {
	if m == 0 {
		panic("elgamal: table size must be positive")
	}
	GP := base.Group()
	bsgs := &BabyStepGiantStep{
		base:  GP.Element().Set(base),
		m:     m,
		table: make(map[string]uint64, m),
	}
	cur := GP.Identity()
	for j := uint64(0); j < m; j++ {
		bsgs.table[key(cur)] = j
		cur.Add(cur, base)
	}
	// cur = m.base
	bsgs.inverse = GP.Element().Negate(cur)
	return bsgs
}

// Base returns the table's base element.
func (bsgs *BabyStepGiantStep) Base() group.Element {
	return bsgs.base
}

// Size returns the number of baby steps.
func (bsgs *BabyStepGiantStep) Size() uint64 {
	return bsgs.m
}

// DiscreteLog returns x such that x.base == v, searching x = i.m + j for
// i = 0, 1, ... until the baby step j is found. The search is not bounded: if
// x does not fit the practical range it runs for as long as it takes, and if
// x does not fit in 64 bits the result is meaningless.
func (bsgs *BabyStepGiantStep) DiscreteLog(v group.Element) uint64 {
	cur := v.Group().Element().Set(v)
	for i := uint64(0); ; i++ {
		if j, ok := bsgs.table[key(cur)]; ok {
			return i*bsgs.m + j
		}
		cur.Add(cur, bsgs.inverse)
	}
}

// Compose lays the table out as base, m, -m.base and then the baby steps in
// order, each as a raw compressed element. Loading an artifact therefore
// needs no group arithmetic beyond the header.
func (bsgs *BabyStepGiantStep) Compose(v serial.Visitor) {
	GP := groupOf(bsgs.base)
	v.Element(GP, &bsgs.base)
	v.U64(&bsgs.m)
	v.Element(GP, &bsgs.inverse)
	if v.Decoding() {
		if bsgs.m == 0 || bsgs.m > 1<<28 {
			v.Fail(errors.Errorf("invalid table size %d", bsgs.m))
			return
		}
		bsgs.table = make(map[string]uint64, bsgs.m)
		var step []byte
		for j := uint64(0); j < bsgs.m; j++ {
			v.Bytes(&step, GP.ElementLen())
			bsgs.table[string(step)] = j
		}
		return
	}
	steps := make([]string, bsgs.m)
	for k, j := range bsgs.table {
		steps[j] = k
	}
	for _, s := range steps {
		step := []byte(s)
		v.Bytes(&step, GP.ElementLen())
	}
}

// WriteTo writes the table artifact to w.
func (bsgs *BabyStepGiantStep) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(serial.Encode(bsgs))
	return int64(n), err
}

// ReadBabyStepGiantStep loads a table artifact written by WriteTo. The header
// is checked for consistency; baby steps are trusted as written.
func ReadBabyStepGiantStep(r io.Reader, GP group.Group) (*BabyStepGiantStep, error) {
	b, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, errors.Wrap(err, "reading table artifact")
	}
	bsgs := &BabyStepGiantStep{base: GP.Element()}
	if err := serial.Decode(b, bsgs); err != nil {
		return nil, errors.Wrap(err, "decoding table artifact")
	}
	if uint64(len(bsgs.table)) != bsgs.m {
		return nil, errors.New("table artifact has duplicate baby steps")
	}
	// -m.base + m.base must vanish.
	mBase := GP.Element().Scale(bsgs.base, new(big.Int).SetUint64(bsgs.m))
	if !mBase.Add(mBase, bsgs.inverse).IsIdentity() {
		return nil, errors.New("table artifact has inconsistent giant step")
	}
	return bsgs, nil
}
