package sigma

import (
	"crypto/sha256"
	"encoding"
	"encoding/binary"
	"hash"
	"io"
	"math/big"

	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
	"golang.org/x/crypto/hkdf"
)

// RandomOracle is a Fiat-Shamir transcript. Every message appended to it is
// length-prefixed, so distinct message sequences never collide.
type RandomOracle struct {
	h hash.Hash
}

// NewRandomOracle returns a transcript bound to domain.
func NewRandomOracle(domain string) *RandomOracle {
	ro := &RandomOracle{h: sha256.New()}
	ro.AppendString("domain", domain)
	return ro
}

// Split returns an independent copy of the transcript.
func (ro *RandomOracle) Split() *RandomOracle {
	state, err := ro.h.(encoding.BinaryMarshaler).MarshalBinary()
	if err != nil {
		panic(err)
	}
	h := sha256.New()
	if err := h.(encoding.BinaryUnmarshaler).UnmarshalBinary(state); err != nil {
		panic(err)
	}
	return &RandomOracle{h: h}
}

func (ro *RandomOracle) write(label string, b []byte) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(len(label)))
	ro.h.Write(tmp[:])
	ro.h.Write([]byte(label))
	binary.BigEndian.PutUint64(tmp[:], uint64(len(b)))
	ro.h.Write(tmp[:])
	ro.h.Write(b)
}

// AppendBytes adds raw bytes to the transcript.
func (ro *RandomOracle) AppendBytes(label string, b []byte) {
	ro.write(label, b)
}

// AppendString adds a string to the transcript.
func (ro *RandomOracle) AppendString(label, s string) {
	ro.write(label, []byte(s))
}

// AppendUint64 adds an integer to the transcript.
func (ro *RandomOracle) AppendUint64(label string, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	ro.write(label, tmp[:])
}

// AppendElements adds group elements, in their compressed encoding.
func (ro *RandomOracle) AppendElements(label string, es ...group.Element) {
	for _, e := range es {
		b, err := e.MarshalBinary()
		if err != nil {
			panic(err)
		}
		ro.write(label, b)
	}
}

// AppendScalar adds a scalar in its canonical encoding.
func (ro *RandomOracle) AppendScalar(label string, s *big.Int) {
	var tmp [serial.ScalarLen]byte
	s.FillBytes(tmp[:])
	ro.write(label, tmp[:])
}

// Append adds the canonical encoding of c.
func (ro *RandomOracle) Append(label string, c serial.Composer) {
	ro.write(label, serial.Encode(c))
}

// Challenge derives a scalar modulo n from the current transcript state and
// appends it, so successive challenges differ. 64 bytes of HKDF output are
// reduced to keep the bias negligible.
func (ro *RandomOracle) Challenge(label string, n *big.Int) *big.Int {
	state := ro.h.Sum(nil)
	r := hkdf.Expand(sha256.New, state, []byte(label))
	buf := make([]byte, 64)
	if _, err := io.ReadFull(r, buf); err != nil {
		panic(err)
	}
	c := new(big.Int).SetBytes(buf)
	c.Mod(c, n)
	ro.AppendScalar(label, c)
	return c
}

// NonZeroChallenge is like Challenge but never returns zero.
func (ro *RandomOracle) NonZeroChallenge(label string, n *big.Int) *big.Int {
	for {
		c := ro.Challenge(label, n)
		if c.Sign() != 0 {
			return c
		}
	}
}
