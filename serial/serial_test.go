package serial

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takakv/msc-wallet/group"
)

type sample struct {
	tag   uint8
	count uint64
	name  string
	addr  []byte
	point group.Element
	ks    []*big.Int
}

func (s *sample) Compose(v Visitor) {
	v.U8(&s.tag)
	if v.Decoding() && s.tag > 3 {
		v.Fail(errors.Errorf("unknown tag %d", s.tag))
		return
	}
	v.U64(&s.count)
	v.String(2, &s.name)
	v.Bytes(&s.addr, 4)
	v.Element(group.BLS12381G1(), &s.point)
	Scalars(v, 1, &s.ks)
}

func newSample() *sample {
	return &sample{
		tag:   2,
		count: 0x0102030405060708,
		name:  "abc",
		addr:  []byte{9, 9, 9, 9},
		point: group.BLS12381G1().Generator(),
		ks:    []*big.Int{big.NewInt(1), big.NewInt(258)},
	}
}

func TestEncodeLayout(t *testing.T) {
	b := Encode(newSample())

	require.Len(t, b, 1+8+2+3+4+48+1+2*32)
	assert.Equal(t, "02", hex.EncodeToString(b[:1]))
	assert.Equal(t, "0102030405060708", hex.EncodeToString(b[1:9]))
	assert.Equal(t, "0003616263", hex.EncodeToString(b[9:14]))
	assert.Equal(t, byte(2), b[66])
	assert.Equal(t, byte(1), b[98])
	assert.Equal(t, []byte{1, 2}, b[len(b)-2:])
}

func TestDecode(t *testing.T) {
	want := newSample()
	b := Encode(want)

	t.Run("roundtrip", func(t *testing.T) {
		var got sample
		require.NoError(t, Decode(b, &got))
		assert.Equal(t, want.count, got.count)
		assert.Equal(t, want.name, got.name)
		assert.Equal(t, want.addr, got.addr)
		assert.True(t, want.point.IsEqual(got.point))
		require.Len(t, got.ks, 2)
		assert.Equal(t, 0, got.ks[1].Cmp(big.NewInt(258)))
		assert.Equal(t, b, Encode(&got))
	})

	t.Run("trailing", func(t *testing.T) {
		var got sample
		err := Decode(append(append([]byte{}, b...), 0), &got)
		assert.ErrorIs(t, err, ErrTrailingBytes)
	})

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{0, 5, 13, 30, len(b) - 1} {
			var got sample
			err := Decode(b[:n], &got)
			assert.ErrorIs(t, err, ErrShortBuffer, "prefix of %d bytes", n)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		bad := append([]byte{}, b...)
		bad[0] = 7
		var got sample
		assert.ErrorContains(t, Decode(bad, &got), "unknown tag 7")
	})

	t.Run("bad element", func(t *testing.T) {
		bad := append([]byte{}, b...)
		for i := 18; i < 18+48; i++ {
			bad[i] = 0xff
		}
		var got sample
		assert.Error(t, Decode(bad, &got))
	})
}

func TestLenWidths(t *testing.T) {
	for _, w := range []int{1, 2, 4, 8} {
		e := NewEncoder()
		n := 200
		e.Len(w, &n)
		require.Len(t, e.Encoded(), w)

		d := NewDecoder(e.Encoded())
		var got int
		d.Len(w, &got)
		require.NoError(t, d.Err())
		assert.Equal(t, 200, got)
	}

	assert.Panics(t, func() {
		n := 1
		NewEncoder().Len(3, &n)
	})
}

func TestHexJSON(t *testing.T) {
	want := newSample()
	js, err := MarshalHex(want)
	require.NoError(t, err)
	assert.Equal(t, `"`+hex.EncodeToString(Encode(want))+`"`, string(js))

	var got sample
	require.NoError(t, UnmarshalHex(js, &got))
	assert.True(t, want.point.IsEqual(got.point))

	assert.Error(t, UnmarshalHex([]byte(`"zz"`), &got))
}

func TestDecodeScalarRange(t *testing.T) {
	n := group.BLS12381G1().N()
	b := Encode(newSample())
	last := b[len(b)-ScalarLen:]

	tests := []struct {
		name  string
		value *big.Int
		ok    bool
	}{
		{"below order", new(big.Int).Sub(n, big.NewInt(1)), true},
		{"order", n, false},
		{"above order", new(big.Int).Add(n, big.NewInt(258)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.value.FillBytes(last)
			var got sample
			err := Decode(b, &got)
			if tt.ok {
				require.NoError(t, err)
				assert.Zero(t, tt.value.Cmp(got.ks[1]))
			} else {
				assert.ErrorContains(t, err, "scalar is not reduced")
			}
		})
	}
}
