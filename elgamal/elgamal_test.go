package elgamal

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
)

var testGroups = []group.Group{group.BLS12381G1(), group.Ristretto255()}

func TestEncryptDecrypt(t *testing.T) {
	for _, GP := range testGroups {
		t.Run(GP.Name(), func(t *testing.T) {
			sk, err := GenerateSecretKey(GP.Generator(), rand.Reader)
			require.NoError(t, err)
			pk := sk.PublicKey()

			m := big.NewInt(31337)
			c, k, err := pk.EncryptExponent(m, rand.Reader)
			require.NoError(t, err)
			assert.True(t, GP.Element().BaseScale(k).IsEqual(c.C1))
			assert.True(t, sk.Decrypt(c).IsEqual(GP.Element().BaseScale(m)))

			M, err := GP.Element().MapToGroup("message")
			require.NoError(t, err)
			c, _, err = pk.Encrypt(M, rand.Reader)
			require.NoError(t, err)
			assert.True(t, sk.Decrypt(c).IsEqual(M))

			other, err := GenerateSecretKey(GP.Generator(), rand.Reader)
			require.NoError(t, err)
			assert.False(t, other.Decrypt(c).IsEqual(M))
		})
	}
}

func TestFixedRandomness(t *testing.T) {
	GP := group.BLS12381G1()
	sk, err := GenerateSecretKey(GP.Generator(), rand.Reader)
	require.NoError(t, err)

	c := sk.PublicKey().EncryptExponentWithRandomness(big.NewInt(9), big.NewInt(0))
	assert.True(t, c.C1.IsIdentity())
	assert.True(t, c.C2.IsEqual(GP.Element().BaseScale(big.NewInt(9))))
	assert.True(t, c.IsEqual(sk.PublicKey().EncryptExponentWithRandomness(big.NewInt(9), big.NewInt(0))))
}

func TestHomomorphism(t *testing.T) {
	for _, GP := range testGroups {
		t.Run(GP.Name(), func(t *testing.T) {
			table := NewBabyStepGiantStep(GP.Generator(), 64)
			sk, err := GenerateSecretKey(GP.Generator(), rand.Reader)
			require.NoError(t, err)
			pk := sk.PublicKey()

			a, _, err := pk.EncryptExponent(big.NewInt(100), rand.Reader)
			require.NoError(t, err)
			b, _, err := pk.EncryptExponent(big.NewInt(50), rand.Reader)
			require.NoError(t, err)
			ab, _, err := pk.EncryptExponent(big.NewInt(150), rand.Reader)
			require.NoError(t, err)

			assert.Equal(t, uint64(150), sk.DecryptExponent(a.Combine(b), table))
			assert.Equal(t, sk.DecryptExponent(ab, table), sk.DecryptExponent(a.Combine(b), table))
			assert.Equal(t, uint64(300), sk.DecryptExponent(a.Scale(big.NewInt(3)), table))
		})
	}
}

func TestDiscreteLog(t *testing.T) {
	for _, GP := range testGroups {
		t.Run(GP.Name(), func(t *testing.T) {
			table := NewBabyStepGiantStep(GP.Generator(), 32)
			assert.Equal(t, uint64(32), table.Size())

			for _, x := range []uint64{0, 1, 31, 32, 33, 1023, 1024, 5000} {
				v := GP.Element().BaseScale(new(big.Int).SetUint64(x))
				assert.Equal(t, x, table.DiscreteLog(v), "x = %d", x)
			}
		})
	}
}

func TestTableArtifact(t *testing.T) {
	for _, GP := range testGroups {
		t.Run(GP.Name(), func(t *testing.T) {
			table := NewBabyStepGiantStep(GP.Generator(), 16)

			var buf bytes.Buffer
			n, err := table.WriteTo(&buf)
			require.NoError(t, err)
			assert.Equal(t, int64(2*GP.ElementLen()+8+16*GP.ElementLen()), n)

			loaded, err := ReadBabyStepGiantStep(bytes.NewReader(buf.Bytes()), GP)
			require.NoError(t, err)
			assert.True(t, table.Base().IsEqual(loaded.Base()))
			assert.Equal(t, table.table, loaded.table)
			assert.Equal(t, uint64(777), loaded.DiscreteLog(GP.Element().BaseScale(big.NewInt(777))))

			_, err = ReadBabyStepGiantStep(bytes.NewReader(buf.Bytes()[:buf.Len()-1]), GP)
			assert.Error(t, err)

			// A tampered giant step is rejected.
			tampered := append([]byte{}, buf.Bytes()...)
			other, _ := GP.Generator().MarshalBinary()
			copy(tampered[GP.ElementLen()+8:], other)
			_, err = ReadBabyStepGiantStep(bytes.NewReader(tampered), GP)
			assert.Error(t, err)
		})
	}
}

func TestCipherEncoding(t *testing.T) {
	GP := group.BLS12381G1()
	sk, err := GenerateSecretKey(GP.Generator(), rand.Reader)
	require.NoError(t, err)
	c, _, err := sk.PublicKey().EncryptExponent(big.NewInt(5), rand.Reader)
	require.NoError(t, err)

	b := serial.Encode(c)
	assert.Len(t, b, 96)

	var got Cipher
	require.NoError(t, serial.Decode(b, &got))
	assert.True(t, c.IsEqual(&got))

	var key SecretKey
	require.NoError(t, serial.Decode(serial.Encode(sk), &key))
	assert.Zero(t, sk.Scalar.Cmp(key.Scalar))
	assert.True(t, key.PublicKey().Key.IsEqual(sk.PublicKey().Key))
}
