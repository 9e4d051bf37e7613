package account

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
)

func TestAddress(t *testing.T) {
	regId := group.BLS12381G1().Generator()
	a := AddressFromRegId(regId)
	b, _ := regId.MarshalBinary()
	assert.Equal(t, Address(sha256.Sum256(b)), a)

	parsed, err := ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	js, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"`+a.String()+`"`, string(js))
	var fromJSON Address
	require.NoError(t, json.Unmarshal(js, &fromJSON))
	assert.Equal(t, a, fromJSON)
}

func TestParseAddressErrors(t *testing.T) {
	a := AddressFromRegId(group.BLS12381G1().Generator())
	s := a.String()

	tests := map[string]string{
		"empty":    "",
		"checksum": s[:len(s)-1] + string("123456789"[(int(s[len(s)-1])+1)%9]),
		"garbage":  "0OIl",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAddress(in)
			assert.Equal(t, ErrInvalidAddress, errors.Cause(err))
		})
	}
}

func TestKeyPairJSON(t *testing.T) {
	kp, err := GenerateKeyPair(rand.Reader)
	require.NoError(t, err)

	js, err := json.Marshal(kp)
	require.NoError(t, err)
	var got KeyPair
	require.NoError(t, json.Unmarshal(js, &got))
	assert.True(t, ed25519.Verify(kp.Public, []byte("m"), got.Sign([]byte("m"))))

	other, err := GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	mixed := []byte(`{"signKey":"` + hexSeed(other) + `","verifyKey":"` + hexPub(kp) + `"}`)
	assert.Error(t, json.Unmarshal(mixed, &got))
}

func TestCredentialPublicKeys(t *testing.T) {
	ck := &CredentialKeys{Keys: map[KeyIndex]*KeyPair{}, Threshold: 2}
	for _, i := range []KeyIndex{7, 0, 2} {
		kp, err := GenerateKeyPair(rand.Reader)
		require.NoError(t, err)
		ck.Keys[i] = kp
	}
	assert.Equal(t, []KeyIndex{0, 2, 7}, ck.SortedIndices())

	pub := ck.PublicKeys()
	b := serial.Encode(pub)
	require.Len(t, b, 1+3*(1+32)+1)
	assert.Equal(t, []byte{0}, b[1:2])
	assert.Equal(t, []byte{2}, b[34:35])
	assert.Equal(t, []byte{7}, b[67:68])

	var got CredentialPublicKeys
	require.NoError(t, serial.Decode(b, &got))
	assert.Equal(t, pub.Keys, got.Keys)
	assert.Equal(t, SignatureThreshold(2), got.Threshold)

	// Out of order indices are rejected.
	bad := append([]byte{}, b...)
	bad[34] = 0
	assert.Error(t, serial.Decode(bad, &got))

	// So is a threshold above the number of keys.
	bad = append([]byte{}, b...)
	bad[len(bad)-1] = 4
	assert.Error(t, serial.Decode(bad, &got))
}

func hexSeed(kp *KeyPair) string {
	return hex.EncodeToString(kp.Secret.Seed())
}

func hexPub(kp *KeyPair) string {
	return hex.EncodeToString(kp.Public)
}

func TestAccountKeysJSON(t *testing.T) {
	ck, err := NewCredentialKeys(rand.Reader)
	require.NoError(t, err)
	keys := NewAccountKeys(ck)
	js, err := json.Marshal(keys)
	require.NoError(t, err)

	var got AccountKeys
	require.NoError(t, json.Unmarshal(js, &got))
	assert.Equal(t, keys.Keys[0].Keys[0].Public, got.Keys[0].Keys[0].Public)
	require.NoError(t, got.Validate())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"null key", `{"keys":{"0":{"keys":{"0":null},"threshold":1}},"threshold":1}`, "missing key 0"},
		{"null credential", `{"keys":{"3":null},"threshold":1}`, "missing credential 3"},
		{"no credentials", `{"keys":{},"threshold":1}`, "account has no credentials"},
		{"no keys", `{"keys":{"0":{"keys":null,"threshold":1}},"threshold":1}`, "credential has no keys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ak AccountKeys
			assert.ErrorContains(t, json.Unmarshal([]byte(tt.in), &ak), tt.want)
		})
	}

	t.Run("typed", func(t *testing.T) {
		ak := &AccountKeys{Keys: map[CredentialIndex]*CredentialKeys{0: {Keys: map[KeyIndex]*KeyPair{1: nil}}}}
		assert.ErrorContains(t, ak.Validate(), "credential 0: missing key 1")
	})
}
