package account

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/serial"
)

type (
	KeyIndex           uint8
	CredentialIndex    uint8
	SignatureThreshold uint8
)

// KeyPair is an ed25519 account key.
type KeyPair struct {
	Public ed25519.PublicKey
	Secret ed25519.PrivateKey
}

// GenerateKeyPair creates a fresh key pair.
func GenerateKeyPair(rng io.Reader) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rng)
	if err != nil {
		return nil, errors.Wrap(err, "generating account key")
	}
	return &KeyPair{Public: pub, Secret: priv}, nil
}

// Sign signs msg.
func (kp *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(kp.Secret, msg)
}

type keyPairJSON struct {
	SignKey   string `json:"signKey"`
	VerifyKey string `json:"verifyKey"`
}

func (kp *KeyPair) MarshalJSON() ([]byte, error) {
	return json.Marshal(keyPairJSON{
		SignKey:   hex.EncodeToString(kp.Secret.Seed()),
		VerifyKey: hex.EncodeToString(kp.Public),
	})
}

func (kp *KeyPair) UnmarshalJSON(data []byte) error {
	var tmp keyPairJSON
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	seed, err := hex.DecodeString(tmp.SignKey)
	if err != nil || len(seed) != ed25519.SeedSize {
		return errors.New("invalid sign key")
	}
	pub, err := hex.DecodeString(tmp.VerifyKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return errors.New("invalid verify key")
	}
	priv := ed25519.NewKeyFromSeed(seed)
	if !priv.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(pub)) {
		return errors.New("sign key does not match verify key")
	}
	kp.Secret = priv
	kp.Public = pub
	return nil
}

// CredentialKeys are the keys of one credential on an account.
type CredentialKeys struct {
	Keys      map[KeyIndex]*KeyPair `json:"keys"`
	Threshold SignatureThreshold   `json:"threshold"`
}

// NewCredentialKeys generates a single-key credential with threshold 1.
func NewCredentialKeys(rng io.Reader) (*CredentialKeys, error) {
	kp, err := GenerateKeyPair(rng)
	if err != nil {
		return nil, err
	}
	return &CredentialKeys{Keys: map[KeyIndex]*KeyPair{0: kp}, Threshold: 1}, nil
}

// PublicKeys returns the verification half of the credential keys.
func (ck *CredentialKeys) PublicKeys() *CredentialPublicKeys {
	pub := &CredentialPublicKeys{Keys: make(map[KeyIndex]ed25519.PublicKey, len(ck.Keys)), Threshold: ck.Threshold}
	for i, kp := range ck.Keys {
		pub.Keys[i] = kp.Public
	}
	return pub
}

// SortedIndices returns the key indices in ascending order.
func (ck *CredentialKeys) SortedIndices() []KeyIndex {
	return sortedKeys(ck.Keys)
}

// Validate checks that the credential holds at least one key and no empty
// entries.
func (ck *CredentialKeys) Validate() error {
	if len(ck.Keys) == 0 {
		return errors.New("credential has no keys")
	}
	for i, kp := range ck.Keys {
		if kp == nil || len(kp.Secret) != ed25519.PrivateKeySize {
			return errors.Errorf("missing key %d", i)
		}
	}
	return nil
}

func (ck *CredentialKeys) UnmarshalJSON(data []byte) error {
	type plain CredentialKeys
	var tmp plain
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if err := (*CredentialKeys)(&tmp).Validate(); err != nil {
		return err
	}
	*ck = CredentialKeys(tmp)
	return nil
}

// AccountKeys are all keys controlling an account.
type AccountKeys struct {
	Keys      map[CredentialIndex]*CredentialKeys `json:"keys"`
	Threshold uint8                               `json:"threshold"`
}

// NewAccountKeys returns keys for an account with a single credential.
func NewAccountKeys(ck *CredentialKeys) *AccountKeys {
	return &AccountKeys{Keys: map[CredentialIndex]*CredentialKeys{0: ck}, Threshold: 1}
}

// SortedIndices returns the credential indices in ascending order.
func (ak *AccountKeys) SortedIndices() []CredentialIndex {
	return sortedKeys(ak.Keys)
}

// Validate checks every credential of the account.
func (ak *AccountKeys) Validate() error {
	if len(ak.Keys) == 0 {
		return errors.New("account has no credentials")
	}
	for i, ck := range ak.Keys {
		if ck == nil {
			return errors.Errorf("missing credential %d", i)
		}
		if err := ck.Validate(); err != nil {
			return errors.Wrapf(err, "credential %d", i)
		}
	}
	return nil
}

func (ak *AccountKeys) UnmarshalJSON(data []byte) error {
	type plain AccountKeys
	var tmp plain
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if err := (*AccountKeys)(&tmp).Validate(); err != nil {
		return err
	}
	*ak = AccountKeys(tmp)
	return nil
}

// CredentialPublicKeys are the verification keys recorded on chain for a
// credential.
type CredentialPublicKeys struct {
	Keys      map[KeyIndex]ed25519.PublicKey
	Threshold SignatureThreshold
}

// Compose encodes the keys in ascending index order.
func (cp *CredentialPublicKeys) Compose(v serial.Visitor) {
	idx := sortedKeys(cp.Keys)
	n := len(idx)
	v.Len(1, &n)
	if v.Decoding() {
		cp.Keys = make(map[KeyIndex]ed25519.PublicKey, n)
		idx = make([]KeyIndex, n)
	}
	for i := 0; i < n; i++ {
		k := uint8(idx[i])
		v.U8(&k)
		key := []byte(cp.Keys[KeyIndex(k)])
		v.Bytes(&key, ed25519.PublicKeySize)
		if v.Decoding() {
			if i > 0 && KeyIndex(k) <= idx[i-1] {
				v.Fail(errors.New("key indices not strictly increasing"))
				return
			}
			idx[i] = KeyIndex(k)
			cp.Keys[KeyIndex(k)] = key
		}
	}
	t := uint8(cp.Threshold)
	v.U8(&t)
	cp.Threshold = SignatureThreshold(t)
	if v.Decoding() && (t == 0 || int(t) > n) {
		v.Fail(errors.Errorf("threshold %d out of range for %d keys", t, n))
	}
}

func (cp *CredentialPublicKeys) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(cp)
}

func (cp *CredentialPublicKeys) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, cp)
}

func sortedKeys[K ~uint8, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
