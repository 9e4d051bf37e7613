package transaction

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/account"
	"github.com/takakv/msc-wallet/serial"
)

// TransactionSignature maps credential indices to the signatures of that
// credential's keys. Both encodings list indices in ascending order.
type TransactionSignature map[account.CredentialIndex]map[account.KeyIndex][]byte

// Sign signs hash with every key in keys. Thresholds are not enforced.
func Sign(keys *account.AccountKeys, hash [32]byte) TransactionSignature {
	sigs := make(TransactionSignature, len(keys.Keys))
	for ci, ck := range keys.Keys {
		credSigs := make(map[account.KeyIndex][]byte, len(ck.Keys))
		for ki, kp := range ck.Keys {
			credSigs[ki] = kp.Sign(hash[:])
		}
		sigs[ci] = credSigs
	}
	return sigs
}

// Verify reports whether every signature in ts is valid for hash under the
// matching key in keys.
func (ts TransactionSignature) Verify(keys map[account.CredentialIndex]*account.CredentialPublicKeys, hash [32]byte) bool {
	for ci, credSigs := range ts {
		ck, ok := keys[ci]
		if !ok {
			return false
		}
		for ki, sig := range credSigs {
			pub, ok := ck.Keys[ki]
			if !ok || !ed25519.Verify(pub, hash[:], sig) {
				return false
			}
		}
	}
	return true
}

func sortedIndices[K ~uint8, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (ts *TransactionSignature) Compose(v serial.Visitor) {
	creds := sortedIndices(*ts)
	n := len(creds)
	v.Len(1, &n)
	if v.Decoding() {
		*ts = make(TransactionSignature, n)
		creds = make([]account.CredentialIndex, n)
	}
	for i := 0; i < n; i++ {
		ci := uint8(creds[i])
		v.U8(&ci)
		credSigs := (*ts)[account.CredentialIndex(ci)]
		keys := sortedIndices(credSigs)
		m := len(keys)
		v.Len(1, &m)
		if v.Decoding() {
			credSigs = make(map[account.KeyIndex][]byte, m)
			keys = make([]account.KeyIndex, m)
		}
		for j := 0; j < m; j++ {
			ki := uint8(keys[j])
			v.U8(&ki)
			sig := credSigs[account.KeyIndex(ki)]
			l := len(sig)
			v.Len(2, &l)
			v.Bytes(&sig, l)
			if v.Decoding() {
				keys[j] = account.KeyIndex(ki)
				credSigs[account.KeyIndex(ki)] = sig
			}
		}
		if v.Decoding() {
			creds[i] = account.CredentialIndex(ci)
			(*ts)[account.CredentialIndex(ci)] = credSigs
		}
	}
}

// MarshalJSON writes {"<cred>": {"<key>": "<hex signature>"}} with numeric
// keys in ascending order.
func (ts TransactionSignature) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ci := range sortedIndices(ts) {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(int(ci))))
		buf.WriteString(":{")
		credSigs := ts[ci]
		for j, ki := range sortedIndices(credSigs) {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Quote(strconv.Itoa(int(ki))))
			buf.WriteByte(':')
			buf.WriteString(strconv.Quote(hex.EncodeToString(credSigs[ki])))
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (ts *TransactionSignature) UnmarshalJSON(data []byte) error {
	var raw map[account.CredentialIndex]map[account.KeyIndex]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(TransactionSignature, len(raw))
	for ci, credSigs := range raw {
		out[ci] = make(map[account.KeyIndex][]byte, len(credSigs))
		for ki, s := range credSigs {
			sig, err := hex.DecodeString(s)
			if err != nil {
				return errors.Wrapf(err, "signature %d/%d", ci, ki)
			}
			out[ci][ki] = sig
		}
	}
	*ts = out
	return nil
}
