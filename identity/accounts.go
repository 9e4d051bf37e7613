package identity

import (
	"github.com/takakv/msc-wallet/account"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/params"
	"github.com/takakv/msc-wallet/prf"
)

// AccountData describes the account created by the credential with a given
// account number.
type AccountData struct {
	AccountNumber uint8
	RegId         group.Element
	Address       account.Address
	// EncryptionSecretKey decrypts the account's shielded balance. Its public
	// half is RegId.
	EncryptionSecretKey *elgamal.SecretKey
}

// EncryptionPublicKey returns the public half of the shielded balance key.
func (ad *AccountData) EncryptionPublicKey() *elgamal.PublicKey {
	return ad.EncryptionSecretKey.PublicKey()
}

// EncryptionKey derives the shielded balance key of account x: the PRF
// exponent 1/(k+x), relative to the global ElGamal generator.
func EncryptionKey(global *params.GlobalContext, key *prf.SecretKey, x uint8) (*elgamal.SecretKey, error) {
	g := global.ElGamalGenerator()
	e, err := key.Exponent(g.GroupOrder(), x)
	if err != nil {
		return nil, err
	}
	return &elgamal.SecretKey{Generator: g, Scalar: e}, nil
}

// AccountIterator walks the accounts an identity object can create, in
// ascending account number order. It is not safe for concurrent use.
type AccountIterator struct {
	global *params.GlobalContext
	key    *prf.SecretKey
	start  int
	next   int
	max    int
}

// EnumerateAccounts returns an iterator over account numbers start up to the
// identity's maximum. Nothing is computed until Next is called.
func EnumerateAccounts(global *params.GlobalContext, idObj *IdentityObject, private *PrivateIdentityData,
	start uint8) *AccountIterator {
	return &AccountIterator{
		global: global,
		key:    private.Aci.PrfKey,
		start:  int(start),
		next:   int(start),
		max:    int(idObj.AttributeList.MaxAccounts),
	}
}

// Next returns the next account, or false once all are exhausted. Account
// numbers at which the PRF is undefined are skipped.
func (it *AccountIterator) Next() (*AccountData, bool) {
	for it.next < it.max {
		x := uint8(it.next)
		it.next++
		sk, err := EncryptionKey(it.global, it.key, x)
		if err != nil {
			// prf.ErrOutOfDomain
			continue
		}
		pk := sk.PublicKey()
		return &AccountData{
			AccountNumber:       x,
			RegId:               pk.Key,
			Address:             account.AddressFromRegId(pk.Key),
			EncryptionSecretKey: sk,
		}, true
	}
	return nil, false
}

// Reset rewinds the iterator to its start.
func (it *AccountIterator) Reset() {
	it.next = it.start
}

// Collect drains the iterator.
func (it *AccountIterator) Collect() []*AccountData {
	var out []*AccountData
	for ad, ok := it.Next(); ok; ad, ok = it.Next() {
		out = append(out, ad)
	}
	return out
}
