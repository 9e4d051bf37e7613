// Package account holds account addresses and the signing keys that control
// an account.
package account

import (
	"crypto/sha256"

	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
)

// AddressLen is the length of an account address in bytes.
const AddressLen = 32

// addressVersion is the base58check version byte of account addresses.
const addressVersion = 1

// ErrInvalidAddress is returned for malformed address strings.
var ErrInvalidAddress = errors.New("invalid account address")

// Address identifies an account on chain.
type Address [AddressLen]byte

// AddressFromRegId derives the address of the account created by the
// credential with registration id regId.
func AddressFromRegId(regId group.Element) Address {
	b, err := regId.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return sha256.Sum256(b)
}

// ParseAddress decodes the base58check form of an address.
func ParseAddress(s string) (Address, error) {
	var a Address
	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		return a, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	if version != addressVersion {
		return a, errors.Wrapf(ErrInvalidAddress, "version %d", version)
	}
	if len(payload) != AddressLen {
		return a, errors.Wrapf(ErrInvalidAddress, "length %d", len(payload))
	}
	copy(a[:], payload)
	return a, nil
}

// String returns the base58check encoding with version byte 1.
func (a Address) String() string {
	return base58.CheckEncode(a[:], addressVersion)
}

func (a *Address) Compose(v serial.Visitor) {
	b := a[:]
	v.Bytes(&b, AddressLen)
	copy(a[:], b)
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
