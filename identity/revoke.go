package identity

import (
	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/secretsharing"
)

// DecryptShare is run by anonymity revoker id. It returns the revoker's share
// of the idCredPub behind cdi.
func DecryptShare(sk *elgamal.SecretKey, cdi *CredentialDeploymentInfo, id ArIdentity) (group.Element, error) {
	d, ok := cdi.Values.ArData[id]
	if !ok || d == nil || d.EncIdCredPubShare == nil {
		return nil, errors.Wrapf(ErrMalformed, "credential has no data for revoker %d", id)
	}
	return sk.Decrypt(d.EncIdCredPubShare), nil
}

// RevealIdCredPub combines decrypted shares from at least threshold revokers
// into the idCredPub of the credential's owner, which identifies the
// identity object it was created from.
func RevealIdCredPub(cdi *CredentialDeploymentInfo, shares map[ArIdentity]group.Element) (group.Element, error) {
	if len(shares) < int(cdi.Values.Threshold) {
		return nil, errors.Wrapf(ErrNotEnoughShares, "%d of %d", len(shares), cdi.Values.Threshold)
	}
	byNumber := make(map[uint32]group.Element, len(shares))
	for id, share := range shares {
		if _, ok := cdi.Values.ArData[id]; !ok {
			return nil, errors.Wrapf(ErrMalformed, "revoker %d holds no share", id)
		}
		byNumber[uint32(id)] = share
	}
	return secretsharing.RevealInExponent(byNumber)
}
