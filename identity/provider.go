package identity

import (
	"io"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/pssig"
	"github.com/takakv/msc-wallet/sigma"
)

// VerifyPreIdentityObject checks an identity request against the identity
// provider and revokers in ctx.
func VerifyPreIdentityObject(ctx *Context, pio *PreIdentityObject) error {
	if err := ctx.validate(); err != nil {
		return err
	}
	if pio == nil {
		return errors.Wrap(ErrMalformed, "missing identity request")
	}
	keys := pio.PubInfoForIp.VerifyKeys
	if keys == nil || len(keys.Keys) == 0 || keys.Threshold == 0 || int(keys.Threshold) > len(keys.Keys) {
		return errors.Wrap(ErrMalformed, "initial account keys")
	}
	st, err := pioStatement(ctx, pio)
	if err != nil {
		return err
	}
	if !sigma.Verify(pioTranscript(ctx, pio), st, pio.Proof) {
		return errors.Wrap(ErrInvalidProof, "identity request")
	}
	return nil
}

// SignPreIdentityObject is run by the identity provider once it has checked
// the holder's real-world identity: it verifies the request and signs it
// together with alist.
func SignPreIdentityObject(ctx *Context, sk *pssig.SecretKey, pio *PreIdentityObject, alist *AttributeList,
	rng io.Reader) (*IdentityObject, error) {
	if err := VerifyPreIdentityObject(ctx, pio); err != nil {
		return nil, err
	}
	if err := alist.validate(); err != nil {
		return nil, err
	}
	if alist.MaxAccounts == 0 {
		return nil, errors.Wrap(ErrMalformed, "identity must allow at least one account")
	}
	msgs := signedMessages(nil, nil, &pio.ChoiceArData, alist, ctx.Global.Group().N())
	sig, err := sk.SignBlinded(pio.BlindedMessage, msgs, rng)
	if err != nil {
		return nil, errors.Wrap(err, "signing identity object")
	}
	return &IdentityObject{
		PreIdentityObject: pio,
		AttributeList:     alist,
		Signature:         sig,
	}, nil
}
