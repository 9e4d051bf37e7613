package identity

import (
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/sigma"
)

// VerifyCredential performs the checks the chain runs before deploying cdi
// onto target: the identity provider's signature on the hidden and revealed
// messages, the sharing of the credential secret, the account number bound
// and the signatures of the credential keys.
func VerifyCredential(ctx *Context, cdi *CredentialDeploymentInfo, target AccountTarget) error {
	if err := ctx.validate(); err != nil {
		return err
	}
	values, proofs := &cdi.Values, &cdi.Proofs
	if values.IpIdentity != ctx.IpInfo.IpIdentity {
		return errors.Wrapf(ErrMalformed, "credential from identity provider %d", values.IpIdentity)
	}
	keys := values.CredentialPublicKeys
	if keys == nil || len(keys.Keys) == 0 {
		return errors.Wrap(ErrMalformed, "credential has no keys")
	}
	if proofs.Sig == nil || proofs.Proof == nil || proofs.AccountNumberProof == nil || proofs.AccountLimitProof == nil {
		return errors.Wrap(ErrMalformed, "incomplete proofs")
	}
	st, _, err := credentialStatement(ctx, cdi)
	if err != nil {
		return err
	}

	GP := ctx.Global.Group()
	n := GP.N()
	msgs := publicMessages(values, n)
	if !ctx.IpInfo.VerifyKey.VerifyCommitted(proofs.Sig, proofs.SigCommitment, msgs) {
		return ErrInvalidSignature
	}

	ro := credentialTranscript(ctx, cdi, target)
	if !sigma.Verify(ro, st, proofs.Proof) {
		return errors.Wrap(ErrInvalidProof, "credential")
	}
	ck := ctx.Global.OnChainCommitmentKey
	gens := ctx.Global.BulletproofGenerators
	if !proofs.AccountNumberProof.Verify(ro, gens, accountNumberBits, proofs.CmmAccountNumber, ck.G, ck.H) {
		return errors.Wrap(ErrInvalidProof, "account number")
	}
	if !proofs.AccountLimitProof.Verify(ro, gens, accountNumberBits, accountLimitCommitment(ck, proofs), ck.G, ck.H) {
		return errors.Wrap(ErrInvalidProof, "account limit")
	}

	msg := ownershipMessage(ro, n)
	if len(proofs.AccountOwnership) != len(keys.Keys) {
		return errors.Wrap(ErrInvalidSignature, "account ownership")
	}
	for idx, pub := range keys.Keys {
		sig, ok := proofs.AccountOwnership[idx]
		if !ok || !ed25519.Verify(pub, msg, sig) {
			return errors.Wrapf(ErrInvalidSignature, "account ownership, key %d", idx)
		}
	}
	return nil
}
