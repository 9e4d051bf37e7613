package identity

import (
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/account"
	"github.com/takakv/msc-wallet/bulletproofs"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/prf"
	"github.com/takakv/msc-wallet/secretsharing"
	"github.com/takakv/msc-wallet/sigma"
)

// IdentityRequest is what an account holder produces when asking for an
// identity. PreIdentityObject goes to the identity provider, the rest stays
// with the holder.
type IdentityRequest struct {
	PreIdentityObject *PreIdentityObject
	PrivateData       *PrivateIdentityData
	// InitialAccount holds the keys of the account the identity provider
	// opens from RegId.
	InitialAccount *account.CredentialKeys
}

// revocationThreshold is the number of revokers needed to reveal an identity
// shared among n of them. It is capped by the one byte threshold encoding.
func revocationThreshold(n int) uint8 {
	switch {
	case n <= 1:
		return 1
	case n > 256:
		return 255
	}
	return uint8(n - 1)
}

// signedMessages is the vector an identity provider signs. The idCredSec and
// prfKey entries are nil when unknown to the caller.
func signedMessages(idCredSec, prfKey *big.Int, choice *ChoiceArData, alist *AttributeList, n *big.Int) []*big.Int {
	msgs := make([]*big.Int, SignedMessages)
	msgs[msgIdCredSec] = idCredSec
	msgs[msgPrfKey] = prfKey
	msgs[msgArChoice] = choice.digest(n)
	msgs[msgCreatedAt] = alist.CreatedAt.scalar()
	msgs[msgValidTo] = alist.ValidTo.scalar()
	msgs[msgMaxAccounts] = big.NewInt(int64(alist.MaxAccounts))
	for i := range AttributeNames {
		tag := AttributeTag(i)
		if value, ok := alist.Alist[tag]; ok {
			msgs[msgAttributes+i] = attributeScalar(tag, value, n)
		} else {
			msgs[msgAttributes+i] = new(big.Int)
		}
	}
	return msgs
}

func fillSharingWitness(w []*big.Int, l sharingLayout, s *secretsharing.Sharing) {
	for j := range s.Values {
		if j > 0 {
			w[l.coeff(j)] = s.Values[j]
		}
		w[l.rand(j)] = s.Randomness[j]
	}
}

// CreateIdentityRequest samples fresh identity secrets and builds the request
// for the identity provider in ctx. Every revoker in ctx is selected, with
// threshold max(1, n-1).
func CreateIdentityRequest(ctx *Context, rng io.Reader) (*IdentityRequest, error) {
	if err := ctx.validate(); err != nil {
		return nil, err
	}
	ids := sortedArs(ctx.ArInfos)
	GP := ctx.Global.Group()
	ck := ctx.Global.OnChainCommitmentKey
	ipk := ctx.IpInfo.VerifyKey

	idCredSec, err := group.RandomNonZeroScalar(GP, rng)
	if err != nil {
		return nil, errors.Wrap(err, "generating credential secret")
	}
	prfKey, err := prf.GenerateSecretKey(GP, rng)
	if err != nil {
		return nil, err
	}
	regId, err := prfKey.Eval(ck.G, 0)
	if err != nil {
		return nil, err
	}
	keys, err := account.NewCredentialKeys(rng)
	if err != nil {
		return nil, err
	}
	t, err := group.RandomScalar(GP, rng)
	if err != nil {
		return nil, errors.Wrap(err, "sampling blinding")
	}

	choice := ChoiceArData{ArIdentities: ids, Threshold: revocationThreshold(len(ids))}
	T := int(choice.Threshold)
	sharing, err := secretsharing.Share(ck, prfKey.K, T, len(ids), rng)
	if err != nil {
		return nil, errors.Wrap(err, "sharing prf key")
	}

	blinded := GP.Element().Scale(ipk.G, t)
	blinded.Add(blinded, GP.Element().Scale(ipk.Ys[msgIdCredSec], idCredSec))
	blinded.Add(blinded, GP.Element().Scale(ipk.Ys[msgPrfKey], prfKey.K))

	pio := &PreIdentityObject{
		PubInfoForIp: PubInfoForIp{
			IdCredPub:  GP.Element().Scale(ck.G, idCredSec),
			RegId:      regId,
			VerifyKeys: keys.PublicKeys(),
		},
		IpArData:           make(map[ArIdentity]*IpArData, len(ids)),
		ChoiceArData:       choice,
		CmmPrf:             sharing.Commitments[0],
		CmmPrfSharingCoeff: sharing.Commitments,
		BlindedMessage:     blinded,
	}

	l := pioLayout(T)
	witness := make([]*big.Int, l.encBase+len(ids))
	witness[pioIdCredSec] = idCredSec
	witness[pioPrfKey] = prfKey.K
	witness[pioBlinding] = t
	fillSharingWitness(witness, l, sharing)
	for i, id := range ids {
		share, _ := sharing.ShareValue(uint32(id))
		c, k, err := ctx.ArInfos[id].PublicKey.EncryptExponent(share, rng)
		if err != nil {
			return nil, err
		}
		pio.IpArData[id] = &IpArData{EncPrfKeyShare: c, PrfShareNumber: uint32(id)}
		witness[l.encBase+i] = k
	}

	st, err := pioStatement(ctx, pio)
	if err != nil {
		return nil, err
	}
	if pio.Proof, err = sigma.Prove(pioTranscript(ctx, pio), st, witness, rng); err != nil {
		return nil, errors.Wrap(err, "proving identity request")
	}
	return &IdentityRequest{
		PreIdentityObject: pio,
		PrivateData: &PrivateIdentityData{
			Aci:        AccCredentialInfo{IdCredSec: idCredSec, PrfKey: prfKey},
			Randomness: t,
		},
		InitialAccount: keys,
	}, nil
}

// CreateCredential derives the credential for accountNumber from an identity
// object. The credential reveals the attributes in revealed and is bound to
// target. It returns the fresh keys controlling the credential.
func CreateCredential(ctx *Context, idObj *IdentityObject, private *PrivateIdentityData, accountNumber uint8,
	revealed []AttributeTag, target AccountTarget, rng io.Reader) (*CredentialDeploymentInfo, *account.CredentialKeys, error) {
	if idObj == nil || idObj.PreIdentityObject == nil || idObj.AttributeList == nil || idObj.Signature == nil {
		return nil, nil, errors.Wrap(ErrMalformed, "incomplete identity object")
	}
	if private == nil || private.Aci.IdCredSec == nil || private.Aci.PrfKey == nil || private.Randomness == nil {
		return nil, nil, errors.Wrap(ErrMalformed, "incomplete private identity data")
	}
	alist := idObj.AttributeList
	policy, err := NewPolicy(alist, revealed)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.validate(); err != nil {
		return nil, nil, err
	}
	if accountNumber >= alist.MaxAccounts {
		return nil, nil, errors.Wrapf(ErrAccountNumber, "account %d of %d", accountNumber, alist.MaxAccounts)
	}
	choice := idObj.PreIdentityObject.ChoiceArData
	arKeys, err := checkArChoice(ctx, &choice)
	if err != nil {
		return nil, nil, err
	}

	GP := ctx.Global.Group()
	n := GP.N()
	ck := ctx.Global.OnChainCommitmentKey
	ipk := ctx.IpInfo.VerifyKey
	idCredSec := private.Aci.IdCredSec
	prfKey := private.Aci.PrfKey

	msgs := signedMessages(idCredSec, prfKey.K, &choice, alist, n)
	sig := idObj.Signature.Unblind(private.Randomness)
	if !ipk.Verify(msgs, sig) {
		return nil, nil, ErrInvalidSignature
	}

	credId, err := prfKey.Eval(ck.G, accountNumber)
	if err != nil {
		return nil, nil, err
	}
	keys, err := account.NewCredentialKeys(rng)
	if err != nil {
		return nil, nil, err
	}

	ids := choice.ArIdentities
	T := int(choice.Threshold)
	sharing, err := secretsharing.Share(ck, idCredSec, T, len(ids), rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sharing credential secret")
	}
	arData := make(map[ArIdentity]*ChainArData, len(ids))
	encRand := make([]*big.Int, len(ids))
	for i, id := range ids {
		share, _ := sharing.ShareValue(uint32(id))
		c, k, err := arKeys[i].EncryptExponent(share, rng)
		if err != nil {
			return nil, nil, err
		}
		arData[id] = &ChainArData{EncIdCredPubShare: c}
		encRand[i] = k
	}

	r, err := group.RandomNonZeroScalar(GP, rng)
	if err != nil {
		return nil, nil, err
	}
	blinding, err := group.RandomScalar(GP, rng)
	if err != nil {
		return nil, nil, err
	}
	maxAccounts := big.NewInt(int64(alist.MaxAccounts))
	cmmMax, rMax, err := ck.CommitRandom(maxAccounts, rng)
	if err != nil {
		return nil, nil, err
	}
	cmmAcc, rAcc, err := ck.CommitRandom(big.NewInt(int64(accountNumber)), rng)
	if err != nil {
		return nil, nil, err
	}

	hidden := hiddenTags(policy)
	G2 := group.BLS12381G2()
	K := G2.Element().Scale(ipk.Gt, blinding)
	K.Add(K, G2.Element().Scale(ipk.Yts[msgIdCredSec], idCredSec))
	K.Add(K, G2.Element().Scale(ipk.Yts[msgPrfKey], prfKey.K))
	K.Add(K, G2.Element().Scale(ipk.Yts[msgMaxAccounts], maxAccounts))
	for _, tag := range hidden {
		i := msgAttributes + int(tag)
		K.Add(K, G2.Element().Scale(ipk.Yts[i], msgs[i]))
	}

	cdi := &CredentialDeploymentInfo{
		Values: CredentialDeploymentValues{
			CredentialPublicKeys: keys.PublicKeys(),
			CredId:               credId,
			IpIdentity:           ctx.IpInfo.IpIdentity,
			Threshold:            choice.Threshold,
			ArData:               arData,
			Policy:               *policy,
		},
		Proofs: CredentialDeploymentProofs{
			Sig:                      sig.Randomize(r, blinding),
			SigCommitment:            K,
			CmmIdCredSecSharingCoeff: sharing.Commitments,
			CmmMaxAccounts:           cmmMax,
			CmmAccountNumber:         cmmAcc,
		},
	}

	st, l, err := credentialStatement(ctx, cdi)
	if err != nil {
		return nil, nil, err
	}
	witness := make([]*big.Int, st.Witnesses)
	witness[credIdCredSec] = idCredSec
	witness[credPrfKey] = prfKey.K
	witness[credBlinding] = blinding
	witness[credMaxAccounts] = maxAccounts
	prfInput := new(big.Int).Add(prfKey.K, big.NewInt(int64(accountNumber)))
	witness[credPrfInput] = prfInput.Mod(prfInput, n)
	witness[credAccountRand] = rAcc
	for i, tag := range hidden {
		witness[l.hiddenAt+i] = msgs[msgAttributes+int(tag)]
	}
	fillSharingWitness(witness, l.sharingLayout, sharing)
	witness[l.maxRand] = rMax
	copy(witness[l.encBase:], encRand)

	ro := credentialTranscript(ctx, cdi, target)
	proofs := &cdi.Proofs
	if proofs.Proof, err = sigma.Prove(ro, st, witness, rng); err != nil {
		return nil, nil, errors.Wrap(err, "proving credential")
	}
	gens := ctx.Global.BulletproofGenerators
	proofs.AccountNumberProof, err = bulletproofs.Prove(ro, gens, accountNumberBits,
		uint64(accountNumber), rAcc, ck.G, ck.H, rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "proving account number")
	}
	limitRand := new(big.Int).Sub(rMax, rAcc)
	proofs.AccountLimitProof, err = bulletproofs.Prove(ro, gens, accountNumberBits,
		uint64(alist.MaxAccounts-accountNumber-1), limitRand.Mod(limitRand, n), ck.G, ck.H, rng)
	if err != nil {
		return nil, nil, errors.Wrap(err, "proving account limit")
	}

	msg := ownershipMessage(ro, n)
	proofs.AccountOwnership = make(map[account.KeyIndex][]byte, len(keys.Keys))
	for idx, kp := range keys.Keys {
		proofs.AccountOwnership[idx] = kp.Sign(msg)
	}
	return cdi, keys, nil
}
