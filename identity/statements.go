package identity

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/pedersen"
	"github.com/takakv/msc-wallet/sigma"
)

// sharingLayout places the witnesses of a committed Shamir sharing with
// threshold T inside a larger witness vector. The constant coefficient is
// the shared secret, which lives at secret.
type sharingLayout struct {
	secret    int
	coeffBase int // a_1 .. a_{T-1}
	randBase  int // rho_0 .. rho_{T-1}
	encBase   int // encryption randomness, one per revoker
	threshold int
}

func (l sharingLayout) coeff(j int) int {
	if j == 0 {
		return l.secret
	}
	return l.coeffBase + j - 1
}

func (l sharingLayout) rand(j int) int {
	return l.randBase + j
}

// addSharing adds C_j = a_j.g + rho_j.h for every coefficient commitment and,
// for each revoker, the statement that its ciphertext encrypts the share
// sum(x^j.a_j).g under the revoker's key.
func addSharing(st *sigma.Statement, ck pedersen.CommitmentKey, l sharingLayout, commitments []group.Element,
	ids []ArIdentity, arKeys []*elgamal.PublicKey, ciphers []*elgamal.Cipher) {
	GP := ck.G.Group()
	n := GP.N()
	for j, C := range commitments {
		st.Add(C, sigma.Term{Base: ck.G, Witness: l.coeff(j)}, sigma.Term{Base: ck.H, Witness: l.rand(j)})
	}
	for i, id := range ids {
		c := ciphers[i]
		st.Add(c.C1, sigma.Term{Base: ck.G, Witness: l.encBase + i})
		terms := make([]sigma.Term, 0, l.threshold+1)
		x := big.NewInt(int64(id))
		xj := big.NewInt(1)
		for j := 0; j < l.threshold; j++ {
			terms = append(terms, sigma.Term{Base: GP.Element().Scale(ck.G, xj), Witness: l.coeff(j)})
			xj = new(big.Int).Mod(new(big.Int).Mul(xj, x), n)
		}
		terms = append(terms, sigma.Term{Base: arKeys[i].Key, Witness: l.encBase + i})
		st.Add(c.C2, terms...)
	}
}

// checkArChoice validates a revoker selection against the context and
// returns the revokers' keys in selection order.
func checkArChoice(ctx *Context, choice *ChoiceArData) ([]*elgamal.PublicKey, error) {
	ids := choice.ArIdentities
	if len(ids) == 0 {
		return nil, ErrNoAnonymityRevokers
	}
	if choice.Threshold < 1 || int(choice.Threshold) > len(ids) {
		return nil, errors.Wrapf(ErrMalformed, "threshold %d of %d revokers", choice.Threshold, len(ids))
	}
	keys := make([]*elgamal.PublicKey, len(ids))
	for i, id := range ids {
		if i > 0 && id <= ids[i-1] {
			return nil, errors.Wrap(ErrMalformed, "revoker identities not strictly increasing")
		}
		ar, ok := ctx.ArInfos[id]
		if !ok {
			return nil, errors.Wrapf(ErrMalformed, "unknown anonymity revoker %d", id)
		}
		keys[i] = ar.PublicKey
	}
	return keys, nil
}

func nonNil(es ...group.Element) bool {
	for _, e := range es {
		if e == nil {
			return false
		}
	}
	return true
}

// Witness positions of the identity request proof.
const (
	pioIdCredSec = iota
	pioPrfKey
	pioBlinding
	pioFixed
)

func pioLayout(threshold int) sharingLayout {
	return sharingLayout{
		secret:    pioPrfKey,
		coeffBase: pioFixed,
		randBase:  pioFixed + threshold - 1,
		encBase:   pioFixed + 2*threshold - 1,
		threshold: threshold,
	}
}

// pioStatement builds the relation proven by an identity request:
// knowledge of idCredSec behind IdCredPub, of the PRF key behind RegId and
// the sharing commitments, a well-formed blinded message and correct
// encryption of every PRF key share.
func pioStatement(ctx *Context, pio *PreIdentityObject) (*sigma.Statement, error) {
	keys, err := checkArChoice(ctx, &pio.ChoiceArData)
	if err != nil {
		return nil, err
	}
	ids := pio.ChoiceArData.ArIdentities
	T := int(pio.ChoiceArData.Threshold)
	if len(pio.IpArData) != len(ids) {
		return nil, errors.Wrap(ErrMalformed, "revoker data does not match the selection")
	}
	ciphers := make([]*elgamal.Cipher, len(ids))
	for i, id := range ids {
		d, ok := pio.IpArData[id]
		if !ok || d == nil || d.EncPrfKeyShare == nil || !nonNil(d.EncPrfKeyShare.C1, d.EncPrfKeyShare.C2) {
			return nil, errors.Wrapf(ErrMalformed, "missing data for revoker %d", id)
		}
		if d.PrfShareNumber != uint32(id) {
			return nil, errors.Wrapf(ErrMalformed, "revoker %d has share number %d", id, d.PrfShareNumber)
		}
		ciphers[i] = d.EncPrfKeyShare
	}
	if len(pio.CmmPrfSharingCoeff) != T || !nonNil(pio.CmmPrfSharingCoeff...) {
		return nil, errors.Wrapf(ErrMalformed, "expected %d sharing commitments", T)
	}
	info := &pio.PubInfoForIp
	if !nonNil(info.IdCredPub, info.RegId, pio.CmmPrf, pio.BlindedMessage) {
		return nil, errors.Wrap(ErrMalformed, "missing public values")
	}
	if !pio.CmmPrf.IsEqual(pio.CmmPrfSharingCoeff[0]) {
		return nil, errors.Wrap(ErrMalformed, "prf commitment does not open the sharing")
	}

	ck := ctx.Global.OnChainCommitmentKey
	ipk := ctx.IpInfo.VerifyKey
	l := pioLayout(T)
	st := &sigma.Statement{Witnesses: l.encBase + len(ids)}
	st.Add(info.IdCredPub, sigma.Term{Base: ck.G, Witness: pioIdCredSec})
	st.Add(ck.G, sigma.Term{Base: info.RegId, Witness: pioPrfKey})
	st.Add(pio.BlindedMessage,
		sigma.Term{Base: ipk.G, Witness: pioBlinding},
		sigma.Term{Base: ipk.Ys[msgIdCredSec], Witness: pioIdCredSec},
		sigma.Term{Base: ipk.Ys[msgPrfKey], Witness: pioPrfKey})
	addSharing(st, ck, l, pio.CmmPrfSharingCoeff, ids, keys, ciphers)
	return st, nil
}

func pioTranscript(ctx *Context, pio *PreIdentityObject) *sigma.RandomOracle {
	ro := sigma.NewRandomOracle("PreIdentityProof")
	ro.AppendString("genesis", ctx.Global.GenesisString)
	ro.AppendUint64("ip", uint64(ctx.IpInfo.IpIdentity))
	ro.Append("pubInfoForIp", &pio.PubInfoForIp)
	ro.Append("choiceArData", &pio.ChoiceArData)
	return ro
}

// Witness positions of the credential proof.
const (
	credIdCredSec = iota
	credPrfKey
	credBlinding
	credMaxAccounts
	credPrfInput // prfKey + accountNumber
	credAccountRand
	credFixed
)

type credLayout struct {
	sharingLayout
	hidden   []AttributeTag
	maxRand  int
	hiddenAt int
}

func newCredLayout(threshold int, hidden []AttributeTag) credLayout {
	base := credFixed + len(hidden)
	return credLayout{
		sharingLayout: sharingLayout{
			secret:    credIdCredSec,
			coeffBase: base,
			randBase:  base + threshold - 1,
			encBase:   base + 2*threshold,
			threshold: threshold,
		},
		hidden:   hidden,
		maxRand:  base + 2*threshold - 1,
		hiddenAt: credFixed,
	}
}

func (l credLayout) witnesses(revokers int) int {
	return l.encBase + revokers
}

// hiddenTags returns every attribute tag not revealed by the policy.
func hiddenTags(policy *Policy) []AttributeTag {
	var out []AttributeTag
	for i := range AttributeNames {
		if _, ok := policy.PolicyVec[AttributeTag(i)]; !ok {
			out = append(out, AttributeTag(i))
		}
	}
	return out
}

// publicMessages returns the signed messages a verifier can compute from the
// credential values, with nil in every hidden position.
func publicMessages(values *CredentialDeploymentValues, n *big.Int) []*big.Int {
	msgs := make([]*big.Int, SignedMessages)
	choice := ChoiceArData{ArIdentities: sortedArs(values.ArData), Threshold: values.Threshold}
	msgs[msgArChoice] = choice.digest(n)
	msgs[msgCreatedAt] = values.Policy.CreatedAt.scalar()
	msgs[msgValidTo] = values.Policy.ValidTo.scalar()
	for tag, value := range values.Policy.PolicyVec {
		msgs[msgAttributes+int(tag)] = attributeScalar(tag, value, n)
	}
	return msgs
}

// credentialStatement builds the relation proven by a credential: the
// commitment K opens to the signed hidden messages, CredId is the PRF
// evaluated at the committed account number, idCredSec is shared correctly
// among the revokers and CmmMaxAccounts commits to the signed account limit.
func credentialStatement(ctx *Context, cdi *CredentialDeploymentInfo) (*sigma.Statement, credLayout, error) {
	values, proofs := &cdi.Values, &cdi.Proofs
	choice := ChoiceArData{ArIdentities: sortedArs(values.ArData), Threshold: values.Threshold}
	keys, err := checkArChoice(ctx, &choice)
	if err != nil {
		return nil, credLayout{}, err
	}
	ids := choice.ArIdentities
	T := int(values.Threshold)
	ciphers := make([]*elgamal.Cipher, len(ids))
	for i, id := range ids {
		d := values.ArData[id]
		if d == nil || d.EncIdCredPubShare == nil || !nonNil(d.EncIdCredPubShare.C1, d.EncIdCredPubShare.C2) {
			return nil, credLayout{}, errors.Wrapf(ErrMalformed, "missing data for revoker %d", id)
		}
		ciphers[i] = d.EncIdCredPubShare
	}
	if len(proofs.CmmIdCredSecSharingCoeff) != T || !nonNil(proofs.CmmIdCredSecSharingCoeff...) {
		return nil, credLayout{}, errors.Wrapf(ErrMalformed, "expected %d sharing commitments", T)
	}
	if !nonNil(values.CredId, proofs.SigCommitment, proofs.CmmMaxAccounts, proofs.CmmAccountNumber) {
		return nil, credLayout{}, errors.Wrap(ErrMalformed, "missing public values")
	}

	ck := ctx.Global.OnChainCommitmentKey
	ipk := ctx.IpInfo.VerifyKey
	l := newCredLayout(T, hiddenTags(&values.Policy))
	st := &sigma.Statement{Witnesses: l.witnesses(len(ids))}

	sigTerms := []sigma.Term{
		{Base: ipk.Gt, Witness: credBlinding},
		{Base: ipk.Yts[msgIdCredSec], Witness: credIdCredSec},
		{Base: ipk.Yts[msgPrfKey], Witness: credPrfKey},
		{Base: ipk.Yts[msgMaxAccounts], Witness: credMaxAccounts},
	}
	for i, tag := range l.hidden {
		sigTerms = append(sigTerms, sigma.Term{Base: ipk.Yts[msgAttributes+int(tag)], Witness: l.hiddenAt + i})
	}
	st.Add(proofs.SigCommitment, sigTerms...)

	// (k + x).CredId = g and CmmAccountNumber = (k + x - k).g + r.h
	GP := ck.G.Group()
	st.Add(ck.G, sigma.Term{Base: values.CredId, Witness: credPrfInput})
	st.Add(proofs.CmmAccountNumber,
		sigma.Term{Base: ck.G, Witness: credPrfInput},
		sigma.Term{Base: GP.Element().Negate(ck.G), Witness: credPrfKey},
		sigma.Term{Base: ck.H, Witness: credAccountRand})

	st.Add(proofs.CmmMaxAccounts, sigma.Term{Base: ck.G, Witness: credMaxAccounts}, sigma.Term{Base: ck.H, Witness: l.maxRand})
	addSharing(st, ck, l.sharingLayout, proofs.CmmIdCredSecSharingCoeff, ids, keys, ciphers)
	return st, l, nil
}

// credentialTranscript binds the proofs to the values, the target account
// and the context. The account number is never absorbed.
func credentialTranscript(ctx *Context, cdi *CredentialDeploymentInfo, target AccountTarget) *sigma.RandomOracle {
	ro := sigma.NewRandomOracle("CredentialDeployment")
	ro.AppendString("genesis", ctx.Global.GenesisString)
	ro.Append("values", &cdi.Values)
	ro.Append("target", target)
	ro.Append("signature", cdi.Proofs.Sig)
	ro.AppendElements("commitments", cdi.Proofs.SigCommitment, cdi.Proofs.CmmMaxAccounts, cdi.Proofs.CmmAccountNumber)
	ro.AppendElements("sharing", cdi.Proofs.CmmIdCredSecSharingCoeff...)
	return ro
}

// accountNumberBits bounds both the account number and
// maxAccounts - accountNumber - 1, which together give accountNumber <
// maxAccounts.
const accountNumberBits = 8

// accountLimitCommitment returns CmmMaxAccounts - CmmAccountNumber - g, a
// commitment to maxAccounts - accountNumber - 1.
func accountLimitCommitment(ck pedersen.CommitmentKey, proofs *CredentialDeploymentProofs) group.Element {
	V := ck.G.Group().Element().Subtract(proofs.CmmMaxAccounts, proofs.CmmAccountNumber)
	return V.Subtract(V, ck.G)
}

// ownershipMessage is signed by every credential key once the proofs are
// complete.
func ownershipMessage(ro *sigma.RandomOracle, n *big.Int) []byte {
	c := ro.Challenge("account-ownership", n)
	msg := make([]byte, 32)
	return c.FillBytes(msg)
}
