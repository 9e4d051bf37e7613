// Package identity implements the account holder side of identity issuance
// and credential deployment, together with the checks performed by identity
// providers, the chain and anonymity revokers.
//
// An account holder asks an identity provider (IP) to sign its secret
// credential and PRF key without revealing them (a PreIdentityObject). The
// resulting IdentityObject is later shown, re-randomised, in every
// CredentialDeploymentInfo, each bound to one account number through a
// PRF-derived registration id. Anonymity revokers (ARs) each hold an
// encrypted share of the holder's identity, enough of which reveal it.
package identity

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/account"
	"github.com/takakv/msc-wallet/bulletproofs"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/params"
	"github.com/takakv/msc-wallet/prf"
	"github.com/takakv/msc-wallet/pssig"
	"github.com/takakv/msc-wallet/serial"
	"github.com/takakv/msc-wallet/sigma"
)

var (
	ErrNoAnonymityRevokers = errors.New("at least one anonymity revoker is required")
	ErrDuplicateReveal     = errors.New("cannot reveal an attribute more than once")
	ErrUnknownAttribute    = errors.New("cannot reveal an attribute which is not part of the attribute list")
	ErrAccountNumber       = errors.New("account number exceeds the maximum number of accounts")
	ErrInvalidSignature    = errors.New("identity provider signature does not verify")
	ErrInvalidProof        = errors.New("proof does not verify")
	ErrMalformed           = errors.New("malformed identity data")
	ErrNotEnoughShares     = errors.New("not enough anonymity revoker shares")
)

// IpIdentity identifies an identity provider.
type IpIdentity uint32

// ArIdentity identifies an anonymity revoker. It is also the share number of
// the revoker's secret shares, so it is never zero.
type ArIdentity uint32

// Message positions in the identity provider's signature. Attribute slots
// follow msgAttributes in tag order.
const (
	msgIdCredSec = iota
	msgPrfKey
	msgArChoice
	msgCreatedAt
	msgValidTo
	msgMaxAccounts
	msgAttributes
)

// SignedMessages is the number of messages an IP key must sign.
var SignedMessages = msgAttributes + len(AttributeNames)

// IpInfo is the public information of an identity provider.
type IpInfo struct {
	IpIdentity  IpIdentity       `json:"ipIdentity"`
	Description string           `json:"ipDescription"`
	VerifyKey   *pssig.PublicKey `json:"ipVerifyKey"`
}

// ArInfo is the public information of an anonymity revoker.
type ArInfo struct {
	ArIdentity  ArIdentity         `json:"arIdentity"`
	Description string             `json:"arDescription"`
	PublicKey   *elgamal.PublicKey `json:"arPublicKey"`
}

// Context is everything an identity operation is evaluated against.
type Context struct {
	IpInfo  *IpInfo
	ArInfos map[ArIdentity]*ArInfo
	Global  *params.GlobalContext
}

func (ctx *Context) validate() error {
	if ctx.IpInfo == nil || ctx.IpInfo.VerifyKey == nil || ctx.Global == nil {
		return errors.Wrap(ErrMalformed, "incomplete context")
	}
	if ctx.IpInfo.VerifyKey.Len() != SignedMessages {
		return errors.Wrapf(pssig.ErrMessageCount, "identity provider key signs %d messages, want %d",
			ctx.IpInfo.VerifyKey.Len(), SignedMessages)
	}
	if len(ctx.ArInfos) == 0 {
		return ErrNoAnonymityRevokers
	}
	for id, ar := range ctx.ArInfos {
		if id == 0 || ar == nil || ar.ArIdentity != id || ar.PublicKey == nil {
			return errors.Wrapf(ErrMalformed, "anonymity revoker %d", id)
		}
		if !ar.PublicKey.Generator.IsEqual(ctx.Global.ElGamalGenerator()) {
			return errors.Wrapf(ErrMalformed, "anonymity revoker %d uses a foreign generator", id)
		}
	}
	return nil
}

// sortedArs returns the revoker identities in ascending order.
func sortedArs[V any](m map[ArIdentity]V) []ArIdentity {
	ids := make([]ArIdentity, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AccCredentialInfo is the account holder's secret identity material.
type AccCredentialInfo struct {
	IdCredSec *big.Int
	PrfKey    *prf.SecretKey
}

// PrivateIdentityData is what the account holder must keep to use an
// identity object: the secrets and the blinding of the signed commitment.
type PrivateIdentityData struct {
	Aci        AccCredentialInfo
	Randomness *big.Int
}

func (p *PrivateIdentityData) Compose(v serial.Visitor) {
	if p.Aci.PrfKey == nil {
		p.Aci.PrfKey = &prf.SecretKey{}
	}
	v.Scalar(&p.Aci.IdCredSec)
	v.Value(p.Aci.PrfKey)
	v.Scalar(&p.Randomness)
}

func (p *PrivateIdentityData) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(p)
}

func (p *PrivateIdentityData) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, p)
}

// IpArData is the data of one revoker in an identity request.
type IpArData struct {
	// EncPrfKeyShare encrypts share.g of the PRF key under the revoker's key.
	EncPrfKeyShare *elgamal.Cipher
	PrfShareNumber uint32
}

// ChoiceArData records the revokers chosen and the revocation threshold.
type ChoiceArData struct {
	ArIdentities []ArIdentity
	Threshold    uint8
}

func (c *ChoiceArData) Compose(v serial.Visitor) {
	serial.Slice(v, 4, &c.ArIdentities, func(v serial.Visitor, id *ArIdentity) {
		x := uint32(*id)
		v.U32(&x)
		*id = ArIdentity(x)
	})
	v.U8(&c.Threshold)
}

// digest maps the choice to the message signed for it.
func (c *ChoiceArData) digest(n *big.Int) *big.Int {
	return hashToScalar("ar-choice", serial.Encode(c), n)
}

// PubInfoForIp is the public part of an identity request that the identity
// provider uses to open the initial account.
type PubInfoForIp struct {
	IdCredPub  group.Element
	RegId      group.Element
	VerifyKeys *account.CredentialPublicKeys
}

func (p *PubInfoForIp) Compose(v serial.Visitor) {
	G1 := group.BLS12381G1()
	v.Element(G1, &p.IdCredPub)
	v.Element(G1, &p.RegId)
	if p.VerifyKeys == nil {
		p.VerifyKeys = &account.CredentialPublicKeys{}
	}
	v.Value(p.VerifyKeys)
}

// PreIdentityObject is the identity request sent to the identity provider.
type PreIdentityObject struct {
	PubInfoForIp PubInfoForIp
	IpArData     map[ArIdentity]*IpArData
	ChoiceArData ChoiceArData
	// CmmPrf commits to the PRF key.
	CmmPrf group.Element
	// CmmPrfSharingCoeff commits to the coefficients of the PRF key sharing
	// polynomial, constant term first.
	CmmPrfSharingCoeff []group.Element
	// BlindedMessage is t.g + idCredSec.Y_0 + prfKey.Y_1 under the IP key.
	BlindedMessage group.Element
	Proof          *sigma.Proof
}

func composeArMap[V any](v serial.Visitor, m *map[ArIdentity]V, item func(v serial.Visitor, x V) V) {
	ids := sortedArs(*m)
	n := len(ids)
	v.Len(4, &n)
	if v.Decoding() {
		*m = make(map[ArIdentity]V, n)
		ids = make([]ArIdentity, n)
	}
	for i := 0; i < n; i++ {
		id := uint32(ids[i])
		v.U32(&id)
		var x V
		if !v.Decoding() {
			x = (*m)[ids[i]]
		}
		x = item(v, x)
		if v.Decoding() {
			if i > 0 && ArIdentity(id) <= ids[i-1] {
				v.Fail(errors.New("revoker identities not strictly increasing"))
				return
			}
			ids[i] = ArIdentity(id)
			(*m)[ArIdentity(id)] = x
		}
	}
}

func (p *PreIdentityObject) Compose(v serial.Visitor) {
	G1 := group.BLS12381G1()
	v.Value(&p.PubInfoForIp)
	composeArMap(v, &p.IpArData, func(v serial.Visitor, d *IpArData) *IpArData {
		if d == nil {
			d = &IpArData{EncPrfKeyShare: &elgamal.Cipher{}}
		}
		v.Value(d.EncPrfKeyShare)
		v.U32(&d.PrfShareNumber)
		return d
	})
	v.Value(&p.ChoiceArData)
	v.Element(G1, &p.CmmPrf)
	serial.Elements(v, 1, G1, &p.CmmPrfSharingCoeff)
	v.Element(G1, &p.BlindedMessage)
	if p.Proof == nil {
		p.Proof = &sigma.Proof{}
	}
	v.Value(p.Proof)
}

func (p *PreIdentityObject) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(p)
}

func (p *PreIdentityObject) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, p)
}

// IdentityObject is a PreIdentityObject signed by the identity provider
// together with the attributes it vouches for.
type IdentityObject struct {
	PreIdentityObject *PreIdentityObject `json:"preIdentityObject"`
	AttributeList     *AttributeList     `json:"attributeList"`
	// Signature is blinded by the request's commitment randomness.
	Signature *pssig.Signature `json:"signature"`
}

func (io *IdentityObject) Compose(v serial.Visitor) {
	if io.PreIdentityObject == nil {
		io.PreIdentityObject = &PreIdentityObject{}
		io.AttributeList = &AttributeList{}
		io.Signature = &pssig.Signature{}
	}
	v.Value(io.PreIdentityObject)
	v.Value(io.AttributeList)
	v.Value(io.Signature)
}

// Policy lists the attributes revealed by a credential.
type Policy struct {
	ValidTo   YearMonth
	CreatedAt YearMonth
	PolicyVec map[AttributeTag]string
}

func (p *Policy) Compose(v serial.Visitor) {
	v.Value(&p.ValidTo)
	v.Value(&p.CreatedAt)
	composeAttributes(v, &p.PolicyVec)
}

// NewPolicy builds the policy revealing tags from alist. Every tag must be
// present in the list and appear at most once.
func NewPolicy(alist *AttributeList, tags []AttributeTag) (*Policy, error) {
	p := &Policy{
		ValidTo:   alist.ValidTo,
		CreatedAt: alist.CreatedAt,
		PolicyVec: make(map[AttributeTag]string, len(tags)),
	}
	for _, tag := range tags {
		value, ok := alist.Alist[tag]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownAttribute, "%s", tag)
		}
		if _, dup := p.PolicyVec[tag]; dup {
			return nil, errors.Wrapf(ErrDuplicateReveal, "%s", tag)
		}
		p.PolicyVec[tag] = value
	}
	return p, nil
}

// ChainArData is the data of one revoker in a credential.
type ChainArData struct {
	// EncIdCredPubShare encrypts share.g of the credential secret.
	EncIdCredPubShare *elgamal.Cipher
}

// CredentialDeploymentValues are the public values a credential puts on
// chain.
type CredentialDeploymentValues struct {
	CredentialPublicKeys *account.CredentialPublicKeys
	CredId               group.Element
	IpIdentity           IpIdentity
	Threshold            uint8
	ArData               map[ArIdentity]*ChainArData
	Policy               Policy
}

func (cv *CredentialDeploymentValues) Compose(v serial.Visitor) {
	if cv.CredentialPublicKeys == nil {
		cv.CredentialPublicKeys = &account.CredentialPublicKeys{}
	}
	v.Value(cv.CredentialPublicKeys)
	v.Element(group.BLS12381G1(), &cv.CredId)
	ip := uint32(cv.IpIdentity)
	v.U32(&ip)
	cv.IpIdentity = IpIdentity(ip)
	v.U8(&cv.Threshold)
	composeArMap(v, &cv.ArData, func(v serial.Visitor, d *ChainArData) *ChainArData {
		if d == nil {
			d = &ChainArData{EncIdCredPubShare: &elgamal.Cipher{}}
		}
		v.Value(d.EncIdCredPubShare)
		return d
	})
	v.Value(&cv.Policy)
}

// CredentialDeploymentProofs prove that the values derive from a valid
// identity object.
type CredentialDeploymentProofs struct {
	// Sig is the identity provider's signature, re-randomised.
	Sig *pssig.Signature
	// SigCommitment in G2 commits to the hidden signed messages.
	SigCommitment            group.Element
	CmmIdCredSecSharingCoeff []group.Element
	CmmMaxAccounts           group.Element
	CmmAccountNumber         group.Element
	Proof                    *sigma.Proof
	// AccountNumberProof bounds the committed account number and
	// AccountLimitProof shows it is below the signed maximum.
	AccountNumberProof *bulletproofs.RangeProof
	AccountLimitProof  *bulletproofs.RangeProof
	// AccountOwnership holds one signature per credential key, by key index.
	AccountOwnership map[account.KeyIndex][]byte
}

func (cp *CredentialDeploymentProofs) Compose(v serial.Visitor) {
	G1, G2 := group.BLS12381G1(), group.BLS12381G2()
	if cp.Sig == nil {
		cp.Sig = &pssig.Signature{}
	}
	if cp.Proof == nil {
		cp.Proof = &sigma.Proof{}
	}
	if cp.AccountNumberProof == nil {
		cp.AccountNumberProof = &bulletproofs.RangeProof{}
	}
	if cp.AccountLimitProof == nil {
		cp.AccountLimitProof = &bulletproofs.RangeProof{}
	}
	v.Value(cp.Sig)
	v.Element(G2, &cp.SigCommitment)
	serial.Elements(v, 1, G1, &cp.CmmIdCredSecSharingCoeff)
	v.Element(G1, &cp.CmmMaxAccounts)
	v.Element(G1, &cp.CmmAccountNumber)
	v.Value(cp.Proof)
	v.Value(cp.AccountNumberProof)
	v.Value(cp.AccountLimitProof)

	idx := sortedKeyIndices(cp.AccountOwnership)
	n := len(idx)
	v.Len(1, &n)
	if v.Decoding() {
		cp.AccountOwnership = make(map[account.KeyIndex][]byte, n)
		idx = make([]account.KeyIndex, n)
	}
	for i := 0; i < n; i++ {
		k := uint8(idx[i])
		v.U8(&k)
		sig := cp.AccountOwnership[account.KeyIndex(k)]
		v.Bytes(&sig, 64)
		if v.Decoding() {
			idx[i] = account.KeyIndex(k)
			cp.AccountOwnership[account.KeyIndex(k)] = sig
		}
	}
}

func sortedKeyIndices(m map[account.KeyIndex][]byte) []account.KeyIndex {
	out := make([]account.KeyIndex, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CredentialDeploymentInfo is a credential ready for deployment on chain.
type CredentialDeploymentInfo struct {
	Values CredentialDeploymentValues
	Proofs CredentialDeploymentProofs
}

func (cdi *CredentialDeploymentInfo) Compose(v serial.Visitor) {
	v.Value(&cdi.Values)
	v.Value(&cdi.Proofs)
}

func (cdi *CredentialDeploymentInfo) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(cdi)
}

func (cdi *CredentialDeploymentInfo) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, cdi)
}

// AccountTarget says where a credential is deployed: onto a new account, or
// onto an existing one.
type AccountTarget interface {
	serial.Composer
	isAccountTarget()
}

// NewAccount deploys the credential as the first credential of a new
// account. Expiry bounds the deployment message.
type NewAccount struct {
	Expiry uint64
}

// ExistingAccount adds the credential to the account at Address.
type ExistingAccount struct {
	Address account.Address
}

func (*NewAccount) isAccountTarget()      {}
func (*ExistingAccount) isAccountTarget() {}

func (n *NewAccount) Compose(v serial.Visitor) {
	tag := uint8(0)
	v.U8(&tag)
	v.U64(&n.Expiry)
}

func (e *ExistingAccount) Compose(v serial.Visitor) {
	tag := uint8(1)
	v.U8(&tag)
	v.Value(&e.Address)
}

// TargetAddress returns the address of the account a credential with the
// given registration id is deployed onto.
func TargetAddress(target AccountTarget, credId group.Element) account.Address {
	if e, ok := target.(*ExistingAccount); ok {
		return e.Address
	}
	return account.AddressFromRegId(credId)
}
