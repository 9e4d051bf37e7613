package wallet

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/account"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/identity"
	"github.com/takakv/msc-wallet/params"
	"github.com/takakv/msc-wallet/transaction"
	"github.com/takakv/msc-wallet/transfers"
)

// Version0 is the only version of versioned objects.
const Version0 = 0

// Versioned wraps an object as {"v":0,"value":...}.
type Versioned[T any] struct {
	V     uint32 `json:"v"`
	Value T      `json:"value"`
}

func version0[T any](value T) Versioned[T] {
	return Versioned[T]{V: Version0, Value: value}
}

// TransferContext names the sending account of a transaction and the keys
// signing it. To is ignored by transactions that stay on one account.
type TransferContext struct {
	From   account.Address
	To     account.Address
	Expiry uint64
	Nonce  uint64
	Energy uint64
	Keys   *account.AccountKeys
}

func (tc *TransferContext) header() transaction.Header {
	return transaction.Header{From: tc.From, Nonce: tc.Nonce, Energy: tc.Energy, Expiry: tc.Expiry}
}

// TransactionResponse is a signed transaction body.
type TransactionResponse struct {
	Signatures  transaction.TransactionSignature `json:"signatures"`
	Transaction string                           `json:"transaction"`
	// Remaining is the sender's new shielded balance.
	Remaining *transfers.EncryptedAmount `json:"remaining,omitempty"`
	// AddedSelfEncryptedAmount is what a public to shielded transfer adds to
	// the shielded balance.
	AddedSelfEncryptedAmount *transfers.EncryptedAmount `json:"addedSelfEncryptedAmount,omitempty"`
}

func sign(tc *TransferContext, p transaction.Payload) (*TransactionResponse, error) {
	if tc.Keys == nil {
		return nil, errors.New("no account keys")
	}
	if err := tc.Keys.Validate(); err != nil {
		return nil, err
	}
	payload, err := transaction.EncodePayload(p)
	if err != nil {
		return nil, err
	}
	hash, body := transaction.Assemble(tc.header(), payload)
	return &TransactionResponse{
		Signatures:  transaction.Sign(tc.Keys, hash),
		Transaction: hex.EncodeToString(body),
	}, nil
}

// checkTable fails unless the service's table decrypts amounts encrypted
// relative to the global ElGamal generator.
func (s *Service) checkTable(global *params.GlobalContext) error {
	if !s.table.Base().IsEqual(global.ElGamalGenerator()) {
		return errors.New("decryption table does not match the global generator")
	}
	return nil
}

// CreateTransfer signs a plain transfer of amount to tc.To.
func (s *Service) CreateTransfer(tc *TransferContext, amount uint64) (*TransactionResponse, error) {
	return sign(tc, &transaction.Transfer{To: tc.To, Amount: amount})
}

// CreateEncryptedTransfer signs a shielded transfer of amount from the
// balance input, owned by senderSK, to receiverPK.
func (s *Service) CreateEncryptedTransfer(tc *TransferContext, global *params.GlobalContext, receiverPK *elgamal.PublicKey,
	senderSK *elgamal.SecretKey, input *transfers.EncryptedAmount, amount uint64) (*TransactionResponse, error) {
	if err := s.checkTable(global); err != nil {
		return nil, err
	}
	td, err := transfers.MakeTransferData(global, s.table, receiverPK, senderSK, input, amount, s.rng)
	if err != nil {
		return nil, err
	}
	resp, err := sign(tc, &transaction.EncryptedTransfer{To: tc.To, Data: td})
	if err != nil {
		return nil, err
	}
	resp.Remaining = td.RemainingAmount
	return resp, nil
}

// CreatePubToSecTransfer signs a transfer of amount from the public to the
// shielded balance of tc.From.
func (s *Service) CreatePubToSecTransfer(tc *TransferContext, global *params.GlobalContext,
	amount uint64) (*TransactionResponse, error) {
	resp, err := sign(tc, &transaction.PubToSecTransfer{Amount: amount})
	if err != nil {
		return nil, err
	}
	resp.AddedSelfEncryptedAmount = transfers.EncryptAmountWithFixedRandomness(global, amount)
	return resp, nil
}

// CreateSecToPubTransfer signs a transfer of amount from the shielded balance
// input to the public balance of tc.From.
func (s *Service) CreateSecToPubTransfer(tc *TransferContext, global *params.GlobalContext, senderSK *elgamal.SecretKey,
	input *transfers.EncryptedAmount, amount uint64) (*TransactionResponse, error) {
	if err := s.checkTable(global); err != nil {
		return nil, err
	}
	sd, err := transfers.MakeSecToPubTransferData(global, s.table, senderSK, input, amount, s.rng)
	if err != nil {
		return nil, err
	}
	resp, err := sign(tc, &transaction.SecToPubTransfer{Data: sd})
	if err != nil {
		return nil, err
	}
	resp.Remaining = sd.RemainingAmount
	return resp, nil
}

// AccountInfo is the key material of one account of an identity.
type AccountInfo struct {
	EncryptionSecretKey *elgamal.SecretKey `json:"encryptionSecretKey"`
	EncryptionPublicKey *elgamal.PublicKey `json:"encryptionPublicKey"`
	AccountAddress      account.Address    `json:"accountAddress"`
}

func accountInfo(sk *elgamal.SecretKey, address account.Address) AccountInfo {
	return AccountInfo{
		EncryptionSecretKey: sk,
		EncryptionPublicKey: sk.PublicKey(),
		AccountAddress:      address,
	}
}

type InitialAccountData struct {
	AccountKeys *account.AccountKeys `json:"accountKeys"`
	AccountInfo
}

type IdRequestResponse struct {
	IdObjectRequest     Versioned[*identity.PreIdentityObject]   `json:"idObjectRequest"`
	PrivateIdObjectData Versioned[*identity.PrivateIdentityData] `json:"privateIdObjectData"`
	InitialAccountData  *InitialAccountData                      `json:"initialAccountData"`
}

// CreateIdRequest starts an identity request to the provider in ctx, with
// every revoker in ctx selected.
func (s *Service) CreateIdRequest(ctx *identity.Context) (*IdRequestResponse, error) {
	req, err := identity.CreateIdentityRequest(ctx, s.rng)
	if err != nil {
		return nil, err
	}
	sk, err := identity.EncryptionKey(ctx.Global, req.PrivateData.Aci.PrfKey, 0)
	if err != nil {
		return nil, err
	}
	address := account.AddressFromRegId(req.PreIdentityObject.PubInfoForIp.RegId)
	return &IdRequestResponse{
		IdObjectRequest:     version0(req.PreIdentityObject),
		PrivateIdObjectData: version0(req.PrivateData),
		InitialAccountData: &InitialAccountData{
			AccountKeys: account.NewAccountKeys(req.InitialAccount),
			AccountInfo: accountInfo(sk, address),
		},
	}, nil
}

// CredentialRequest asks for the credential of AccountNumber, deployed as a
// new account expiring at Expiry.
type CredentialRequest struct {
	Context            *identity.Context
	IdentityObject     *identity.IdentityObject
	PrivateData        *identity.PrivateIdentityData
	RevealedAttributes []identity.AttributeTag
	AccountNumber      uint8
	Expiry             uint64
}

// AccountCredentialMessage is a credential deployment with the time after
// which the chain must not accept it.
type AccountCredentialMessage struct {
	MessageExpiry uint64                             `json:"messageExpiry"`
	Credential    *identity.CredentialDeploymentInfo `json:"credential"`
}

type CredentialResponse struct {
	Credential  Versioned[*AccountCredentialMessage] `json:"credential"`
	AccountKeys *account.AccountKeys                 `json:"accountKeys"`
	AccountInfo
}

// CreateCredential creates the credential of a new account.
func (s *Service) CreateCredential(req *CredentialRequest) (*CredentialResponse, error) {
	if req.Context == nil || req.PrivateData == nil {
		return nil, errors.New("incomplete credential request")
	}
	target := &identity.NewAccount{Expiry: req.Expiry}
	cdi, keys, err := identity.CreateCredential(req.Context, req.IdentityObject, req.PrivateData, req.AccountNumber,
		req.RevealedAttributes, target, s.rng)
	if err != nil {
		return nil, err
	}
	sk, err := identity.EncryptionKey(req.Context.Global, req.PrivateData.Aci.PrfKey, req.AccountNumber)
	if err != nil {
		return nil, err
	}
	return &CredentialResponse{
		Credential:  version0(&AccountCredentialMessage{MessageExpiry: req.Expiry, Credential: cdi}),
		AccountKeys: account.NewAccountKeys(keys),
		AccountInfo: accountInfo(sk, identity.TargetAddress(target, cdi.Values.CredId)),
	}, nil
}

// GenerateAccounts lists the accounts of an identity from account number
// start onwards.
func (s *Service) GenerateAccounts(global *params.GlobalContext, idObj *identity.IdentityObject,
	private *identity.PrivateIdentityData, start uint8) []AccountInfo {
	accounts := identity.EnumerateAccounts(global, idObj, private, start).Collect()
	out := make([]AccountInfo, len(accounts))
	for i, acc := range accounts {
		out[i] = accountInfo(acc.EncryptionSecretKey, acc.Address)
	}
	return out
}

// CombineEncryptedAmounts adds two encrypted amounts.
func (s *Service) CombineEncryptedAmounts(left, right *transfers.EncryptedAmount) *transfers.EncryptedAmount {
	return transfers.Aggregate(left, right)
}

// DecryptEncryptedAmount decrypts an amount with the service's table.
func (s *Service) DecryptEncryptedAmount(sk *elgamal.SecretKey, ea *transfers.EncryptedAmount) (uint64, error) {
	if !s.table.Base().IsEqual(sk.Generator) {
		return 0, errors.New("decryption table does not match the key's generator")
	}
	return transfers.DecryptAmount(s.table, sk, ea), nil
}

// CheckAccountAddress reports whether s is a well-formed account address.
func CheckAccountAddress(s string) bool {
	_, err := account.ParseAddress(s)
	return err == nil
}
