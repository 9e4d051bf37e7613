package wallet

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/identity"
	"github.com/takakv/msc-wallet/params"
	"github.com/takakv/msc-wallet/transfers"
)

// request reads named fields of a JSON object. The first failure sticks and
// is returned by err.
type request struct {
	fields map[string]json.RawMessage
	err    error
}

func parseRequest(input []byte) *request {
	r := &request{}
	if err := json.Unmarshal(input, &r.fields); err != nil {
		r.err = errors.Wrap(err, "decoding request")
	}
	return r
}

func (r *request) has(name string) bool {
	raw, ok := r.fields[name]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (r *request) get(name string, out interface{}) {
	if r.err != nil {
		return
	}
	if !r.has(name) {
		r.err = errors.Errorf("Field %s not present, but should be.", name)
		return
	}
	if err := json.Unmarshal(r.fields[name], out); err != nil {
		r.err = errors.Wrapf(err, "field %s", name)
	}
}

// transferContext reads the sender fields. to is read only when withTo is set.
func (r *request) transferContext(withTo bool) *TransferContext {
	tc := &TransferContext{}
	r.get("from", &tc.From)
	if withTo {
		r.get("to", &tc.To)
	}
	r.get("expiry", &tc.Expiry)
	r.get("nonce", &tc.Nonce)
	r.get("keys", &tc.Keys)
	r.get("energy", &tc.Energy)
	return tc
}

func (r *request) identityContext() *identity.Context {
	ctx := &identity.Context{}
	r.get("ipInfo", &ctx.IpInfo)
	r.get("arsInfos", &ctx.ArInfos)
	r.get("global", &ctx.Global)
	return ctx
}

func respond(v interface{}, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func (s *Service) createTransfer(inputs [][]byte) ([]byte, error) {
	r := parseRequest(inputs[0])
	tc := r.transferContext(true)
	var amount uint64
	r.get("amount", &amount)
	if r.err != nil {
		return nil, r.err
	}
	return respond(s.CreateTransfer(tc, amount))
}

func (s *Service) createEncryptedTransfer(inputs [][]byte) ([]byte, error) {
	r := parseRequest(inputs[0])
	tc := r.transferContext(true)
	var (
		global   *params.GlobalContext
		amount   uint64
		senderSK *elgamal.SecretKey
		receiver *elgamal.PublicKey
		input    *transfers.EncryptedAmount
	)
	r.get("global", &global)
	r.get("amount", &amount)
	r.get("senderSecretKey", &senderSK)
	r.get("receiverPublicKey", &receiver)
	r.get("inputEncryptedAmount", &input)
	if r.err != nil {
		return nil, r.err
	}
	return respond(s.CreateEncryptedTransfer(tc, global, receiver, senderSK, input, amount))
}

func (s *Service) createPubToSecTransfer(inputs [][]byte) ([]byte, error) {
	r := parseRequest(inputs[0])
	tc := r.transferContext(false)
	var (
		global *params.GlobalContext
		amount uint64
	)
	r.get("amount", &amount)
	r.get("global", &global)
	if r.err != nil {
		return nil, r.err
	}
	return respond(s.CreatePubToSecTransfer(tc, global, amount))
}

func (s *Service) createSecToPubTransfer(inputs [][]byte) ([]byte, error) {
	r := parseRequest(inputs[0])
	tc := r.transferContext(false)
	var (
		global   *params.GlobalContext
		amount   uint64
		senderSK *elgamal.SecretKey
		input    *transfers.EncryptedAmount
	)
	r.get("global", &global)
	r.get("amount", &amount)
	r.get("senderSecretKey", &senderSK)
	r.get("inputEncryptedAmount", &input)
	if r.err != nil {
		return nil, r.err
	}
	return respond(s.CreateSecToPubTransfer(tc, global, senderSK, input, amount))
}

// combineEncryptedAmounts takes two JSON strings holding hex encoded amounts.
func (s *Service) combineEncryptedAmounts(inputs [][]byte) ([]byte, error) {
	var left, right transfers.EncryptedAmount
	if err := json.Unmarshal(inputs[0], &left); err != nil {
		return nil, errors.Wrap(err, "left amount")
	}
	if err := json.Unmarshal(inputs[1], &right); err != nil {
		return nil, errors.Wrap(err, "right amount")
	}
	return json.Marshal(s.CombineEncryptedAmounts(&left, &right))
}

func (s *Service) createIdRequest(inputs [][]byte) ([]byte, error) {
	r := parseRequest(inputs[0])
	ctx := r.identityContext()
	if r.err != nil {
		return nil, r.err
	}
	return respond(s.CreateIdRequest(ctx))
}

func (s *Service) createCredential(inputs [][]byte) ([]byte, error) {
	r := parseRequest(inputs[0])
	req := &CredentialRequest{}
	r.get("expiry", &req.Expiry)
	req.Context = r.identityContext()
	r.get("identityObject", &req.IdentityObject)
	r.get("privateIdObjectData", &req.PrivateData)
	r.get("revealedAttributes", &req.RevealedAttributes)
	r.get("accountNumber", &req.AccountNumber)
	if r.err != nil {
		return nil, r.err
	}
	return respond(s.CreateCredential(req))
}

func (s *Service) generateAccounts(inputs [][]byte) ([]byte, error) {
	r := parseRequest(inputs[0])
	var (
		global  *params.GlobalContext
		idObj   *identity.IdentityObject
		private *identity.PrivateIdentityData
		start   uint8
	)
	r.get("global", &global)
	r.get("identityObject", &idObj)
	r.get("privateIdObjectData", &private)
	if r.has("start") {
		r.get("start", &start)
	}
	if r.err != nil {
		return nil, r.err
	}
	if idObj.AttributeList == nil || private.Aci.PrfKey == nil {
		return nil, errors.New("incomplete identity object")
	}
	return json.Marshal(s.GenerateAccounts(global, idObj, private, start))
}

// decryptEncryptedAmount responds with the amount as a JSON number.
func (s *Service) decryptEncryptedAmount(inputs [][]byte) ([]byte, error) {
	r := parseRequest(inputs[0])
	var (
		ea *transfers.EncryptedAmount
		sk *elgamal.SecretKey
	)
	r.get("encryptedAmount", &ea)
	r.get("encryptionSecretKey", &sk)
	if r.err != nil {
		return nil, r.err
	}
	amount, err := s.DecryptEncryptedAmount(sk, ea)
	if err != nil {
		return nil, err
	}
	return []byte(strconv.FormatUint(amount, 10)), nil
}

// checkAccountAddress takes the address text, bare or as a JSON string, and
// responds true or false.
func (s *Service) checkAccountAddress(inputs [][]byte) ([]byte, error) {
	text := strings.Trim(string(bytes.TrimSpace(inputs[0])), `"`)
	return json.Marshal(CheckAccountAddress(text))
}
