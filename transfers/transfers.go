package transfers

import (
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/bulletproofs"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/params"
	"github.com/takakv/msc-wallet/serial"
	"github.com/takakv/msc-wallet/sigma"
)

// TransferProof shows that a transfer preserves the sender's balance and
// that every new chunk is a 32-bit value. Commitments and RangeProofs list
// the remaining amount's chunks first, then the transferred amount's.
type TransferProof struct {
	Accounting  *sigma.Proof
	Commitments []group.Element
	RangeProofs []*bulletproofs.RangeProof
}

func (p *TransferProof) Compose(v serial.Visitor) {
	if p.Accounting == nil {
		p.Accounting = &sigma.Proof{}
	}
	v.Value(p.Accounting)
	serial.Elements(v, 1, group.BLS12381G1(), &p.Commitments)
	serial.Slice(v, 1, &p.RangeProofs, func(v serial.Visitor, rp **bulletproofs.RangeProof) {
		if *rp == nil {
			*rp = &bulletproofs.RangeProof{}
		}
		v.Value(*rp)
	})
}

// TransferData is the payload of a shielded to shielded transfer.
type TransferData struct {
	// RemainingAmount is encrypted under the sender's key.
	RemainingAmount *EncryptedAmount
	// TransferAmount is encrypted under the receiver's key.
	TransferAmount *EncryptedAmount
	Proof          *TransferProof
}

func (td *TransferData) Compose(v serial.Visitor) {
	if td.RemainingAmount == nil {
		td.RemainingAmount, td.TransferAmount, td.Proof = &EncryptedAmount{}, &EncryptedAmount{}, &TransferProof{}
	}
	v.Value(td.RemainingAmount)
	v.Value(td.TransferAmount)
	v.Value(td.Proof)
}

func (td *TransferData) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(td)
}

func (td *TransferData) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, td)
}

// SecToPubTransferData is the payload of a shielded to public transfer.
type SecToPubTransferData struct {
	RemainingAmount *EncryptedAmount
	TransferAmount  uint64
	Proof           *TransferProof
}

func (sd *SecToPubTransferData) Compose(v serial.Visitor) {
	if sd.RemainingAmount == nil {
		sd.RemainingAmount, sd.Proof = &EncryptedAmount{}, &TransferProof{}
	}
	v.Value(sd.RemainingAmount)
	v.U64(&sd.TransferAmount)
	v.Value(sd.Proof)
}

func (sd *SecToPubTransferData) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(sd)
}

func (sd *SecToPubTransferData) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, sd)
}

// output is a freshly encrypted amount together with the key it is
// encrypted under.
type output struct {
	pk     *elgamal.PublicKey
	amount *EncryptedAmount
}

// chunk witnesses: value, encryption randomness, commitment randomness
const chunkWitnesses = 3

func chunkWitness(c, which int) int {
	return 1 + chunkWitnesses*c + which
}

// accountingStatement states that the sender knows the secret key of pk,
// that input decrypts to public plus the sum of the output amounts, and that
// every output chunk is encrypted correctly and committed to under the
// on-chain commitment key.
func accountingStatement(global *params.GlobalContext, pk *elgamal.PublicKey, input *EncryptedAmount, public uint64,
	outputs []output, commitments []group.Element) (*sigma.Statement, error) {
	if !input.complete() {
		return nil, errors.New("incomplete input amount")
	}
	if len(commitments) != Chunks*len(outputs) || !nonNil(commitments) {
		return nil, errors.Errorf("expected %d commitments", Chunks*len(outputs))
	}
	ck := global.OnChainCommitmentKey
	g := ck.G
	GP := g.Group()

	st := &sigma.Statement{Witnesses: 1 + chunkWitnesses*len(commitments)}
	st.Add(pk.Key, sigma.Term{Base: g, Witness: 0})

	in := input.combined()
	target := GP.Element().Scale(g, new(big.Int).SetUint64(public))
	target.Subtract(in.C2, target)
	terms := []sigma.Term{{Base: in.C1, Witness: 0}}
	for o, out := range outputs {
		if !out.amount.complete() {
			return nil, errors.New("incomplete output amount")
		}
		for i, c := range out.amount.Chunks {
			idx := o*Chunks + i
			terms = append(terms, sigma.Term{Base: weighted(g, i), Witness: chunkWitness(idx, 0)})
			st.Add(c.C1, sigma.Term{Base: g, Witness: chunkWitness(idx, 1)})
			st.Add(c.C2,
				sigma.Term{Base: g, Witness: chunkWitness(idx, 0)},
				sigma.Term{Base: out.pk.Key, Witness: chunkWitness(idx, 1)})
			st.Add(commitments[idx],
				sigma.Term{Base: g, Witness: chunkWitness(idx, 0)},
				sigma.Term{Base: ck.H, Witness: chunkWitness(idx, 2)})
		}
	}
	st.Add(target, terms...)
	return st, nil
}

func nonNil(es []group.Element) bool {
	for _, e := range es {
		if e == nil {
			return false
		}
	}
	return true
}

func transcript(global *params.GlobalContext, domain string, pk *elgamal.PublicKey, input *EncryptedAmount,
	public uint64, outputs []output) *sigma.RandomOracle {
	ro := sigma.NewRandomOracle(domain)
	ro.AppendString("genesis", global.GenesisString)
	ro.Append("sender", pk)
	ro.Append("input", input)
	ro.AppendUint64("public", public)
	for _, out := range outputs {
		ro.Append("key", out.pk)
		ro.Append("amount", out.amount)
	}
	return ro
}

// prove encrypts the output values and proves the transfer. balance is the
// decrypted input, values the plaintext outputs, keyed like outputs.
func prove(global *params.GlobalContext, domain string, sk *elgamal.SecretKey, input *EncryptedAmount,
	public uint64, keys []*elgamal.PublicKey, values []uint64, rng io.Reader) ([]output, *TransferProof, error) {
	ck := global.OnChainCommitmentKey
	pk := sk.PublicKey()

	outputs := make([]output, len(keys))
	witness := []*big.Int{sk.Scalar}
	var commitments []group.Element
	var chunkValues []uint64
	var commitRand []*big.Int
	for o, key := range keys {
		amount, rs, err := EncryptAmount(key, values[o], rng)
		if err != nil {
			return nil, nil, err
		}
		outputs[o] = output{pk: key, amount: amount}
		for i, v := range split(values[o]) {
			C, rho, err := ck.CommitRandom(new(big.Int).SetUint64(v), rng)
			if err != nil {
				return nil, nil, err
			}
			commitments = append(commitments, C)
			chunkValues = append(chunkValues, v)
			commitRand = append(commitRand, rho)
			witness = append(witness, new(big.Int).SetUint64(v), rs[i], rho)
		}
	}

	st, err := accountingStatement(global, pk, input, public, outputs, commitments)
	if err != nil {
		return nil, nil, err
	}
	ro := transcript(global, domain, pk, input, public, outputs)
	proof := &TransferProof{Commitments: commitments}
	if proof.Accounting, err = sigma.Prove(ro, st, witness, rng); err != nil {
		return nil, nil, err
	}
	for c, v := range chunkValues {
		rp, err := bulletproofs.Prove(ro, global.BulletproofGenerators, ChunkBits, v, commitRand[c], ck.G, ck.H, rng)
		if err != nil {
			return nil, nil, err
		}
		proof.RangeProofs = append(proof.RangeProofs, rp)
	}
	return outputs, proof, nil
}

func verify(global *params.GlobalContext, domain string, pk *elgamal.PublicKey, input *EncryptedAmount,
	public uint64, outputs []output, proof *TransferProof) bool {
	if proof == nil || proof.Accounting == nil || len(proof.RangeProofs) != len(proof.Commitments) {
		return false
	}
	st, err := accountingStatement(global, pk, input, public, outputs, proof.Commitments)
	if err != nil {
		return false
	}
	ro := transcript(global, domain, pk, input, public, outputs)
	if !sigma.Verify(ro, st, proof.Accounting) {
		return false
	}
	ck := global.OnChainCommitmentKey
	for c, rp := range proof.RangeProofs {
		if rp == nil || !rp.Verify(ro, global.BulletproofGenerators, ChunkBits, proof.Commitments[c], ck.G, ck.H) {
			return false
		}
	}
	return true
}

const (
	transferDomain = "EncryptedTransfer"
	secToPubDomain = "SecToPubTransfer"
)

// MakeTransferData moves amount from the shielded balance input, owned by
// senderSK, to the holder of receiverPK. The balance is decrypted with table.
func MakeTransferData(global *params.GlobalContext, table *elgamal.BabyStepGiantStep, receiverPK *elgamal.PublicKey,
	senderSK *elgamal.SecretKey, input *EncryptedAmount, amount uint64, rng io.Reader) (*TransferData, error) {
	if !input.complete() {
		return nil, errors.Wrap(ErrProofConstruction, "incomplete input amount")
	}
	balance := DecryptAmount(table, senderSK, input)
	if amount > balance {
		return nil, errors.Wrapf(ErrInsufficientFunds, "balance %d, amount %d", balance, amount)
	}
	keys := []*elgamal.PublicKey{senderSK.PublicKey(), receiverPK}
	outputs, proof, err := prove(global, transferDomain, senderSK, input, 0, keys, []uint64{balance - amount, amount}, rng)
	if err != nil {
		return nil, errors.Wrap(ErrProofConstruction, err.Error())
	}
	return &TransferData{
		RemainingAmount: outputs[0].amount,
		TransferAmount:  outputs[1].amount,
		Proof:           proof,
	}, nil
}

// VerifyTransferData checks td against the sender's balance input.
func VerifyTransferData(global *params.GlobalContext, receiverPK, senderPK *elgamal.PublicKey, input *EncryptedAmount,
	td *TransferData) bool {
	if td == nil || td.RemainingAmount == nil || td.TransferAmount == nil {
		return false
	}
	outputs := []output{{pk: senderPK, amount: td.RemainingAmount}, {pk: receiverPK, amount: td.TransferAmount}}
	return verify(global, transferDomain, senderPK, input, 0, outputs, td.Proof)
}

// MakeSecToPubTransferData moves amount from the shielded balance input to
// the public balance of the same account.
func MakeSecToPubTransferData(global *params.GlobalContext, table *elgamal.BabyStepGiantStep, senderSK *elgamal.SecretKey,
	input *EncryptedAmount, amount uint64, rng io.Reader) (*SecToPubTransferData, error) {
	if !input.complete() {
		return nil, errors.Wrap(ErrProofConstruction, "incomplete input amount")
	}
	balance := DecryptAmount(table, senderSK, input)
	if amount > balance {
		return nil, errors.Wrapf(ErrInsufficientFunds, "balance %d, amount %d", balance, amount)
	}
	keys := []*elgamal.PublicKey{senderSK.PublicKey()}
	outputs, proof, err := prove(global, secToPubDomain, senderSK, input, amount, keys, []uint64{balance - amount}, rng)
	if err != nil {
		return nil, errors.Wrap(ErrProofConstruction, err.Error())
	}
	return &SecToPubTransferData{
		RemainingAmount: outputs[0].amount,
		TransferAmount:  amount,
		Proof:           proof,
	}, nil
}

// VerifySecToPubTransferData checks sd against the sender's balance input.
func VerifySecToPubTransferData(global *params.GlobalContext, senderPK *elgamal.PublicKey, input *EncryptedAmount,
	sd *SecToPubTransferData) bool {
	if sd == nil || sd.RemainingAmount == nil {
		return false
	}
	outputs := []output{{pk: senderPK, amount: sd.RemainingAmount}}
	return verify(global, secToPubDomain, senderPK, input, sd.TransferAmount, outputs, sd.Proof)
}
