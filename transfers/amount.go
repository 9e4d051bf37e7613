// Package transfers builds and checks the proof bundles of transfers that
// move value into, out of, or between shielded balances.
//
// A shielded balance is an EncryptedAmount: the low and high 32 bits of the
// amount, each encrypted in the exponent under the owner's key. Splitting
// keeps every chunk within reach of the discrete logarithm table and of a
// 32-bit range proof.
package transfers

import (
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/params"
	"github.com/takakv/msc-wallet/serial"
)

// ChunkBits is the width of one encrypted chunk.
const ChunkBits = params.RangeBits

// Chunks is the number of chunks an amount is split into.
const Chunks = 2

var (
	// ErrInsufficientFunds is returned when the amount to send exceeds the
	// decrypted balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrProofConstruction is returned when a transfer proof cannot be built.
	ErrProofConstruction = errors.New("could not produce payload")
)

// EncryptedAmount is an amount encrypted chunk-wise, low chunk first.
type EncryptedAmount struct {
	Chunks [Chunks]*elgamal.Cipher
}

// split returns the chunks of amount, low first.
func split(amount uint64) [Chunks]uint64 {
	return [Chunks]uint64{amount & (1<<ChunkBits - 1), amount >> ChunkBits}
}

// chunkWeight returns 2^(32.i).
func chunkWeight(i int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(ChunkBits*i))
}

// EncryptAmount encrypts amount under pk. The randomness of every chunk is
// returned alongside.
func EncryptAmount(pk *elgamal.PublicKey, amount uint64, rng io.Reader) (*EncryptedAmount, [Chunks]*big.Int, error) {
	var ea EncryptedAmount
	var rs [Chunks]*big.Int
	for i, v := range split(amount) {
		c, k, err := pk.EncryptExponent(new(big.Int).SetUint64(v), rng)
		if err != nil {
			return nil, rs, err
		}
		ea.Chunks[i], rs[i] = c, k
	}
	return &ea, rs, nil
}

// EncryptAmountWithFixedRandomness encrypts amount with zero randomness. The
// result does not depend on any key, so anyone knowing the amount can check
// it; it is what a public to shielded transfer adds to the balance.
func EncryptAmountWithFixedRandomness(global *params.GlobalContext, amount uint64) *EncryptedAmount {
	g := global.ElGamalGenerator()
	GP := g.Group()
	var ea EncryptedAmount
	for i, v := range split(amount) {
		ea.Chunks[i] = &elgamal.Cipher{
			C1: GP.Identity(),
			C2: GP.Element().Scale(g, new(big.Int).SetUint64(v)),
		}
	}
	return &ea
}

// Aggregate returns the chunk-wise sum of left and right, which encrypts the
// sum of their amounts.
func Aggregate(left, right *EncryptedAmount) *EncryptedAmount {
	var ea EncryptedAmount
	for i := range ea.Chunks {
		ea.Chunks[i] = left.Chunks[i].Combine(right.Chunks[i])
	}
	return &ea
}

// DecryptAmount recovers the amount with table, whose base must be the
// generator of sk.
func DecryptAmount(table *elgamal.BabyStepGiantStep, sk *elgamal.SecretKey, ea *EncryptedAmount) uint64 {
	var amount uint64
	for i, c := range ea.Chunks {
		amount += sk.DecryptExponent(c, table) << uint(ChunkBits*i)
	}
	return amount
}

// combined folds the chunks into one ciphertext of the whole amount.
func (ea *EncryptedAmount) combined() *elgamal.Cipher {
	acc := ea.Chunks[0]
	for i := 1; i < Chunks; i++ {
		acc = acc.Combine(ea.Chunks[i].Scale(chunkWeight(i)))
	}
	return acc
}

func (ea *EncryptedAmount) complete() bool {
	for _, c := range ea.Chunks {
		if c == nil || c.C1 == nil || c.C2 == nil {
			return false
		}
	}
	return true
}

func (ea *EncryptedAmount) Compose(v serial.Visitor) {
	for i := range ea.Chunks {
		if ea.Chunks[i] == nil {
			ea.Chunks[i] = &elgamal.Cipher{}
		}
		v.Value(ea.Chunks[i])
	}
}

func (ea *EncryptedAmount) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(ea)
}

func (ea *EncryptedAmount) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, ea)
}

// weighted returns 2^(32.i).g.
func weighted(g group.Element, i int) group.Element {
	return g.Group().Element().Scale(g, chunkWeight(i))
}
