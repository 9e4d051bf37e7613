// Package params holds the chain-wide cryptographic parameters every wallet
// operation is evaluated against.
package params

import (
	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/bulletproofs"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/pedersen"
	"github.com/takakv/msc-wallet/serial"
)

// RangeBits is the width of the amount chunks proven in range.
const RangeBits = 32

// GlobalContext fixes the group generators used on chain.
type GlobalContext struct {
	// OnChainCommitmentKey.G doubles as the ElGamal and PRF generator.
	OnChainCommitmentKey  pedersen.CommitmentKey
	BulletproofGenerators *bulletproofs.Generators
	GenesisString         string
}

// Generate derives a context over BLS12-381 G1 from genesis. The result is
// deterministic, so every party derives the same parameters.
func Generate(genesis string) (*GlobalContext, error) {
	GP := group.BLS12381G1()
	ck, err := pedersen.NewCommitmentKey(GP, genesis+"/commitment")
	if err != nil {
		return nil, errors.Wrap(err, "deriving commitment key")
	}
	gens, err := bulletproofs.NewGenerators(GP, 2*RangeBits)
	if err != nil {
		return nil, errors.Wrap(err, "deriving bulletproof generators")
	}
	return &GlobalContext{
		OnChainCommitmentKey:  ck,
		BulletproofGenerators: gens,
		GenesisString:         genesis,
	}, nil
}

// ElGamalGenerator returns the generator encryption keys are relative to.
func (gc *GlobalContext) ElGamalGenerator() group.Element {
	return gc.OnChainCommitmentKey.G
}

// Group returns the group protocol objects live in.
func (gc *GlobalContext) Group() group.Group {
	return gc.OnChainCommitmentKey.G.Group()
}

func (gc *GlobalContext) Compose(v serial.Visitor) {
	v.Value(&gc.OnChainCommitmentKey)
	if gc.BulletproofGenerators == nil {
		gc.BulletproofGenerators = &bulletproofs.Generators{}
	}
	v.Value(gc.BulletproofGenerators)
	v.String(4, &gc.GenesisString)
}

func (gc *GlobalContext) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(gc)
}

func (gc *GlobalContext) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, gc)
}
