package transfers

import (
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/takakv/msc-wallet/elgamal"
	"github.com/takakv/msc-wallet/params"
)

type setup struct {
	global   *params.GlobalContext
	table    *elgamal.BabyStepGiantStep
	sender   *elgamal.SecretKey
	receiver *elgamal.SecretKey
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	global, err := params.Generate("transfers test")
	require.NoError(t, err)
	g := global.ElGamalGenerator()
	sender, err := elgamal.GenerateSecretKey(g, rand.Reader)
	require.NoError(t, err)
	receiver, err := elgamal.GenerateSecretKey(g, rand.Reader)
	require.NoError(t, err)
	return &setup{
		global:   global,
		table:    elgamal.NewBabyStepGiantStep(g, 1<<10),
		sender:   sender,
		receiver: receiver,
	}
}

func (s *setup) encrypt(t *testing.T, sk *elgamal.SecretKey, amount uint64) *EncryptedAmount {
	t.Helper()
	ea, _, err := EncryptAmount(sk.PublicKey(), amount, rand.Reader)
	require.NoError(t, err)
	return ea
}

func TestAggregate(t *testing.T) {
	s := newSetup(t)

	t.Run("encrypted", func(t *testing.T) {
		sum := Aggregate(s.encrypt(t, s.sender, 100), s.encrypt(t, s.sender, 50))
		assert.EqualValues(t, 150, DecryptAmount(s.table, s.sender, sum))
	})

	t.Run("fixed randomness", func(t *testing.T) {
		fixed := EncryptAmountWithFixedRandomness(s.global, 50)
		assert.True(t, fixed.Chunks[0].C1.IsIdentity())
		assert.Equal(t, serialize(t, fixed), serialize(t, EncryptAmountWithFixedRandomness(s.global, 50)))

		sum := Aggregate(s.encrypt(t, s.sender, 100), fixed)
		assert.EqualValues(t, 150, DecryptAmount(s.table, s.sender, sum))
	})

	t.Run("chunks", func(t *testing.T) {
		amount := uint64(3)<<ChunkBits | 9
		ea := s.encrypt(t, s.sender, amount)
		assert.Equal(t, amount, DecryptAmount(s.table, s.sender, ea))
	})
}

func TestTransfer(t *testing.T) {
	s := newSetup(t)
	input := s.encrypt(t, s.sender, 1000)

	td, err := MakeTransferData(s.global, s.table, s.receiver.PublicKey(), s.sender, input, 300, rand.Reader)
	require.NoError(t, err)

	t.Run("verifies", func(t *testing.T) {
		assert.True(t, VerifyTransferData(s.global, s.receiver.PublicKey(), s.sender.PublicKey(), input, td))
	})

	t.Run("amounts", func(t *testing.T) {
		assert.EqualValues(t, 700, DecryptAmount(s.table, s.sender, td.RemainingAmount))
		assert.EqualValues(t, 300, DecryptAmount(s.table, s.receiver, td.TransferAmount))
	})

	t.Run("survives encoding", func(t *testing.T) {
		var decoded TransferData
		require.NoError(t, json.Unmarshal(serialize(t, td), &decoded))
		assert.True(t, VerifyTransferData(s.global, s.receiver.PublicKey(), s.sender.PublicKey(), input, &decoded))
	})

	t.Run("different input", func(t *testing.T) {
		other := s.encrypt(t, s.sender, 1000)
		assert.False(t, VerifyTransferData(s.global, s.receiver.PublicKey(), s.sender.PublicKey(), other, td))
	})

	t.Run("substituted amount", func(t *testing.T) {
		forged := *td
		forged.TransferAmount = s.encrypt(t, s.receiver, 900)
		assert.False(t, VerifyTransferData(s.global, s.receiver.PublicKey(), s.sender.PublicKey(), input, &forged))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		_, err := MakeTransferData(s.global, s.table, s.receiver.PublicKey(), s.sender, input, 1001, rand.Reader)
		assert.Equal(t, ErrInsufficientFunds, errors.Cause(err))
	})

	t.Run("across chunks", func(t *testing.T) {
		input := s.encrypt(t, s.sender, 1<<ChunkBits+100)
		td, err := MakeTransferData(s.global, s.table, s.receiver.PublicKey(), s.sender, input, 1<<ChunkBits, rand.Reader)
		require.NoError(t, err)
		assert.True(t, VerifyTransferData(s.global, s.receiver.PublicKey(), s.sender.PublicKey(), input, td))
		assert.EqualValues(t, 100, DecryptAmount(s.table, s.sender, td.RemainingAmount))
		assert.EqualValues(t, uint64(1)<<ChunkBits, DecryptAmount(s.table, s.receiver, td.TransferAmount))
	})
}

func TestSecToPubTransfer(t *testing.T) {
	s := newSetup(t)
	input := Aggregate(s.encrypt(t, s.sender, 600), EncryptAmountWithFixedRandomness(s.global, 400))

	sd, err := MakeSecToPubTransferData(s.global, s.table, s.sender, input, 250, rand.Reader)
	require.NoError(t, err)
	assert.EqualValues(t, 250, sd.TransferAmount)
	assert.EqualValues(t, 750, DecryptAmount(s.table, s.sender, sd.RemainingAmount))
	assert.True(t, VerifySecToPubTransferData(s.global, s.sender.PublicKey(), input, sd))

	t.Run("altered public amount", func(t *testing.T) {
		forged := *sd
		forged.TransferAmount = 251
		assert.False(t, VerifySecToPubTransferData(s.global, s.sender.PublicKey(), input, &forged))
	})

	t.Run("wrong key", func(t *testing.T) {
		assert.False(t, VerifySecToPubTransferData(s.global, s.receiver.PublicKey(), input, sd))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		_, err := MakeSecToPubTransferData(s.global, s.table, s.sender, input, 1001, rand.Reader)
		assert.Equal(t, ErrInsufficientFunds, errors.Cause(err))
	})
}

func serialize(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
