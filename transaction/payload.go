package transaction

import (
	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/account"
	"github.com/takakv/msc-wallet/serial"
	"github.com/takakv/msc-wallet/transfers"
)

// PayloadType is the first byte of every payload.
type PayloadType uint8

const (
	TypeTransfer          PayloadType = 3
	TypeEncryptedTransfer PayloadType = 16
	TypePubToSecTransfer  PayloadType = 17
	TypeSecToPubTransfer  PayloadType = 18
)

// TransferPayloadSize is the size of every plain transfer payload.
const TransferPayloadSize = 1 + account.AddressLen + 8

// ErrPayloadType is returned when decoding a payload of another type.
var ErrPayloadType = errors.New("unexpected payload type")

// Payload is a transaction payload with a canonical encoding.
type Payload interface {
	serial.Composer
	Type() PayloadType
}

func composeType(v serial.Visitor, want PayloadType) {
	tag := uint8(want)
	v.U8(&tag)
	if v.Decoding() && PayloadType(tag) != want {
		v.Fail(errors.Wrapf(ErrPayloadType, "got %d, want %d", tag, want))
	}
}

// Transfer moves a public amount to another account.
type Transfer struct {
	To     account.Address
	Amount uint64
}

func (*Transfer) Type() PayloadType { return TypeTransfer }

func (p *Transfer) Compose(v serial.Visitor) {
	composeType(v, TypeTransfer)
	v.Value(&p.To)
	v.U64(&p.Amount)
}

// EncryptedTransfer moves a shielded amount to another account.
type EncryptedTransfer struct {
	To   account.Address
	Data *transfers.TransferData
}

func (*EncryptedTransfer) Type() PayloadType { return TypeEncryptedTransfer }

func (p *EncryptedTransfer) Compose(v serial.Visitor) {
	composeType(v, TypeEncryptedTransfer)
	v.Value(&p.To)
	if p.Data == nil {
		p.Data = &transfers.TransferData{}
	}
	v.Value(p.Data)
}

// PubToSecTransfer shields part of the sender's public balance.
type PubToSecTransfer struct {
	Amount uint64
}

func (*PubToSecTransfer) Type() PayloadType { return TypePubToSecTransfer }

func (p *PubToSecTransfer) Compose(v serial.Visitor) {
	composeType(v, TypePubToSecTransfer)
	v.U64(&p.Amount)
}

// SecToPubTransfer moves part of the sender's shielded balance to its public
// balance.
type SecToPubTransfer struct {
	Data *transfers.SecToPubTransferData
}

func (*SecToPubTransfer) Type() PayloadType { return TypeSecToPubTransfer }

func (p *SecToPubTransfer) Compose(v serial.Visitor) {
	composeType(v, TypeSecToPubTransfer)
	if p.Data == nil {
		p.Data = &transfers.SecToPubTransferData{}
	}
	v.Value(p.Data)
}

// EncodePayload returns the payload bytes. Plain transfers are always
// TransferPayloadSize bytes long.
func EncodePayload(p Payload) ([]byte, error) {
	b := serial.Encode(p)
	if p.Type() == TypeTransfer && len(b) != TransferPayloadSize {
		return nil, errors.Errorf("transfer payload is %d bytes, want %d", len(b), TransferPayloadSize)
	}
	return b, nil
}

// DecodePayload decodes a payload of any known type.
func DecodePayload(b []byte) (Payload, error) {
	if len(b) == 0 {
		return nil, errors.Wrap(serial.ErrShortBuffer, "empty payload")
	}
	var p Payload
	switch PayloadType(b[0]) {
	case TypeTransfer:
		p = &Transfer{}
	case TypeEncryptedTransfer:
		p = &EncryptedTransfer{}
	case TypePubToSecTransfer:
		p = &PubToSecTransfer{}
	case TypeSecToPubTransfer:
		p = &SecToPubTransfer{}
	default:
		return nil, errors.Wrapf(ErrPayloadType, "type %d", b[0])
	}
	if err := serial.Decode(b, p); err != nil {
		return nil, err
	}
	return p, nil
}
