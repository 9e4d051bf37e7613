// Package transaction assembles account transactions and signs them with
// account keys.
package transaction

import (
	"crypto/sha256"

	"github.com/takakv/msc-wallet/account"
	"github.com/takakv/msc-wallet/serial"
)

// Header carries the fields of a transaction besides its payload.
type Header struct {
	From   account.Address
	Nonce  uint64
	Energy uint64
	Expiry uint64
}

// body is from ‖ nonce ‖ energy ‖ payload size (u32) ‖ expiry ‖ payload.
type body struct {
	Header
	Payload []byte
}

func (b *body) Compose(v serial.Visitor) {
	v.Value(&b.From)
	v.U64(&b.Nonce)
	v.U64(&b.Energy)
	n := len(b.Payload)
	v.Len(4, &n)
	v.U64(&b.Expiry)
	v.Bytes(&b.Payload, n)
}

// Assemble returns the transaction body and its SHA-256 hash, which is what
// account keys sign.
func Assemble(h Header, payload []byte) ([32]byte, []byte) {
	b := serial.Encode(&body{Header: h, Payload: payload})
	return sha256.Sum256(b), b
}

// Disassemble splits a transaction body into its header and payload.
func Disassemble(b []byte) (Header, []byte, error) {
	var tx body
	if err := serial.Decode(b, &tx); err != nil {
		return Header{}, nil, err
	}
	return tx.Header, tx.Payload, nil
}
