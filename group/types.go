package group

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

// ErrIncompatible is returned when an element of one group is
// decoded into or combined with an element of another.
var ErrIncompatible = errors.New("incompatible group element type")

func randInt(rng io.Reader, max *big.Int) (*big.Int, error) {
	r, err := rand.Int(rng, max)
	if err != nil {
		return nil, errors.Wrap(err, "sampling scalar")
	}
	return r, nil
}

// marshalHexJSON encodes b as a JSON string of lowercase hex.
func marshalHexJSON(b []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	return json.Marshal(hex.EncodeToString(b))
}

// unmarshalHexJSON decodes a JSON hex string produced by marshalHexJSON.
func unmarshalHexJSON(data []byte) ([]byte, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decoding group element")
	}
	return b, nil
}
