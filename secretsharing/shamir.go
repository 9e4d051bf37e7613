// Package secretsharing implements Shamir secret sharing over a prime field,
// with Pedersen commitments to the polynomial so that every share can be
// checked against public data.
package secretsharing

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/pedersen"
	"github.com/takakv/msc-wallet/util"
)

var (
	// ErrThreshold is returned for thresholds outside [1, n].
	ErrThreshold = errors.New("threshold out of range")
	// ErrDuplicateShare is returned when two shares carry the same number.
	ErrDuplicateShare = errors.New("duplicate share number")
)

// Polynomial is a list of coefficients, constant term first.
type Polynomial []*big.Int

// RandomPolynomial returns a polynomial of degree threshold-1 whose constant
// term is secret.
func RandomPolynomial(secret *big.Int, threshold int, n *big.Int, rng io.Reader) (Polynomial, error) {
	if threshold < 1 {
		return nil, errors.Wrapf(ErrThreshold, "threshold %d", threshold)
	}
	p := make(Polynomial, threshold)
	p[0] = new(big.Int).Mod(secret, n)
	for i := 1; i < threshold; i++ {
		c, err := randScalar(rng, n)
		if err != nil {
			return nil, err
		}
		p[i] = c
	}
	return p, nil
}

// Eval evaluates the polynomial at x modulo n.
func (p Polynomial) Eval(x uint32, n *big.Int) *big.Int {
	X := big.NewInt(int64(x))
	acc := new(big.Int)
	for i := len(p) - 1; i >= 0; i-- {
		acc.Mul(acc, X)
		acc.Add(acc, p[i])
		acc.Mod(acc, n)
	}
	return acc
}

// Sharing is the dealer's view of a secret split with committed coefficients.
type Sharing struct {
	Values     Polynomial
	Randomness Polynomial
	// Commitments[j] commits to Values[j] with Randomness[j].
	Commitments []group.Element
}

// Share splits secret into polynomial form, committing to each coefficient
// under ck. Shares are numbered from 1.
func Share(ck pedersen.CommitmentKey, secret *big.Int, threshold, parties int, rng io.Reader) (*Sharing, error) {
	if threshold < 1 || threshold > parties {
		return nil, errors.Wrapf(ErrThreshold, "threshold %d of %d", threshold, parties)
	}
	n := ck.G.GroupOrder()
	values, err := RandomPolynomial(secret, threshold, n, rng)
	if err != nil {
		return nil, err
	}
	randomness := make(Polynomial, threshold)
	for i := range randomness {
		if randomness[i], err = randScalar(rng, n); err != nil {
			return nil, err
		}
	}
	return NewSharing(ck, values, randomness), nil
}

// NewSharing commits to a sharing whose polynomials are already chosen.
func NewSharing(ck pedersen.CommitmentKey, values, randomness Polynomial) *Sharing {
	s := &Sharing{Values: values, Randomness: randomness}
	s.Commitments = make([]group.Element, len(values))
	for j := range values {
		s.Commitments[j] = ck.Commit(values[j], randomness[j])
	}
	return s
}

// ShareValue returns share x and the randomness of its derived commitment.
func (s *Sharing) ShareValue(x uint32) (*big.Int, *big.Int) {
	n := s.Commitments[0].GroupOrder()
	return s.Values.Eval(x, n), s.Randomness.Eval(x, n)
}

// ShareCommitment derives the commitment to share x from the coefficient
// commitments alone: sum(x^j . C_j).
func ShareCommitment(commitments []group.Element, x uint32) group.Element {
	GP := commitments[0].Group()
	X := big.NewInt(int64(x))
	acc := GP.Identity()
	for j := len(commitments) - 1; j >= 0; j-- {
		acc.Scale(acc, X)
		acc.Add(acc, commitments[j])
	}
	return acc
}

// LagrangeAtZero returns the Lagrange coefficients for interpolating at zero
// from the given share numbers.
func LagrangeAtZero(numbers []uint32, n *big.Int) ([]*big.Int, error) {
	seen := make(map[uint32]bool, len(numbers))
	for _, x := range numbers {
		if x == 0 {
			return nil, errors.New("share number 0 holds the secret")
		}
		if seen[x] {
			return nil, errors.Wrapf(ErrDuplicateShare, "share %d", x)
		}
		seen[x] = true
	}
	coeffs := make([]*big.Int, len(numbers))
	for i, xi := range numbers {
		num, den := big.NewInt(1), big.NewInt(1)
		for j, xj := range numbers {
			if i == j {
				continue
			}
			// x_j / (x_j - x_i)
			num.Mul(num, big.NewInt(int64(xj)))
			den.Mul(den, new(big.Int).Sub(big.NewInt(int64(xj)), big.NewInt(int64(xi))))
		}
		coeffs[i] = num.Mul(num, util.ModInverse(den, n))
		coeffs[i].Mod(coeffs[i], n)
	}
	return coeffs, nil
}

// Reveal interpolates the secret from shares keyed by share number.
func Reveal(shares map[uint32]*big.Int, n *big.Int) (*big.Int, error) {
	numbers, values := split(shares)
	coeffs, err := LagrangeAtZero(numbers, n)
	if err != nil {
		return nil, err
	}
	acc := new(big.Int)
	for i := range values {
		acc.Add(acc, new(big.Int).Mul(coeffs[i], values[i]))
	}
	return acc.Mod(acc, n), nil
}

// RevealInExponent interpolates s.g from shares given as s_i.g.
func RevealInExponent(shares map[uint32]group.Element) (group.Element, error) {
	numbers, values := split(shares)
	if len(values) == 0 {
		return nil, errors.New("no shares")
	}
	GP := values[0].Group()
	coeffs, err := LagrangeAtZero(numbers, GP.N())
	if err != nil {
		return nil, err
	}
	acc := GP.Identity()
	for i := range values {
		acc.Add(acc, GP.Element().Scale(values[i], coeffs[i]))
	}
	return acc, nil
}

func split[T any](shares map[uint32]T) ([]uint32, []T) {
	numbers := make([]uint32, 0, len(shares))
	values := make([]T, 0, len(shares))
	for x, v := range shares {
		numbers = append(numbers, x)
		values = append(values, v)
	}
	return numbers, values
}

func randScalar(rng io.Reader, n *big.Int) (*big.Int, error) {
	tmp := new(big.Int).Sub(n, big.NewInt(1))
	r, err := rand.Int(rng, tmp)
	if err != nil {
		return nil, errors.Wrap(err, "sampling polynomial")
	}
	return r.Add(r, big.NewInt(1)), nil
}
