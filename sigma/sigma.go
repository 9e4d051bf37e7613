// Package sigma implements non-interactive proofs of knowledge for linear
// relations over prime-order groups.
//
// A statement is a list of equations Target = sum(x_w . Base), where the x_w
// are secret witnesses shared between equations. Equations may live in
// different groups as long as all groups have the same order, which lets a
// single proof tie together G1 and G2 relations over BLS12-381.
package sigma

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
)

var (
	// ErrInvalidWitness is returned when the witness does not satisfy the
	// statement being proven.
	ErrInvalidWitness = errors.New("witness does not satisfy statement")
	// ErrMalformedStatement is returned for statements that reference missing
	// witnesses or mix groups of different order.
	ErrMalformedStatement = errors.New("malformed statement")
)

// Term is one summand x_w . Base of an equation.
type Term struct {
	Base    group.Element
	Witness int
}

// Equation states that Target equals the sum of its terms.
type Equation struct {
	Target group.Element
	Terms  []Term
}

// Statement is a conjunction of equations over a shared witness vector.
type Statement struct {
	Equations []Equation
	// Witnesses is the length of the witness vector.
	Witnesses int
}

// Proof is a Fiat-Shamir transformed sigma protocol transcript. The
// commitments are not stored; the verifier recomputes them from the
// challenge and the responses.
type Proof struct {
	Challenge *big.Int
	Responses []*big.Int
}

// Add appends the equation Target = sum(terms) to the statement.
func (st *Statement) Add(target group.Element, terms ...Term) {
	st.Equations = append(st.Equations, Equation{Target: target, Terms: terms})
}

func (st *Statement) order() (*big.Int, error) {
	if len(st.Equations) == 0 {
		return nil, errors.Wrap(ErrMalformedStatement, "no equations")
	}
	n := st.Equations[0].Target.GroupOrder()
	for i, eq := range st.Equations {
		if eq.Target.GroupOrder().Cmp(n) != 0 {
			return nil, errors.Wrapf(ErrMalformedStatement, "equation %d has different group order", i)
		}
		if len(eq.Terms) == 0 {
			return nil, errors.Wrapf(ErrMalformedStatement, "equation %d has no terms", i)
		}
		for _, t := range eq.Terms {
			if t.Witness < 0 || t.Witness >= st.Witnesses {
				return nil, errors.Wrapf(ErrMalformedStatement, "equation %d references witness %d", i, t.Witness)
			}
			if t.Base.GroupOrder().Cmp(n) != 0 {
				return nil, errors.Wrapf(ErrMalformedStatement, "equation %d has different group order", i)
			}
		}
	}
	return n, nil
}

func (eq *Equation) eval(x []*big.Int) group.Element {
	GP := eq.Target.Group()
	R := GP.Identity()
	tmp := GP.Element()
	for _, t := range eq.Terms {
		R.Add(R, tmp.Scale(t.Base, x[t.Witness]))
	}
	return R
}

func (st *Statement) absorb(ro *RandomOracle, commitments []group.Element) {
	ro.AppendUint64("equations", uint64(len(st.Equations)))
	for _, eq := range st.Equations {
		ro.AppendElements("target", eq.Target)
		ro.AppendUint64("terms", uint64(len(eq.Terms)))
		for _, t := range eq.Terms {
			ro.AppendElements("base", t.Base)
			ro.AppendUint64("witness", uint64(t.Witness))
		}
	}
	ro.AppendElements("commitment", commitments...)
}

// Prove produces a proof that the prover knows witness satisfying st. The
// transcript ro binds the proof to its context and is advanced.
func Prove(ro *RandomOracle, st *Statement, witness []*big.Int, rng io.Reader) (*Proof, error) {
	n, err := st.order()
	if err != nil {
		return nil, err
	}
	if len(witness) != st.Witnesses {
		return nil, errors.Wrapf(ErrMalformedStatement, "expected %d witnesses, got %d", st.Witnesses, len(witness))
	}
	for i, eq := range st.Equations {
		if !eq.eval(witness).IsEqual(eq.Target) {
			return nil, errors.Wrapf(ErrInvalidWitness, "equation %d", i)
		}
	}

	k := make([]*big.Int, st.Witnesses)
	for i := range k {
		k[i], err = randScalar(rng, n)
		if err != nil {
			return nil, err
		}
	}
	commitments := make([]group.Element, len(st.Equations))
	for i := range st.Equations {
		commitments[i] = st.Equations[i].eval(k)
	}

	st.absorb(ro, commitments)
	c := ro.Challenge("challenge", n)

	// z = k + c.x
	z := make([]*big.Int, st.Witnesses)
	for i := range z {
		z[i] = new(big.Int).Mul(c, witness[i])
		z[i].Add(z[i], k[i])
		z[i].Mod(z[i], n)
	}
	return &Proof{Challenge: c, Responses: z}, nil
}

// Verify checks proof against st. The transcript must be in the same state
// the prover's was.
func Verify(ro *RandomOracle, st *Statement, proof *Proof) bool {
	if proof == nil || proof.Challenge == nil {
		return false
	}
	n, err := st.order()
	if err != nil || len(proof.Responses) != st.Witnesses {
		return false
	}
	for _, z := range proof.Responses {
		if z == nil || z.Sign() < 0 || z.Cmp(n) >= 0 {
			return false
		}
	}

	// K = sum(z.Base) - c.Target
	commitments := make([]group.Element, len(st.Equations))
	for i := range st.Equations {
		eq := &st.Equations[i]
		K := eq.eval(proof.Responses)
		cT := eq.Target.Group().Element().Scale(eq.Target, proof.Challenge)
		commitments[i] = K.Subtract(K, cT)
	}

	st.absorb(ro, commitments)
	c := ro.Challenge("challenge", n)
	return c.Cmp(proof.Challenge) == 0
}

func (p *Proof) Compose(v serial.Visitor) {
	if p.Challenge == nil {
		p.Challenge = new(big.Int)
	}
	v.Scalar(&p.Challenge)
	serial.Scalars(v, 4, &p.Responses)
}

func (p *Proof) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(p)
}

func (p *Proof) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, p)
}

func randScalar(rng io.Reader, n *big.Int) (*big.Int, error) {
	k, err := rand.Int(rng, n)
	if err != nil {
		return nil, errors.Wrap(err, "sampling proof randomness")
	}
	return k, nil
}
