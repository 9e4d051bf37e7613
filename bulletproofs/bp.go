/*
 * Copyright (C) 2019 ING BANK N.V.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

/*
This file contains the implementation of the Bulletproofs range proof proposed in the paper:
Bulletproofs: Short Proofs for Confidential Transactions and More
Benedikt Bunz, Jonathan Bootle, Dan Boneh, Andrew Poelstra, Pieter Wuille and Greg Maxwell
The documentation and comments are based on the ePrint version: https://eprint.iacr.org/2017/1066.pdf
*/

package bulletproofs

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
	"github.com/takakv/msc-wallet/sigma"
	"github.com/takakv/msc-wallet/util"
)

// SEED is the prefix hashed to derive the vector generators.
var SEED = "BulletproofsDoesNotNeedTrustedSetup"

// MaxBits is the largest supported range exponent.
const MaxBits = 64

/*
Generators are the vector commitment generators shared by all range proofs.
None of them has a known discrete logarithm relation to another, nor to the
bases a proven commitment is made with.
*/
type Generators struct {
	Gg []group.Element
	Hh []group.Element
	U  group.Element
}

/*
RangeProof is the structure that contains the elements that are necessary for
the verification of the Zero Knowledge Proof. The commitment V itself is not
part of the proof.
*/
type RangeProof struct {
	A                 group.Element
	S                 group.Element
	T1                group.Element
	T2                group.Element
	Taux              *big.Int
	Mu                *big.Int
	Tprime            *big.Int
	InnerProductProof InnerProductProof
}

/*
NewGenerators derives n pairs of generators in GP by hashing to the group.
*/
func NewGenerators(GP group.Group, n int) (*Generators, error) {
	if n < 1 || n > MaxBits {
		return nil, errors.Errorf("generator count %d out of range", n)
	}
	gens := &Generators{
		Gg: make([]group.Element, n),
		Hh: make([]group.Element, n),
	}
	var err error
	for i := 0; i < n; i++ {
		if gens.Gg[i], err = GP.Element().MapToGroup(SEED + "g" + fmt.Sprint(i)); err != nil {
			return nil, err
		}
		if gens.Hh[i], err = GP.Element().MapToGroup(SEED + "h" + fmt.Sprint(i)); err != nil {
			return nil, err
		}
	}
	if gens.U, err = GP.Element().MapToGroup(SEED + "u"); err != nil {
		return nil, err
	}
	return gens, nil
}

func (gens *Generators) check(bits int) error {
	if !isPowerOfTwo(bits) || bits > MaxBits {
		return errors.Errorf("range exponent %d must be a power of 2 no larger than %d", bits, MaxBits)
	}
	if bits > len(gens.Gg) || bits > len(gens.Hh) {
		return errors.Errorf("range exponent %d exceeds %d generators", bits, len(gens.Gg))
	}
	return nil
}

func (gens *Generators) Compose(v serial.Visitor) {
	GP := group.BLS12381G1()
	if gens.U != nil {
		GP = gens.U.Group()
	}
	serial.Elements(v, 4, GP, &gens.Gg)
	serial.Elements(v, 4, GP, &gens.Hh)
	if v.Decoding() && len(gens.Gg) != len(gens.Hh) {
		v.Fail(errors.New("generator vectors differ in length"))
		return
	}
	v.Element(GP, &gens.U)
}

func (gens *Generators) MarshalJSON() ([]byte, error) {
	return serial.MarshalHex(gens)
}

func (gens *Generators) UnmarshalJSON(data []byte) error {
	return serial.UnmarshalHex(data, gens)
}

/*
Prove computes a proof that V = v.B + gamma.Bt commits to a value in
[0, 2^bits). B and Bt are arbitrary bases; for an ElGamal ciphertext
component m.g + k.pk they are g and pk. The transcript ro is advanced.
*/
func Prove(ro *sigma.RandomOracle, gens *Generators, bits int, v uint64, gamma *big.Int,
	B, Bt group.Element, rng io.Reader) (*RangeProof, error) {
	if err := gens.check(bits); err != nil {
		return nil, err
	}
	secret := util.Uint64(v)
	if bits < 64 && v>>uint(bits) != 0 {
		return nil, errors.Errorf("value does not fit in %d bits", bits)
	}

	GP := B.Group()
	mod := GP.N()
	Gg, Hh := gens.Gg[:bits], gens.Hh[:bits]
	proof := &RangeProof{}

	V := util.PedersenCommit(secret, gamma, B, Bt)
	absorbStatement(ro, bits, V, B, Bt)

	// ////////////////////////////////////////////////////////////////////////////
	// First phase: page 19                                                      //
	// ////////////////////////////////////////////////////////////////////////////

	// aL, aR and commitment: (A, alpha)
	aL := bitsOf(secret, bits)                         // (41)
	aR := vectorAddConst(aL, big.NewInt(-1), mod)      // (42)
	alpha, err := randScalar(rng, mod)                 // (43)
	if err != nil {
		return nil, err
	}
	A := commitVector(aL, aR, alpha, Bt, Gg, Hh) // (44)

	// sL, sR and commitment: (S, rho)
	sL, err := sampleRandomVector(rng, bits, mod) // (45)
	if err != nil {
		return nil, err
	}
	sR, err := sampleRandomVector(rng, bits, mod) // (45)
	if err != nil {
		return nil, err
	}
	rho, err := randScalar(rng, mod) // (46)
	if err != nil {
		return nil, err
	}
	S := commitVector(sL, sR, rho, Bt, Gg, Hh) // (47)

	proof.A = A // (48)
	proof.S = S // (48)

	// Fiat-Shamir heuristic to compute challenges y and z.
	ro.AppendElements("A", A)
	ro.AppendElements("S", S)
	y := ro.NonZeroChallenge("y", mod) // (49)
	z := ro.NonZeroChallenge("z", mod) // (50)

	// ////////////////////////////////////////////////////////////////////////////
	// Second phase: page 20                                                     //
	// ////////////////////////////////////////////////////////////////////////////

	tau1, err := randScalar(rng, mod) // (52)
	if err != nil {
		return nil, err
	}
	tau2, err := randScalar(rng, mod) // (52)
	if err != nil {
		return nil, err
	}

	// The paper does not describe how to compute t1 and t2.
	// yPow = (y^0, y^1, ..., y^(n-1))
	// l0 = aL - z
	// l1 = sL
	// r0 = (yPow o (aR + z)) + 2Pow . z^2
	// r1 = sR o yPow
	// t1 = < l1, r0 > + < l0, r1 >
	// t2 = < l1, r1 >
	yPow := powerOf(y, bits, mod)
	zSquared := new(big.Int).Mod(new(big.Int).Mul(z, z), mod)
	powersOf2TimesZSquared := vectorScalarMul(powerOf(big.NewInt(2), bits, mod), zSquared, mod)

	l0 := vectorAddConst(aL, new(big.Int).Neg(z), mod)
	l1 := sL
	aRzn := vectorAddConst(aR, z, mod)
	r0 := vectorAdd(vectorMul(yPow, aRzn, mod), powersOf2TimesZSquared, mod)
	r1 := vectorMul(yPow, sR, mod)

	t1 := new(big.Int).Add(innerProduct(l1, r0, mod), innerProduct(l0, r1, mod))
	t1.Mod(t1, mod)
	t2 := innerProduct(l1, r1, mod)

	T1 := util.PedersenCommit(t1, tau1, B, Bt) // (53)
	T2 := util.PedersenCommit(t2, tau2, B, Bt) // (53)

	proof.T1 = T1 // (54)
	proof.T2 = T2 // (54)

	// Fiat-Shamir heuristic to compute 'random' challenge x
	ro.AppendElements("T1", T1)
	ro.AppendElements("T2", T2)
	x := ro.NonZeroChallenge("x", mod) // (55) & (56)

	// ////////////////////////////////////////////////////////////////////////////
	// Third phase: page 20                                                      //
	// ////////////////////////////////////////////////////////////////////////////

	// l = l(x) = (aL - z . 1Pow) + sL . x // (58)
	bl := vectorAdd(l0, vectorScalarMul(sL, x, mod), mod)

	// r = r(x) = yPow o (aR + z . 1Pow + sR . x) + z^2 . 2Pow // (59)
	br := vectorAdd(aRzn, vectorScalarMul(sR, x, mod), mod)
	br = vectorAdd(vectorMul(yPow, br, mod), powersOf2TimesZSquared, mod)

	// th = <bl, br> // (60)
	th := innerProduct(bl, br, mod)

	// tau_x = tau2 . x^2 + tau1 . x + z^2 . gamma // (61)
	tauX := new(big.Int).Mul(tau2, new(big.Int).Mul(x, x))
	tauX.Add(tauX, new(big.Int).Mul(tau1, x))
	tauX.Add(tauX, new(big.Int).Mul(zSquared, gamma))
	tauX.Mod(tauX, mod)

	// mu = alpha + rho . x // (62)
	mu := new(big.Int).Mul(rho, x)
	mu.Add(mu, alpha)
	mu.Mod(mu, mod)

	proof.Taux = tauX
	proof.Mu = mu
	proof.Tprime = th

	// ////////////////////////////////////////////////////////////////////////////
	// Logarithmic phase: Section 4.2                                            //
	// ////////////////////////////////////////////////////////////////////////////

	ro.AppendScalar("taux", tauX)
	ro.AppendScalar("mu", mu)
	ro.AppendScalar("tprime", th)
	w := ro.NonZeroChallenge("w", mod)
	u := GP.Element().Scale(gens.U, w)

	// h' = h^(y^(-n))
	hp := updateGenerators(Hh, y, mod)

	ipp, err := proveInnerProduct(ro, Gg, hp, u, bl, br)
	if err != nil {
		return nil, err
	}
	proof.InnerProductProof = *ipp
	return proof, nil
}

/*
Verify returns true if and only if the proof shows that V commits to a value
in [0, 2^bits) over the bases B and Bt.
*/
func (proof *RangeProof) Verify(ro *sigma.RandomOracle, gens *Generators, bits int, V, B, Bt group.Element) bool {
	if gens.check(bits) != nil {
		return false
	}
	if proof.Taux == nil || proof.Mu == nil || proof.Tprime == nil ||
		proof.A == nil || proof.S == nil || proof.T1 == nil || proof.T2 == nil {
		return false
	}
	GP := B.Group()
	mod := GP.N()
	Gg, Hh := gens.Gg[:bits], gens.Hh[:bits]

	// Recover x, y, z using Fiat-Shamir heuristic
	absorbStatement(ro, bits, V, B, Bt)
	ro.AppendElements("A", proof.A)
	ro.AppendElements("S", proof.S)
	y := ro.NonZeroChallenge("y", mod)
	z := ro.NonZeroChallenge("z", mod)
	ro.AppendElements("T1", proof.T1)
	ro.AppendElements("T2", proof.T2)
	x := ro.NonZeroChallenge("x", mod)
	ro.AppendScalar("taux", proof.Taux)
	ro.AppendScalar("mu", proof.Mu)
	ro.AppendScalar("tprime", proof.Tprime)
	w := ro.NonZeroChallenge("w", mod)

	zSquared := new(big.Int).Mod(new(big.Int).Mul(z, z), mod)
	xSquared := new(big.Int).Mod(new(big.Int).Mul(x, x), mod)

	// Switch generators
	hp := updateGenerators(Hh, y, mod) // (64)

	// ////////////////////////////////////////////////////////////////////////////
	// Check that tprime  = t(x) = t0 + t1x + t2x^2  ----------  Condition (65) //
	// ////////////////////////////////////////////////////////////////////////////

	lhs := util.PedersenCommit(proof.Tprime, proof.Taux, B, Bt)

	rhs := GP.Element().Scale(V, zSquared)
	rhs.Add(rhs, GP.Element().Scale(B, delta(bits, y, z, mod)))
	rhs.Add(rhs, GP.Element().Scale(proof.T1, x))
	rhs.Add(rhs, GP.Element().Scale(proof.T2, xSquared))

	if !rhs.IsEqual(lhs) { // (65)
		return false
	}

	// P = A + x.S - z.g + (z . yPow + z^2 . 2Pow).h'  #####  Condition (66)
	P := GP.Element().Add(proof.A, GP.Element().Scale(proof.S, x))
	P.Add(P, vectorExp(Gg, vectorCopy(new(big.Int).Sub(mod, z), bits)))
	zyn := vectorScalarMul(powerOf(y, bits, mod), z, mod)
	z22n := vectorScalarMul(powerOf(big.NewInt(2), bits, mod), zSquared, mod)
	P.Add(P, vectorExp(hp, vectorAdd(zyn, z22n, mod)))

	// P - mu.Bt + tprime.u is the inner product statement  ##  Condition (67)
	u := GP.Element().Scale(gens.U, w)
	P.Subtract(P, GP.Element().Scale(Bt, proof.Mu))
	P.Add(P, GP.Element().Scale(u, proof.Tprime))

	return proof.InnerProductProof.verify(ro, Gg, hp, u, P)
}

func absorbStatement(ro *sigma.RandomOracle, bits int, V, B, Bt group.Element) {
	ro.AppendUint64("bits", uint64(bits))
	ro.AppendElements("V", V, B, Bt)
}

/*
bitsOf returns the binary decomposition of x as scalars, least significant first.
*/
func bitsOf(x *big.Int, n int) []*big.Int {
	digits := util.Decompose(x, 2, int64(n))
	result := make([]*big.Int, n)
	for i, d := range digits {
		result[i] = big.NewInt(d)
	}
	return result
}

func randScalar(rng io.Reader, mod *big.Int) (*big.Int, error) {
	r, err := rand.Int(rng, mod)
	if err != nil {
		return nil, errors.Wrap(err, "sampling range proof randomness")
	}
	return r, nil
}

/*
sampleRandomVector generates a vector composed by random big numbers.
*/
func sampleRandomVector(rng io.Reader, n int, mod *big.Int) ([]*big.Int, error) {
	s := make([]*big.Int, n)
	for i := range s {
		r, err := randScalar(rng, mod)
		if err != nil {
			return nil, err
		}
		s[i] = r
	}
	return s, nil
}

/*
updateGenerators is responsible for computing generators in the following format:
[h_1, h_2^(y^-1), ..., h_n^(y^(-n+1))], where [h_1, h_2, ..., h_n] is the original
vector of generators. This method is used both by prover and verifier. After this
update we have that A is a vector commitments to (aL, aR . y^n). Also, S is a vector
commitment to (sL, sR . y^n).
*/
func updateGenerators(Hh []group.Element, y *big.Int, mod *big.Int) []group.Element {
	yInv := util.ModInverse(y, mod)
	return vectorMulExp(Hh, powerOf(yInv, len(Hh), mod))
}

func vectorMulExp(a []group.Element, b []*big.Int) []group.Element {
	result := make([]group.Element, len(a))
	for i := range a {
		result[i] = a[i].Group().Element().Scale(a[i], b[i])
	}
	return result
}

/*
commitVector computes alpha.H + <aL, g> + <aR, h>.
*/
func commitVector(aL, aR []*big.Int, alpha *big.Int, H group.Element, g, h []group.Element) group.Element {
	R := H.Group().Element().Scale(H, alpha)
	R.Add(R, vectorExp(g, aL))
	R.Add(R, vectorExp(h, aR))
	return R
}

// delta(y,z) = (z - z^2) . < 1Pow, yPow > - z^3 . < 1Pow, 2Pow >
func delta(n int, y, z, mod *big.Int) *big.Int {
	onePow := vectorCopy(big.NewInt(1), n)
	twoPow := powerOf(big.NewInt(2), n, mod)
	yPow := powerOf(y, n, mod)

	zSquared := new(big.Int).Mod(new(big.Int).Mul(z, z), mod)
	zCubed := new(big.Int).Mod(new(big.Int).Mul(zSquared, z), mod)

	t1 := new(big.Int).Mod(new(big.Int).Sub(z, zSquared), mod)
	t2 := innerProduct(onePow, yPow, mod)
	t3 := new(big.Int).Mod(new(big.Int).Mul(zCubed, innerProduct(onePow, twoPow, mod)), mod)

	result := new(big.Int).Mul(t2, t1)
	result.Sub(result, t3)
	return result.Mod(result, mod)
}

func (proof *RangeProof) Compose(v serial.Visitor) {
	GP := group.BLS12381G1()
	if proof.A != nil {
		GP = proof.A.Group()
	}
	v.Element(GP, &proof.A)
	v.Element(GP, &proof.S)
	v.Element(GP, &proof.T1)
	v.Element(GP, &proof.T2)
	if proof.Taux == nil {
		proof.Taux, proof.Mu, proof.Tprime = new(big.Int), new(big.Int), new(big.Int)
	}
	v.Scalar(&proof.Taux)
	v.Scalar(&proof.Mu)
	v.Scalar(&proof.Tprime)
	v.Value(&proof.InnerProductProof)
}
