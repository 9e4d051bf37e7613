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

package bulletproofs

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/takakv/msc-wallet/group"
	"github.com/takakv/msc-wallet/serial"
	"github.com/takakv/msc-wallet/sigma"
	"github.com/takakv/msc-wallet/util"
)

/*
InnerProductProof contains the elements used to verify the Inner Product Proof:
the cross terms of every folding round and the final scalars.
*/
type InnerProductProof struct {
	Ls []group.Element
	Rs []group.Element
	A  *big.Int
	B  *big.Int
}

/*
proveInnerProduct computes the argument that P = <a, g> + <b, h> + <a, b>.u,
folding the vectors in half each round. The challenges come from ro, which
must already be bound to P.
*/
func proveInnerProduct(ro *sigma.RandomOracle, g, h []group.Element, u group.Element, a, b []*big.Int) (*InnerProductProof, error) {
	n := len(a)
	if n != len(b) || n != len(g) || n != len(h) {
		return nil, errors.New("size of first array argument must be equal to the second")
	}
	if !isPowerOfTwo(n) {
		return nil, errors.Errorf("inner product length %d is not a power of 2", n)
	}
	GP := u.Group()
	mod := GP.N()
	proof := &InnerProductProof{}

	for n > 1 {
		nprime := n / 2 // (20)

		cL := innerProduct(a[:nprime], b[nprime:], mod) // (21)
		cR := innerProduct(a[nprime:], b[:nprime], mod) // (22)

		// L = <a[:n'], g[n':]> + <b[n':], h[:n']> + cL.u                 // (23)
		L := vectorExp(g[nprime:], a[:nprime])
		L.Add(L, vectorExp(h[:nprime], b[nprime:]))
		L.Add(L, GP.Element().Scale(u, cL))

		// R = <a[n':], g[:n']> + <b[:n'], h[n':]> + cR.u                 // (24)
		R := vectorExp(g[:nprime], a[nprime:])
		R.Add(R, vectorExp(h[nprime:], b[:nprime]))
		R.Add(R, GP.Element().Scale(u, cR))

		proof.Ls = append(proof.Ls, L)
		proof.Rs = append(proof.Rs, R)

		ro.AppendElements("L", L)
		ro.AppendElements("R", R)
		x := ro.NonZeroChallenge("x", mod) // (26)
		xinv := util.ModInverse(x, mod)

		g = vectorECAdd(vectorScalarExp(g[:nprime], xinv), vectorScalarExp(g[nprime:], x)) // (29)
		h = vectorECAdd(vectorScalarExp(h[:nprime], x), vectorScalarExp(h[nprime:], xinv)) // (30)
		a = vectorAdd(vectorScalarMul(a[:nprime], x, mod), vectorScalarMul(a[nprime:], xinv, mod), mod) // (33)
		b = vectorAdd(vectorScalarMul(b[:nprime], xinv, mod), vectorScalarMul(b[nprime:], x, mod), mod) // (34)

		n = nprime
	}

	proof.A = a[0]
	proof.B = b[0]
	return proof, nil
}

/*
verify checks the proof against P with generators g, h, u.
*/
func (proof *InnerProductProof) verify(ro *sigma.RandomOracle, g, h []group.Element, u, P group.Element) bool {
	n := len(g)
	if len(proof.Ls) != len(proof.Rs) || n != len(h) || 1<<len(proof.Ls) != n {
		return false
	}
	if proof.A == nil || proof.B == nil {
		return false
	}
	GP := u.Group()
	mod := GP.N()
	Pprime := GP.Element().Set(P)

	for i := range proof.Ls {
		nprime := n / 2
		ro.AppendElements("L", proof.Ls[i])
		ro.AppendElements("R", proof.Rs[i])
		x := ro.NonZeroChallenge("x", mod)
		xinv := util.ModInverse(x, mod)

		g = vectorECAdd(vectorScalarExp(g[:nprime], xinv), vectorScalarExp(g[nprime:], x))
		h = vectorECAdd(vectorScalarExp(h[:nprime], x), vectorScalarExp(h[nprime:], xinv))

		// P' = x^2.L + P + x^-2.R                                          // (31)
		x2 := new(big.Int).Mod(new(big.Int).Mul(x, x), mod)
		x2inv := util.ModInverse(x2, mod)
		Pprime.Add(Pprime, GP.Element().Scale(proof.Ls[i], x2))
		Pprime.Add(Pprime, GP.Element().Scale(proof.Rs[i], x2inv))

		n = nprime
	}

	// P == a.g + b.h + (a.b).u                                             // (16)
	ab := new(big.Int).Mod(new(big.Int).Mul(proof.A, proof.B), mod)
	rhs := GP.Element().Scale(g[0], proof.A)
	rhs.Add(rhs, GP.Element().Scale(h[0], proof.B))
	rhs.Add(rhs, GP.Element().Scale(u, ab))
	return rhs.IsEqual(Pprime) // (17)
}

func (proof *InnerProductProof) Compose(v serial.Visitor) {
	GP := group.BLS12381G1()
	if len(proof.Ls) > 0 && proof.Ls[0] != nil {
		GP = proof.Ls[0].Group()
	}
	n := len(proof.Ls)
	v.Len(1, &n)
	if v.Decoding() {
		proof.Ls = make([]group.Element, n)
		proof.Rs = make([]group.Element, n)
	}
	for i := 0; i < n; i++ {
		v.Element(GP, &proof.Ls[i])
		v.Element(GP, &proof.Rs[i])
	}
	if proof.A == nil {
		proof.A, proof.B = new(big.Int), new(big.Int)
	}
	v.Scalar(&proof.A)
	v.Scalar(&proof.B)
}
