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
	"github.com/takakv/msc-wallet/util"
)

var errLength = errors.New("vectors must have the same length")

/*
powerOf returns a vector composed by powers of x: (1, x, x^2, ..., x^(n-1)).
*/
func powerOf(x *big.Int, n int, mod *big.Int) []*big.Int {
	result := make([]*big.Int, n)
	current := big.NewInt(1)
	for i := 0; i < n; i++ {
		result[i] = current
		current = new(big.Int).Mod(new(big.Int).Mul(current, x), mod)
	}
	return result
}

/*
vectorCopy returns a vector of n copies of a.
*/
func vectorCopy(a *big.Int, n int) []*big.Int {
	result := make([]*big.Int, n)
	for i := range result {
		result[i] = a
	}
	return result
}

/*
vectorAdd computes a[i] + b[i] for each i.
*/
func vectorAdd(a, b []*big.Int, mod *big.Int) []*big.Int {
	if len(a) != len(b) {
		panic(errLength)
	}
	result := make([]*big.Int, len(a))
	for i := range a {
		result[i] = new(big.Int).Mod(new(big.Int).Add(a[i], b[i]), mod)
	}
	return result
}

/*
vectorAddConst computes a[i] + c for each i.
*/
func vectorAddConst(a []*big.Int, c *big.Int, mod *big.Int) []*big.Int {
	return vectorAdd(a, vectorCopy(c, len(a)), mod)
}

/*
vectorMul computes the Hadamard product a[i] * b[i].
*/
func vectorMul(a, b []*big.Int, mod *big.Int) []*big.Int {
	if len(a) != len(b) {
		panic(errLength)
	}
	result := make([]*big.Int, len(a))
	for i := range a {
		result[i] = new(big.Int).Mod(new(big.Int).Mul(a[i], b[i]), mod)
	}
	return result
}

/*
vectorScalarMul computes a[i] * b for each i.
*/
func vectorScalarMul(a []*big.Int, b *big.Int, mod *big.Int) []*big.Int {
	return vectorMul(a, vectorCopy(b, len(a)), mod)
}

/*
innerProduct computes <a, b>.
*/
func innerProduct(a, b []*big.Int, mod *big.Int) *big.Int {
	if len(a) != len(b) {
		panic(errLength)
	}
	result := new(big.Int)
	for i := range a {
		result.Add(result, new(big.Int).Mul(a[i], b[i]))
	}
	return result.Mod(result, mod)
}

/*
vectorExp computes sum(b[i] . a[i]) for group elements a.
*/
func vectorExp(a []group.Element, b []*big.Int) group.Element {
	if len(a) != len(b) {
		panic(errLength)
	}
	return util.MultiExp(a, b)
}

/*
vectorScalarExp computes b . a[i] for each i.
*/
func vectorScalarExp(a []group.Element, b *big.Int) []group.Element {
	result := make([]group.Element, len(a))
	for i := range a {
		result[i] = a[i].Group().Element().Scale(a[i], b)
	}
	return result
}

/*
vectorECAdd computes a[i] + b[i] for group elements.
*/
func vectorECAdd(a, b []group.Element) []group.Element {
	if len(a) != len(b) {
		panic(errLength)
	}
	result := make([]group.Element, len(a))
	for i := range a {
		result[i] = a[i].Group().Element().Add(a[i], b[i])
	}
	return result
}

/*
isPowerOfTwo returns true for n = 2^k, k >= 0.
*/
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
