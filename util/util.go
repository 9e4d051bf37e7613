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

package util

import (
	"math/big"

	"github.com/takakv/msc-wallet/group"
)

/*
Decompose receives as input a non-negative bigint x and outputs an array of
integers such that x = sum(xi.u^i), i.e. it returns the decomposition of x into
base u. Digits beyond l are dropped.
*/
func Decompose(x *big.Int, u int64, l int64) []int64 {
	result := make([]int64, l)
	base := big.NewInt(u)
	rest := new(big.Int).Set(x)
	digit := new(big.Int)

	for i := int64(0); i < l; i++ {
		rest.DivMod(rest, base, digit)
		result[i] = digit.Int64()
	}

	return result
}

// PedersenCommit creates the commitment x.g + r.h.
func PedersenCommit(x, r *big.Int, g, h group.Element) group.Element {
	C := g.Group().Element().Scale(g, x)
	Hr := h.Group().Element().Scale(h, r)
	return C.Add(C, Hr)
}

// MultiExp returns sum(s_i.P_i). The slices must have equal length.
func MultiExp(points []group.Element, scalars []*big.Int) group.Element {
	if len(points) != len(scalars) {
		panic("util: mismatched multi-exponentiation lengths")
	}
	if len(points) == 0 {
		panic("util: empty multi-exponentiation")
	}
	GP := points[0].Group()
	R := GP.Identity()
	tmp := GP.Element()
	for i := range points {
		R.Add(R, tmp.Scale(points[i], scalars[i]))
	}
	return R
}

// ModInverse returns x^-1 mod n, or nil when x is not invertible.
func ModInverse(x, n *big.Int) *big.Int {
	return new(big.Int).ModInverse(new(big.Int).Mod(x, n), n)
}

// Uint64 returns v as a big integer.
func Uint64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
