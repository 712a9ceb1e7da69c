// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package propagator

import (
	"math"
	"slices"

	"github.com/consensys/go-turbo/pkg/vstore"
)

// Propagator is a runtime object which narrows the domains of a store in a
// way consistent with one constraint.  Propagators are stateless and can be
// evaluated concurrently against the same store by many workers.  Repeatedly
// evaluating a set of propagators until none of them changes the store (a
// fixpoint) is the responsibility of the caller.
type Propagator interface {
	// Propagate narrows the store according to this constraint, returning true
	// if any domain changed.
	Propagate(store *vstore.VStore) bool
	// IsEntailed checks whether this constraint holds for every assignment
	// admitted by the store.
	IsEntailed(store *vstore.VStore) bool
	// IsDisentailed checks whether this constraint holds for no assignment
	// admitted by the store.
	IsDisentailed(store *vstore.VStore) bool
	// Negation returns a propagator for the logical negation of this
	// constraint.
	Negation() Propagator
	// Vars returns the (distinct) variables this constraint mentions.
	Vars() []vstore.Var
	// String returns a human-readable form of this constraint using the given
	// names (which may be nil).
	String(names *vstore.Names) string
}

// Saturate clamps a 64bit value into the range of int32.
func Saturate(v int64) int32 {
	if v > math.MaxInt32 {
		return math.MaxInt32
	} else if v < math.MinInt32 {
		return math.MinInt32
	}
	//
	return int32(v)
}

// FloorDiv computes a/b rounded towards negative infinity.  The divisor must be
// non-zero.
func FloorDiv(a int64, b int64) int64 {
	q := a / b
	// Truncation rounds towards zero, so correct when the exact result is
	// negative and inexact.
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	//
	return q
}

// CeilDiv computes a/b rounded towards positive infinity.  The divisor must be
// non-zero.
func CeilDiv(a int64, b int64) int64 {
	q := a / b
	//
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	//
	return q
}

// Combine the variables of several propagators, removing duplicates whilst
// preserving order of first occurrence.
func unionVars(vars ...[]vstore.Var) []vstore.Var {
	var result []vstore.Var
	//
	for _, vs := range vars {
		for _, v := range vs {
			if !slices.Contains(result, v) {
				result = append(result, v)
			}
		}
	}
	//
	return result
}
