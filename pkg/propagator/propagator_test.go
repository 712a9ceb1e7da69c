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
	"strings"
	"testing"

	"github.com/consensys/go-turbo/pkg/vstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Div_01(t *testing.T) {
	for a := int64(-50); a <= 50; a++ {
		for b := int64(-7); b <= 7; b++ {
			if b != 0 {
				check_FloorCeil(t, a, b)
			}
		}
	}
}

func Test_Temporal_01(t *testing.T) {
	// x + 2 <= y, i.e. x - y <= -2
	store := newTestStore(vstore.Bounds{Lb: 0, Ub: 10}, vstore.Bounds{Lb: 0, Ub: 10})
	prop := NewTemporal(vstore.Pos(1), vstore.Neg(2), -2)
	//
	fixpoint(store, prop)
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 8}, store.Bounds(1))
	assert.Equal(t, vstore.Bounds{Lb: 2, Ub: 10}, store.Bounds(2))
	// Now restrict y externally
	store.TightenUpper(2, 5)
	fixpoint(store, prop)
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 3}, store.Bounds(1))
	assert.False(t, store.IsInfeasible())
}

func Test_Temporal_02(t *testing.T) {
	store := newTestStore(vstore.Bounds{Lb: 0, Ub: 3}, vstore.Bounds{Lb: 5, Ub: 10})
	prop := NewTemporal(vstore.Pos(1), vstore.Neg(2), -2)
	//
	assert.True(t, prop.IsEntailed(store))
	assert.False(t, prop.IsDisentailed(store))
	assert.False(t, prop.Propagate(store))
	assert.True(t, prop.Negation().IsDisentailed(store))
}

func Test_Temporal_03(t *testing.T) {
	store := newTestStore(vstore.Bounds{Lb: 5, Ub: 10}, vstore.Bounds{Lb: 0, Ub: 6})
	// x + 2 <= y cannot hold
	prop := NewTemporal(vstore.Pos(1), vstore.Neg(2), -2)
	//
	assert.True(t, prop.IsDisentailed(store))
	fixpoint(store, prop)
	assert.True(t, store.IsInfeasible())
}

func Test_Temporal_04(t *testing.T) {
	// Unbounded domains must not overflow.
	store := newTestStore(vstore.FullBounds(), vstore.FullBounds())
	prop := NewTemporal(vstore.Pos(1), vstore.Neg(2), -2)
	//
	assert.False(t, prop.Propagate(store))
	assert.False(t, prop.IsEntailed(store))
	assert.False(t, prop.IsDisentailed(store))
}

func Test_Temporal_05(t *testing.T) {
	// x + 2 <= y with x unbounded narrows x only.
	store := newTestStore(vstore.FullBounds(), vstore.Bounds{Lb: 0, Ub: 10})
	prop := NewTemporal(vstore.Pos(1), vstore.Neg(2), -2)
	//
	assert.True(t, prop.Propagate(store))
	assert.False(t, prop.Propagate(store))
	assert.Equal(t, vstore.Bounds{Lb: math.MinInt32, Ub: 8}, store.Bounds(1))
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 10}, store.Bounds(2))
	assert.False(t, prop.IsDisentailed(store))
}

func Test_Temporal_06(t *testing.T) {
	// An infinite upper bound is never entailed, whatever the constant.
	store := newTestStore(vstore.Bounds{Lb: 0, Ub: math.MaxInt32}, vstore.Bounds{Lb: -5, Ub: -5})
	prop := NewTemporal(vstore.Pos(1), vstore.Pos(2), math.MaxInt32)
	//
	assert.False(t, prop.IsEntailed(store))
	assert.False(t, prop.Propagate(store))
}

func Test_Linear_01(t *testing.T) {
	// 2x + 3y <= 12
	store := newTestStore(vstore.Bounds{Lb: 0, Ub: 10}, vstore.Bounds{Lb: 0, Ub: 10})
	prop := NewLinear([]Term{{1, 2}, {2, 3}}, 12)
	//
	fixpoint(store, prop)
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 6}, store.Bounds(1))
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 4}, store.Bounds(2))
	assert.False(t, prop.IsEntailed(store))
	assert.False(t, prop.IsDisentailed(store))
}

func Test_Linear_02(t *testing.T) {
	// x - y <= -3 with y in [0..5] gives x <= 2, y >= 3
	store := newTestStore(vstore.Bounds{Lb: 0, Ub: 10}, vstore.Bounds{Lb: 0, Ub: 5})
	prop := NewLinear([]Term{{1, 1}, {2, -1}}, -3)
	//
	fixpoint(store, prop)
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 2}, store.Bounds(1))
	assert.Equal(t, vstore.Bounds{Lb: 3, Ub: 5}, store.Bounds(2))
}

func Test_Linear_03(t *testing.T) {
	// -2x <= 3 gives x >= -1
	store := newTestStore(vstore.Bounds{Lb: -10, Ub: 10})
	prop := NewLinear([]Term{{1, -2}}, 3)
	//
	fixpoint(store, prop)
	assert.Equal(t, vstore.Bounds{Lb: -1, Ub: 10}, store.Bounds(1))
}

func Test_Linear_04(t *testing.T) {
	store := newTestStore(vstore.Bounds{Lb: 4, Ub: 10}, vstore.Bounds{Lb: 4, Ub: 10})
	prop := NewLinear([]Term{{1, 1}, {2, 1}}, 7)
	//
	assert.True(t, prop.IsDisentailed(store))
	fixpoint(store, prop)
	assert.True(t, store.IsInfeasible())
	// Negation: x + y >= 8
	neg := prop.Negation().(*Linear)
	assert.Equal(t, []Term{{1, -1}, {2, -1}}, neg.Terms)
	assert.Equal(t, int32(-8), neg.C)
}

func Test_Linear_05(t *testing.T) {
	// x + y <= 10 with x unbounded below narrows x only.
	store := newTestStore(vstore.FullBounds(), vstore.Bounds{Lb: 0, Ub: 5})
	prop := NewLinear([]Term{{1, 1}, {2, 1}}, 10)
	//
	fixpoint(store, prop)
	assert.Equal(t, vstore.Bounds{Lb: math.MinInt32, Ub: 10}, store.Bounds(1))
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 5}, store.Bounds(2))
	assert.False(t, prop.IsEntailed(store))
	assert.False(t, prop.IsDisentailed(store))
}

func Test_Linear_06(t *testing.T) {
	// Two terms unbounded below leave nothing to narrow.
	store := newTestStore(vstore.FullBounds(), vstore.Bounds{Lb: 0, Ub: math.MaxInt32})
	prop := NewLinear([]Term{{1, 1}, {2, -3}}, 10)
	//
	assert.False(t, prop.Propagate(store))
	assert.Equal(t, vstore.FullBounds(), store.Bounds(1))
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: math.MaxInt32}, store.Bounds(2))
}

func Test_And_01(t *testing.T) {
	// x < y and y < z
	store := newTestStore(vstore.Bounds{Lb: 0, Ub: 10}, vstore.Bounds{Lb: 0, Ub: 10}, vstore.Bounds{Lb: 0, Ub: 10})
	prop := NewAnd(lessThan(1, 2), lessThan(2, 3))
	//
	fixpoint(store, prop)
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 8}, store.Bounds(1))
	assert.Equal(t, vstore.Bounds{Lb: 1, Ub: 9}, store.Bounds(2))
	assert.Equal(t, vstore.Bounds{Lb: 2, Ub: 10}, store.Bounds(3))
	assert.Equal(t, []vstore.Var{1, 2, 3}, prop.Vars())
}

func Test_Or_01(t *testing.T) {
	// x < y or y < x, with x = 5
	store := newTestStore(vstore.Bounds{Lb: 5, Ub: 5}, vstore.Bounds{Lb: 0, Ub: 10})
	prop := NewOr(lessThan(1, 2), lessThan(2, 1))
	// Neither side disentailed yet
	assert.False(t, prop.Propagate(store))
	store.TightenLower(2, 5)
	// y < x now disentailed, hence x < y
	fixpoint(store, prop)
	assert.Equal(t, vstore.Bounds{Lb: 6, Ub: 10}, store.Bounds(2))
	assert.True(t, prop.IsEntailed(store))
}

func Test_Reified_01(t *testing.T) {
	// b <=> (x <= y /\ y - x >= 1) with b = 1 behaves as x < y
	store := newTestStore(vstore.Bounds{Lb: 1, Ub: 1}, vstore.Bounds{Lb: 0, Ub: 10}, vstore.Bounds{Lb: 0, Ub: 10})
	direct := store.Clone()
	prop := NewReified(1, NewAnd(lessEq(2, 3, 0), lessEq(2, 3, -1)))
	//
	fixpoint(store, prop)
	fixpoint(direct, NewAnd(lessEq(2, 3, 0), lessEq(2, 3, -1)))
	//
	for x := vstore.Var(1); x <= 3; x++ {
		assert.Equal(t, direct.Bounds(x), store.Bounds(x))
	}
}

func Test_Reified_02(t *testing.T) {
	// b = 0 must not enforce the conjunction.
	store := newTestStore(vstore.Bounds{Lb: 0, Ub: 0}, vstore.Bounds{Lb: 0, Ub: 10}, vstore.Bounds{Lb: 0, Ub: 10})
	prop := NewReified(1, NewAnd(lessEq(2, 3, 0), lessEq(2, 3, -1)))
	//
	fixpoint(store, prop)
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 10}, store.Bounds(2))
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 10}, store.Bounds(3))
	// Once x < y is forced in the negative case, it becomes infeasible.
	store.TightenUpper(2, 3)
	store.TightenLower(3, 5)
	fixpoint(store, prop)
	assert.True(t, store.IsInfeasible())
}

func Test_Reified_03(t *testing.T) {
	// b is fixed once the conjunction is decided.
	store := newTestStore(vstore.Bounds{Lb: 0, Ub: 1}, vstore.Bounds{Lb: 0, Ub: 3}, vstore.Bounds{Lb: 5, Ub: 10})
	prop := NewReified(1, lessThan(2, 3))
	//
	fixpoint(store, prop)
	assert.Equal(t, vstore.Bounds{Lb: 1, Ub: 1}, store.Bounds(1))
	//
	store = newTestStore(vstore.Bounds{Lb: 0, Ub: 1}, vstore.Bounds{Lb: 5, Ub: 10}, vstore.Bounds{Lb: 0, Ub: 5})
	fixpoint(store, prop)
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 0}, store.Bounds(1))
}

func Test_Reified_04(t *testing.T) {
	store := newTestStore(vstore.Bounds{Lb: 0, Ub: 1}, vstore.Bounds{Lb: 0, Ub: 10}, vstore.Bounds{Lb: 0, Ub: 10})
	prop := NewReified(1, lessThan(2, 3))
	neg := prop.Negation()
	// b = 1 means not (x < y), i.e. y <= x
	store.Assign(1, 1)
	fixpoint(store, neg)
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 10}, store.Bounds(2))
	store.TightenUpper(2, 4)
	fixpoint(store, neg)
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 4}, store.Bounds(3))
}

func Test_Constraints_01(t *testing.T) {
	var buf strings.Builder
	//
	store := newTestStore(vstore.Bounds{Lb: 0, Ub: 1}, vstore.Bounds{Lb: 0, Ub: 10})
	cs := NewConstraints()
	//
	assert.Equal(t, uint(0), cs.Add(lessEq(1, 2, 0)))
	assert.Equal(t, uint(1), cs.Add(NewLinear([]Term{{1, 2}, {2, -1}}, 4)))
	assert.Equal(t, uint(2), cs.Len())
	require.NoError(t, cs.Print(&buf, store.Names()))
	assert.Equal(t, "#0: x - y <= 0\n#1: 2*x + -1*y <= 4\n", buf.String())
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_FloorCeil(t *testing.T, a int64, b int64) {
	f := FloorDiv(a, b)
	c := CeilDiv(a, b)
	// Floor: f*b <= a < (f+1)*b for b>0, with the inequalities flipped for b<0.
	if b > 0 {
		assert.True(t, f*b <= a && a < (f+1)*b, "floor(%d/%d) = %d", a, b, f)
		assert.True(t, c*b >= a && a > (c-1)*b, "ceil(%d/%d) = %d", a, b, c)
	} else {
		assert.True(t, f*b >= a && a > (f+1)*b, "floor(%d/%d) = %d", a, b, f)
		assert.True(t, c*b <= a && a < (c-1)*b, "ceil(%d/%d) = %d", a, b, c)
	}
}

// Construct x - y <= k.
func lessEq(x vstore.Var, y vstore.Var, k int32) Propagator {
	return NewTemporal(vstore.Pos(x), vstore.Neg(y), k)
}

// Construct x < y.
func lessThan(x vstore.Var, y vstore.Var) Propagator {
	return lessEq(x, y, -1)
}

// Apply propagators until nothing changes or the store is infeasible.
func fixpoint(store *vstore.VStore, props ...Propagator) {
	for changed := true; changed && !store.IsInfeasible(); {
		changed = false
		//
		for _, p := range props {
			changed = p.Propagate(store) || changed
		}
	}
}

func newTestStore(bounds ...vstore.Bounds) *vstore.VStore {
	names := []string{"zero"}
	//
	for i := range bounds {
		names = append(names, string(rune('x'+i)))
	}
	//
	store := vstore.New(vstore.NewNames(names))
	store.SetBounds(vstore.NoVar, vstore.Singleton(0))
	//
	for i, b := range bounds {
		store.SetBounds(vstore.Var(i+1), b)
	}
	//
	return store
}
