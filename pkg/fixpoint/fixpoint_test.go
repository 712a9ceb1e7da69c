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
package fixpoint

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/consensys/go-turbo/pkg/propagator"
	"github.com/consensys/go-turbo/pkg/vstore"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func Test_Fixpoint_01(t *testing.T) {
	// x1 < x2 < ... < x10
	store := newTestStore(10, vstore.Bounds{Lb: 0, Ub: 20})
	constraints := chain(10)
	//
	result, err := Run(context.Background(), store, constraints, Options{Workers: 1})
	require.NoError(t, err)
	assert.False(t, result.Infeasible)
	//
	for i := 1; i <= 10; i++ {
		assert.Equal(t, vstore.Bounds{Lb: int32(i - 1), Ub: int32(i + 10)}, store.Bounds(vstore.Var(i)))
	}
}

func Test_Fixpoint_02(t *testing.T) {
	check_Parallel(t, chain(10), 10, vstore.Bounds{Lb: 0, Ub: 20}, 4)
}

func Test_Fixpoint_03(t *testing.T) {
	// x < y and y < x
	store := newTestStore(2, vstore.Bounds{Lb: 0, Ub: 10})
	constraints := propagator.NewConstraints()
	constraints.Add(lessThan(1, 2))
	constraints.Add(lessThan(2, 1))
	//
	result, err := Run(context.Background(), store, constraints, Options{Workers: 2})
	require.NoError(t, err)
	assert.True(t, result.Infeasible)
	assert.True(t, store.IsInfeasible())
}

func Test_Fixpoint_04(t *testing.T) {
	// x <= y is entailed from the outset
	store := newTestStore(2, vstore.Bounds{Lb: 0, Ub: 3})
	store.SetBounds(2, vstore.Bounds{Lb: 5, Ub: 9})
	//
	constraints := propagator.NewConstraints()
	constraints.Add(propagator.NewTemporal(vstore.Pos(1), vstore.Neg(2), 0))
	//
	result, err := Run(context.Background(), store, constraints, Options{Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, Result{Iterations: 1, Infeasible: false, Entailed: 1}, result)
}

func Test_Fixpoint_05(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	//
	store := newTestStore(10, vstore.Bounds{Lb: 0, Ub: 20})
	_, err := Run(ctx, store, chain(10), Options{Workers: 4})
	assert.ErrorIs(t, err, context.Canceled)
	// Nothing was propagated
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 20}, store.Bounds(1))
}

func Test_Fixpoint_06(t *testing.T) {
	// An empty problem reaches its fixpoint immediately.
	store := newTestStore(3, vstore.Bounds{Lb: 0, Ub: 20})
	//
	result, err := Run(context.Background(), store, propagator.NewConstraints(), Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
}

func Test_Fixpoint_07(t *testing.T) {
	for seed := 0; seed < 50; seed++ {
		rng := rand.New(rand.NewSource(int64(seed)))
		check_Parallel(t, randomConstraints(rng, 8, 12), 8, vstore.Bounds{Lb: 0, Ub: 50}, 1+uint(seed%8))
	}
}

func TestSlow_Fixpoint_08(t *testing.T) {
	for seed := 0; seed < 500; seed++ {
		rng := rand.New(rand.NewSource(int64(seed)))
		check_Parallel(t, randomConstraints(rng, 32, 64), 32, vstore.Bounds{Lb: -100, Ub: 100}, 16)
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

// Check that propagating a set of constraints in parallel produces the same
// store as propagating them sequentially.  When the problem is infeasible the
// bounds at the point of failure depend on scheduling, hence only the outcome
// is compared.
func check_Parallel(t *testing.T, constraints *propagator.Constraints, n int, bounds vstore.Bounds,
	workers uint) {
	seq := newTestStore(n, bounds)
	par := seq.Clone()
	//
	sres, err := Run(context.Background(), seq, constraints, Options{Workers: 1})
	require.NoError(t, err)
	pres, err := Run(context.Background(), par, constraints, Options{Workers: workers})
	require.NoError(t, err)
	//
	require.Equal(t, sres.Infeasible, pres.Infeasible)
	//
	if !sres.Infeasible {
		if diff := cmp.Diff(snapshot(seq), snapshot(par)); diff != "" {
			t.Errorf("parallel fixpoint differs from sequential (-seq +par):\n%s", diff)
		}
	}
}

func snapshot(store *vstore.VStore) []vstore.Bounds {
	bounds := make([]vstore.Bounds, store.Size())
	//
	for i := range bounds {
		bounds[i] = store.Bounds(vstore.Var(i))
	}
	//
	return bounds
}

func chain(n int) *propagator.Constraints {
	constraints := propagator.NewConstraints()
	//
	for i := 1; i < n; i++ {
		constraints.Add(lessThan(vstore.Var(i), vstore.Var(i+1)))
	}
	//
	return constraints
}

func randomConstraints(rng *rand.Rand, nvars int, n int) *propagator.Constraints {
	constraints := propagator.NewConstraints()
	//
	for i := 0; i < n; i++ {
		x := vstore.Var(1 + rng.Intn(nvars))
		y := vstore.Var(1 + rng.Intn(nvars))
		k := int32(rng.Intn(21) - 10)
		//
		if rng.Intn(3) == 0 {
			z := vstore.Var(1 + rng.Intn(nvars))
			terms := []propagator.Term{
				{Var: x, Coeff: int32(rng.Intn(5) + 1)},
				{Var: y, Coeff: int32(rng.Intn(5) - 2)},
				{Var: z, Coeff: int32(rng.Intn(3) + 1)},
			}
			//
			constraints.Add(propagator.NewLinear(terms, 10*k+100))
		} else {
			constraints.Add(propagator.NewTemporal(vstore.Pos(x), vstore.Neg(y), k))
		}
	}
	//
	return constraints
}

// x < y, i.e. x - y <= -1
func lessThan(x vstore.Var, y vstore.Var) propagator.Propagator {
	return propagator.NewTemporal(vstore.Pos(x), vstore.Neg(y), -1)
}

func newTestStore(n int, bounds vstore.Bounds) *vstore.VStore {
	names := []string{"zero"}
	//
	for i := 1; i <= n; i++ {
		names = append(names, fmt.Sprintf("x%d", i))
	}
	//
	store := vstore.New(vstore.NewNames(names))
	store.SetBounds(vstore.NoVar, vstore.Singleton(0))
	//
	for i := 1; i <= n; i++ {
		store.SetBounds(vstore.Var(i), bounds)
	}
	//
	return store
}
