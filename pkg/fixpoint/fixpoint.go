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
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/go-turbo/pkg/propagator"
	"github.com/consensys/go-turbo/pkg/vstore"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options controls the execution of the fixpoint loop.
type Options struct {
	// Number of goroutines evaluating propagators in each round.  Zero is
	// treated as one.
	Workers uint
}

// Result summarises a completed fixpoint computation.
type Result struct {
	// Number of rounds executed.
	Iterations uint
	// Indicates the store became infeasible.
	Infeasible bool
	// Number of propagators found to be entailed.
	Entailed uint
}

// Run narrows a store by repeatedly evaluating a set of propagators until none
// of them changes the store, or the store becomes infeasible, or the context
// is done.  Each round evaluates every active propagator, spread across the
// given number of workers, all of which narrow the store concurrently.  Any
// propagator found to be entailed at the end of a round is never evaluated
// again.  If the context is cancelled, its error is returned along with the
// result so far.
func Run(ctx context.Context, store *vstore.VStore, constraints *propagator.Constraints,
	opts Options) (Result, error) {
	var result Result
	//
	n := constraints.Len()
	workers := max(opts.Workers, 1)
	entailed := bitset.New(n)
	//
	for !store.IsInfeasible() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		//
		active := activeSet(entailed, n)
		if len(active) == 0 {
			break
		}
		//
		result.Iterations++
		//
		changed, err := round(ctx, store, constraints, active, workers, entailed)
		if err != nil {
			return result, err
		} else if !changed {
			break
		}
	}
	//
	result.Infeasible = store.IsInfeasible()
	result.Entailed = entailed.Count()
	//
	log.Debugf("fixpoint reached after %d round(s) with %d/%d propagator(s) entailed", result.Iterations,
		result.Entailed, n)
	//
	return result, nil
}

// Evaluate each active propagator once, returning true if any of them changed
// the store.  Propagators found to be entailed are added to the entailed set.
func round(ctx context.Context, store *vstore.VStore, constraints *propagator.Constraints, active []uint,
	workers uint, entailed *bitset.BitSet) (bool, error) {
	var changed atomic.Bool
	//
	group, gctx := errgroup.WithContext(ctx)
	chunk := (uint(len(active)) + workers - 1) / workers
	found := make([]*bitset.BitSet, 0, workers)
	//
	for start := uint(0); start < uint(len(active)); start += chunk {
		batch := active[start:min(start+chunk, uint(len(active)))]
		local := bitset.New(entailed.Len())
		found = append(found, local)
		//
		group.Go(func() error {
			for _, i := range batch {
				if err := gctx.Err(); err != nil {
					return err
				}
				//
				p := constraints.At(i)
				//
				if p.Propagate(store) {
					changed.Store(true)
				}
				//
				if p.IsEntailed(store) {
					local.Set(i)
				}
			}
			//
			return nil
		})
	}
	//
	if err := group.Wait(); err != nil {
		return false, err
	}
	//
	for _, local := range found {
		entailed.InPlaceUnion(local)
	}
	//
	return changed.Load(), nil
}

// Determine the propagators which are not (yet) entailed.
func activeSet(entailed *bitset.BitSet, n uint) []uint {
	active := make([]uint, 0, n-entailed.Count())
	//
	for i, ok := entailed.NextClear(0); ok && i < n; i, ok = entailed.NextClear(i + 1) {
		active = append(active, i)
	}
	//
	return active
}
