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
package vstore

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// ErrDimensionMismatch is returned when resetting a store from a baseline which
// holds a different number of variables.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// VStore holds the domain of every variable in a problem, along with a flag
// indicating whether any of those domains has become infeasible.  A store is
// designed to be narrowed concurrently by many workers evaluating propagators:
// the tightening operations (and Assign) are lock-free and may be called from
// any number of goroutines at once.  By contrast, SetBounds, ResetFrom and
// Clone must not be called whilst propagation is in progress.
type VStore struct {
	domains []Interval
	// Set as soon as any domain becomes infeasible, and only cleared by
	// ResetFrom.
	top atomic.Bool
	// Shared (never copied) between clones.
	names *Names
}

// New constructs a store with one variable for each entry in the name table.
// Every domain initially spans the entire range of int32.
func New(names *Names) *VStore {
	store := &VStore{domains: make([]Interval, names.Len()), names: names}
	//
	for i := range store.domains {
		store.domains[i].set(FullBounds())
	}
	//
	return store
}

// Clone constructs a copy of this store with its own domains.  The name table
// is shared with the original.
func (p *VStore) Clone() *VStore {
	store := &VStore{domains: make([]Interval, len(p.domains)), names: p.names}
	//
	for i := range p.domains {
		store.domains[i].set(p.domains[i].Bounds())
	}
	//
	store.top.Store(p.top.Load())
	//
	return store
}

// ResetFrom overwrites every domain in this store with the corresponding domain
// of a baseline store, and sets the top flag to match the baseline.  This is
// used when a fresh search node is started from a saved state.
func (p *VStore) ResetFrom(baseline *VStore) error {
	if len(p.domains) != len(baseline.domains) {
		return fmt.Errorf("%w: store has %d variables, baseline has %d", ErrDimensionMismatch,
			len(p.domains), len(baseline.domains))
	}
	//
	for i := range p.domains {
		p.domains[i].set(baseline.domains[i].Bounds())
	}
	//
	p.top.Store(baseline.top.Load())
	//
	return nil
}

// Size returns the number of variables in this store (including the reserved
// variable at index 0).
func (p *VStore) Size() int {
	return len(p.domains)
}

// Names returns the (shared) name table of this store.
func (p *VStore) Names() *Names {
	return p.names
}

// NameOf returns the name of a given variable.
func (p *VStore) NameOf(x Var) string {
	return p.names.Get(x)
}

// Domain provides direct access to the domain of a given variable.
func (p *VStore) Domain(x Var) *Interval {
	return &p.domains[x]
}

// Lower returns the lower bound of a given variable.
func (p *VStore) Lower(x Var) int32 {
	return p.domains[x].Lower()
}

// Upper returns the upper bound of a given variable.
func (p *VStore) Upper(x Var) int32 {
	return p.domains[x].Upper()
}

// Bounds returns a snapshot of the bounds of a given variable.
func (p *VStore) Bounds(x Var) Bounds {
	return p.domains[x].Bounds()
}

// ViewLower returns the lower bound of a view, i.e. -ub(x) for a negated view.
func (p *VStore) ViewLower(v View) int32 {
	if v.Negated {
		return negate(p.domains[v.Var].Upper())
	}
	//
	return p.domains[v.Var].Lower()
}

// ViewUpper returns the upper bound of a view, i.e. -lb(x) for a negated view.
func (p *VStore) ViewUpper(v View) int32 {
	if v.Negated {
		return negate(p.domains[v.Var].Lower())
	}
	//
	return p.domains[v.Var].Upper()
}

// SetBounds initialises the domain of a given variable.  Unlike the tightening
// operations, this can widen a domain and, hence, is only permitted when
// constructing a store.
func (p *VStore) SetBounds(x Var, b Bounds) {
	p.domains[x].set(b)
	p.updateTop(x)
}

// TightenLower raises the lower bound of a given variable to v (if this is
// tighter), returning true if the domain changed.
func (p *VStore) TightenLower(x Var, v int32) bool {
	if p.domains[x].TightenLower(v) {
		p.updateTop(x)
		return true
	}
	//
	return false
}

// TightenUpper lowers the upper bound of a given variable to v (if this is
// tighter), returning true if the domain changed.
func (p *VStore) TightenUpper(x Var, v int32) bool {
	if p.domains[x].TightenUpper(v) {
		p.updateTop(x)
		return true
	}
	//
	return false
}

// Tighten narrows a given variable by some bounds, returning true if either
// bound changed.
func (p *VStore) Tighten(x Var, b Bounds) bool {
	changed := p.TightenLower(x, b.Lb)
	//
	return p.TightenUpper(x, b.Ub) || changed
}

// Assign narrows a given variable to the single value v.
func (p *VStore) Assign(x Var, v int32) bool {
	return p.Tighten(x, Singleton(v))
}

// TightenViewLower raises the lower bound of a view.  For a negated view -x,
// this lowers the upper bound of x.
func (p *VStore) TightenViewLower(v View, k int32) bool {
	if v.Negated {
		return p.TightenUpper(v.Var, negate(k))
	}
	//
	return p.TightenLower(v.Var, k)
}

// TightenViewUpper lowers the upper bound of a view.  For a negated view -x,
// this raises the lower bound of x.
func (p *VStore) TightenViewUpper(v View, k int32) bool {
	if v.Negated {
		return p.TightenLower(v.Var, negate(k))
	}
	//
	return p.TightenUpper(v.Var, k)
}

// IsInfeasible checks whether any domain in this store is infeasible.
func (p *VStore) IsInfeasible() bool {
	return p.top.Load()
}

// IsVarInfeasible checks whether the domain of a given variable is infeasible.
func (p *VStore) IsVarInfeasible(x Var) bool {
	return p.domains[x].IsInfeasible()
}

// AllAssigned checks whether every variable in this store has been assigned,
// which signals a complete solution.
func (p *VStore) AllAssigned() bool {
	for i := range p.domains {
		if !p.domains[i].IsAssigned() {
			return false
		}
	}
	//
	return true
}

// Print writes "name = [lb..ub]" for every variable in this store, except the
// reserved variable at index 0.
func (p *VStore) Print(w io.Writer) error {
	for i := 1; i < len(p.domains); i++ {
		if err := p.printVar(w, Var(i)); err != nil {
			return err
		}
	}
	//
	return nil
}

// PrintVars writes "name = [lb..ub]" for each of the given variables.
func (p *VStore) PrintVars(w io.Writer, vars ...Var) error {
	for _, x := range vars {
		if err := p.printVar(w, x); err != nil {
			return err
		}
	}
	//
	return nil
}

func (p *VStore) printVar(w io.Writer, x Var) error {
	_, err := fmt.Fprintf(w, "%s = %s\n", p.names.Get(x), p.domains[x].String())
	return err
}

// Raise the top flag if the given variable is infeasible.  Many workers may do
// this concurrently, which is harmless since they all store true.
func (p *VStore) updateTop(x Var) {
	if p.domains[x].IsInfeasible() {
		p.top.Store(true)
	}
}
