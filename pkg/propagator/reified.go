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
	"fmt"

	"github.com/consensys/go-turbo/pkg/vstore"
)

// Reified is the constraint b <=> P, which links the value of a boolean
// variable b (with domain [0..1]) to whether the constraint P holds.  When b is
// 1 then P is enforced, when b is 0 then the negation of P is enforced, and
// otherwise b is fixed once P is known to hold (or fail).
type Reified struct {
	B vstore.Var
	P Propagator
	// Negation of P, constructed once up front.
	notP Propagator
}

// NewReified constructs the constraint b <=> p.
func NewReified(b vstore.Var, p Propagator) *Reified {
	return &Reified{b, p, p.Negation()}
}

// Propagate in one direction or the other, depending on what is known.
func (p *Reified) Propagate(store *vstore.VStore) bool {
	b := store.Bounds(p.B)
	//
	switch {
	case b.IsInfeasible():
		return false
	case b.Lb >= 1:
		return p.P.Propagate(store)
	case b.Ub <= 0:
		return p.notP.Propagate(store)
	case p.P.IsEntailed(store):
		return store.TightenLower(p.B, 1)
	case p.P.IsDisentailed(store):
		return store.TightenUpper(p.B, 0)
	}
	//
	return false
}

// IsEntailed holds when b agrees with what is known about P.
func (p *Reified) IsEntailed(store *vstore.VStore) bool {
	b := store.Bounds(p.B)
	//
	return (b.Lb >= 1 && p.P.IsEntailed(store)) || (b.Ub <= 0 && p.P.IsDisentailed(store))
}

// IsDisentailed holds when b contradicts what is known about P.
func (p *Reified) IsDisentailed(store *vstore.VStore) bool {
	b := store.Bounds(p.B)
	//
	return (b.Lb >= 1 && p.P.IsDisentailed(store)) || (b.Ub <= 0 && p.P.IsEntailed(store))
}

// Negation returns b <=> not P.
func (p *Reified) Negation() Propagator {
	return &Reified{p.B, p.notP, p.P}
}

// Vars returns b along with the variables of P.
func (p *Reified) Vars() []vstore.Var {
	return unionVars([]vstore.Var{p.B}, p.P.Vars())
}

func (p *Reified) String(names *vstore.Names) string {
	return fmt.Sprintf("%s <=> (%s)", vstore.Pos(p.B).String(names), p.P.String(names))
}
