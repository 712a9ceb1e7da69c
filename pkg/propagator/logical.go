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

// And is the conjunction of two constraints, both of which must hold.
type And struct {
	Left  Propagator
	Right Propagator
}

// NewAnd constructs the conjunction of two propagators.
func NewAnd(left Propagator, right Propagator) *And {
	return &And{left, right}
}

// Propagate both sides.
func (p *And) Propagate(store *vstore.VStore) bool {
	changed := p.Left.Propagate(store)
	//
	return p.Right.Propagate(store) || changed
}

// IsEntailed holds when both sides are entailed.
func (p *And) IsEntailed(store *vstore.VStore) bool {
	return p.Left.IsEntailed(store) && p.Right.IsEntailed(store)
}

// IsDisentailed holds when either side is disentailed.
func (p *And) IsDisentailed(store *vstore.VStore) bool {
	return p.Left.IsDisentailed(store) || p.Right.IsDisentailed(store)
}

// Negation applies De Morgan's law.
func (p *And) Negation() Propagator {
	return &Or{p.Left.Negation(), p.Right.Negation()}
}

// Vars returns the variables of both sides.
func (p *And) Vars() []vstore.Var {
	return unionVars(p.Left.Vars(), p.Right.Vars())
}

func (p *And) String(names *vstore.Names) string {
	return fmt.Sprintf("(%s) /\\ (%s)", p.Left.String(names), p.Right.String(names))
}

// Or is the disjunction of two constraints, at least one of which must hold.
// This arises from negating a conjunction (e.g. within a reified constraint).
// Propagation only happens once one side is known to fail, at which point the
// other side must hold.
type Or struct {
	Left  Propagator
	Right Propagator
}

// NewOr constructs the disjunction of two propagators.
func NewOr(left Propagator, right Propagator) *Or {
	return &Or{left, right}
}

// Propagate one side once the other is disentailed.
func (p *Or) Propagate(store *vstore.VStore) bool {
	if p.Left.IsDisentailed(store) {
		return p.Right.Propagate(store)
	} else if p.Right.IsDisentailed(store) {
		return p.Left.Propagate(store)
	}
	//
	return false
}

// IsEntailed holds when either side is entailed.
func (p *Or) IsEntailed(store *vstore.VStore) bool {
	return p.Left.IsEntailed(store) || p.Right.IsEntailed(store)
}

// IsDisentailed holds when both sides are disentailed.
func (p *Or) IsDisentailed(store *vstore.VStore) bool {
	return p.Left.IsDisentailed(store) && p.Right.IsDisentailed(store)
}

// Negation applies De Morgan's law.
func (p *Or) Negation() Propagator {
	return &And{p.Left.Negation(), p.Right.Negation()}
}

// Vars returns the variables of both sides.
func (p *Or) Vars() []vstore.Var {
	return unionVars(p.Left.Vars(), p.Right.Vars())
}

func (p *Or) String(names *vstore.Names) string {
	return fmt.Sprintf("(%s) \\/ (%s)", p.Left.String(names), p.Right.String(names))
}
