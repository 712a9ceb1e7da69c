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
	"math"

	"github.com/consensys/go-turbo/pkg/vstore"
)

// Temporal is the constraint X + Y <= K over two views.  Since either view can
// be negated, this captures precedence constraints such as x - y <= k (where Y
// is the view -y), which are common in scheduling problems.
type Temporal struct {
	X vstore.View
	Y vstore.View
	K int32
}

// NewTemporal constructs the constraint x + y <= k.
func NewTemporal(x vstore.View, y vstore.View, k int32) *Temporal {
	return &Temporal{x, y, k}
}

// Propagate enforces ub(X) <= K - lb(Y) and ub(Y) <= K - lb(X).  A view whose
// lower bound is -oo places no bound on the other view.
func (p *Temporal) Propagate(store *vstore.VStore) bool {
	var (
		changed bool
		k       = int64(p.K)
		lx      = store.ViewLower(p.X)
		ly      = store.ViewLower(p.Y)
	)
	//
	if ly != math.MinInt32 {
		changed = store.TightenViewUpper(p.X, Saturate(k-int64(ly)))
	}
	//
	if lx != math.MinInt32 {
		changed = store.TightenViewUpper(p.Y, Saturate(k-int64(lx))) || changed
	}
	//
	return changed
}

// IsEntailed checks ub(X) + ub(Y) <= K, which never holds when either upper
// bound is +oo.
func (p *Temporal) IsEntailed(store *vstore.VStore) bool {
	ux, uy := store.ViewUpper(p.X), store.ViewUpper(p.Y)
	//
	if ux == math.MaxInt32 || uy == math.MaxInt32 {
		return false
	}
	//
	return int64(ux)+int64(uy) <= int64(p.K)
}

// IsDisentailed checks lb(X) + lb(Y) > K, which never holds when either lower
// bound is -oo.
func (p *Temporal) IsDisentailed(store *vstore.VStore) bool {
	lx, ly := store.ViewLower(p.X), store.ViewLower(p.Y)
	//
	if lx == math.MinInt32 || ly == math.MinInt32 {
		return false
	}
	//
	return int64(lx)+int64(ly) > int64(p.K)
}

// Negation returns -X + -Y <= -K - 1, i.e. X + Y > K.
func (p *Temporal) Negation() Propagator {
	return &Temporal{p.X.Negate(), p.Y.Negate(), Saturate(-int64(p.K) - 1)}
}

// Vars returns the variables of both views.
func (p *Temporal) Vars() []vstore.Var {
	return unionVars([]vstore.Var{p.X.Var, p.Y.Var})
}

func (p *Temporal) String(names *vstore.Names) string {
	if p.Y.Negated {
		return fmt.Sprintf("%s - %s <= %d", p.X.String(names), p.Y.Negate().String(names), p.K)
	}
	//
	return fmt.Sprintf("%s + %s <= %d", p.X.String(names), p.Y.String(names), p.K)
}
