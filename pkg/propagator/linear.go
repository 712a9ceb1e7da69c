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
	"strings"

	"github.com/consensys/go-turbo/pkg/vstore"
)

// Term is a single weighted variable c*x within a linear sum.
type Term struct {
	Var   vstore.Var
	Coeff int32
}

// Linear is the constraint c1*x1 + ... + cn*xn <= C.
type Linear struct {
	Terms []Term
	C     int32
}

// NewLinear constructs the constraint sum(terms) <= c.  The given terms are
// copied.
func NewLinear(terms []Term, c int32) *Linear {
	return &Linear{append([]Term(nil), terms...), c}
}

// Propagate applies bounds reasoning: each term ci*xi can be at most C less the
// smallest possible value of all other terms.  When exactly one term is
// unbounded below only that term can be narrowed, and when several are nothing
// can be.
func (p *Linear) Propagate(store *vstore.VStore) bool {
	var (
		changed   bool
		mins      = make([]int64, len(p.Terms))
		sumMin    int64
		unbounded int
		last      int
	)
	// Determine smallest contribution of each term
	for i, t := range p.Terms {
		lo, _ := termBounds(store, t)
		//
		if lo.infinite {
			unbounded++
			last = i
		} else {
			mins[i] = lo.value
			sumMin += lo.value
		}
	}
	//
	if unbounded > 1 {
		return false
	}
	//
	for i, t := range p.Terms {
		if t.Coeff == 0 || (unbounded == 1 && i != last) {
			continue
		}
		// Largest value ci*xi may take
		slack := int64(p.C) - (sumMin - mins[i])
		//
		if t.Coeff > 0 {
			changed = store.TightenUpper(t.Var, Saturate(FloorDiv(slack, int64(t.Coeff)))) || changed
		} else {
			changed = store.TightenLower(t.Var, Saturate(CeilDiv(slack, int64(t.Coeff)))) || changed
		}
		//
		if store.IsVarInfeasible(t.Var) {
			break
		}
	}
	//
	return changed
}

// IsEntailed checks the largest possible sum is at most C.
func (p *Linear) IsEntailed(store *vstore.VStore) bool {
	var sumMax int64
	//
	for _, t := range p.Terms {
		_, hi := termBounds(store, t)
		//
		if hi.infinite {
			return false
		}
		//
		sumMax += hi.value
	}
	//
	return sumMax <= int64(p.C)
}

// IsDisentailed checks the smallest possible sum exceeds C.
func (p *Linear) IsDisentailed(store *vstore.VStore) bool {
	var sumMin int64
	//
	for _, t := range p.Terms {
		lo, _ := termBounds(store, t)
		//
		if lo.infinite {
			return false
		}
		//
		sumMin += lo.value
	}
	//
	return sumMin > int64(p.C)
}

// Negation returns -c1*x1 + ... + -cn*xn <= -C - 1.
func (p *Linear) Negation() Propagator {
	terms := make([]Term, len(p.Terms))
	//
	for i, t := range p.Terms {
		terms[i] = Term{t.Var, Saturate(-int64(t.Coeff))}
	}
	//
	return &Linear{terms, Saturate(-int64(p.C) - 1)}
}

// Vars returns the variables of every term.
func (p *Linear) Vars() []vstore.Var {
	vars := make([]vstore.Var, len(p.Terms))
	//
	for i, t := range p.Terms {
		vars[i] = t.Var
	}
	//
	return unionVars(vars)
}

func (p *Linear) String(names *vstore.Names) string {
	var builder strings.Builder
	//
	for i, t := range p.Terms {
		if i != 0 {
			builder.WriteString(" + ")
		}
		//
		builder.WriteString(fmt.Sprintf("%d*%s", t.Coeff, vstore.Pos(t.Var).String(names)))
	}
	//
	builder.WriteString(fmt.Sprintf(" <= %d", p.C))
	//
	return builder.String()
}

// A bound on the value of a term, which may be infinite.
type termBound struct {
	value    int64
	infinite bool
}

// Determine the smallest and largest values of c*x.  The extremes of int32 in a
// domain act as -oo and +oo, and so make the corresponding bound infinite.
func termBounds(store *vstore.VStore, t Term) (termBound, termBound) {
	var (
		c  = int64(t.Coeff)
		lb = store.Lower(t.Var)
		ub = store.Upper(t.Var)
	)
	//
	switch {
	case c > 0:
		return termBound{c * int64(lb), lb == math.MinInt32}, termBound{c * int64(ub), ub == math.MaxInt32}
	case c < 0:
		return termBound{c * int64(ub), ub == math.MaxInt32}, termBound{c * int64(lb), lb == math.MinInt32}
	default:
		return termBound{}, termBound{}
	}
}
