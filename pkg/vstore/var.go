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

import "fmt"

// Var identifies a variable within a store.  Variables are allocated densely,
// starting from zero, in the order they are declared.
type Var uint32

// NoVar is the reserved index 0.  It never participates in a constraint, and is
// used to signal the absence of a variable (e.g. no objective).
const NoVar Var = 0

// View is a reference to a variable which is optionally negated.  This allows
// a constraint to mention -x without allocating a second domain for it.
type View struct {
	Var     Var
	Negated bool
}

// Pos constructs a view of x itself.
func Pos(x Var) View {
	return View{x, false}
}

// Neg constructs a view of -x.
func Neg(x Var) View {
	return View{x, true}
}

// Negate flips the sign of this view.
func (v View) Negate() View {
	return View{v.Var, !v.Negated}
}

// String returns a representation of this view using the given names (which
// may be nil).
func (v View) String(names *Names) string {
	var name string
	//
	if names != nil && names.Has(v.Var) {
		name = names.Get(v.Var)
	} else {
		name = fmt.Sprintf("#%d", v.Var)
	}
	//
	if v.Negated {
		return "-" + name
	}
	//
	return name
}
