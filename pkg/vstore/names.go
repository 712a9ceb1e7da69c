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

import "slices"

// Names maps variables to their display names.  A name table is immutable once
// constructed and, hence, is shared by reference between a store and all of its
// clones rather than being copied for every search node.
type Names struct {
	names []string
}

// NewNames constructs a name table where the ith name belongs to the ith
// variable.  The given slice is copied.
func NewNames(names []string) *Names {
	return &Names{slices.Clone(names)}
}

// Len returns the number of names in this table.
func (p *Names) Len() int {
	return len(p.names)
}

// Has checks whether the given variable has a name in this table.
func (p *Names) Has(x Var) bool {
	return int(x) < len(p.names)
}

// Get returns the name of a given variable.
func (p *Names) Get(x Var) string {
	return p.names[x]
}

// Lookup finds the variable with the given name, returning false if no such
// variable exists.  This is linear in the number of variables, and is intended
// for diagnostics only.
func (p *Names) Lookup(name string) (Var, bool) {
	for i, n := range p.names {
		if n == name {
			return Var(i), true
		}
	}
	//
	return NoVar, false
}
