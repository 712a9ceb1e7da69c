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
	"io"

	"github.com/consensys/go-turbo/pkg/vstore"
)

// Constraints is the ordered list of propagators produced by compiling a model.
// Each propagator is identified by its position in this list, which therefore
// reflects the order in which constraints were compiled.  Identifiers are
// stable, which ensures diagnostics and propagation schedules are
// reproducible.
type Constraints struct {
	items []Propagator
}

// NewConstraints constructs an empty list of constraints.
func NewConstraints() *Constraints {
	return &Constraints{}
}

// Add a propagator to the end of this list, returning its identifier.
func (p *Constraints) Add(prop Propagator) uint {
	p.items = append(p.items, prop)
	//
	return uint(len(p.items) - 1)
}

// Len returns the number of propagators in this list.
func (p *Constraints) Len() uint {
	return uint(len(p.items))
}

// At returns the propagator with a given identifier.
func (p *Constraints) At(uid uint) Propagator {
	return p.items[uid]
}

// All returns every propagator in this list, indexed by identifier.  The
// returned slice must not be modified.
func (p *Constraints) All() []Propagator {
	return p.items
}

// Print writes one line per propagator, prefixed by its identifier.
func (p *Constraints) Print(w io.Writer, names *vstore.Names) error {
	for uid, prop := range p.items {
		if _, err := fmt.Fprintf(w, "#%d: %s\n", uid, prop.String(names)); err != nil {
			return err
		}
	}
	//
	return nil
}
