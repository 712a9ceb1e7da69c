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
package model

// Declaration introduces a variable with its initial bounds.
type Declaration struct {
	Name string
	Lb   int32
	Ub   int32
}

// Model is a complete problem as handed over by a front end: a set of variable
// declarations, a set of constraints over those variables and (optionally) a
// variable to minimise.
type Model struct {
	Variables   []Declaration
	Constraints []Node
	// Variable to minimise, or nil for a satisfaction problem.
	Minimize *Var
}

// Compile a model in its entirety.  Unlike the builder, this does not stop at
// the first error but, instead, compiles every constraint and reports all
// errors found.  The builder is only returned when there were no errors, since
// a partially compiled model must never be solved.
func Compile(m *Model) (*Builder, []error) {
	var errs []error
	//
	builder := NewBuilder()
	//
	for _, d := range m.Variables {
		builder.DeclareVariable(d.Name, d.Lb, d.Ub)
	}
	//
	for _, c := range m.Constraints {
		if err := builder.AddConstraint(c); err != nil {
			errs = append(errs, err)
		}
	}
	//
	if m.Minimize != nil {
		if err := builder.minimize(m.Minimize); err != nil {
			errs = append(errs, err)
		}
	}
	//
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return builder, nil
}
