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

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported signals a construct which is recognised, but which cannot
	// be compiled in the position it appears (e.g. "!=" in a unary constraint).
	ErrUnsupported = errors.New("unsupported construct")
	// ErrStructural signals a constraint whose shape is malformed (e.g. the
	// wrong number of operands, or a non-constant where a constant is
	// required).
	ErrStructural = errors.New("malformed constraint")
	// ErrUnknownVariable signals a reference to a variable which was never
	// declared.
	ErrUnknownVariable = errors.New("unknown variable")
)

// ErrorKind classifies a compile error.
type ErrorKind uint8

const (
	// Unsupported construct in this position.
	Unsupported ErrorKind = iota
	// Structural mismatch.
	Structural
	// UnknownVariable reference.
	UnknownVariable
)

// CompileError is returned when a constraint cannot be compiled.  This always
// identifies the node responsible, such that it can be reported to the user
// (possibly highlighted in the original source).
type CompileError struct {
	kind ErrorKind
	// Node on which the error arose.
	node Node
	// Error message being reported
	msg string
}

func unsupported(node Node, msg string, args ...any) *CompileError {
	return &CompileError{Unsupported, node, fmt.Sprintf(msg, args...)}
}

func malformed(node Node, msg string, args ...any) *CompileError {
	return &CompileError{Structural, node, fmt.Sprintf(msg, args...)}
}

// Kind returns the classification of this error.
func (p *CompileError) Kind() ErrorKind {
	return p.kind
}

// Node returns the node on which this error arose.
func (p *CompileError) Node() Node {
	return p.node
}

// Message returns the message being reported (without the offending node).
func (p *CompileError) Message() string {
	return p.msg
}

func (p *CompileError) Error() string {
	return fmt.Sprintf("%s in %s", p.msg, p.node.String())
}

// Unwrap allows compile errors to be matched against the sentinel errors using
// errors.Is.
func (p *CompileError) Unwrap() error {
	switch p.kind {
	case Unsupported:
		return ErrUnsupported
	case UnknownVariable:
		return ErrUnknownVariable
	default:
		return ErrStructural
	}
}
