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
	"fmt"
	"strings"
)

// Operator identifies the relation used within a comparison.
type Operator uint8

const (
	// LT is x < y
	LT Operator = iota
	// LE is x <= y
	LE
	// EQ is x = y
	EQ
	// GE is x >= y
	GE
	// GT is x > y
	GT
	// NE is x != y
	NE
	// IN is x in {v1, ..., vn}
	IN
)

var operatorNames = [...]string{"<", "<=", "=", ">=", ">", "!=", "in"}

func (op Operator) String() string {
	if int(op) < len(operatorNames) {
		return operatorNames[op]
	}
	//
	return fmt.Sprintf("op%d", op)
}

// Flip returns the operator obtained by swapping both sides of a comparison,
// such that "x op y" holds exactly when "y op.Flip() x" holds.
func (op Operator) Flip() Operator {
	switch op {
	case LT:
		return GT
	case LE:
		return GE
	case GE:
		return LE
	case GT:
		return LT
	default:
		return op
	}
}

// ParseOperator converts a symbol into an operator, returning false if the
// symbol is not recognised.
func ParseOperator(symbol string) (Operator, bool) {
	switch symbol {
	case "=", "==":
		return EQ, true
	case "!=", "<>":
		return NE, true
	}
	//
	for i, n := range operatorNames {
		if n == symbol {
			return Operator(i), true
		}
	}
	//
	return 0, false
}

// Node is an element of a constraint tree, as produced by a front end.  Nodes
// are always held by pointer, such that they can be used as keys when mapping
// back to the source text.
type Node interface {
	// String returns the node as an S-expression.
	String() string
}

// Var is a reference to a declared variable.
type Var struct {
	Name string
}

// Const is an integer constant.
type Const struct {
	Value int32
}

// Set is a set of integer constants, which can only appear on the right-hand
// side of an "in" comparison.
type Set struct {
	Values []int32
}

// Add is the sum of one or more terms.
type Add struct {
	Args []Node
}

// Sub is the difference of two terms.
type Sub struct {
	Left  Node
	Right Node
}

// Mul is the product of two terms.
type Mul struct {
	Left  Node
	Right Node
}

// Cmp compares two terms.
type Cmp struct {
	Op    Operator
	Left  Node
	Right Node
}

// And is the conjunction of one or more constraints.
type And struct {
	Args []Node
}

// Iff is a biconditional between two constraints, typically used to reify a
// constraint as in "b <=> (x <= y)".
type Iff struct {
	Left  Node
	Right Node
}

func (n *Var) String() string { return n.Name }

func (n *Const) String() string { return fmt.Sprintf("%d", n.Value) }

func (n *Set) String() string {
	vals := make([]string, len(n.Values))
	//
	for i, v := range n.Values {
		vals[i] = fmt.Sprintf("%d", v)
	}
	//
	return fmt.Sprintf("{%s}", strings.Join(vals, " "))
}

func (n *Add) String() string { return list("+", n.Args...) }

func (n *Sub) String() string { return list("-", n.Left, n.Right) }

func (n *Mul) String() string { return list("*", n.Left, n.Right) }

func (n *Cmp) String() string { return list(n.Op.String(), n.Left, n.Right) }

func (n *And) String() string { return list("and", n.Args...) }

func (n *Iff) String() string { return list("<=>", n.Left, n.Right) }

func list(head string, args ...Node) string {
	var builder strings.Builder
	//
	builder.WriteString("(")
	builder.WriteString(head)
	//
	for _, arg := range args {
		builder.WriteString(" ")
		builder.WriteString(arg.String())
	}
	//
	builder.WriteString(")")
	//
	return builder.String()
}

// Arity returns the number of distinct variables mentioned in a node.
func Arity(node Node) int {
	vars := make(map[string]bool)
	collectVars(node, vars)
	//
	return len(vars)
}

func collectVars(node Node, vars map[string]bool) {
	switch n := node.(type) {
	case *Var:
		vars[n.Name] = true
	case *Add:
		for _, arg := range n.Args {
			collectVars(arg, vars)
		}
	case *And:
		for _, arg := range n.Args {
			collectVars(arg, vars)
		}
	case *Sub:
		collectVars(n.Left, vars)
		collectVars(n.Right, vars)
	case *Mul:
		collectVars(n.Left, vars)
		collectVars(n.Right, vars)
	case *Cmp:
		collectVars(n.Left, vars)
		collectVars(n.Right, vars)
	case *Iff:
		collectVars(n.Left, vars)
		collectVars(n.Right, vars)
	}
}

// Evaluate a node which mentions no variables, returning false if it is not a
// constant arithmetic expression.
func evalConst(node Node) (int64, bool) {
	switch n := node.(type) {
	case *Const:
		return int64(n.Value), true
	case *Add:
		var sum int64
		//
		for _, arg := range n.Args {
			v, ok := evalConst(arg)
			if !ok {
				return 0, false
			}
			//
			sum += v
		}
		//
		return sum, true
	case *Sub:
		l, lok := evalConst(n.Left)
		r, rok := evalConst(n.Right)
		//
		return l - r, lok && rok
	case *Mul:
		l, lok := evalConst(n.Left)
		r, rok := evalConst(n.Right)
		//
		return l * r, lok && rok
	}
	//
	return 0, false
}
