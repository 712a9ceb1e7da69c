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
	"unicode"

	"github.com/consensys/go-turbo/pkg/util/source"
	"github.com/consensys/go-turbo/pkg/util/source/sexp"
)

// SourceModel is a model read from a source file, along with a mapping from
// each of its nodes back to the text from which it was read.
type SourceModel struct {
	Model
	// Maps nodes to their spans in the source file.
	srcmap *source.Map[Node]
	// Span of each top-level constraint, such that errors on nodes constructed
	// during compilation can still be reported.
	enclosing []source.Span
}

// SourceMap returns the mapping from nodes to their origin in the source file.
func (p *SourceModel) SourceMap() *source.Map[Node] {
	return p.srcmap
}

// ReadModel parses a model written as a sequence of S-expressions.  For
// example:
//
//	(var x 0 10)
//	(var y 0 10)
//	(<= (+ x 2) y)
//	(minimize y)
//
// Every error found whilst reading is reported, rather than just the first.
func ReadModel(srcfile *source.File) (*SourceModel, []source.SyntaxError) {
	terms, srcmap, err := sexp.ParseAll(srcfile)
	if err != nil {
		return nil, []source.SyntaxError{*err}
	}
	//
	r := &reader{srcmap, source.NewSourceMap[Node](srcfile), nil}
	m := &SourceModel{srcmap: r.nodemap}
	//
	for _, term := range terms {
		r.readDeclaration(term, m)
	}
	//
	if len(r.errors) > 0 {
		return nil, r.errors
	}
	//
	return m, nil
}

// CompileSource compiles a model read from a source file, translating any
// compile errors into syntax errors which highlight the offending text.
func CompileSource(m *SourceModel) (*Builder, []source.SyntaxError) {
	var errs []source.SyntaxError
	//
	builder, cerrs := Compile(&m.Model)
	//
	for _, err := range cerrs {
		errs = append(errs, *m.syntaxError(err))
	}
	//
	return builder, errs
}

func (p *SourceModel) syntaxError(err error) *source.SyntaxError {
	cerr, ok := err.(*CompileError)
	//
	switch {
	case ok && p.srcmap.Has(cerr.Node()):
		return p.srcmap.SyntaxError(cerr.Node(), cerr.Message())
	case ok:
		// Fall back to the first enclosing constraint
		for i, c := range p.Constraints {
			if contains(c, cerr.Node()) {
				return p.srcmap.Source().SyntaxError(p.enclosing[i], cerr.Message())
			}
		}
	}
	//
	return p.srcmap.Source().SyntaxError(source.NewSpan(0, 0), err.Error())
}

// Check whether a given node occurs within a tree.
func contains(tree Node, node Node) bool {
	if tree == node {
		return true
	}
	//
	switch n := tree.(type) {
	case *Add:
		return containsAny(n.Args, node)
	case *And:
		return containsAny(n.Args, node)
	case *Sub:
		return contains(n.Left, node) || contains(n.Right, node)
	case *Mul:
		return contains(n.Left, node) || contains(n.Right, node)
	case *Cmp:
		return contains(n.Left, node) || contains(n.Right, node)
	case *Iff:
		return contains(n.Left, node) || contains(n.Right, node)
	}
	//
	return false
}

func containsAny(trees []Node, node Node) bool {
	for _, t := range trees {
		if contains(t, node) {
			return true
		}
	}
	//
	return false
}

type reader struct {
	srcmap  *source.Map[sexp.SExp]
	nodemap *source.Map[Node]
	errors  []source.SyntaxError
}

func (r *reader) error(term sexp.SExp, msg string, args ...any) {
	r.errors = append(r.errors, *r.srcmap.SyntaxError(term, fmt.Sprintf(msg, args...)))
}

func (r *reader) readDeclaration(term sexp.SExp, m *SourceModel) {
	list := term.AsList()
	//
	switch {
	case list == nil:
		r.error(term, "expected declaration or constraint")
	case list.MatchSymbols(1, "var"):
		r.readVariable(list, m)
	case list.MatchSymbols(1, "minimize"):
		if list.Len() != 2 {
			r.error(term, "expected (minimize name)")
		} else if v := r.readVar(list.Get(1)); v != nil {
			m.Minimize = v
		}
	default:
		if c := r.readConstraint(term); c != nil {
			m.Constraints = append(m.Constraints, c)
			m.enclosing = append(m.enclosing, r.srcmap.Get(term))
		}
	}
}

func (r *reader) readVariable(list *sexp.List, m *SourceModel) {
	if list.Len() != 4 {
		r.error(list, "expected (var name lb ub)")
		return
	}
	//
	v := r.readVar(list.Get(1))
	lb, lok := r.readInt(list.Get(2))
	ub, uok := r.readInt(list.Get(3))
	//
	if v != nil && lok && uok {
		m.Variables = append(m.Variables, Declaration{v.Name, lb, ub})
	}
}

func (r *reader) readInt(term sexp.SExp) (int32, bool) {
	if s := term.AsSymbol(); s != nil {
		if v, ok := s.Int32(); ok {
			return v, true
		}
	}
	//
	r.error(term, "expected 32-bit integer")
	//
	return 0, false
}

func (r *reader) readVar(term sexp.SExp) *Var {
	s := term.AsSymbol()
	if s == nil || !isIdentifier(s.Value) {
		r.error(term, "expected variable name")
		return nil
	}
	//
	v := &Var{s.Value}
	r.nodemap.Put(v, r.srcmap.Get(term))
	//
	return v
}

// Read a constraint (or a term within a constraint).  This returns nil if an
// error was reported.
func (r *reader) readConstraint(term sexp.SExp) Node {
	var node Node
	//
	switch t := term.(type) {
	case *sexp.Symbol:
		if v, ok := t.Int32(); ok {
			node = &Const{v}
		} else if v := r.readVar(t); v != nil {
			return v
		} else {
			return nil
		}
	case *sexp.Set:
		node = r.readSet(t)
	case *sexp.List:
		node = r.readList(t)
	}
	//
	if node != nil {
		r.nodemap.Put(node, r.srcmap.Get(term))
	}
	//
	return node
}

func (r *reader) readSet(set *sexp.Set) Node {
	values := make([]int32, set.Len())
	//
	for i, e := range set.Elements {
		v, ok := r.readInt(e)
		if !ok {
			return nil
		}
		//
		values[i] = v
	}
	//
	return &Set{values}
}

func (r *reader) readList(list *sexp.List) Node {
	head := list.Head()
	if head == "" {
		r.error(list, "expected operator")
		return nil
	}
	//
	args, ok := r.readArgs(list.Elements[1:])
	if !ok {
		return nil
	}
	//
	switch head {
	case "+":
		if len(args) > 0 {
			return &Add{args}
		}
	case "and":
		if len(args) > 0 {
			return &And{args}
		}
	case "-":
		if len(args) == 2 {
			return &Sub{args[0], args[1]}
		}
	case "*":
		if len(args) == 2 {
			return &Mul{args[0], args[1]}
		}
	case "<=>":
		if len(args) == 2 {
			return &Iff{args[0], args[1]}
		}
	default:
		op, known := ParseOperator(head)
		if !known {
			r.error(list.Get(0), "unknown operator %s", head)
			return nil
		} else if len(args) == 2 {
			return &Cmp{op, args[0], args[1]}
		}
	}
	//
	r.error(list, "incorrect number of operands for %s", head)
	//
	return nil
}

func (r *reader) readArgs(terms []sexp.SExp) ([]Node, bool) {
	args := make([]Node, len(terms))
	ok := true
	//
	for i, t := range terms {
		args[i] = r.readConstraint(t)
		ok = ok && args[i] != nil
	}
	//
	return args, ok
}

func isIdentifier(s string) bool {
	for i, c := range s {
		if !unicode.IsLetter(c) && c != '_' && (i == 0 || (!unicode.IsDigit(c) && c != '\'' && c != '.')) {
			return false
		}
	}
	//
	return s != ""
}
