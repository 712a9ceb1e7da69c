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
	"context"
	"testing"

	"github.com/consensys/go-turbo/pkg/fixpoint"
	"github.com/consensys/go-turbo/pkg/util/source"
	"github.com/consensys/go-turbo/pkg/util/source/sexp"
	"github.com/consensys/go-turbo/pkg/vstore"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Reader_01(t *testing.T) {
	m := check_Read(t, `; precedence with a deadline
(var x 0 10)
(var y 0 10)
(<= (+ x 2) y)
(<= y 5)
(minimize x)
`)
	//
	expected := []Declaration{{"x", 0, 10}, {"y", 0, 10}}
	if diff := cmp.Diff(expected, m.Variables); diff != "" {
		t.Errorf("unexpected declarations (-want +got):\n%s", diff)
	}
	//
	check_Constraints(t, m, "(<= (+ x 2) y)", "(<= y 5)")
	require.NotNil(t, m.Minimize)
	assert.Equal(t, "x", m.Minimize.Name)
	//
	builder, errs := CompileSource(m)
	require.Empty(t, errs)
	//
	store := builder.BuildStore()
	_, err := fixpoint.Run(context.Background(), store, builder.BuildConstraints(), fixpoint.Options{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, vstore.Bounds{Lb: 0, Ub: 3}, store.Bounds(1))
	assert.Equal(t, vstore.Bounds{Lb: 2, Ub: 5}, store.Bounds(2))
	//
	obj, ok := builder.Objective()
	assert.True(t, ok)
	assert.Equal(t, vstore.Var(1), obj)
}

func Test_Reader_02(t *testing.T) {
	m := check_Read(t, `(var b 0 1) (var x -5 5) (var y -5 5)
(<=> b (and (<= x y) (<= y (+ x 3))))
(in x {1 2 3})
(= (- y x) 2)
(>= (+ (* 2 x) (* -1 y) 4) 0)`)
	//
	check_Constraints(t, m, "(<=> b (and (<= x y) (<= y (+ x 3))))", "(in x {1 2 3})", "(= (- y x) 2)",
		"(>= (+ (* 2 x) (* -1 y) 4) 0)")
	assert.Nil(t, m.Minimize)
}

func Test_Reader_03(t *testing.T) {
	check_ReadError(t, "(var x 0)", "expected (var name lb ub)", "(var x 0)")
	check_ReadError(t, "(var x a 10)", "expected 32-bit integer", "a")
	check_ReadError(t, "(var x 0 99999999999)", "expected 32-bit integer", "99999999999")
	check_ReadError(t, "(var 1x 0 10)", "expected variable name", "1x")
	check_ReadError(t, "(foo x y)", "unknown operator foo", "foo")
	check_ReadError(t, "(<= x)", "incorrect number of operands for <=", "(<= x)")
	check_ReadError(t, "(- x y z)", "incorrect number of operands for -", "(- x y z)")
	check_ReadError(t, "x", "expected declaration or constraint", "x")
	check_ReadError(t, "()", "expected operator", "()")
	check_ReadError(t, "(in x {1 y})", "expected 32-bit integer", "y")
	check_ReadError(t, "(minimize)", "expected (minimize name)", "(minimize)")
	check_ReadError(t, "(<= x y))", "unexpected end-of-list", ")")
	check_ReadError(t, "(<= x y", "unexpected end-of-file", "")
}

func Test_Reader_04(t *testing.T) {
	// Every error is reported
	srcfile := source.NewSourceFile("test.lisp", []byte("(var x 0)\n(<= x y)\n(foo 1 2)\n"))
	_, errs := ReadModel(srcfile)
	require.Len(t, errs, 2)
	//
	line := errs[1].FirstEnclosingLine()
	assert.Equal(t, 3, line.Number())
	assert.Equal(t, "(foo 1 2)", line.String())
}

func Test_Reader_05(t *testing.T) {
	check_CompileError(t, "(var x 0 10)\n(var y 0 10)\n(<= (* x y) 3)\n", "unsupported constraint shape",
		"(<= (* x y) 3)", 3)
	check_CompileError(t, "(var x 0 10)\n(<= x z)\n", "undeclared variable", "z", 2)
	check_CompileError(t, "(var x 0 10)\n(!= x 3)\n", "unsupported unary operator !=", "(!= x 3)", 2)
	check_CompileError(t, "(var x 0 10)\n(minimize q)\n", "undeclared variable", "q", 2)
}

func Test_Reader_06(t *testing.T) {
	// Compile errors are collected across all constraints
	m := check_Read(t, "(var x 0 10)\n(<= x p)\n(<= x 5)\n(<= x q)\n")
	builder, errs := CompileSource(m)
	//
	assert.Nil(t, builder)
	require.Len(t, errs, 2)
	assert.Equal(t, "test.lisp:2: undeclared variable", errs[0].Error())
	assert.Equal(t, "test.lisp:4: undeclared variable", errs[1].Error())
}

func Test_Reader_07(t *testing.T) {
	// Contradiction at compile time is not an error
	m := check_Read(t, "(var x 0 10)\n(> 1 2)\n")
	builder, errs := CompileSource(m)
	//
	require.Empty(t, errs)
	assert.True(t, builder.Infeasible())
	assert.True(t, builder.BuildStore().IsInfeasible())
}

func Test_Reader_08(t *testing.T) {
	// A malformed name yields no node, so enclosing terms are not built either.
	srcfile := source.NewSourceFile("test.lisp", []byte("(<= x 2bad)"))
	terms, srcmap, err := sexp.ParseAll(srcfile)
	require.Nil(t, err)
	//
	r := &reader{srcmap, source.NewSourceMap[Node](srcfile), nil}
	list := terms[0].AsList()
	//
	assert.True(t, r.readConstraint(list.Get(2)) == nil)
	assert.True(t, r.readConstraint(terms[0]) == nil)
	assert.Len(t, r.errors, 2)
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Read(t *testing.T, text string) *SourceModel {
	t.Helper()
	//
	m, errs := ReadModel(source.NewSourceFile("test.lisp", []byte(text)))
	require.Empty(t, errs)
	//
	return m
}

func check_Constraints(t *testing.T, m *SourceModel, expected ...string) {
	t.Helper()
	//
	actual := make([]string, len(m.Constraints))
	//
	for i, c := range m.Constraints {
		actual[i] = c.String()
	}
	//
	assert.Equal(t, expected, actual)
}

// Check reading a given text fails with a given message, reported on a given
// fragment of the text.
func check_ReadError(t *testing.T, text string, msg string, fragment string) {
	t.Helper()
	//
	srcfile := source.NewSourceFile("test.lisp", []byte(text))
	_, errs := ReadModel(srcfile)
	//
	require.Len(t, errs, 1, text)
	check_SyntaxError(t, srcfile, &errs[0], msg, fragment)
}

func check_CompileError(t *testing.T, text string, msg string, fragment string, line int) {
	t.Helper()
	//
	srcfile := source.NewSourceFile("test.lisp", []byte(text))
	m, errs := ReadModel(srcfile)
	require.Empty(t, errs)
	//
	_, errs = CompileSource(m)
	require.Len(t, errs, 1, text)
	check_SyntaxError(t, srcfile, &errs[0], msg, fragment)
	//
	enclosing := errs[0].FirstEnclosingLine()
	assert.Equal(t, line, enclosing.Number())
}

func check_SyntaxError(t *testing.T, srcfile *source.File, err *source.SyntaxError, msg string, fragment string) {
	t.Helper()
	//
	span := err.Span()
	assert.Equal(t, msg, err.Message())
	assert.Equal(t, fragment, string(srcfile.Contents()[span.Start():span.End()]))
}
