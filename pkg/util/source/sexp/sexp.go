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
package sexp

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// SExp is an S-Expression is either a List of zero or more S-Expressions, a Set
// of zero or more S-Expressions, or a Symbol.
type SExp interface {
	// AsList checks whether this S-Expression is a list and, if
	// so, returns it.  Otherwise, it returns nil.
	AsList() *List
	// AsSet checks whether this S-Expression is a set and, if
	// so, returns it.  Otherwise, it returns nil.
	AsSet() *Set
	// AsSymbol checks whether this S-Expression is a symbol and,
	// if so, returns it.  Otherwise, it returns nil.
	AsSymbol() *Symbol
	// String generates a string representation which may (may not) be quoted.
	String(quote bool) string
}

// ===================================================================
// List
// ===================================================================

// List represents a list of zero or more S-Expressions.
type List struct {
	Elements []SExp
}

// NOTE: This is used for compile time type checking if the given type
// satisfies the given interface.
var _ SExp = (*List)(nil)

// NewList creates a new list from a given array of S-Expressions.
func NewList(elements []SExp) *List {
	return &List{elements}
}

// AsList returns the given list.
func (l *List) AsList() *List { return l }

// AsSet returns nil for a list.
func (l *List) AsSet() *Set { return nil }

// AsSymbol returns nil for a list.
func (l *List) AsSymbol() *Symbol { return nil }

// Len gets the number of elements in this list.
func (l *List) Len() int { return len(l.Elements) }

// Get the ith element of this list
func (l *List) Get(i int) SExp { return l.Elements[i] }

// Head returns the first element of this list when it is a symbol, or the empty
// string otherwise.
func (l *List) Head() string {
	if len(l.Elements) > 0 {
		if s := l.Elements[0].AsSymbol(); s != nil {
			return s.Value
		}
	}
	//
	return ""
}

func (l *List) String(quote bool) string {
	return "(" + join(l.Elements, quote) + ")"
}

// MatchSymbols matches a list which starts with at least n symbols, of which the
// first m match the given strings.
func (l *List) MatchSymbols(n int, symbols ...string) bool {
	if len(l.Elements) < n || len(symbols) > n {
		return false
	}

	for i := 0; i < len(symbols); i++ {
		switch ith := l.Elements[i].(type) {
		case *Symbol:
			if ith.Value != symbols[i] {
				return false
			}
		default:
			return false
		}
	}

	return true
}

// ===================================================================
// Set
// ===================================================================

// Set represents a braced collection of zero or more S-Expressions.
type Set struct {
	Elements []SExp
}

// NOTE: This is used for compile time type checking if the given type
// satisfies the given interface.
var _ SExp = (*Set)(nil)

// NewSet creates a new set from a given array of S-Expressions.
func NewSet(elements []SExp) *Set {
	return &Set{elements}
}

// AsList returns nil for a set.
func (l *Set) AsList() *List { return nil }

// AsSet returns the given set.
func (l *Set) AsSet() *Set { return l }

// AsSymbol returns nil for a set.
func (l *Set) AsSymbol() *Symbol { return nil }

// Len gets the number of elements in this set.
func (l *Set) Len() int { return len(l.Elements) }

// Get the ith element of this set
func (l *Set) Get(i int) SExp { return l.Elements[i] }

func (l *Set) String(quote bool) string {
	return "{" + join(l.Elements, quote) + "}"
}

// ===================================================================
// Symbol
// ===================================================================

// Symbol represents a terminating symbol.
type Symbol struct {
	Value string
}

// NOTE: This is used for compile time type checking if the given type
// satisfies the given interface.
var _ SExp = (*Symbol)(nil)

// NewSymbol creates a new symbol from a given string.
func NewSymbol(value string) *Symbol {
	return &Symbol{value}
}

// AsList returns nil for a symbol.
func (s *Symbol) AsList() *List { return nil }

// AsSet returns nil for a symbol.
func (s *Symbol) AsSet() *Set { return nil }

// AsSymbol returns the given symbol
func (s *Symbol) AsSymbol() *Symbol { return s }

// Int32 attempts to interpret this symbol as a signed 32-bit integer.
func (s *Symbol) Int32() (int32, bool) {
	v, err := strconv.ParseInt(s.Value, 10, 32)
	if err != nil {
		return 0, false
	}
	//
	return int32(v), true
}

func (s *Symbol) String(quote bool) string {
	if quote {
		for _, r := range s.Value {
			if !isSymbolLetter(r) {
				return fmt.Sprintf("\"%s\"", s.Value)
			}
		}
	}
	// No quote required
	return s.Value
}

func isSymbolLetter(r rune) bool {
	return r != '(' && r != ')' && r != '{' && r != '}' && !unicode.IsSpace(r)
}

func join(elements []SExp, quote bool) string {
	var builder strings.Builder
	//
	for i, e := range elements {
		if i != 0 {
			builder.WriteString(" ")
		}
		//
		builder.WriteString(e.String(quote))
	}
	//
	return builder.String()
}
