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
	"math"

	"github.com/consensys/go-turbo/pkg/propagator"
	"github.com/consensys/go-turbo/pkg/vstore"
	log "github.com/sirupsen/logrus"
)

// ZeroVarName is the name of the reserved variable at index 0.
const ZeroVarName = "zero_var(fake)"

// Builder compiles a model, one declaration or constraint at a time, into the
// initial store and the list of propagators required to solve it.  Constraints
// over a single variable are folded directly into the initial bounds of that
// variable, whilst all others become propagators.  Constraints which are found
// to be contradictory at compile time mark the model as infeasible, rather than
// producing an error.  A builder is not safe for concurrent use.
type Builder struct {
	// Maps variable names to their indices.
	index map[string]vstore.Var
	// Name of each variable, indexed by variable.
	names []string
	// Pending bounds of each variable, indexed by variable.
	bounds []vstore.Bounds
	// Propagators produced so far, in order of compilation.
	constraints *propagator.Constraints
	// Number of constraints compiled so far (whether or not they produced a
	// propagator).
	compiled uint
	// Variable being minimised (or NoVar)
	objective vstore.Var
	// Set when a contradiction is detected at compile time.
	infeasible bool
}

// NewBuilder constructs a builder for an empty model.  This contains only the
// reserved variable at index 0, which is pinned to [0..0].
func NewBuilder() *Builder {
	builder := &Builder{
		index:       make(map[string]vstore.Var),
		constraints: propagator.NewConstraints(),
	}
	//
	builder.DeclareVariable(ZeroVarName, 0, 0)
	//
	return builder
}

// DeclareVariable registers a variable with initial bounds [lb..ub].  Variables
// are indexed in order of declaration.  Redeclaring a variable replaces its
// bounds but retains its index.
func (b *Builder) DeclareVariable(name string, lb int32, ub int32) {
	if x, ok := b.index[name]; ok {
		if b.compiled > 0 {
			log.Warnf("variable %s redeclared after %d constraint(s) were compiled", name, b.compiled)
		}
		//
		b.bounds[x] = vstore.Bounds{Lb: lb, Ub: ub}
		//
		return
	}
	//
	b.index[name] = vstore.Var(len(b.names))
	b.names = append(b.names, name)
	b.bounds = append(b.bounds, vstore.Bounds{Lb: lb, Ub: ub})
}

// NumVars returns the number of variables declared so far (including the
// reserved variable).
func (b *Builder) NumVars() int {
	return len(b.names)
}

// VarOf returns the index of a given variable.
func (b *Builder) VarOf(name string) (vstore.Var, bool) {
	x, ok := b.index[name]
	return x, ok
}

// Bounds returns the pending bounds of a given variable.
func (b *Builder) Bounds(name string) (vstore.Bounds, bool) {
	if x, ok := b.index[name]; ok {
		return b.bounds[x], true
	}
	//
	return vstore.Bounds{}, false
}

// Infeasible indicates whether a contradiction was detected at compile time.
func (b *Builder) Infeasible() bool {
	return b.infeasible
}

// Objective returns the variable being minimised, if there is one.
func (b *Builder) Objective() (vstore.Var, bool) {
	return b.objective, b.objective != vstore.NoVar
}

// AddObjectiveMinimize records the variable to be minimised.  Only one
// objective is supported, hence the most recent call takes precedence.
func (b *Builder) AddObjectiveMinimize(name string) error {
	return b.minimize(&Var{name})
}

func (b *Builder) minimize(v *Var) error {
	x, err := b.lookup(v)
	if err != nil {
		return err
	}
	//
	b.objective = x
	//
	return nil
}

// AddConstraint compiles a given constraint.  Depending on its shape, this
// either tightens the initial bounds of a variable or adds a propagator.  An
// error is returned for any shape which is not recognised, in which case the
// model cannot be solved.
func (b *Builder) AddConstraint(node Node) error {
	b.compiled++
	//
	switch Arity(node) {
	case 0:
		return b.addConstantConstraint(node)
	case 1:
		return b.strengthenDomainFromNode(node)
	}
	//
	switch n := node.(type) {
	case *Iff:
		return b.addReifiedConstraint(n)
	case *Cmp:
		if x, k, op, y, ok := temporalShape(n); ok {
			return b.addTemporal(n, x, k, op, y)
		} else if _, ok := n.Left.(*Add); ok {
			return b.addLinearConstraint(n)
		}
	}
	//
	return unsupported(node, "unsupported constraint shape")
}

// AddTemporalConstraint compiles the constraint x + k <op> y.
func (b *Builder) AddTemporalConstraint(x string, k int32, op Operator, y string) error {
	lhs, rhs := &Var{x}, &Var{y}
	node := &Cmp{op, &Add{[]Node{lhs, &Const{k}}}, rhs}
	//
	b.compiled++
	//
	return b.addTemporal(node, lhs, int64(k), op, rhs)
}

// StrengthenDomain compiles the unary constraint x <op> k, by tightening the
// pending bounds of x.  Repeated strengthening of the same variable keeps the
// tightest bounds.
func (b *Builder) StrengthenDomain(x string, op Operator, k int32) error {
	lhs := &Var{x}
	//
	b.compiled++
	//
	return b.strengthen(&Cmp{op, lhs, &Const{k}}, lhs, op, int64(k))
}

// BuildStore constructs the initial store from the pending bounds of every
// variable, in declaration order.  If a contradiction was detected during
// compilation then the reserved variable is made infeasible, which makes the
// entire store infeasible.
func (b *Builder) BuildStore() *vstore.VStore {
	store := vstore.New(vstore.NewNames(b.names))
	//
	for i, bounds := range b.bounds {
		store.SetBounds(vstore.Var(i), bounds)
	}
	//
	if b.infeasible {
		store.SetBounds(vstore.NoVar, vstore.Bounds{Lb: 1, Ub: 0})
	}
	//
	return store
}

// BuildConstraints returns the propagators produced by compilation, identified
// by the order in which they were produced.
func (b *Builder) BuildConstraints() *propagator.Constraints {
	return b.constraints
}

// ============================================================================
// Unary constraints
// ============================================================================

// Handle a constraint which mentions no variables at all, by evaluating it.
func (b *Builder) addConstantConstraint(node Node) error {
	n, ok := node.(*Cmp)
	if !ok {
		return malformed(node, "expected comparison")
	}
	//
	lhs, ok := evalConst(n.Left)
	if !ok {
		return malformed(n.Left, "expected constant expression")
	}
	//
	var holds bool
	//
	if set, ok := n.Right.(*Set); ok && n.Op == IN {
		for _, v := range set.Values {
			holds = holds || int64(v) == lhs
		}
	} else if rhs, ok := evalConst(n.Right); ok && n.Op != IN {
		holds = compare(lhs, n.Op, rhs)
	} else {
		return malformed(n.Right, "expected constant expression")
	}
	//
	if holds {
		log.Debugf("dropping tautology %s", node.String())
	} else {
		b.contradiction(node)
	}
	//
	return nil
}

// Handle a constraint over exactly one variable, by strengthening the pending
// bounds of that variable.
func (b *Builder) strengthenDomainFromNode(node Node) error {
	n, ok := node.(*Cmp)
	if !ok {
		return malformed(node, "expected comparison in unary constraint")
	} else if n.Op == NE || n.Op == IN {
		return unsupported(node, "unsupported unary operator %s", n.Op)
	} else if _, ok := n.Left.(*Add); ok {
		return b.addLinearConstraint(n)
	}
	//
	lhs, rhs, op := n.Left, n.Right, n.Op
	// Normalise k <op> x into x <op'> k
	if _, ok := evalConst(lhs); ok {
		lhs, rhs, op = rhs, lhs, op.Flip()
	}
	//
	k, ok := evalConst(rhs)
	if !ok {
		return malformed(rhs, "expected value on the rhs")
	}
	//
	switch l := simplify(lhs).(type) {
	case *Var:
		return b.strengthen(node, l, op, k)
	case *Mul:
		if x, a, ok := weightedVar(l); ok {
			return b.addLinearTerms(node, []Node{x}, []int64{a}, op, k)
		}
	}
	//
	return malformed(lhs, "expected variable on the lhs (in domain constraint)")
}

// Tighten the pending bounds of x so as to enforce x <op> k.
func (b *Builder) strengthen(node Node, x *Var, op Operator, k int64) error {
	index, err := b.lookup(x)
	if err != nil {
		return err
	}
	//
	switch op {
	case LT:
		b.tightenUpper(node, index, k-1)
	case LE:
		b.tightenUpper(node, index, k)
	case EQ:
		b.tightenLower(node, index, k)
		b.tightenUpper(node, index, k)
	case GE:
		b.tightenLower(node, index, k)
	case GT:
		b.tightenLower(node, index, k+1)
	default:
		return unsupported(node, "unsupported unary operator %s", op)
	}
	//
	return nil
}

// Tighten the pending lower bound of x to k.  A bound above the range of int32
// admits no value of x at all.
func (b *Builder) tightenLower(node Node, x vstore.Var, k int64) {
	if k > math.MaxInt32 {
		b.contradiction(node)
		return
	}
	//
	lb := propagator.Saturate(k)
	//
	if lb > b.bounds[x].Lb {
		log.Debugf("strengthening %s >= %d", b.names[x], lb)
		b.bounds[x].Lb = lb
	}
}

// Tighten the pending upper bound of x to k.  A bound below the range of int32
// admits no value of x at all.
func (b *Builder) tightenUpper(node Node, x vstore.Var, k int64) {
	if k < math.MinInt32 {
		b.contradiction(node)
		return
	}
	//
	ub := propagator.Saturate(k)
	//
	if ub < b.bounds[x].Ub {
		log.Debugf("strengthening %s <= %d", b.names[x], ub)
		b.bounds[x].Ub = ub
	}
}

func (b *Builder) contradiction(node Node) {
	log.Debugf("contradiction %s detected at root node", node.String())
	//
	b.infeasible = true
}

// ============================================================================
// Linear constraints
// ============================================================================

// Compile a constraint of the form c1*x1 + ... + cn*xn <op> c.  Constant terms
// on the left-hand side are moved to the right-hand side.
func (b *Builder) addLinearConstraint(n *Cmp) error {
	var (
		vars   []Node
		coeffs []int64
	)
	//
	if n.Op == NE || n.Op == IN {
		return unsupported(n, "operator %s not supported in linear constraint", n.Op)
	}
	//
	c, ok := evalConst(n.Right)
	if !ok {
		return malformed(n.Right, "expected constant on the rhs of linear constraint")
	}
	//
	for _, arg := range n.Left.(*Add).Args {
		if k, ok := evalConst(arg); ok {
			c -= k
		} else if x, a, ok := weightedVar(arg); ok {
			vars = append(vars, x)
			coeffs = append(coeffs, a)
		} else {
			return malformed(arg, "expected sum of weighted variables")
		}
	}
	//
	return b.addLinearTerms(n, vars, coeffs, n.Op, c)
}

// Compile sum(coeffs[i]*vars[i]) <op> c.  This is first normalised into one or
// two constraints of the form sum <= c.
func (b *Builder) addLinearTerms(node Node, vars []Node, coeffs []int64, op Operator, c int64) error {
	var props []propagator.Propagator
	//
	terms, err := b.mergeTerms(vars, coeffs)
	if err != nil {
		return err
	}
	//
	forms, ok := normalise(terms, op, c)
	if !ok {
		return unsupported(node, "operator %s not supported in linear constraint", op)
	}
	//
	for _, form := range forms {
		p, err := b.linearLe(node, form.terms, form.c)
		if err != nil {
			return err
		} else if p != nil {
			props = append(props, p)
		}
	}
	//
	switch len(props) {
	case 1:
		b.constraints.Add(props[0])
	case 2:
		b.constraints.Add(propagator.NewAnd(props[0], props[1]))
	}
	//
	return nil
}

// Compile sum(terms) <= c, returning nil if this was folded into the initial
// bounds at compile time.
func (b *Builder) linearLe(node Node, terms []linearTerm, c int64) (propagator.Propagator, error) {
	switch len(terms) {
	case 0:
		if c < 0 {
			b.contradiction(node)
		} else {
			log.Debugf("dropping tautology %s", node.String())
		}
		//
		return nil, nil
	case 1:
		b.strengthenSingleTerm(node, terms[0].x, terms[0].coeff, c)
		//
		return nil, nil
	}
	//
	lterms := make([]propagator.Term, len(terms))
	//
	for i, t := range terms {
		if !fits(t.coeff) {
			return nil, malformed(node, "coefficient %d out of range", t.coeff)
		}
		//
		lterms[i] = propagator.Term{Var: t.x, Coeff: int32(t.coeff)}
	}
	//
	if !fits(c) {
		return nil, malformed(node, "constant %d out of range", c)
	}
	//
	return propagator.NewLinear(lterms, int32(c)), nil
}

// Enforce a*x <= c by tightening the pending bounds of x.  Since x is an
// integer, the bound must be rounded towards feasibility: downwards when a > 0
// (giving an upper bound) and upwards when a < 0 (giving a lower bound).  For
// example, -2*x <= 3 gives x >= -1.
func (b *Builder) strengthenSingleTerm(node Node, x vstore.Var, a int64, c int64) {
	switch {
	case a == 0:
		if c < 0 {
			b.contradiction(node)
		}
	case c == 0 && a > 0:
		b.tightenUpper(node, x, 0)
	case c == 0:
		b.tightenLower(node, x, 0)
	case a > 0:
		b.tightenUpper(node, x, propagator.FloorDiv(c, a))
	default:
		b.tightenLower(node, x, propagator.CeilDiv(c, a))
	}
}

type linearTerm struct {
	x     vstore.Var
	coeff int64
}

type linearForm struct {
	terms []linearTerm
	c     int64
}

// Resolve variables and combine terms over the same variable, whilst dropping
// those whose coefficient is zero.
func (b *Builder) mergeTerms(vars []Node, coeffs []int64) ([]linearTerm, error) {
	var terms []linearTerm
	//
	for i, v := range vars {
		x, err := b.lookup(v.(*Var))
		if err != nil {
			return nil, err
		}
		//
		found := false
		//
		for j := range terms {
			if terms[j].x == x {
				terms[j].coeff += coeffs[i]
				found = true
			}
		}
		//
		if !found {
			terms = append(terms, linearTerm{x, coeffs[i]})
		}
	}
	// Drop zeros
	result := terms[:0]
	//
	for _, t := range terms {
		if t.coeff != 0 {
			result = append(result, t)
		}
	}
	//
	return result, nil
}

// Rewrite sum(terms) <op> c into one or more constraints of the form sum <= c.
func normalise(terms []linearTerm, op Operator, c int64) ([]linearForm, bool) {
	neg := make([]linearTerm, len(terms))
	//
	for i, t := range terms {
		neg[i] = linearTerm{t.x, -t.coeff}
	}
	//
	switch op {
	case LT:
		return []linearForm{{terms, c - 1}}, true
	case LE:
		return []linearForm{{terms, c}}, true
	case EQ:
		return []linearForm{{terms, c}, {neg, -c}}, true
	case GE:
		return []linearForm{{neg, -c}}, true
	case GT:
		return []linearForm{{neg, -c - 1}}, true
	}
	//
	return nil, false
}

// ============================================================================
// Temporal constraints
// ============================================================================

func (b *Builder) addTemporal(node Node, x *Var, k int64, op Operator, y *Var) error {
	if x.Name == y.Name {
		return b.addSelfTemporal(node, x, k, op)
	}
	//
	p, err := b.makeTemporal(node, x, k, op, y)
	if err != nil {
		return err
	}
	//
	b.constraints.Add(p)
	//
	return nil
}

// Fold x + k <op> x, which holds for every x exactly when k <op> 0.
func (b *Builder) addSelfTemporal(node Node, x *Var, k int64, op Operator) error {
	if _, err := b.lookup(x); err != nil {
		return err
	} else if op == NE || op == IN {
		return unsupported(node, "operator %s not supported in temporal constraint", op)
	} else if compare(k, op, 0) {
		log.Debugf("dropping tautology %s", node.String())
	} else {
		b.contradiction(node)
	}
	//
	return nil
}

// Construct a propagator for x + k <op> y.
func (b *Builder) makeTemporal(node Node, x *Var, k int64, op Operator, y *Var) (propagator.Propagator, error) {
	xi, err := b.lookup(x)
	if err != nil {
		return nil, err
	}
	//
	yi, err := b.lookup(y)
	if err != nil {
		return nil, err
	}
	// Turn > and < into >= and <=
	switch op {
	case LT:
		op, k = LE, k+1
	case GT:
		op, k = GE, k-1
	}
	//
	switch op {
	case LE:
		// x + k <= y is x - y <= -k
		if !fits(-k) {
			return nil, malformed(node, "constant %d out of range", k)
		}
		//
		return propagator.NewTemporal(vstore.Pos(xi), vstore.Neg(yi), int32(-k)), nil
	case GE:
		// x + k >= y is y - x <= k
		if !fits(k) {
			return nil, malformed(node, "constant %d out of range", k)
		}
		//
		return propagator.NewTemporal(vstore.Neg(xi), vstore.Pos(yi), int32(k)), nil
	case EQ:
		p1, err := b.makeTemporal(node, x, k, LE, y)
		if err != nil {
			return nil, err
		}
		//
		p2, err := b.makeTemporal(node, x, k, GE, y)
		if err != nil {
			return nil, err
		}
		//
		return propagator.NewAnd(p1, p2), nil
	}
	//
	return nil, unsupported(node, "operator %s not supported in temporal constraint", op)
}

// Construct a temporal propagator for a node which must have a suitable shape.
func (b *Builder) temporalFromNode(node Node) (propagator.Propagator, error) {
	if n, ok := node.(*Cmp); ok {
		if x, k, op, y, ok := temporalShape(n); ok {
			return b.makeTemporal(n, x, k, op, y)
		}
	}
	//
	return nil, malformed(node, "expected temporal constraint of the form x <= y + k")
}

// Determine whether a comparison has one of the shapes x <op> y, x <op> y + k,
// x <op> y - k, x + k <op> y or y - x <op> k and, if so, rewrite it as
// x + k <op> y.
func temporalShape(n *Cmp) (*Var, int64, Operator, *Var, bool) {
	switch l := n.Left.(type) {
	case *Var:
		switch r := n.Right.(type) {
		case *Var:
			return l, 0, n.Op, r, true
		case *Add:
			// x <op> y + k is x - k <op> y
			if y, k, ok := varPlusConst(r); ok {
				return l, -k, n.Op, y, true
			}
		case *Sub:
			// x <op> y - k is x + k <op> y
			y, yok := r.Left.(*Var)
			k, kok := evalConst(r.Right)
			//
			if yok && kok {
				return l, k, n.Op, y, true
			}
		}
	case *Add:
		if x, k, ok := varPlusConst(l); ok {
			if y, ok := n.Right.(*Var); ok {
				return x, k, n.Op, y, true
			}
		}
	case *Sub:
		// y - x <op> k is x + k <op'> y
		y, yok := l.Left.(*Var)
		x, xok := l.Right.(*Var)
		k, kok := evalConst(n.Right)
		//
		if yok && xok && kok {
			return x, k, n.Op.Flip(), y, true
		}
	}
	//
	return nil, 0, 0, nil, false
}

// ============================================================================
// Reified constraints
// ============================================================================

// Compile b <=> (c1 /\ c2), where either side of the biconditional may hold the
// boolean variable.
func (b *Builder) addReifiedConstraint(n *Iff) error {
	bvar, ok := n.Left.(*Var)
	rhs := n.Right
	// Canonicalise so the boolean variable is on the left
	if !ok {
		bvar, ok = n.Right.(*Var)
		rhs = n.Left
	}
	//
	if !ok {
		return malformed(n, "expected reified constraint of the form b <=> (c1 and c2)")
	}
	//
	bi, err := b.lookup(bvar)
	if err != nil {
		return err
	}
	//
	p, err := b.reifiable(rhs)
	if err != nil {
		return err
	}
	// Boolean variables range over 0..1
	b.tightenLower(n, bi, 0)
	b.tightenUpper(n, bi, 1)
	b.constraints.Add(propagator.NewReified(bi, p))
	//
	return nil
}

func (b *Builder) reifiable(node Node) (propagator.Propagator, error) {
	switch n := node.(type) {
	case *And:
		if len(n.Args) != 2 {
			return nil, malformed(n, "expected conjunction of two constraints")
		}
		//
		p1, err := b.temporalFromNode(n.Args[0])
		if err != nil {
			return nil, err
		}
		//
		p2, err := b.temporalFromNode(n.Args[1])
		if err != nil {
			return nil, err
		}
		//
		return propagator.NewAnd(p1, p2), nil
	case *Cmp:
		return b.temporalFromNode(n)
	}
	//
	return nil, malformed(node, "expected reified constraint of the form b <=> (c1 and c2)")
}

// ============================================================================
// Helpers
// ============================================================================

func (b *Builder) lookup(x *Var) (vstore.Var, error) {
	if index, ok := b.index[x.Name]; ok {
		return index, nil
	}
	//
	return vstore.NoVar, &CompileError{UnknownVariable, x, "undeclared variable"}
}

// Rewrite x * 1 (or 1 * x) as x.
func simplify(node Node) Node {
	if m, ok := node.(*Mul); ok {
		if x, a, ok := weightedVar(m); ok && a == 1 {
			return x
		}
	}
	//
	return node
}

// Match either x, x * c or c * x.
func weightedVar(node Node) (*Var, int64, bool) {
	switch n := node.(type) {
	case *Var:
		return n, 1, true
	case *Mul:
		if x, ok := n.Left.(*Var); ok {
			c, ok := evalConst(n.Right)
			return x, c, ok
		} else if x, ok := n.Right.(*Var); ok {
			c, ok := evalConst(n.Left)
			return x, c, ok
		}
	}
	//
	return nil, 0, false
}

// Match a sum containing exactly one variable, with all other terms constant.
func varPlusConst(n *Add) (*Var, int64, bool) {
	var (
		x *Var
		k int64
	)
	//
	for _, arg := range n.Args {
		if c, ok := evalConst(arg); ok {
			k += c
		} else if v, ok := arg.(*Var); ok && x == nil {
			x = v
		} else {
			return nil, 0, false
		}
	}
	//
	return x, k, x != nil
}

func compare(lhs int64, op Operator, rhs int64) bool {
	switch op {
	case LT:
		return lhs < rhs
	case LE:
		return lhs <= rhs
	case EQ:
		return lhs == rhs
	case GE:
		return lhs >= rhs
	case GT:
		return lhs > rhs
	case NE:
		return lhs != rhs
	}
	//
	panic(fmt.Sprintf("unexpected operator %s", op))
}

func fits(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}
