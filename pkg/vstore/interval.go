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

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Bounds is a plain (i.e. non-atomic) snapshot of a domain.  This is used
// wherever a domain is passed around by value, such as the pending bounds held
// by a model builder or the argument to a tightening operation.
type Bounds struct {
	Lb int32
	Ub int32
}

// FullBounds returns the bounds spanning every representable value.
func FullBounds() Bounds {
	return Bounds{math.MinInt32, math.MaxInt32}
}

// Singleton returns the bounds [v..v].
func Singleton(v int32) Bounds {
	return Bounds{v, v}
}

// IsAssigned checks whether these bounds contain exactly one value.
func (b Bounds) IsAssigned() bool {
	return b.Lb == b.Ub
}

// IsInfeasible checks whether these bounds contain no value at all.
func (b Bounds) IsInfeasible() bool {
	return b.Lb > b.Ub
}

// Contains checks whether a given value lies within these bounds.
func (b Bounds) Contains(v int32) bool {
	return b.Lb <= v && v <= b.Ub
}

// Meet returns the intersection of two bounds.  The result may be infeasible.
func (b Bounds) Meet(o Bounds) Bounds {
	return Bounds{max(b.Lb, o.Lb), min(b.Ub, o.Ub)}
}

// Negated returns the bounds [-ub..-lb].  Negation saturates at the extremes of
// int32, such that the negation of the full range is again the full range.
func (b Bounds) Negated() Bounds {
	return Bounds{negate(b.Ub), negate(b.Lb)}
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%d..%d]", b.Lb, b.Ub)
}

// Interval is the domain of a single variable, represented as a range of
// integers [lb..ub].  Both bounds are updated atomically and independently of
// each other, which allows many workers to narrow the same interval
// concurrently without any locking.  The only sanctioned mutations narrow the
// interval, hence an interval never grows during propagation.  An interval
// where lb > ub is infeasible (sometimes referred to as "top"), which is a
// perfectly valid state rather than an error.
type Interval struct {
	lb atomic.Int32
	ub atomic.Int32
}

// Full constructs an interval spanning the entire range of int32.
func Full() *Interval {
	return NewInterval(FullBounds())
}

// NewInterval constructs an interval holding the given bounds.
func NewInterval(b Bounds) *Interval {
	var itv Interval
	//
	itv.set(b)
	//
	return &itv
}

// Lower returns the current lower bound of this interval.
func (p *Interval) Lower() int32 {
	return p.lb.Load()
}

// Upper returns the current upper bound of this interval.
func (p *Interval) Upper() int32 {
	return p.ub.Load()
}

// Bounds returns a snapshot of this interval.  Observe that, under concurrent
// narrowing, the two bounds may be read at slightly different moments.  Since
// bounds only ever move inwards, the snapshot is always a superset of the
// interval at the time of the second read.
func (p *Interval) Bounds() Bounds {
	return Bounds{p.lb.Load(), p.ub.Load()}
}

// TightenLower raises the lower bound to v, provided v is strictly greater than
// the current lower bound.  This returns true if this call changed the bound.
// Concurrent callers proposing different values always leave the maximum
// proposal in place, irrespective of how they interleave.
func (p *Interval) TightenLower(v int32) bool {
	for {
		cur := p.lb.Load()
		if cur >= v {
			return false
		} else if p.lb.CompareAndSwap(cur, v) {
			return true
		}
	}
}

// TightenUpper lowers the upper bound to v, provided v is strictly less than
// the current upper bound.  This returns true if this call changed the bound.
// Concurrent callers proposing different values always leave the minimum
// proposal in place, irrespective of how they interleave.
func (p *Interval) TightenUpper(v int32) bool {
	for {
		cur := p.ub.Load()
		if cur <= v {
			return false
		} else if p.ub.CompareAndSwap(cur, v) {
			return true
		}
	}
}

// Intersect narrows this interval by some given bounds, such that lb becomes
// max(lb, b.Lb) and ub becomes min(ub, b.Ub).  This returns true if either
// bound changed.
func (p *Interval) Intersect(b Bounds) bool {
	changed := p.TightenLower(b.Lb)
	//
	return p.TightenUpper(b.Ub) || changed
}

// IsAssigned checks whether this interval holds exactly one value.
func (p *Interval) IsAssigned() bool {
	return p.Lower() == p.Upper()
}

// IsInfeasible checks whether this interval is empty.
func (p *Interval) IsInfeasible() bool {
	return p.Lower() > p.Upper()
}

// Negated returns a view of this interval for the variable -x, that is
// [-ub..-lb].  No new domain is allocated.
func (p *Interval) Negated() Bounds {
	return p.Bounds().Negated()
}

func (p *Interval) String() string {
	return p.Bounds().String()
}

// Overwrite both bounds, regardless of whether this narrows or widens the
// interval.  This is only permitted during construction and when resetting a
// store from its baseline, neither of which can happen concurrently with
// propagation.
func (p *Interval) set(b Bounds) {
	p.lb.Store(b.Lb)
	p.ub.Store(b.Ub)
}

// Negate a bound, where the two extremes of int32 act as -oo and +oo.
func negate(v int32) int32 {
	switch v {
	case math.MinInt32:
		return math.MaxInt32
	case math.MaxInt32:
		return math.MinInt32
	}
	//
	return -v
}
