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
package stats

import (
	"fmt"
	"io"
	"time"
)

// Statistics accumulates counters describing a solving run.  Each worker keeps
// its own statistics, which are joined at the end of solving.
type Statistics struct {
	Variables   uint64
	Constraints uint64
	// Indicates an optimisation (rather than satisfaction) problem.
	Optimization bool
	// Time spent solving.
	Duration time.Duration
	// Time spent reading and compiling the model.
	InterpretationDuration time.Duration
	Nodes                  uint64
	Fails                  uint64
	Solutions              uint64
	DepthMax               uint64
	// Indicates the search space was fully explored.
	Exhaustive            bool
	EpsNumSubproblems     uint64
	EpsSolvedSubproblems  uint64
	EpsSkippedSubproblems uint64
	NumBlocksDone         uint64
	FixpointIterations    uint64
	EliminatedVariables   uint64
	EliminatedFormulas    uint64
	SearchTime            time.Duration
	PropagationTime       time.Duration
}

// New constructs the statistics of a problem with the given number of
// variables and constraints.
func New(variables uint64, constraints uint64, optimization bool) *Statistics {
	return &Statistics{
		Variables:         variables,
		Constraints:       constraints,
		Optimization:      optimization,
		Exhaustive:        true,
		EpsNumSubproblems: 1,
	}
}

// Join merges the statistics of another worker into these.  Durations are
// wall-clock, hence the largest is retained, whilst counters are summed.
func (p *Statistics) Join(other *Statistics) {
	p.Duration = max(p.Duration, other.Duration)
	p.InterpretationDuration = max(p.InterpretationDuration, other.InterpretationDuration)
	p.Nodes += other.Nodes
	p.Fails += other.Fails
	p.Solutions += other.Solutions
	p.DepthMax = max(p.DepthMax, other.DepthMax)
	p.Exhaustive = p.Exhaustive && other.Exhaustive
	p.EpsSolvedSubproblems += other.EpsSolvedSubproblems
	p.EpsSkippedSubproblems += other.EpsSkippedSubproblems
	p.NumBlocksDone += other.NumBlocksDone
	p.FixpointIterations += other.FixpointIterations
	p.SearchTime += other.SearchTime
	p.PropagationTime += other.PropagationTime
}

// PrintMznStatistics writes these statistics in the MiniZinc format, i.e. one
// "%%%mzn-stat: name=value" line per statistic.
func (p *Statistics) PrintMznStatistics(w io.Writer) error {
	stats := []struct {
		name  string
		value any
	}{
		{"nodes", p.Nodes},
		{"failures", p.Fails},
		{"variables", p.Variables},
		{"propagators", p.Constraints},
		{"peakDepth", p.DepthMax},
		{"initTime", seconds(p.InterpretationDuration)},
		{"solveTime", seconds(p.Duration)},
		{"num_solutions", p.Solutions},
		{"eps_num_subproblems", p.EpsNumSubproblems},
		{"eps_solved_subproblems", p.EpsSolvedSubproblems},
		{"eps_skipped_subproblems", p.EpsSkippedSubproblems},
		{"num_blocks_done", p.NumBlocksDone},
		{"fixpoint_iterations", p.FixpointIterations},
		{"eliminated_variables", p.EliminatedVariables},
		{"eliminated_formulas", p.EliminatedFormulas},
	}
	//
	for _, s := range stats {
		if _, err := fmt.Fprintf(w, "%%%%%%mzn-stat: %s=%v\n", s.name, s.value); err != nil {
			return err
		}
	}
	//
	return nil
}

// PrintMznEndStats writes the marker which terminates a block of statistics.
func (p *Statistics) PrintMznEndStats(w io.Writer) error {
	_, err := io.WriteString(w, "%%%mzn-stat-end\n")
	return err
}

// PrintFinal writes the final status line of a run: "==========" when the
// search space was exhausted having found solutions, otherwise one of the
// UNSATISFIABLE, UNBOUNDED or UNKNOWN markers.
func (p *Statistics) PrintFinal(w io.Writer) error {
	var status string
	//
	switch {
	case p.Solutions > 0 && p.Exhaustive:
		status = "=========="
	case p.Solutions > 0:
		return nil
	case p.Exhaustive:
		status = "=====UNSATISFIABLE====="
	case p.Optimization:
		status = "=====UNBOUNDED====="
	default:
		status = "=====UNKNOWN====="
	}
	//
	_, err := fmt.Fprintln(w, status)
	//
	return err
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%f", d.Seconds())
}
