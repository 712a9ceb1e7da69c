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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Stats_01(t *testing.T) {
	s1 := New(10, 5, false)
	s1.Nodes, s1.Fails, s1.Duration, s1.DepthMax = 3, 1, 2*time.Second, 4
	s2 := New(10, 5, false)
	s2.Nodes, s2.Fails, s2.Duration, s2.DepthMax = 4, 2, time.Second, 7
	s2.Exhaustive = false
	//
	s1.Join(s2)
	assert.Equal(t, uint64(7), s1.Nodes)
	assert.Equal(t, uint64(3), s1.Fails)
	assert.Equal(t, 2*time.Second, s1.Duration)
	assert.Equal(t, uint64(7), s1.DepthMax)
	assert.False(t, s1.Exhaustive)
	// Variables are not counters
	assert.Equal(t, uint64(10), s1.Variables)
}

func Test_Stats_02(t *testing.T) {
	var buf strings.Builder
	//
	s := New(3, 2, false)
	s.FixpointIterations = 9
	s.InterpretationDuration = 1500 * time.Millisecond
	//
	require.NoError(t, s.PrintMznStatistics(&buf))
	require.NoError(t, s.PrintMznEndStats(&buf))
	//
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 16)
	assert.Equal(t, "%%%mzn-stat: nodes=0", lines[0])
	assert.Equal(t, "%%%mzn-stat: variables=3", lines[2])
	assert.Equal(t, "%%%mzn-stat: propagators=2", lines[3])
	assert.Equal(t, "%%%mzn-stat: initTime=1.500000", lines[5])
	assert.Equal(t, "%%%mzn-stat: fixpoint_iterations=9", lines[12])
	assert.Equal(t, "%%%mzn-stat-end", lines[15])
}

func Test_Stats_03(t *testing.T) {
	check_Final(t, New(1, 1, false), "=====UNSATISFIABLE=====\n")
	//
	s := New(1, 1, true)
	s.Exhaustive = false
	check_Final(t, s, "=====UNBOUNDED=====\n")
	//
	s = New(1, 1, false)
	s.Exhaustive = false
	check_Final(t, s, "=====UNKNOWN=====\n")
	//
	s = New(1, 1, false)
	s.Solutions = 1
	check_Final(t, s, "==========\n")
	//
	s.Exhaustive = false
	check_Final(t, s, "")
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Final(t *testing.T, s *Statistics, expected string) {
	var buf strings.Builder
	//
	require.NoError(t, s.PrintFinal(&buf))
	assert.Equal(t, expected, buf.String())
}
