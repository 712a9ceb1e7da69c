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
package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/consensys/go-turbo/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const precedenceModel = `(var x 0 10)
(var y 0 10)
(<= (+ x 2) y)
(<= y 5)
(minimize x)
`

func Test_Compile_01(t *testing.T) {
	var buf strings.Builder
	//
	cfg := check_Config(t, precedenceModel)
	require.NoError(t, compileModel(&buf, cfg, false))
	assert.Equal(t, " x | [0..10] |\n y |  [0..5] |\n#0: x - y <= -2\nminimize x\n", buf.String())
}

func Test_Compile_02(t *testing.T) {
	var buf strings.Builder
	//
	cfg := check_Config(t, "(var x 0 10)\n(> 1 2)\n")
	cfg.PrintAST = true
	require.NoError(t, compileModel(&buf, cfg, false))
	assert.Equal(t, "(> 1 2)\n x | [0..10] |\n=====UNSATISFIABLE=====\n", buf.String())
}

func Test_Compile_03(t *testing.T) {
	var buf strings.Builder
	//
	cfg := check_Config(t, precedenceModel)
	cfg.PrintStatistics = true
	require.NoError(t, compileModel(&buf, cfg, false))
	assert.Contains(t, buf.String(), "%%%mzn-stat: variables=2\n")
	assert.Contains(t, buf.String(), "%%%mzn-stat: propagators=1\n")
	assert.True(t, strings.HasSuffix(buf.String(), "%%%mzn-stat-end\n"))
}

func Test_Compile_04(t *testing.T) {
	var buf strings.Builder
	// Verbose statistics start with the command line
	cfg := check_Config(t, precedenceModel)
	cfg.PrintStatistics = true
	cfg.VerboseSolving = true
	require.NoError(t, compileModel(&buf, cfg, false))
	assert.Contains(t, buf.String(), "turbo -t 0 -n 1 -s -v -arch cpu -p 2 "+cfg.ProblemPath+"\n%%%mzn-stat: ")
}

func Test_Propagate_01(t *testing.T) {
	var buf strings.Builder
	//
	cfg := check_Config(t, precedenceModel)
	require.NoError(t, propagateModel(context.Background(), &buf, cfg, false))
	assert.Equal(t, " x | [0..3] |\n y | [2..5] |\n", buf.String())
}

func Test_Propagate_02(t *testing.T) {
	var buf strings.Builder
	//
	cfg := check_Config(t, "(var x 0 10)\n(var y 0 10)\n(< x y)\n(< y x)\n")
	require.NoError(t, propagateModel(context.Background(), &buf, cfg, false))
	assert.Equal(t, "=====UNSATISFIABLE=====\n", buf.String())
}

func Test_Propagate_03(t *testing.T) {
	var buf strings.Builder
	//
	cfg := check_Config(t, "(var x 0 10)\n(<= x z)\n")
	err := propagateModel(context.Background(), &buf, cfg, false)
	//
	require.Error(t, err)
	assert.Contains(t, buf.String(), ":2:7-8 undeclared variable\n\n(<= x z)\n      ^\n")
}

func Test_Propagate_04(t *testing.T) {
	var buf strings.Builder
	//
	cfg := config.Default()
	cfg.ProblemPath = "model.fzn"
	err := propagateModel(context.Background(), &buf, cfg, false)
	assert.ErrorContains(t, err, "flatzinc models are not supported")
}

func Test_Propagate_05(t *testing.T) {
	require.NoError(t, propagateCmd.ParseFlags([]string{"--or", "4", "--timeout", "250"}))
	//
	cfg, err := getConfiguration(propagateCmd, "model.lisp")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), cfg.OrNodes)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout())
	assert.Equal(t, "model.lisp", cfg.ProblemPath)
}

func Test_Propagate_06(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turbo.yaml")
	require.NoError(t, propagateCmd.ParseFlags([]string{"--or", "3", "--save-config", path}))
	//
	cfg, err := getConfiguration(propagateCmd, "model.lisp")
	require.NoError(t, err)
	// The saved configuration reproduces the effective one
	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, saved)
	assert.Equal(t, uint64(3), saved.OrNodes)
}

func Test_Propagate_07(t *testing.T) {
	var buf strings.Builder
	// Propagation statistics are joined with those of compilation
	cfg := check_Config(t, precedenceModel)
	cfg.PrintStatistics = true
	require.NoError(t, propagateModel(context.Background(), &buf, cfg, false))
	assert.Contains(t, buf.String(), "%%%mzn-stat: variables=2\n")
	assert.Contains(t, buf.String(), "%%%mzn-stat: fixpoint_iterations=")
}

// ===================================================================
// Test Helpers
// ===================================================================

// Write a model to a temporary file, and construct a configuration to read it.
func check_Config(t *testing.T, text string) *config.Configuration {
	t.Helper()
	//
	path := filepath.Join(t.TempDir(), "model.lisp")
	require.NoError(t, os.WriteFile(path, []byte(text), 0600))
	//
	cfg := config.Default()
	cfg.ProblemPath = path
	cfg.OrNodes = 2
	//
	return cfg
}
