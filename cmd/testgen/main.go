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
package main

import (
	"fmt"
	"math/rand"
	"os"
	"path"
	"strings"

	"github.com/consensys/go-turbo/pkg/cmd"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Uint("min-tasks", 2, "Minimum number of tasks")
	rootCmd.Flags().Uint("max-tasks", 6, "Maximum number of tasks")
	rootCmd.Flags().Uint("max-duration", 5, "Maximum duration of a task")
	rootCmd.Flags().Uint("count", 1, "Number of models to generate for each size")
	rootCmd.Flags().Int64("seed", 0, "Seed for the random number generator")
	rootCmd.Flags().String("dir", "testdata", "Directory in which to write models")
	rootCmd.Flags().BoolP("verbose", "v", false, "increase logging verbosity")
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "testgen [flags] model",
	Short: "Test generation utility for turbo.",
	Long: `Generate random scheduling models of a given kind, such that they can be
	used as test inputs.  Supported kinds are: ` + strings.Join(modelNames(), ", ") + ".",
	Run: func(c *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(c.UsageString())
			os.Exit(1)
		}
		//
		if cmd.GetFlag(c, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		var cfg TestGenConfig
		// Lookup model
		cfg.model = findModel(args[0])
		cfg.minTasks = cmd.GetUint(c, "min-tasks")
		cfg.maxTasks = cmd.GetUint(c, "max-tasks")
		cfg.maxDuration = max(1, cmd.GetUint(c, "max-duration"))
		cfg.count = cmd.GetUint(c, "count")
		//
		seed, err := c.Flags().GetInt64("seed")
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		rng := rand.New(rand.NewSource(seed))
		dir := cmd.GetString(c, "dir")
		//
		for n := cfg.minTasks; n <= cfg.maxTasks; n++ {
			for i := uint(0); i < cfg.count; i++ {
				filename := path.Join(dir, fmt.Sprintf("%s_%d_%d.lisp", cfg.model.Name, n, i))
				writeModel(filename, cfg.model.Generator(rng, n, cfg.maxDuration))
			}
		}
	},
}

// TestGenConfig encapsulates configuration related to test generation.
type TestGenConfig struct {
	model       Model
	minTasks    uint
	maxTasks    uint
	maxDuration uint
	count       uint
}

// GeneratorFn generates the text of a model with a given number of tasks.
type GeneratorFn = func(rng *rand.Rand, tasks uint, maxDuration uint) string

// Model represents a kind of model which can be generated.
type Model struct {
	// Name of the model in question
	Name string
	// Generator for models of this kind.
	Generator GeneratorFn
}

var models []Model = []Model{
	{"precedence", precedenceModel},
	{"disjunctive", disjunctiveModel},
}

func findModel(name string) Model {
	for _, m := range models {
		if m.Name == name {
			return m
		}
	}
	//
	fmt.Printf("unknown model \"%s\"\n", name)
	os.Exit(2)
	// unreachable
	return Model{}
}

func modelNames() []string {
	names := make([]string, len(models))
	//
	for i, m := range models {
		names[i] = m.Name
	}
	//
	return names
}

func writeModel(filename string, text string) {
	log.Debugf("writing %s", filename)
	//
	if err := os.WriteFile(filename, []byte(text), 0644); err != nil {
		fmt.Println(err)
		os.Exit(3)
	}
}

// ============================================================================
// Generators
// ============================================================================

// Tasks with random durations, where each task may have to follow an earlier
// one.  The makespan is minimised.
func precedenceModel(rng *rand.Rand, tasks uint, maxDuration uint) string {
	var builder strings.Builder
	//
	durations := declareTasks(&builder, rng, tasks, maxDuration)
	//
	for j := uint(1); j < tasks; j++ {
		i := uint(rng.Intn(int(j)))
		fmt.Fprintf(&builder, "(<= (+ s%d %d) s%d)\n", i, durations[i], j)
	}
	//
	return builder.String()
}

// Tasks with random durations which all share a single machine, such that no
// two can overlap.  Each ordering decision between two tasks is reified by a
// boolean variable.
func disjunctiveModel(rng *rand.Rand, tasks uint, maxDuration uint) string {
	var builder strings.Builder
	//
	durations := declareTasks(&builder, rng, tasks, maxDuration)
	//
	for i := uint(0); i < tasks; i++ {
		for j := i + 1; j < tasks; j++ {
			fmt.Fprintf(&builder, "(var b%d_%d 0 1)\n(var b%d_%d 0 1)\n", i, j, j, i)
			fmt.Fprintf(&builder, "(<=> b%d_%d (<= (+ s%d %d) s%d))\n", i, j, i, durations[i], j)
			fmt.Fprintf(&builder, "(<=> b%d_%d (<= (+ s%d %d) s%d))\n", j, i, j, durations[j], i)
			fmt.Fprintf(&builder, "(>= (+ b%d_%d b%d_%d) 1)\n", i, j, j, i)
		}
	}
	//
	return builder.String()
}

// Declare start variables s0, s1, ... for each task within a horizon large
// enough to run them all in sequence, along with the makespan to minimise.
func declareTasks(builder *strings.Builder, rng *rand.Rand, tasks uint, maxDuration uint) []uint {
	var horizon uint
	//
	durations := make([]uint, tasks)
	//
	for i := range durations {
		durations[i] = 1 + uint(rng.Intn(int(maxDuration)))
		horizon += durations[i]
	}
	//
	fmt.Fprintf(builder, "(var makespan 0 %d)\n", horizon)
	//
	for i, d := range durations {
		fmt.Fprintf(builder, "(var s%d 0 %d)\n", i, horizon-d)
		fmt.Fprintf(builder, "(<= (+ s%d %d) makespan)\n", i, d)
	}
	//
	fmt.Fprintln(builder, "(minimize makespan)")
	//
	return durations
}
