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
	"fmt"
	"io"
	"os"

	"github.com/consensys/go-turbo/pkg/config"
	"github.com/consensys/go-turbo/pkg/stats"
	"github.com/consensys/go-turbo/pkg/util"
	"github.com/consensys/go-turbo/pkg/util/termio"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] model_file",
	Short: "compile a model into domains and propagators.",
	Long: `Compile a given model, and print the initial domain of every variable along
	with the propagators produced.  Constraints over a single variable are
	folded into the domains, rather than producing propagators.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		cfg, err := getConfiguration(cmd, args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		if err := compileModel(os.Stdout, cfg, termio.IsTerminal(os.Stdout)); err != nil {
			fmt.Println(err)
			os.Exit(3)
		}
	},
}

// Compile a model and print the outcome.
func compileModel(w io.Writer, cfg *config.Configuration, colour bool) error {
	perf := util.NewPerfStats()
	//
	m, builder, err := readModelFile(w, cfg)
	if err != nil {
		return err
	}
	//
	elapsed := perf.Log("Compiling model")
	store := builder.BuildStore()
	constraints := builder.BuildConstraints()
	//
	if cfg.PrintAST {
		for _, c := range m.Constraints {
			fmt.Fprintln(w, c.String())
		}
	}
	//
	if err := printStore(w, store, colour); err != nil {
		return err
	} else if err := constraints.Print(w, store.Names()); err != nil {
		return err
	}
	//
	obj, optimization := builder.Objective()
	if optimization {
		fmt.Fprintf(w, "minimize %s\n", store.NameOf(obj))
	}
	//
	if cfg.PrintStatistics {
		s := stats.New(uint64(store.Size()-1), uint64(constraints.Len()), optimization)
		s.InterpretationDuration = elapsed
		//
		if err := printStatistics(w, cfg, s); err != nil {
			return err
		}
	}
	//
	if builder.Infeasible() {
		return stats.New(0, 0, optimization).PrintFinal(w)
	}
	//
	return nil
}

func printStatistics(w io.Writer, cfg *config.Configuration, s *stats.Statistics) error {
	if cfg.VerboseSolving {
		if err := cfg.PrintCommandLine(w, "turbo"); err != nil {
			return err
		}
	}
	//
	if err := cfg.PrintMznStatistics(w); err != nil {
		return err
	} else if err := s.PrintMznStatistics(w); err != nil {
		return err
	}
	//
	return s.PrintMznEndStats(w)
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().Bool("ast", false, "print the constraints as read")
}
