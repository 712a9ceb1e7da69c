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
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/consensys/go-turbo/pkg/config"
	"github.com/consensys/go-turbo/pkg/fixpoint"
	"github.com/consensys/go-turbo/pkg/stats"
	"github.com/consensys/go-turbo/pkg/util"
	"github.com/consensys/go-turbo/pkg/util/termio"
	"github.com/consensys/go-turbo/pkg/vstore"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var propagateCmd = &cobra.Command{
	Use:   "propagate [flags] model_file",
	Short: "narrow the domains of a model to a fixpoint.",
	Long: `Compile a given model, and then repeatedly apply its propagators until the
	domains no longer change.  Propagators are applied in parallel by a number of
	workers, all of which narrow the same store.`,
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
		if err := propagateModel(context.Background(), os.Stdout, cfg, termio.IsTerminal(os.Stdout)); err != nil {
			fmt.Println(err)
			os.Exit(3)
		}
	},
}

// Compile a model, propagate it to a fixpoint and print the resulting domains.
func propagateModel(ctx context.Context, w io.Writer, cfg *config.Configuration, colour bool) error {
	perf := util.NewPerfStats()
	//
	_, builder, err := readModelFile(w, cfg)
	if err != nil {
		return err
	}
	//
	store := builder.BuildStore()
	constraints := builder.BuildConstraints()
	_, optimization := builder.Objective()
	s := stats.New(uint64(store.Size()-1), uint64(constraints.Len()), optimization)
	s.InterpretationDuration = perf.Log("Compiling model")
	//
	if timeout := cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		//
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	//
	workers := uint(cfg.OrNodes)
	if workers == 0 {
		workers = uint(runtime.NumCPU())
	}
	//
	perf = util.NewPerfStats()
	result, err := fixpoint.Run(ctx, store, constraints, fixpoint.Options{Workers: workers})
	// Statistics of the propagation phase
	run := stats.New(0, 0, optimization)
	run.Duration = perf.Log("Propagation")
	run.PropagationTime = run.Duration
	run.FixpointIterations = uint64(result.Iterations)
	run.Exhaustive = result.Infeasible
	s.Join(run)
	s.EliminatedFormulas = uint64(result.Entailed)
	//
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		log.Warnf("timeout after %d round(s)", result.Iterations)
	case err != nil:
		return err
	case !result.Infeasible:
		if err := printStore(w, store, colour); err != nil {
			return err
		}
	}
	//
	if cfg.PrintStatistics {
		if err := printStatistics(w, cfg, s); err != nil {
			return err
		}
	}
	//
	if result.Infeasible || err != nil {
		return s.PrintFinal(w)
	}
	//
	return nil
}

// Print the domain of every variable (except the reserved one) as a table.
// When colour is enabled, assigned variables are highlighted.
func printStore(w io.Writer, store *vstore.VStore, colour bool) error {
	n := uint(store.Size() - 1)
	table := termio.NewTablePrinter(2, n)
	assigned := termio.NewAnsiEscape().FgColour(termio.TERM_GREEN)
	infeasible := termio.NewAnsiEscape().FgColour(termio.TERM_RED)
	//
	for i := uint(0); i < n; i++ {
		x := vstore.Var(i + 1)
		table.SetRow(i, store.NameOf(x), store.Bounds(x).String())
		//
		if store.IsVarInfeasible(x) {
			table.SetEscape(1, i, infeasible)
		} else if store.Bounds(x).IsAssigned() {
			table.SetEscape(1, i, assigned)
		}
	}
	//
	// Long names are truncated to fit the terminal.
	if colour {
		table.SetMaxWidth(0, termio.Width(os.Stdout)/2)
	}
	//
	table.AnsiEscapes(colour)
	//
	return table.Print(w)
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(propagateCmd)
	propagateCmd.Flags().Uint("or", 0, "number of parallel workers (0 for one per CPU)")
	propagateCmd.Flags().UintP("timeout", "t", 0, "timeout in milliseconds (0 for none)")
}
