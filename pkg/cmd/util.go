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
	"strings"

	"github.com/consensys/go-turbo/pkg/config"
	"github.com/consensys/go-turbo/pkg/model"
	"github.com/consensys/go-turbo/pkg/util/source"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// GetFlag gets an expected flag, or panic if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint gets an expected unsigned integer, or panic if an error arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string, or panic if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// Construct the configuration for a command.  This starts from the defaults,
// overlays the configuration file (if given) and, finally, any flags which were
// set explicitly on the command line.
func getConfiguration(cmd *cobra.Command, problem string) (*config.Configuration, error) {
	var (
		cfg = config.Default()
		err error
	)
	// Configure log level
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
	//
	if path := GetString(cmd, "config"); path != "" {
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	//
	flags := cmd.Flags()
	cfg.ProblemPath = problem
	//
	if flags.Changed("verbose") {
		cfg.VerboseSolving = GetFlag(cmd, "verbose")
	}
	//
	if flags.Changed("stats") {
		cfg.PrintStatistics = GetFlag(cmd, "stats")
	}
	//
	if flags.Lookup("ast") != nil && flags.Changed("ast") {
		cfg.PrintAST = GetFlag(cmd, "ast")
	}
	//
	if flags.Lookup("or") != nil && flags.Changed("or") {
		cfg.OrNodes = uint64(GetUint(cmd, "or"))
	}
	//
	if flags.Lookup("timeout") != nil && flags.Changed("timeout") {
		cfg.TimeoutMs = uint64(GetUint(cmd, "timeout"))
	}
	//
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Record the effective configuration
	if path := GetString(cmd, "save-config"); path != "" {
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		//
		log.Infof("configuration saved to %s", path)
	}
	//
	return cfg, nil
}

// Read and compile the model identified by a given configuration.  Syntax and
// compile errors are printed with the offending text highlighted.
func readModelFile(w io.Writer, cfg *config.Configuration) (*model.SourceModel, *model.Builder, error) {
	format, err := cfg.InputFormat()
	if err != nil {
		return nil, nil, err
	} else if format != config.Lisp {
		return nil, nil, fmt.Errorf("%s models are not supported (expected a .lisp file)", format)
	}
	//
	srcfile, err := source.ReadFile(cfg.ProblemPath)
	if err != nil {
		return nil, nil, err
	}
	//
	m, errs := model.ReadModel(srcfile)
	if len(errs) == 0 {
		var builder *model.Builder
		//
		if builder, errs = model.CompileSource(m); len(errs) == 0 {
			return m, builder, nil
		}
	}
	//
	for i := range errs {
		printSyntaxError(w, &errs[i])
	}
	//
	return nil, nil, fmt.Errorf("%d error(s) in %s", len(errs), cfg.ProblemPath)
}

// Print a syntax error with appropriate highlighting.
func printSyntaxError(w io.Writer, err *source.SyntaxError) {
	span := err.Span()
	line := err.FirstEnclosingLine()
	lineOffset := max(0, span.Start()-line.Start())
	// Calculate length (ensures don't overflow line)
	length := max(1, min(line.Length()-lineOffset, span.Length()))
	// Print error + line number
	fmt.Fprintf(w, "%s:%d:%d-%d %s\n", err.SourceFile().Filename(),
		line.Number(), 1+lineOffset, 1+lineOffset+length, err.Message())
	// Print separator line
	fmt.Fprintln(w)
	// Print line
	fmt.Fprintln(w, line.String())
	// Print indent
	fmt.Fprint(w, strings.Repeat(" ", lineOffset))
	// Print highlight
	fmt.Fprintln(w, strings.Repeat("^", length))
}
