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
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SubproblemsPower is the default (log2) number of sub-problems a search is
// split into.
const SubproblemsPower = 12

// StackKB is the default stack size (in kilobytes) of each worker.
const StackKB = 32

// DefaultVersion is reported when no version is configured.
const DefaultVersion = "1.1.7"

// ErrUnknownFormat is returned when the format of a problem file cannot be
// determined from its extension.
var ErrUnknownFormat = errors.New("unknown input format")

// Arch identifies the hardware on which solving takes place.
type Arch string

const (
	// CPU architecture
	CPU Arch = "cpu"
	// GPU architecture
	GPU Arch = "gpu"
)

// InputFormat identifies the format of a problem file.
type InputFormat uint8

const (
	// XCSP3 is the XML format of the XCSP competition.
	XCSP3 InputFormat = iota
	// FlatZinc is the flattened MiniZinc format.
	FlatZinc
	// Lisp is the S-expression format read by this tool.
	Lisp
)

func (f InputFormat) String() string {
	switch f {
	case XCSP3:
		return "xcsp3"
	case FlatZinc:
		return "flatzinc"
	default:
		return "lisp"
	}
}

// Configuration captures the options which control a solving run.  It can be
// read from a YAML file, with command-line flags taking precedence.
type Configuration struct {
	// Print every improving solution of an optimisation problem.
	PrintIntermediateSolutions bool `yaml:"print_intermediate_solutions"`
	// Stop after this many solutions, where 0 means all solutions.
	StopAfterNSolutions uint64 `yaml:"stop_after_n_solutions"`
	// Stop after exploring this many nodes.
	StopAfterNNodes uint64 `yaml:"stop_after_n_nodes"`
	FreeSearch          bool   `yaml:"free_search"`
	PrintStatistics     bool   `yaml:"print_statistics"`
	VerboseSolving      bool   `yaml:"verbose_solving"`
	PrintAST            bool   `yaml:"print_ast"`
	OnlyGlobalMemory    bool   `yaml:"only_global_memory"`
	NoAtomics           bool   `yaml:"noatomics"`
	// Timeout in milliseconds, where 0 means no timeout.
	TimeoutMs uint64 `yaml:"timeout_ms"`
	// Number of parallel workers.  0 means one per available CPU.
	OrNodes          uint64 `yaml:"or_nodes"`
	AndNodes         uint64 `yaml:"and_nodes"`
	SubproblemsPower uint64 `yaml:"subproblems_power"`
	StackKB          uint64 `yaml:"stack_kb"`
	Arch             Arch   `yaml:"arch"`
	ProblemPath      string `yaml:"problem_path"`
	Version          string `yaml:"version"`
	Hardware         string `yaml:"hardware"`
}

// Default returns the default configuration.
func Default() *Configuration {
	return &Configuration{
		StopAfterNSolutions: 1,
		StopAfterNNodes:     math.MaxUint64,
		SubproblemsPower:    SubproblemsPower,
		StackKB:             StackKB,
		Arch:                CPU,
	}
}

// Load reads a configuration from a YAML file.  Any option missing from the
// file retains its default value.
func Load(path string) (*Configuration, error) {
	cfg := Default()
	//
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	//
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	//
	return cfg, nil
}

// Save writes this configuration to a YAML file.
func (c *Configuration) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	//
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	//
	return os.WriteFile(path, data, 0600)
}

// Validate checks this configuration is internally consistent.
func (c *Configuration) Validate() error {
	switch {
	case c.Arch != CPU && c.Arch != GPU:
		return fmt.Errorf("invalid architecture %q (expected cpu or gpu)", c.Arch)
	case c.SubproblemsPower >= 64:
		return fmt.Errorf("subproblems power %d too large", c.SubproblemsPower)
	case c.Arch == CPU && (c.AndNodes != 0 || c.OnlyGlobalMemory || c.NoAtomics):
		return errors.New("and-nodes, global memory and atomics options are only meaningful on gpu")
	}
	//
	return nil
}

// InputFormat determines the format of the problem file from its extension.
func (c *Configuration) InputFormat() (InputFormat, error) {
	switch {
	case strings.HasSuffix(c.ProblemPath, ".fzn"):
		return FlatZinc, nil
	case strings.HasSuffix(c.ProblemPath, ".xml"):
		return XCSP3, nil
	case strings.HasSuffix(c.ProblemPath, ".lisp"):
		return Lisp, nil
	}
	//
	return 0, fmt.Errorf("%w for %s (supported extensions: .xml, .fzn and .lisp)", ErrUnknownFormat,
		c.ProblemPath)
}

// Timeout returns the timeout as a duration, where 0 means no timeout.
func (c *Configuration) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// PrintCommandLine writes a command line which would reproduce this
// configuration.
func (c *Configuration) PrintCommandLine(w io.Writer, program string) error {
	var builder strings.Builder
	//
	fmt.Fprintf(&builder, "%s -t %d ", program, c.TimeoutMs)
	flag(&builder, c.PrintIntermediateSolutions, "-a ")
	fmt.Fprintf(&builder, "-n %d ", c.StopAfterNSolutions)
	flag(&builder, c.PrintIntermediateSolutions, "-i ")
	flag(&builder, c.FreeSearch, "-f ")
	flag(&builder, c.PrintStatistics, "-s ")
	flag(&builder, c.VerboseSolving, "-v ")
	flag(&builder, c.PrintAST, "-ast ")
	//
	if c.Arch == GPU {
		fmt.Fprintf(&builder, "-arch gpu -or %d -and %d -sub %d -stack %d ", c.OrNodes, c.AndNodes,
			c.SubproblemsPower, c.StackKB)
		flag(&builder, c.OnlyGlobalMemory, "-globalmem ")
		flag(&builder, c.NoAtomics, "-noatomics ")
	} else {
		fmt.Fprintf(&builder, "-arch cpu -p %d ", c.OrNodes)
	}
	//
	if c.Version != "" {
		fmt.Fprintf(&builder, "-version %s ", c.Version)
	}
	//
	if c.Hardware != "" {
		fmt.Fprintf(&builder, "-hardware \"%s\" ", c.Hardware)
	}
	//
	builder.WriteString(c.ProblemPath)
	builder.WriteString("\n")
	//
	_, err := io.WriteString(w, builder.String())
	//
	return err
}

// PrintMznStatistics writes this configuration as MiniZinc statistics.
func (c *Configuration) PrintMznStatistics(w io.Writer) error {
	version := c.Version
	if version == "" {
		version = DefaultVersion
	}
	//
	stats := []string{
		fmt.Sprintf("problem_path=\"%s\"", c.ProblemPath),
		"solver=\"Turbo\"",
		fmt.Sprintf("version=\"%s\"", version),
		fmt.Sprintf("hardware=\"%s\"", c.Hardware),
		fmt.Sprintf("arch=\"%s\"", c.Arch),
		fmt.Sprintf("free_search=\"%s\"", yesNo(c.FreeSearch)),
		fmt.Sprintf("or_nodes=%d", c.OrNodes),
		fmt.Sprintf("timeout_ms=%d", c.TimeoutMs),
	}
	//
	if c.Arch == GPU {
		stats = append(stats, fmt.Sprintf("and_nodes=%d", c.AndNodes),
			fmt.Sprintf("stack_size=%d", c.StackKB*1000))
	}
	//
	for _, s := range stats {
		if _, err := fmt.Fprintf(w, "%%%%%%mzn-stat: %s\n", s); err != nil {
			return err
		}
	}
	//
	return nil
}

func flag(builder *strings.Builder, enabled bool, text string) {
	if enabled {
		builder.WriteString(text)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	//
	return "no"
}
