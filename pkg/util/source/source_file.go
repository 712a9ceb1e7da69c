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
package source

import (
	"fmt"
	"os"
)

// ReadFile reads a given file from disk into a source file.
func ReadFile(filename string) (*File, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	//
	return NewSourceFile(filename, bytes), nil
}

// Line provides information about a given line within a source file, such as
// its number and contents.
type Line struct {
	// Original text
	text []rune
	// Span within original text of this line.
	span Span
	// Line number of this line (counting from 1).
	number int
}

// String returns the contents of this line.
func (p *Line) String() string {
	return string(p.text[p.span.start:p.span.end])
}

// Number returns the line number of this line (counting from 1).
func (p *Line) Number() int {
	return p.number
}

// Start returns the offset of this line within the original text.
func (p *Line) Start() int {
	return p.span.start
}

// Length returns the number of characters in this line.
func (p *Line) Length() int {
	return p.span.Length()
}

// File represents a given model file (typically found on disk).
type File struct {
	// File name for this source file.
	filename string
	// Contents of this file.
	contents []rune
}

// NewSourceFile constructs a new source file from a given byte array.
func NewSourceFile(filename string, bytes []byte) *File {
	// Convert bytes into runes for easier parsing
	return &File{filename, []rune(string(bytes))}
}

// Filename returns the filename associated with this source file.
func (s *File) Filename() string {
	return s.filename
}

// Contents returns the contents of this source file.
func (s *File) Contents() []rune {
	return s.contents
}

// SyntaxError constructs a syntax error over a given span of this file with a
// given message.
func (s *File) SyntaxError(span Span, msg string) *SyntaxError {
	return &SyntaxError{s, span, msg}
}

// FindFirstEnclosingLine determines the first line in this source file which
// encloses the start of a span.
func (s *File) FindFirstEnclosingLine(span Span) Line {
	num := 1
	start := 0
	//
	for i := 0; i < len(s.contents); i++ {
		if i == span.start {
			return Line{s.contents, Span{start, findEndOfLine(i, s.contents)}, num}
		} else if s.contents[i] == '\n' {
			num++
			start = i + 1
		}
	}
	// Span starts at end-of-file
	return Line{s.contents, Span{start, len(s.contents)}, num}
}

// SyntaxError is a structured error which retains the span in the source file
// where the error arose, such that it can be highlighted.
type SyntaxError struct {
	srcfile *File
	// Span in the source file where the error arose.
	span Span
	// Error message being reported
	msg string
}

// SourceFile returns the file in which this error arose.
func (p *SyntaxError) SourceFile() *File {
	return p.srcfile
}

// Span returns the span of the original text on which this error is reported.
func (p *SyntaxError) Span() Span {
	return p.span
}

// Message returns the message to be reported.
func (p *SyntaxError) Message() string {
	return p.msg
}

func (p *SyntaxError) Error() string {
	line := p.FirstEnclosingLine()
	//
	return fmt.Sprintf("%s:%d: %s", p.srcfile.filename, line.Number(), p.msg)
}

// FirstEnclosingLine determines the first line in the source file which
// encloses the start of this error.
func (p *SyntaxError) FirstEnclosingLine() Line {
	return p.srcfile.FindFirstEnclosingLine(p.span)
}

func findEndOfLine(index int, text []rune) int {
	for i := index; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}
	// No end in sight!
	return len(text)
}
