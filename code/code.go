// Package code extracts fenced code blocks from agent messages and executes
// them on the local machine.
package code

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Block is one fenced code block.
type Block struct {
	Language string
	Code     string
}

// Result summarises the execution of one or more blocks.
type Result struct {
	ExitCode int
	Output   string
	Files    []string // files written to the work directory
}

// Succeeded reports whether every block exited with status zero.
func (r Result) Succeeded() bool { return r.ExitCode == 0 }

// String renders the result the way it is sent back to the code writer.
func (r Result) String() string {
	status := "execution succeeded"
	if !r.Succeeded() {
		status = "execution failed"
	}
	return fmt.Sprintf("exitcode: %d (%s)\nCode output: %s", r.ExitCode, status, r.Output)
}

// Executor runs code blocks.
type Executor interface {
	// Execute runs blocks in order and stops at the first failing block.
	Execute(ctx context.Context, blocks []Block) (Result, error)
}

var fence = regexp.MustCompile("(?s)```[ \\t]*([\\w+-]*)[ \\t]*\\r?\\n(.*?)```")

// ExtractBlocks returns the fenced blocks of text in order of appearance.
// Blocks without a language tag are reported with Language "".
func ExtractBlocks(text string) []Block {
	matches := fence.FindAllStringSubmatch(text, -1)
	blocks := make([]Block, 0, len(matches))
	for _, m := range matches {
		code := m[2]
		if strings.TrimSpace(code) == "" {
			continue
		}
		blocks = append(blocks, Block{Language: strings.ToLower(m[1]), Code: code})
	}
	return blocks
}

// Executable filters blocks down to languages the local executor can run.
func Executable(blocks []Block) []Block {
	var out []Block
	for _, b := range blocks {
		if _, ok := interpreters[b.Language]; ok {
			out = append(out, b)
		}
	}
	return out
}
