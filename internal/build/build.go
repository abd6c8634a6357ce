// SPDX-License-Identifier: MPL-2.0

// Package build runs the source monorepo build pipeline before a sync.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"
)

var (
	// DefaultSteps install dependencies, clean previous output, link the
	// workspace and build every package.
	DefaultSteps = []string{
		"yarn",
		"yarn clean:git",
		"yarn clean:lib",
		"npm run bootstrap",
		"npm run build",
	}

	// ErrToolNotFound is the sentinel wrapped by ToolNotFoundError.
	ErrToolNotFound = errors.New("build tool not found")

	// ErrInvalidStep is returned when a step cannot be parsed into a command.
	ErrInvalidStep = errors.New("invalid build step")
)

type (
	// Runner executes a single program in dir.
	Runner interface {
		Run(ctx context.Context, dir, name string, args []string) error
	}

	// ExecRunner runs programs as child processes wired to the given streams.
	ExecRunner struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Pipeline runs build steps in order, stopping at the first failure.
	Pipeline struct {
		Steps  []string
		Runner Runner
		Logger *log.Logger
		// LookPath resolves program names; exec.LookPath when nil.
		LookPath func(string) (string, error)
	}

	// ToolNotFoundError is returned when a step's program is not on PATH.
	ToolNotFoundError struct {
		Tool string
	}

	// StepError reports the step that failed.
	StepError struct {
		Step string
		Err  error
	}

	command struct {
		step string
		name string
		args []string
	}
)

// Error implements the error interface.
func (e *ToolNotFoundError) Error() string {
	name := e.Tool
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s is not installed", name)
}

// Unwrap returns ErrToolNotFound for errors.Is() compatibility.
func (e *ToolNotFoundError) Unwrap() error { return ErrToolNotFound }

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("build step %q failed: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error { return e.Err }

// ExitCode returns the step's exit status, or -1 when it did not exit normally.
func (e *StepError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// NewExecRunner returns a runner that inherits the process streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

// New returns a pipeline for steps, falling back to DefaultSteps when empty.
func New(steps []string, logger *log.Logger) *Pipeline {
	if len(steps) == 0 {
		steps = DefaultSteps
	}
	return &Pipeline{Steps: steps, Runner: NewExecRunner(), Logger: logger}
}

// Build runs every step in root. All programs are resolved before the first
// step runs so a missing tool fails fast.
func (p *Pipeline) Build(ctx context.Context, root string) error {
	cmds, err := p.parse()
	if err != nil {
		return err
	}

	lookPath := p.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	seen := map[string]bool{}
	for _, c := range cmds {
		if seen[c.name] {
			continue
		}
		seen[c.name] = true
		if _, err := lookPath(c.name); err != nil {
			return &ToolNotFoundError{Tool: c.name}
		}
	}

	runner := p.Runner
	if runner == nil {
		runner = NewExecRunner()
	}
	for i, c := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.Logger != nil {
			p.Logger.Info("Running "+c.step, "step", fmt.Sprintf("%d/%d", i+1, len(cmds)))
		}
		if err := runner.Run(ctx, root, c.name, c.args); err != nil {
			return &StepError{Step: c.step, Err: err}
		}
	}
	return nil
}

func (p *Pipeline) parse() ([]command, error) {
	cmds := make([]command, 0, len(p.Steps))
	for _, step := range p.Steps {
		fields, err := shell.Fields(step, nil)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidStep, step, err)
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w %q: empty command", ErrInvalidStep, step)
		}
		cmds = append(cmds, command{step: step, name: fields[0], args: fields[1:]})
	}
	return cmds, nil
}
