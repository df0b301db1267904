// SPDX-License-Identifier: MPL-2.0

// Package buildrun runs the project's build tool.
//
// Commands are POSIX shell lines interpreted in-process by mvdan/sh, so
// `make`, `make run ARCH=riscv64` and small pipelines behave the same on
// every platform; external programs are exec'd from PATH.
package buildrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/lktool/lktool/pkg/types"
)

var (
	// ErrInvalidCommand is returned for an empty or unparsable command line.
	ErrInvalidCommand = errors.New("invalid build command")
	// ErrCommandFailed is returned when the command exits non-zero.
	ErrCommandFailed = errors.New("build command failed")
)

type (
	// Runner executes build commands.
	Runner struct {
		// Env is the command environment. Nil inherits the process environment.
		Env    []string
		Stdin  io.Reader
		Logger *slog.Logger
	}

	// Request is one command invocation.
	Request struct {
		Dir     types.FilesystemPath
		Command string
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// CommandFailedError carries the exit status of a failed command.
	CommandFailedError struct {
		Command  string
		ExitCode types.ExitCode
	}

	// InvalidCommandError reports a command line that cannot be run.
	InvalidCommandError struct {
		Command string
		Err     error
	}
)

// Error implements the error interface.
func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("%q exited with status %d", e.Command, e.ExitCode)
}

// Unwrap returns ErrCommandFailed for errors.Is() compatibility.
func (e *CommandFailedError) Unwrap() error { return ErrCommandFailed }

// Error implements the error interface.
func (e *InvalidCommandError) Error() string {
	if e.Err == nil {
		return "build command is empty"
	}
	return fmt.Sprintf("cannot parse build command %q: %v", e.Command, e.Err)
}

// Unwrap returns both the sentinel and the parse error.
func (e *InvalidCommandError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidCommand}
	}
	return []error{ErrInvalidCommand, e.Err}
}

// Run executes req.Command in req.Dir and waits for it. A non-zero exit is
// reported as *CommandFailedError.
func (r *Runner) Run(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Command) == "" {
		return &InvalidCommandError{Command: req.Command}
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(req.Command), "command")
	if err != nil {
		return &InvalidCommandError{Command: req.Command, Err: err}
	}

	env := r.Env
	if env == nil {
		env = os.Environ()
	}
	stdout, stderr := req.Stdout, req.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(r.Stdin, stdout, stderr),
		interp.ExecHandlers(r.logExec),
	}
	if req.Dir != "" {
		opts = append(opts, interp.Dir(string(req.Dir)))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	r.logger().Debug("running build command", "command", req.Command, "dir", req.Dir)
	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return &CommandFailedError{Command: req.Command, ExitCode: types.ExitCode(status)}
		}
		return fmt.Errorf("failed to run %q: %w", req.Command, err)
	}
	return nil
}

func (r *Runner) logExec(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		r.logger().Debug("exec", "args", args)
		return next(ctx, args)
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}
